package notification

import (
	"github.com/smallbiznis/civicpulse/internal/events"
	"github.com/smallbiznis/civicpulse/internal/notification/repository"
	"github.com/smallbiznis/civicpulse/internal/notification/service"
	"go.uber.org/fx"
)

var Module = fx.Module("notification.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
	fx.Provide(events.AsHandler(service.NewEventHandler)),
)

package gamification

import (
	"github.com/smallbiznis/civicpulse/internal/events"
	"github.com/smallbiznis/civicpulse/internal/gamification/repository"
	"github.com/smallbiznis/civicpulse/internal/gamification/service"
	"go.uber.org/fx"
)

var Module = fx.Module("gamification.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
	fx.Provide(events.AsHandler(service.NewEventHandler)),
)

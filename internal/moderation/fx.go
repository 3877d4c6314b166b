package moderation

import (
	"github.com/smallbiznis/civicpulse/internal/moderation/repository"
	"github.com/smallbiznis/civicpulse/internal/moderation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("moderation.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)

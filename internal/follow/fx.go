package follow

import (
	"github.com/smallbiznis/civicpulse/internal/follow/repository"
	"github.com/smallbiznis/civicpulse/internal/follow/service"
	"go.uber.org/fx"
)

var Module = fx.Module("follow.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)

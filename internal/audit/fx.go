package audit

import (
	"github.com/smallbiznis/civicpulse/internal/audit/repository"
	"github.com/smallbiznis/civicpulse/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)

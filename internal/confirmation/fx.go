package confirmation

import (
	"github.com/smallbiznis/civicpulse/internal/confirmation/domain"
	"github.com/smallbiznis/civicpulse/internal/confirmation/repository"
	"github.com/smallbiznis/civicpulse/internal/confirmation/service"
	reportdomain "github.com/smallbiznis/civicpulse/internal/report/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("confirmation.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(
		fx.Annotate(
			service.NewService,
			fx.As(new(domain.Service), new(reportdomain.ResolutionEvaluator)),
		),
	),
)

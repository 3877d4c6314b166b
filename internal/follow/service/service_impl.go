package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/civicpulse/internal/actor"
	"github.com/smallbiznis/civicpulse/internal/authorization"
	"github.com/smallbiznis/civicpulse/internal/clock"
	"github.com/smallbiznis/civicpulse/internal/events"
	"github.com/smallbiznis/civicpulse/internal/follow/domain"
	reportdomain "github.com/smallbiznis/civicpulse/internal/report/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       domain.Repository
	ReportRepo reportdomain.Repository
	Authz      authorization.Service
	Events     events.Publisher
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       domain.Repository
	reportRepo reportdomain.Repository
	authz      authorization.Service
	events     events.Publisher
}

func NewService(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("follow.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		reportRepo: p.ReportRepo,
		authz:      p.Authz,
		events:     p.Events,
	}
}

// Toggle follows the report when the actor is not following it yet and
// unfollows it otherwise.
func (s *Service) Toggle(ctx context.Context, reportID string, a actor.Actor) (*domain.ToggleResult, error) {
	if err := a.Require(); err != nil {
		return nil, err
	}
	id, err := snowflake.ParseString(reportID)
	if err != nil || id <= 0 {
		return nil, domain.ErrInvalidReport
	}
	if err := s.authz.Authorize(ctx, a, authorization.ObjectReport, authorization.ActionReportFollow); err != nil {
		return nil, err
	}

	report, err := s.reportRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if report == nil || !report.VisibleTo(a.Admin) {
		return nil, reportdomain.ErrReportNotFound
	}

	following, newFollow := false, false
	now := s.clock.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		reports := s.reportRepo.WithTx(tx)

		exists, err := repo.Exists(ctx, id, a.UserID)
		if err != nil {
			return err
		}
		if exists {
			removed, err := repo.Delete(ctx, id, a.UserID)
			if err != nil {
				return err
			}
			if removed {
				return reports.AdjustFollowerCount(ctx, id, -1)
			}
			return nil
		}

		inserted, err := repo.Insert(ctx, domain.Follow{
			ID:        s.genID.Generate(),
			ReportID:  id,
			UserID:    a.UserID,
			CreatedAt: now,
		})
		if err != nil {
			return err
		}
		following = true
		newFollow = inserted
		if inserted {
			return reports.AdjustFollowerCount(ctx, id, 1)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.reportRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	count := report.FollowerCount
	if updated != nil {
		count = updated.FollowerCount
	}

	if newFollow {
		s.events.Publish(ctx, events.Event{
			Type:     events.ReportFollowed,
			ReportID: id,
			ActorID:  a.UserID,
			OwnerID:  report.UserID,
		})
	}

	s.log.Debug("follow toggled",
		zap.String("report_id", id.String()),
		zap.String("user_id", a.UserID.String()),
		zap.Bool("following", following),
	)

	return &domain.ToggleResult{
		ReportID:      id,
		Following:     following,
		FollowerCount: count,
	}, nil
}

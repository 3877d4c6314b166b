package service

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/civicpulse/internal/actor"
	"github.com/smallbiznis/civicpulse/internal/authorization"
	"github.com/smallbiznis/civicpulse/internal/clock"
	"github.com/smallbiznis/civicpulse/internal/config"
	"github.com/smallbiznis/civicpulse/internal/confirmation/domain"
	"github.com/smallbiznis/civicpulse/internal/events"
	obslogger "github.com/smallbiznis/civicpulse/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/civicpulse/internal/observability/metrics"
	reportdomain "github.com/smallbiznis/civicpulse/internal/report/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var errResolutionMissing = errors.New("resolved_report_missing_resolution")

type Params struct {
	fx.In

	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Config     config.Config
	Repo       domain.Repository
	ReportRepo reportdomain.Repository
	Authz      authorization.Service
	Events     events.Publisher
	Metrics    *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	policy     domain.Policy
	repo       domain.Repository
	reportRepo reportdomain.Repository
	authz      authorization.Service
	events     events.Publisher
	metrics    *obsmetrics.Metrics
}

func NewService(p Params) *Service {
	window := p.Config.ResolutionWindow
	if window <= 0 {
		window = domain.DefaultWindow
	}
	return &Service{
		log:   p.Log.Named("confirmation.service"),
		genID: p.GenID,
		clock: p.Clock,
		policy: domain.Policy{
			CloseThreshold: domain.DefaultCloseThreshold,
			Window:         window,
		},
		repo:       p.Repo,
		reportRepo: p.ReportRepo,
		authz:      p.Authz,
		events:     p.Events,
		metrics:    p.Metrics,
	}
}

func (s *Service) CastVote(ctx context.Context, reportID string, a actor.Actor, vote string) (*domain.CastVoteResult, error) {
	if err := a.Require(); err != nil {
		return nil, err
	}
	id, err := parseReportID(reportID)
	if err != nil {
		return nil, err
	}
	value, err := domain.ParseVote(vote)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, a, authorization.ObjectReport, authorization.ActionReportVote); err != nil {
		return nil, err
	}

	report, err := s.reportRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if report == nil || !report.VisibleTo(a.Admin) {
		return nil, reportdomain.ErrReportNotFound
	}
	if report.Status != reportdomain.StatusResolved {
		return nil, domain.ErrReportNotResolved
	}

	confirmation := domain.Confirmation{
		ID:        s.genID.Generate(),
		ReportID:  id,
		UserID:    a.UserID,
		Vote:      value,
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.Insert(ctx, confirmation); err != nil {
		return nil, err
	}

	log := obslogger.WithReport(obslogger.WithContext(ctx, s.log), id.String())
	if stored, err := s.repo.FindVote(ctx, id, a.UserID); err != nil {
		log.Warn("failed to reload vote", zap.Error(err))
	} else if stored != nil {
		confirmation = *stored
	}
	log.Info("vote cast",
		zap.String("user_id", a.UserID.String()),
		zap.String("vote", string(value)),
	)
	s.metrics.RecordVote(ctx, string(value))
	s.events.Publish(ctx, events.Event{
		Type:     events.VoteCast,
		ReportID: id,
		ActorID:  a.UserID,
		OwnerID:  report.UserID,
		Vote:     string(value),
	})

	// The vote is committed; arbiter failures are retried by later reads and
	// the expiry sweep.
	outcome, err := s.Evaluate(ctx, id, events.TriggerVote)
	if err != nil {
		log.Warn("arbiter evaluation failed after vote", zap.Error(err))
		outcome = domain.OutcomeNone
	}

	var tally domain.Tally
	if report.ResolvedAt != nil {
		tally, err = s.repo.Tally(ctx, id, *report.ResolvedAt)
		if err != nil {
			log.Warn("failed to reload tally", zap.Error(err))
		}
	}

	return &domain.CastVoteResult{
		Vote:    confirmation,
		Tally:   tally,
		Outcome: outcome,
	}, nil
}

func (s *Service) GetTally(ctx context.Context, reportID string, viewer actor.Actor) (*domain.TallyResponse, error) {
	id, err := parseReportID(reportID)
	if err != nil {
		return nil, err
	}
	report, err := s.reportRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if report == nil || !report.VisibleTo(viewer.Admin) {
		return nil, reportdomain.ErrReportNotFound
	}

	resp := &domain.TallyResponse{
		ReportID: id,
		Status:   string(report.Status),
	}
	if report.Status != reportdomain.StatusResolved || report.ResolvedAt == nil {
		return resp, nil
	}

	resolvedAt := *report.ResolvedAt
	expiresAt := resolvedAt.Add(s.policy.Window)
	resp.ResolvedAt = &resolvedAt
	resp.ExpiresAt = &expiresAt

	resp.Tally, err = s.repo.Tally(ctx, id, resolvedAt)
	if err != nil {
		return nil, err
	}

	if !viewer.IsSystem() {
		mine, err := s.repo.FindVote(ctx, id, viewer.UserID)
		if err != nil {
			return nil, err
		}
		if mine != nil {
			resp.MyVote = &mine.Vote
		}
	}
	return resp, nil
}

// EvaluateResolution adapts Evaluate to the report service contract.
func (s *Service) EvaluateResolution(ctx context.Context, reportID snowflake.ID, trigger string) error {
	_, err := s.Evaluate(ctx, reportID, trigger)
	return err
}

func parseReportID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(raw)
	if err != nil || id <= 0 {
		return 0, domain.ErrInvalidReport
	}
	return id, nil
}

var (
	_ domain.Service                   = (*Service)(nil)
	_ reportdomain.ResolutionEvaluator = (*Service)(nil)
)

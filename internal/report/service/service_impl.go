package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/civicpulse/internal/actor"
	"github.com/smallbiznis/civicpulse/internal/authorization"
	"github.com/smallbiznis/civicpulse/internal/clock"
	"github.com/smallbiznis/civicpulse/internal/config"
	"github.com/smallbiznis/civicpulse/internal/events"
	followdomain "github.com/smallbiznis/civicpulse/internal/follow/domain"
	obslogger "github.com/smallbiznis/civicpulse/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/civicpulse/internal/observability/metrics"
	"github.com/smallbiznis/civicpulse/internal/report/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultResolutionWindow = 72 * time.Hour

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Config     config.Config
	Repo       domain.Repository
	FollowRepo followdomain.Repository
	Authz      authorization.Service
	Events     events.Publisher
	Evaluator  domain.ResolutionEvaluator `optional:"true"`
	Metrics    *obsmetrics.Metrics        `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	window     time.Duration
	repo       domain.Repository
	followRepo followdomain.Repository
	authz      authorization.Service
	events     events.Publisher
	evaluator  domain.ResolutionEvaluator
	metrics    *obsmetrics.Metrics
}

func NewService(p Params) domain.Service {
	window := p.Config.ResolutionWindow
	if window <= 0 {
		window = defaultResolutionWindow
	}
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("report.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		window:     window,
		repo:       p.Repo,
		followRepo: p.FollowRepo,
		authz:      p.Authz,
		events:     p.Events,
		evaluator:  p.Evaluator,
		metrics:    p.Metrics,
	}
}

// Create files a new report. The creator follows it from the start.
func (s *Service) Create(ctx context.Context, a actor.Actor, req domain.CreateReportRequest) (*domain.Report, error) {
	if err := a.Require(); err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, a, authorization.ObjectReport, authorization.ActionReportCreate); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" || utf8.RuneCountInString(title) > domain.MaxTitleLength {
		return nil, domain.ErrInvalidTitle
	}
	description := strings.TrimSpace(req.Description)
	if description == "" || utf8.RuneCountInString(description) > domain.MaxDescriptionLength {
		return nil, domain.ErrInvalidDescription
	}
	category := domain.Category(strings.ToLower(strings.TrimSpace(req.Category)))
	if !category.Valid() {
		return nil, domain.ErrInvalidCategory
	}
	if !validCoordinates(req.Latitude, req.Longitude) {
		return nil, domain.ErrInvalidCoordinates
	}

	reportSlug := slug.Make(title)
	if reportSlug == "" {
		reportSlug = "report"
	}

	now := s.clock.Now()
	report := domain.Report{
		ID:            s.genID.Generate(),
		UserID:        a.UserID,
		Title:         title,
		Slug:          reportSlug,
		Description:   description,
		Category:      category,
		Status:        domain.StatusOpen,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		AreaName:      optionalString(req.AreaName),
		PhotoURL:      optionalString(req.PhotoURL),
		FollowerCount: 1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Insert(ctx, report); err != nil {
			return err
		}
		_, err := s.followRepo.WithTx(tx).Insert(ctx, followdomain.Follow{
			ID:        s.genID.Generate(),
			ReportID:  report.ID,
			UserID:    a.UserID,
			CreatedAt: now,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	obslogger.WithReport(obslogger.WithContext(ctx, s.log), report.ID.String()).Info("report created",
		zap.String("category", string(category)),
	)
	s.metrics.RecordReportCreated(ctx, string(category))
	s.events.Publish(ctx, events.Event{
		Type:     events.ReportCreated,
		ReportID: report.ID,
		ActorID:  a.UserID,
		OwnerID:  a.UserID,
		ToStatus: string(domain.StatusOpen),
	})

	return &report, nil
}

// Get returns a visible report. A resolved report whose confirmation window
// has elapsed is evaluated before it is returned.
func (s *Service) Get(ctx context.Context, id string, viewer actor.Actor) (*domain.Report, error) {
	reportID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	report, err := s.load(ctx, reportID, viewer)
	if err != nil {
		return nil, err
	}

	if s.evaluator == nil || report.Status != domain.StatusResolved || report.ResolvedAt == nil {
		return report, nil
	}
	if s.clock.Now().Sub(*report.ResolvedAt) < s.window {
		return report, nil
	}

	if err := s.evaluator.EvaluateResolution(ctx, reportID, events.TriggerRead); err != nil {
		obslogger.WithReport(obslogger.WithContext(ctx, s.log), reportID.String()).Warn("lazy resolution evaluation failed", zap.Error(err))
		return report, nil
	}
	return s.load(ctx, reportID, viewer)
}

func (s *Service) CommunityStats(ctx context.Context) (*domain.CommunityStats, error) {
	counts, err := s.repo.CountByStatus(ctx, false)
	if err != nil {
		return nil, err
	}
	return &domain.CommunityStats{
		Open:       counts[domain.StatusOpen],
		InProgress: counts[domain.StatusInProgress],
		Resolved:   counts[domain.StatusResolved],
		Closed:     counts[domain.StatusClosed],
	}, nil
}

// RequestStatusChange advances a report along open, in_progress, resolved,
// closed. Anyone may propose a resolution; other targets need the creator or
// an administrator.
func (s *Service) RequestStatusChange(ctx context.Context, id string, requested string, a actor.Actor) (*domain.Report, error) {
	if err := a.Require(); err != nil {
		return nil, err
	}
	reportID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	to, err := domain.ParseStatus(requested)
	if err != nil {
		return nil, err
	}

	report, err := s.load(ctx, reportID, a)
	if err != nil {
		return nil, err
	}
	from := report.Status
	if !domain.CanAdvance(from, to) {
		return nil, domain.ErrInvalidTransition
	}
	if err := s.authorizeTransition(ctx, report, to, a); err != nil {
		return nil, err
	}

	var resolvedBy *snowflake.ID
	if to == domain.StatusResolved {
		resolver := a.UserID
		resolvedBy = &resolver
	}

	updated, err := s.repo.AdvanceStatus(ctx, reportID, from, to, resolvedBy, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, domain.ErrStatusConflict
	}

	obslogger.WithReport(obslogger.WithContext(ctx, s.log), reportID.String()).Info("report status changed",
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("actor_id", a.UserID.String()),
	)
	s.metrics.RecordStatusTransition(ctx, string(from), string(to), events.TriggerManual)

	evt := events.Event{
		Type:       events.ReportStatusChanged,
		ReportID:   reportID,
		ActorID:    a.UserID,
		OwnerID:    report.UserID,
		FromStatus: string(from),
		ToStatus:   string(to),
		Trigger:    events.TriggerManual,
	}
	if resolvedBy != nil {
		evt.ResolverID = *resolvedBy
	}
	s.events.Publish(ctx, evt)

	return s.load(ctx, reportID, a)
}

func (s *Service) authorizeTransition(ctx context.Context, report *domain.Report, to domain.Status, a actor.Actor) error {
	if to == domain.StatusResolved {
		return s.authz.Authorize(ctx, a, authorization.ObjectReport, authorization.ActionReportProposeResolution)
	}
	if report.UserID == a.UserID {
		return nil
	}
	err := s.authz.Authorize(ctx, a, authorization.ObjectReport, authorization.ActionReportTransitionAny)
	if errors.Is(err, authorization.ErrForbidden) {
		return domain.ErrNotAuthorized
	}
	return err
}

func (s *Service) load(ctx context.Context, id snowflake.ID, viewer actor.Actor) (*domain.Report, error) {
	report, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if report == nil || !report.VisibleTo(viewer.Admin) {
		return nil, domain.ErrReportNotFound
	}
	return report, nil
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id <= 0 {
		return 0, domain.ErrInvalidReport
	}
	return id, nil
}

func validCoordinates(lat, lng *float64) bool {
	if lat == nil && lng == nil {
		return true
	}
	if lat == nil || lng == nil {
		return false
	}
	return *lat >= -90 && *lat <= 90 && *lng >= -180 && *lng <= 180
}

func optionalString(raw string) *string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil
	}
	return &value
}

package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/civicpulse/internal/actor"
	"github.com/smallbiznis/civicpulse/internal/authorization"
	"github.com/smallbiznis/civicpulse/internal/clock"
	"github.com/smallbiznis/civicpulse/internal/comment/domain"
	"github.com/smallbiznis/civicpulse/internal/events"
	obslogger "github.com/smallbiznis/civicpulse/internal/observability/logger"
	reportdomain "github.com/smallbiznis/civicpulse/internal/report/domain"
	"github.com/smallbiznis/civicpulse/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

type Params struct {
	fx.In

	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       domain.Repository
	ReportRepo reportdomain.Repository
	Authz      authorization.Service
	Events     events.Publisher
}

type Service struct {
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
		log:        p.Log.Named("comment.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		reportRepo: p.ReportRepo,
		authz:      p.Authz,
		events:     p.Events,
	}
}

func (s *Service) Add(ctx context.Context, reportID string, a actor.Actor, req domain.CreateCommentRequest) (*domain.Comment, error) {
	if err := a.Require(); err != nil {
		return nil, err
	}
	id, err := parseReportID(reportID)
	if err != nil {
		return nil, err
	}
	content := strings.TrimSpace(req.Content)
	if content == "" || utf8.RuneCountInString(content) > domain.MaxContentLength {
		return nil, domain.ErrInvalidContent
	}
	if err := s.authz.Authorize(ctx, a, authorization.ObjectComment, authorization.ActionCommentCreate); err != nil {
		return nil, err
	}

	report, err := s.reportRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if report == nil || !report.VisibleTo(a.Admin) {
		return nil, reportdomain.ErrReportNotFound
	}
	if report.CommentsLocked {
		return nil, domain.ErrCommentsLocked
	}

	comment := domain.Comment{
		ID:        s.genID.Generate(),
		ReportID:  id,
		UserID:    a.UserID,
		Content:   content,
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.Insert(ctx, comment); err != nil {
		return nil, err
	}

	obslogger.WithReport(obslogger.WithContext(ctx, s.log), id.String()).Debug("comment added",
		zap.String("comment_id", comment.ID.String()),
	)
	s.events.Publish(ctx, events.Event{
		Type:      events.CommentCreated,
		ReportID:  id,
		ActorID:   a.UserID,
		OwnerID:   report.UserID,
		CommentID: comment.ID,
	})
	return &comment, nil
}

func (s *Service) List(ctx context.Context, reportID string, viewer actor.Actor, req domain.ListCommentRequest) (domain.ListCommentResponse, error) {
	id, err := parseReportID(reportID)
	if err != nil {
		return domain.ListCommentResponse{}, err
	}
	report, err := s.reportRepo.FindByID(ctx, id)
	if err != nil {
		return domain.ListCommentResponse{}, err
	}
	if report == nil || !report.VisibleTo(viewer.Admin) {
		return domain.ListCommentResponse{}, reportdomain.ErrReportNotFound
	}

	pageSize := req.PageSize
	switch {
	case pageSize <= 0:
		pageSize = defaultPageSize
	case pageSize > maxPageSize:
		pageSize = maxPageSize
	}

	var afterID snowflake.ID
	if token := strings.TrimSpace(req.PageToken); token != "" {
		cursor, err := pagination.DecodeCursor(token)
		if err != nil {
			return domain.ListCommentResponse{}, domain.ErrInvalidPageToken
		}
		afterID, err = snowflake.ParseString(cursor.ID)
		if err != nil {
			return domain.ListCommentResponse{}, domain.ErrInvalidPageToken
		}
	}

	items, err := s.repo.ListByReport(ctx, id, afterID, pageSize+1)
	if err != nil {
		return domain.ListCommentResponse{}, err
	}
	pageInfo := pagination.BuildCursorPageInfo(items, int32(pageSize), func(c *domain.Comment) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{ID: c.ID.String()})
		return token
	})
	if len(items) > pageSize {
		items = items[:pageSize]
	}
	if items == nil {
		items = []*domain.Comment{}
	}

	return domain.ListCommentResponse{
		Comments: items,
		PageInfo: *pageInfo,
	}, nil
}

func parseReportID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id <= 0 {
		return 0, domain.ErrInvalidReport
	}
	return id, nil
}

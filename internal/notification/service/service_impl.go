package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/civicpulse/internal/clock"
	followdomain "github.com/smallbiznis/civicpulse/internal/follow/domain"
	"github.com/smallbiznis/civicpulse/internal/notification/domain"
	obsmetrics "github.com/smallbiznis/civicpulse/internal/observability/metrics"
	"github.com/smallbiznis/civicpulse/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type Params struct {
	fx.In

	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       domain.Repository
	FollowRepo followdomain.Repository
	Redis      *redis.Client       `optional:"true"`
	Metrics    *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       domain.Repository
	followRepo followdomain.Repository
	realtime   RealtimePublisher
	metrics    *obsmetrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		log:        p.Log.Named("notification.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		followRepo: p.FollowRepo,
		realtime:   NewRedisPublisher(p.Redis),
		metrics:    p.Metrics,
	}
}

// NotifyFollowers stores one notification per follower of the report except
// excludeUserID and returns how many were written.
func (s *Service) NotifyFollowers(ctx context.Context, reportID snowflake.ID, typ domain.Type, message string, excludeUserID snowflake.ID) (int, error) {
	if reportID == 0 || strings.TrimSpace(message) == "" {
		return 0, domain.ErrInvalidNotification
	}

	followers, err := s.followRepo.ListFollowerIDs(ctx, reportID)
	if err != nil {
		return 0, err
	}

	now := s.clock.Now()
	rows := make([]domain.Notification, 0, len(followers))
	for _, userID := range followers {
		if userID == excludeUserID {
			continue
		}
		rid := reportID
		rows = append(rows, domain.Notification{
			ID:        s.genID.Generate(),
			UserID:    userID,
			ReportID:  &rid,
			Type:      typ,
			Message:   message,
			Metadata:  datatypes.JSONMap{},
			CreatedAt: now,
		})
	}
	if len(rows) == 0 {
		return 0, nil
	}

	if err := s.repo.InsertBatch(ctx, rows); err != nil {
		return 0, err
	}
	s.metrics.RecordNotifications(ctx, string(typ), len(rows))
	s.publishRealtime(ctx, reportID, typ, message, len(rows))

	return len(rows), nil
}

func (s *Service) NotifyUser(ctx context.Context, userID snowflake.ID, reportID snowflake.ID, typ domain.Type, message string, metadata map[string]any) error {
	if userID == 0 || strings.TrimSpace(message) == "" {
		return domain.ErrInvalidNotification
	}

	row := domain.Notification{
		ID:        s.genID.Generate(),
		UserID:    userID,
		Type:      typ,
		Message:   message,
		Metadata:  datatypes.JSONMap{},
		CreatedAt: s.clock.Now(),
	}
	if reportID != 0 {
		rid := reportID
		row.ReportID = &rid
	}
	for k, v := range metadata {
		row.Metadata[k] = v
	}

	if err := s.repo.InsertBatch(ctx, []domain.Notification{row}); err != nil {
		return err
	}
	s.metrics.RecordNotifications(ctx, string(typ), 1)
	return nil
}

func (s *Service) List(ctx context.Context, userID snowflake.ID, req domain.ListNotificationRequest) (domain.ListNotificationResponse, error) {
	if userID == 0 {
		return domain.ListNotificationResponse{}, domain.ErrInvalidNotification
	}

	pageSize := req.PageSize
	switch {
	case pageSize <= 0:
		pageSize = defaultPageSize
	case pageSize > maxPageSize:
		pageSize = maxPageSize
	}

	var beforeID snowflake.ID
	if token := strings.TrimSpace(req.PageToken); token != "" {
		cursor, err := pagination.DecodeCursor(token)
		if err != nil {
			return domain.ListNotificationResponse{}, domain.ErrInvalidPageToken
		}
		beforeID, err = snowflake.ParseString(cursor.ID)
		if err != nil {
			return domain.ListNotificationResponse{}, domain.ErrInvalidPageToken
		}
	}

	items, err := s.repo.ListByUser(ctx, userID, beforeID, pageSize+1)
	if err != nil {
		return domain.ListNotificationResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(pageSize), func(n *domain.Notification) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{ID: n.ID.String()})
		return token
	})
	if len(items) > pageSize {
		items = items[:pageSize]
	}

	return domain.ListNotificationResponse{
		Notifications: items,
		PageInfo:      *pageInfo,
	}, nil
}

func (s *Service) MarkRead(ctx context.Context, userID snowflake.ID, id string) error {
	notificationID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || notificationID <= 0 {
		return domain.ErrInvalidNotification
	}
	updated, err := s.repo.MarkRead(ctx, userID, notificationID, s.clock.Now())
	if err != nil {
		return err
	}
	if !updated {
		return domain.ErrNotificationNotFound
	}
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, userID snowflake.ID) (int64, error) {
	if userID <= 0 {
		return 0, domain.ErrInvalidNotification
	}
	return s.repo.MarkAllRead(ctx, userID, s.clock.Now())
}

func (s *Service) publishRealtime(ctx context.Context, reportID snowflake.ID, typ domain.Type, message string, recipients int) {
	if s.realtime == nil {
		return
	}
	payload, err := encodeRealtime(reportID, typ, message, recipients, s.clock.Now())
	if err != nil {
		return
	}
	if err := s.realtime.Publish(ctx, realtimeChannel(reportID), payload); err != nil {
		s.log.Warn("realtime publish failed",
			zap.String("report_id", reportID.String()),
			zap.Error(err),
		)
	}
}

package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/civicpulse/pkg/db/pagination"
)

var (
	ErrInvalidNotification  = errors.New("invalid_notification")
	ErrNotificationNotFound = errors.New("notification_not_found")
	ErrInvalidPageToken     = errors.New("invalid_page_token")
)

// Notifier is the fire-and-forget emission contract used by the lifecycle engine.
type Notifier interface {
	NotifyFollowers(ctx context.Context, reportID snowflake.ID, typ Type, message string, excludeUserID snowflake.ID) (int, error)
	NotifyUser(ctx context.Context, userID snowflake.ID, reportID snowflake.ID, typ Type, message string, metadata map[string]any) error
}

type Service interface {
	Notifier
	List(ctx context.Context, userID snowflake.ID, req ListNotificationRequest) (ListNotificationResponse, error)
	MarkRead(ctx context.Context, userID snowflake.ID, id string) error
	// MarkAllRead marks every unread notification of the user as read and
	// returns how many changed.
	MarkAllRead(ctx context.Context, userID snowflake.ID) (int64, error)
}

type ListNotificationRequest struct {
	pagination.Pagination
}

type ListNotificationResponse struct {
	Notifications []*Notification     `json:"notifications"`
	PageInfo      pagination.PageInfo `json:"page_info"`
}

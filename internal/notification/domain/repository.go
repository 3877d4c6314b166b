package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	InsertBatch(ctx context.Context, notifications []Notification) error
	ListByUser(ctx context.Context, userID snowflake.ID, beforeID snowflake.ID, limit int) ([]*Notification, error)
	MarkRead(ctx context.Context, userID, id snowflake.ID, now time.Time) (bool, error)
	MarkAllRead(ctx context.Context, userID snowflake.ID, now time.Time) (int64, error)
}

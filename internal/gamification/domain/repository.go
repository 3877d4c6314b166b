package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	InsertPointEvent(ctx context.Context, event PointEvent) error
	IncrementTotalPoints(ctx context.Context, userID snowflake.ID, delta int, now time.Time) (bool, error)
	ListRecentPointEvents(ctx context.Context, userID snowflake.ID, limit int) ([]PointEvent, error)

	FindUserStats(ctx context.Context, userID snowflake.ID) (*UserStats, error)
	// LockUserStats reads the stats row with a row lock for the enclosing transaction.
	LockUserStats(ctx context.Context, userID snowflake.ID) (*UserStats, error)
	UpdateStreak(ctx context.Context, userID snowflake.ID, streak Streak, now time.Time) error

	// InsertBadge returns false when the tier is already held.
	InsertBadge(ctx context.Context, award BadgeAward) (bool, error)
	ListBadges(ctx context.Context, userID snowflake.ID) ([]BadgeAward, error)

	CountReportsCreated(ctx context.Context, userID snowflake.ID) (int64, error)
	CountCommentsOnOthersReports(ctx context.Context, userID snowflake.ID) (int64, error)
	CountConfirmedVotes(ctx context.Context, userID snowflake.ID) (int64, error)

	ListTotalDrift(ctx context.Context, afterUserID snowflake.ID, limit int) ([]TotalDrift, error)
	RecomputeTotal(ctx context.Context, userID snowflake.ID, now time.Time) error
}

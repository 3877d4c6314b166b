package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrInvalidUser   = errors.New("invalid_user")
	ErrUserNotFound  = errors.New("user_not_found")
	ErrUnknownAction = errors.New("unknown_point_action")
)

type Service interface {
	AwardPoints(ctx context.Context, userID snowflake.ID, action Action, reportID *snowflake.ID) (*PointEvent, error)
	UpdateStreak(ctx context.Context, userID snowflake.ID) (Streak, error)
	CheckAndAwardBadges(ctx context.Context, userID snowflake.ID) ([]NewBadge, error)
	Summary(ctx context.Context, userID string) (*Summary, error)
	ReconcileTotals(ctx context.Context, afterUserID snowflake.ID, limit int) (ReconcileResult, error)
}

type Summary struct {
	UserID         snowflake.ID    `json:"user_id"`
	TotalPoints    int64           `json:"total_points"`
	CurrentStreak  int             `json:"current_streak"`
	LongestStreak  int             `json:"longest_streak"`
	LastActiveDate *time.Time      `json:"last_active_date,omitempty"`
	Badges         []BadgeAward    `json:"badges"`
	Progress       []BadgeProgress `json:"progress"`
	RecentEvents   []PointEvent    `json:"recent_events"`
}

type BadgeProgress struct {
	Type          BadgeType `json:"type"`
	Count         int64     `json:"count"`
	NextTier      Tier      `json:"next_tier,omitempty"`
	NextThreshold int64     `json:"next_threshold,omitempty"`
}

type ReconcileResult struct {
	Scanned    int
	Fixed      int
	LastUserID snowflake.ID
}

package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/civicpulse/internal/actor"
	"gorm.io/gorm"
)

// Follow subscribes a user to updates on a report.
type Follow struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	ReportID  snowflake.ID `gorm:"not null;uniqueIndex:follows_report_user_unique,priority:1" json:"report_id"`
	UserID    snowflake.ID `gorm:"not null;uniqueIndex:follows_report_user_unique,priority:2" json:"user_id"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Follow) TableName() string { return "follows" }

var ErrInvalidReport = errors.New("invalid_report")

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	// Insert returns false when the user already follows the report.
	Insert(ctx context.Context, follow Follow) (bool, error)
	Delete(ctx context.Context, reportID, userID snowflake.ID) (bool, error)
	Exists(ctx context.Context, reportID, userID snowflake.ID) (bool, error)
	ListFollowerIDs(ctx context.Context, reportID snowflake.ID) ([]snowflake.ID, error)
}

type Service interface {
	Toggle(ctx context.Context, reportID string, a actor.Actor) (*ToggleResult, error)
}

type ToggleResult struct {
	ReportID      snowflake.ID `json:"report_id"`
	Following     bool         `json:"following"`
	FollowerCount int          `json:"follower_count"`
}

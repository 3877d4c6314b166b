// Package domain covers community flags and the administrator moderation
// actions taken on them.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/civicpulse/internal/actor"
	reportdomain "github.com/smallbiznis/civicpulse/internal/report/domain"
	"gorm.io/gorm"
)

const (
	MaxReasonLength = 500
	RecentFlagLimit = 50
	ExcerptLength   = 80
)

var (
	ErrInvalidTarget = errors.New("invalid_flag_target")
	ErrInvalidReason = errors.New("invalid_flag_reason")
	ErrInvalidUser   = errors.New("invalid_user")
)

// Flag points at exactly one of a report or a comment.
type Flag struct {
	ID        snowflake.ID  `gorm:"primaryKey" json:"id"`
	ReportID  *snowflake.ID `json:"report_id,omitempty"`
	CommentID *snowflake.ID `json:"comment_id,omitempty"`
	UserID    snowflake.ID  `gorm:"not null" json:"user_id"`
	Reason    string        `gorm:"type:text;not null" json:"reason"`
	CreatedAt time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Flag) TableName() string { return "flags" }

type TargetType string

const (
	TargetReport  TargetType = "report"
	TargetComment TargetType = "comment"
)

// FlagRow is a flag joined with the fields of the report or comment it targets.
// Title carries the report title or the comment content.
type FlagRow struct {
	ID             snowflake.ID
	ReportID       snowflake.ID
	CommentID      *snowflake.ID
	Reason         string
	Title          string
	IsHidden       bool
	CommentsLocked bool
	CreatedAt      time.Time
}

// FlaggedItem groups the recent flags raised against a single report or comment.
type FlaggedItem struct {
	LatestFlagID   snowflake.ID  `json:"latest_flag_id"`
	Type           TargetType    `json:"type"`
	ReportID       snowflake.ID  `json:"report_id"`
	CommentID      *snowflake.ID `json:"comment_id,omitempty"`
	Title          string        `json:"title"`
	FlagCount      int           `json:"flag_count"`
	Reasons        []string      `json:"reasons"`
	IsHidden       bool          `json:"is_hidden"`
	CommentsLocked bool          `json:"comments_locked"`
	CreatedAt      time.Time     `json:"created_at"`
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Insert(ctx context.Context, flag Flag) error
	Count(ctx context.Context) (int64, error)
	// ListRecentReportFlags and ListRecentCommentFlags return the newest flags
	// first.
	ListRecentReportFlags(ctx context.Context, limit int) ([]*FlagRow, error)
	ListRecentCommentFlags(ctx context.Context, limit int) ([]*FlagRow, error)
}

type Service interface {
	FlagReport(ctx context.Context, reportID string, a actor.Actor, req FlagRequest) (*Flag, error)
	FlagComment(ctx context.Context, commentID string, a actor.Actor, req FlagRequest) (*Flag, error)
	ListFlags(ctx context.Context, a actor.Actor) ([]*FlaggedItem, error)

	HideReport(ctx context.Context, reportID string, a actor.Actor) (*reportdomain.Report, error)
	UnhideReport(ctx context.Context, reportID string, a actor.Actor) (*reportdomain.Report, error)
	LockComments(ctx context.Context, reportID string, a actor.Actor) (*reportdomain.Report, error)
	UnlockComments(ctx context.Context, reportID string, a actor.Actor) (*reportdomain.Report, error)

	BanUser(ctx context.Context, userID string, a actor.Actor) error
	UnbanUser(ctx context.Context, userID string, a actor.Actor) error

	Stats(ctx context.Context, a actor.Actor) (*Stats, error)
}

type FlagRequest struct {
	Reason string `json:"reason"`
}

type Stats struct {
	TotalReports int64            `json:"total_reports"`
	ByStatus     map[string]int64 `json:"by_status"`
	FlagCount    int64            `json:"flag_count"`
}

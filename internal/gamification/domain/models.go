// Package domain holds the points ledger, streak and badge rules.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Action string

const (
	ActionCreateReport        Action = "create_report"
	ActionComment             Action = "comment"
	ActionNewFollower         Action = "new_follower"
	ActionConfirmationVote    Action = "confirmation_vote"
	ActionReportClosed        Action = "report_closed"
	ActionResolutionConfirmed Action = "resolution_confirmed"
	ActionBadgeUnlocked       Action = "badge_unlocked"
)

// PointEvent is an immutable ledger entry.
type PointEvent struct {
	ID        snowflake.ID  `gorm:"primaryKey" json:"id"`
	UserID    snowflake.ID  `gorm:"not null;index" json:"user_id"`
	ReportID  *snowflake.ID `json:"report_id,omitempty"`
	Action    Action        `gorm:"type:text;not null" json:"action"`
	Points    int           `gorm:"not null" json:"points"`
	CreatedAt time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (PointEvent) TableName() string { return "point_events" }

// BadgeAward is one unlocked tier. (user_id, type, tier) is unique.
type BadgeAward struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID    snowflake.ID `gorm:"not null;uniqueIndex:badges_user_type_tier_unique,priority:1" json:"user_id"`
	Type      BadgeType    `gorm:"type:text;not null;uniqueIndex:badges_user_type_tier_unique,priority:2" json:"type"`
	Tier      Tier         `gorm:"type:text;not null;uniqueIndex:badges_user_type_tier_unique,priority:3" json:"tier"`
	AwardedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"awarded_at"`
}

// TableName sets the database table name.
func (BadgeAward) TableName() string { return "badges" }

// UserStats are the cached aggregates stored on the user row.
type UserStats struct {
	UserID      snowflake.ID
	TotalPoints int64
	Streak      Streak
}

// TotalDrift is a user whose cached total disagrees with the ledger.
type TotalDrift struct {
	UserID snowflake.ID
	Cached int64
	Ledger int64
}

// Package domain contains the stored follower notifications.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Type string

const (
	TypeStatusChange        Type = "status_change"
	TypeNewComment          Type = "new_comment"
	TypeConfirmationRequest Type = "confirmation_request"
	TypeBadgeEarned         Type = "badge_earned"
	TypeReportFollowed      Type = "report_followed"
)

type Notification struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	UserID    snowflake.ID      `gorm:"not null;index" json:"user_id"`
	ReportID  *snowflake.ID     `json:"report_id,omitempty"`
	Type      Type              `gorm:"type:text;not null" json:"type"`
	Message   string            `gorm:"type:text;not null" json:"message"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata"`
	ReadAt    *time.Time        `json:"read_at,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Notification) TableName() string { return "notifications" }

// Package domain contains persistence models for the user service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a community member. Point and streak fields are owned by the
// gamification ledger and never written through this package.
type User struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	DisplayName    string       `gorm:"type:text;not null" json:"display_name"`
	Role           string       `gorm:"type:text;not null;default:'user'" json:"role"`
	IsBanned       bool         `gorm:"not null;default:false" json:"is_banned"`
	TotalPoints    int64        `gorm:"not null;default:0" json:"total_points"`
	CurrentStreak  int          `gorm:"not null;default:0" json:"current_streak"`
	LongestStreak  int          `gorm:"not null;default:0" json:"longest_streak"`
	LastActiveDate *time.Time   `gorm:"type:date" json:"last_active_date,omitempty"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

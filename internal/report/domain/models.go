// Package domain contains the report aggregate and its lifecycle rules.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Report is a citizen-filed civic issue. Reports are hidden, never deleted.
type Report struct {
	ID             snowflake.ID  `gorm:"primaryKey" json:"id"`
	UserID         snowflake.ID  `gorm:"not null;index" json:"user_id"`
	Title          string        `gorm:"type:text;not null" json:"title"`
	Slug           string        `gorm:"type:text;not null" json:"slug"`
	Description    string        `gorm:"type:text;not null" json:"description"`
	Category       Category      `gorm:"type:text;not null" json:"category"`
	Status         Status        `gorm:"type:text;not null;default:'open'" json:"status"`
	Latitude       *float64      `json:"latitude,omitempty"`
	Longitude      *float64      `json:"longitude,omitempty"`
	AreaName       *string       `gorm:"type:text" json:"area_name,omitempty"`
	PhotoURL       *string       `gorm:"type:text" json:"photo_url,omitempty"`
	FollowerCount  int           `gorm:"not null;default:0" json:"follower_count"`
	IsHidden       bool          `gorm:"not null;default:false" json:"is_hidden"`
	CommentsLocked bool          `gorm:"not null;default:false" json:"comments_locked"`
	ResolvedAt     *time.Time    `json:"resolved_at,omitempty"`
	ResolvedBy     *snowflake.ID `json:"resolved_by,omitempty"`
	StalledAt      *time.Time    `json:"stalled_at,omitempty"`
	CreatedAt      time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Report) TableName() string { return "reports" }

// ResolutionConsistent reports whether resolved_at and resolved_by are both set or both null.
func (r Report) ResolutionConsistent() bool {
	return (r.ResolvedAt == nil) == (r.ResolvedBy == nil)
}

// VisibleTo hides moderated reports from everyone except administrators.
func (r Report) VisibleTo(admin bool) bool {
	return !r.IsHidden || admin
}

type Category string

const (
	CategoryInfrastructure Category = "infrastructure"
	CategoryCleanliness    Category = "cleanliness"
	CategorySafety         Category = "safety"
	CategoryFacilities     Category = "facilities"
	CategoryOther          Category = "other"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryInfrastructure, CategoryCleanliness, CategorySafety, CategoryFacilities, CategoryOther:
		return true
	default:
		return false
	}
}

// Package domain holds confirmation votes and the resolution arbiter.
package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Vote string

const (
	VoteConfirmed Vote = "confirmed"
	VoteNotYet    Vote = "not_yet"
)

func ParseVote(raw string) (Vote, error) {
	switch v := Vote(strings.ToLower(strings.TrimSpace(raw))); v {
	case VoteConfirmed, VoteNotYet:
		return v, nil
	default:
		return "", ErrInvalidVote
	}
}

// Confirmation is one community vote on whether a resolved report is fixed.
type Confirmation struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	ReportID  snowflake.ID `gorm:"not null;uniqueIndex:confirmations_report_user_unique,priority:1" json:"report_id"`
	UserID    snowflake.ID `gorm:"not null;uniqueIndex:confirmations_report_user_unique,priority:2" json:"user_id"`
	Vote      Vote         `gorm:"type:text;not null" json:"vote"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Confirmation) TableName() string { return "confirmations" }

// Tally counts the votes of the current resolution cycle.
type Tally struct {
	Confirmed int64 `json:"confirmed"`
	NotYet    int64 `json:"not_yet"`
}

func (t Tally) Total() int64 { return t.Confirmed + t.NotYet }

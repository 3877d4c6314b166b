// Package events fans a committed lifecycle change out to in-process handlers.
package events

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Type string

const (
	ReportCreated       Type = "report.created"
	ReportStatusChanged Type = "report.status_changed"
	ReportClosed        Type = "report.closed"
	ReportReverted      Type = "report.reverted"
	VoteCast            Type = "confirmation.vote_cast"
	CommentCreated      Type = "comment.created"
	ReportFollowed      Type = "report.followed"
)

// Event describes something that already happened to a report. Fields that do
// not apply to a given type are left zero.
type Event struct {
	Key        string       `json:"key"`
	Type       Type         `json:"type"`
	ReportID   snowflake.ID `json:"report_id"`
	ActorID    snowflake.ID `json:"actor_id,omitempty"`
	OwnerID    snowflake.ID `json:"owner_id,omitempty"`
	ResolverID snowflake.ID `json:"resolver_id,omitempty"`
	CommentID  snowflake.ID `json:"comment_id,omitempty"`
	FromStatus string       `json:"from_status,omitempty"`
	ToStatus   string       `json:"to_status,omitempty"`
	Vote       string       `json:"vote,omitempty"`
	Trigger    string       `json:"trigger,omitempty"`
	OccurredAt time.Time    `json:"occurred_at"`
}

// Publisher is what domain services depend on to announce committed changes.
type Publisher interface {
	Publish(ctx context.Context, evt Event)
}

// Handler reacts to events. Lower Order runs first.
type Handler interface {
	Name() string
	Order() int
	Handle(ctx context.Context, evt Event) error
}

// Trigger values for arbiter driven transitions.
const (
	TriggerVote   = "vote"
	TriggerRead   = "read"
	TriggerSweep  = "sweep"
	TriggerManual = "manual"
)

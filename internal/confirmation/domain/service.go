package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/civicpulse/internal/actor"
)

var (
	ErrInvalidReport     = errors.New("invalid_report")
	ErrInvalidVote       = errors.New("invalid_vote")
	ErrAlreadyVoted      = errors.New("already_voted")
	ErrReportNotResolved = errors.New("report_not_resolved")
)

type Service interface {
	CastVote(ctx context.Context, reportID string, a actor.Actor, vote string) (*CastVoteResult, error)
	GetTally(ctx context.Context, reportID string, viewer actor.Actor) (*TallyResponse, error)
	// Evaluate runs the arbiter for a report. Reports that are not resolved
	// yield OutcomeNone.
	Evaluate(ctx context.Context, reportID snowflake.ID, trigger string) (Outcome, error)
	EvaluateResolution(ctx context.Context, reportID snowflake.ID, trigger string) error
}

type CastVoteRequest struct {
	Vote string `json:"vote"`
}

type CastVoteResult struct {
	Vote    Confirmation `json:"vote"`
	Tally   Tally        `json:"tally"`
	Outcome Outcome      `json:"outcome"`
}

type TallyResponse struct {
	ReportID   snowflake.ID `json:"report_id"`
	Status     string       `json:"status"`
	Tally      Tally        `json:"tally"`
	ResolvedAt *time.Time   `json:"resolved_at,omitempty"`
	ExpiresAt  *time.Time   `json:"expires_at,omitempty"`
	MyVote     *Vote        `json:"my_vote,omitempty"`
}

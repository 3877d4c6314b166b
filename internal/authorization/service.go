package authorization

import (
	"context"
	"errors"

	"github.com/smallbiznis/civicpulse/internal/actor"
)

var (
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
)

const (
	RoleSystem = "role:system"
	RoleUser   = "role:user"
	RoleAdmin  = "role:admin"
)

const (
	ObjectReport  = "report"
	ObjectComment = "comment"
	ObjectUser    = "user"
	ObjectStats   = "stats"
	ObjectAudit   = "audit"
)

const (
	ActionReportCreate            = "report.create"
	ActionReportProposeResolution = "report.propose_resolution"
	ActionReportTransitionAny     = "report.transition_any"
	ActionReportVote              = "report.vote"
	ActionReportFollow            = "report.follow"
	ActionReportFlag              = "report.flag"
	ActionReportModerate          = "report.moderate"
	ActionReportClose             = "report.close"
	ActionReportRevert            = "report.revert"

	ActionCommentCreate = "comment.create"
	ActionCommentFlag   = "comment.flag"

	ActionUserModerate = "user.moderate"

	ActionStatsView = "stats.view"
	ActionAuditView = "audit.view"
)

// Service answers role-level capability questions. Ownership and suspension
// are checked by the calling domain service.
type Service interface {
	Authorize(ctx context.Context, a actor.Actor, object string, action string) error
}

package authorization

import (
	"context"
	"testing"

	"github.com/smallbiznis/civicpulse/internal/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	enforcer, err := NewMemoryEnforcer()
	require.NoError(t, err)
	return NewService(Params{Log: zap.NewNop(), Enforcer: enforcer})
}

func TestAuthorizeCommunityMember(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	member := actor.Actor{UserID: 10}

	assert.NoError(t, svc.Authorize(ctx, member, ObjectReport, ActionReportProposeResolution))
	assert.NoError(t, svc.Authorize(ctx, member, ObjectReport, ActionReportVote))
	assert.ErrorIs(t, svc.Authorize(ctx, member, ObjectReport, ActionReportTransitionAny), ErrForbidden)
	assert.ErrorIs(t, svc.Authorize(ctx, member, ObjectUser, ActionUserModerate), ErrForbidden)
	assert.ErrorIs(t, svc.Authorize(ctx, member, ObjectAudit, ActionAuditView), ErrForbidden)
}

func TestAuthorizeAdminInheritsMemberPolicies(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	admin := actor.Actor{UserID: 11, Admin: true}

	assert.NoError(t, svc.Authorize(ctx, admin, ObjectReport, ActionReportTransitionAny))
	assert.NoError(t, svc.Authorize(ctx, admin, ObjectStats, ActionStatsView))
	assert.NoError(t, svc.Authorize(ctx, admin, ObjectAudit, ActionAuditView))
	assert.NoError(t, svc.Authorize(ctx, admin, ObjectComment, ActionCommentCreate))
}

func TestAuthorizeSystem(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	assert.NoError(t, svc.Authorize(ctx, actor.System, ObjectReport, ActionReportClose))
	assert.NoError(t, svc.Authorize(ctx, actor.System, ObjectReport, ActionReportRevert))
	assert.ErrorIs(t, svc.Authorize(ctx, actor.System, ObjectReport, ActionReportVote), ErrForbidden)
	assert.ErrorIs(t, svc.Authorize(ctx, actor.Actor{UserID: 1}, ObjectReport, ActionReportClose), ErrForbidden)
}

func TestAuthorizeRejectsEmptyInputs(t *testing.T) {
	svc := newTestService(t)
	assert.ErrorIs(t, svc.Authorize(context.Background(), actor.Actor{UserID: 1}, " ", ActionReportVote), ErrInvalidObject)
	assert.ErrorIs(t, svc.Authorize(context.Background(), actor.Actor{UserID: 1}, ObjectReport, ""), ErrInvalidAction)
}

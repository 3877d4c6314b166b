package seed

import (
	"context"
	"testing"

	"github.com/smallbiznis/civicpulse/internal/dbtest"
	userdomain "github.com/smallbiznis/civicpulse/internal/user/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureAdminIsIdempotent(t *testing.T) {
	db := dbtest.Open(t)
	node := dbtest.Node(t)
	ctx := context.Background()

	id, created, err := EnsureAdmin(ctx, db, node, "Town Council")
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := EnsureAdmin(ctx, db, node, "Another Name")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, id, again)

	var admins int64
	require.NoError(t, db.Model(&userdomain.User{}).Where("role = ?", userdomain.RoleAdmin).Count(&admins).Error)
	assert.Equal(t, int64(1), admins)
}

func TestEnsureAdminRequiresName(t *testing.T) {
	_, _, err := EnsureAdmin(context.Background(), dbtest.Open(t), dbtest.Node(t), "  ")
	assert.ErrorIs(t, err, userdomain.ErrInvalidDisplayName)
}

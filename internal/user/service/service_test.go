package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/smallbiznis/civicpulse/internal/actor"
	"github.com/smallbiznis/civicpulse/internal/clock"
	"github.com/smallbiznis/civicpulse/internal/dbtest"
	"github.com/smallbiznis/civicpulse/internal/user/domain"
	"github.com/smallbiznis/civicpulse/internal/user/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) domain.Service {
	t.Helper()
	db := dbtest.Open(t)
	return NewService(Params{
		Log:   zap.NewNop(),
		Repo:  repository.NewRepository(db),
		GenID: dbtest.Node(t),
		Clock: clock.NewFakeClock(time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)),
	})
}

func TestCreateAndResolveActor(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateUserRequest{DisplayName: "  Aisyah  "})
	require.NoError(t, err)
	assert.Equal(t, "Aisyah", created.DisplayName)
	assert.Equal(t, domain.RoleUser, created.Role)

	a, err := svc.ResolveActor(ctx, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, created.ID, a.UserID)
	assert.False(t, a.Admin)
	assert.False(t, a.Suspended)
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateUserRequest{DisplayName: "   "})
	assert.ErrorIs(t, err, domain.ErrInvalidDisplayName)

	_, err = svc.Create(ctx, domain.CreateUserRequest{DisplayName: "Ravi", Role: "superuser"})
	assert.ErrorIs(t, err, domain.ErrInvalidRole)
}

func TestSetBannedIsReflectedInActor(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateUserRequest{DisplayName: "Mei", Role: "admin"})
	require.NoError(t, err)

	require.NoError(t, svc.SetBanned(ctx, created.ID.String(), true))
	a, err := svc.ResolveActor(ctx, created.ID.String())
	require.NoError(t, err)
	assert.True(t, a.Suspended)
	assert.True(t, a.Admin)

	require.NoError(t, svc.SetBanned(ctx, created.ID.String(), false))
	a, err = svc.ResolveActor(ctx, created.ID.String())
	require.NoError(t, err)
	assert.False(t, a.Suspended)
}

func TestUnknownUser(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.GetByID(ctx, "12345")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	_, err = svc.GetByID(ctx, "not-a-number")
	assert.ErrorIs(t, err, domain.ErrInvalidUser)
	assert.ErrorIs(t, svc.SetBanned(ctx, "12345", true), domain.ErrUserNotFound)
}

func TestUpdateDisplayName(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateUserRequest{DisplayName: "Kumar"})
	require.NoError(t, err)
	self := actor.Actor{UserID: created.ID}

	updated, err := svc.UpdateDisplayName(ctx, self, "  Kumar Raj  ")
	require.NoError(t, err)
	assert.Equal(t, "Kumar Raj", updated.DisplayName)

	cases := []struct {
		name  string
		input string
	}{
		{name: "blank", input: "   "},
		{name: "too short", input: "K"},
		{name: "too long", input: strings.Repeat("n", 51)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.UpdateDisplayName(ctx, self, tc.input)
			assert.ErrorIs(t, err, domain.ErrInvalidDisplayName)
		})
	}

	_, err = svc.UpdateDisplayName(ctx, actor.Actor{UserID: created.ID, Suspended: true}, "Someone Else")
	assert.ErrorIs(t, err, actor.ErrAccountSuspended)
	_, err = svc.UpdateDisplayName(ctx, actor.Actor{UserID: 424242}, "Ghost")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	stored, err := svc.GetByID(ctx, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Kumar Raj", stored.DisplayName)
}

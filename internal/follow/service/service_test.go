package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/civicpulse/internal/actor"
	"github.com/smallbiznis/civicpulse/internal/authorization"
	"github.com/smallbiznis/civicpulse/internal/clock"
	"github.com/smallbiznis/civicpulse/internal/dbtest"
	"github.com/smallbiznis/civicpulse/internal/events"
	"github.com/smallbiznis/civicpulse/internal/follow/domain"
	"github.com/smallbiznis/civicpulse/internal/follow/repository"
	reportdomain "github.com/smallbiznis/civicpulse/internal/report/domain"
	reportrepo "github.com/smallbiznis/civicpulse/internal/report/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	creator  snowflake.ID = 1
	neighbor snowflake.ID = 2
	reportID snowflake.ID = 300
)

func newTestService(t *testing.T) (domain.Service, *gorm.DB, *events.Recorder) {
	t.Helper()
	db := dbtest.Open(t)
	enforcer, err := authorization.NewMemoryEnforcer()
	require.NoError(t, err)
	recorder := &events.Recorder{}

	svc := NewService(Params{
		DB:         db,
		Log:        zap.NewNop(),
		GenID:      dbtest.Node(t),
		Clock:      clock.NewFakeClock(time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)),
		Repo:       repository.NewRepository(db),
		ReportRepo: reportrepo.NewRepository(db),
		Authz:      authorization.NewService(authorization.Params{Log: zap.NewNop(), Enforcer: enforcer}),
		Events:     recorder,
	})

	dbtest.SeedUser(t, db, creator, "Creator", "user")
	dbtest.SeedUser(t, db, neighbor, "Neighbor", "user")
	dbtest.SeedReport(t, db, reportID, creator, "open", 0, time.Time{})
	return svc, db, recorder
}

func TestToggleFollowsThenUnfollows(t *testing.T) {
	svc, _, recorder := newTestService(t)
	ctx := context.Background()
	member := actor.Actor{UserID: neighbor}

	res, err := svc.Toggle(ctx, reportID.String(), member)
	require.NoError(t, err)
	assert.True(t, res.Following)
	assert.Equal(t, 1, res.FollowerCount)

	followed := recorder.OfType(events.ReportFollowed)
	require.Len(t, followed, 1)
	assert.Equal(t, neighbor, followed[0].ActorID)
	assert.Equal(t, creator, followed[0].OwnerID)

	res, err = svc.Toggle(ctx, reportID.String(), member)
	require.NoError(t, err)
	assert.False(t, res.Following)
	assert.Equal(t, 0, res.FollowerCount)
	assert.Len(t, recorder.OfType(events.ReportFollowed), 1)
}

func TestToggleRejections(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Toggle(ctx, reportID.String(), actor.Actor{UserID: neighbor, Suspended: true})
	assert.ErrorIs(t, err, actor.ErrAccountSuspended)

	_, err = svc.Toggle(ctx, "abc", actor.Actor{UserID: neighbor})
	assert.ErrorIs(t, err, domain.ErrInvalidReport)

	_, err = svc.Toggle(ctx, "999", actor.Actor{UserID: neighbor})
	assert.ErrorIs(t, err, reportdomain.ErrReportNotFound)

	require.NoError(t, db.Exec(`UPDATE reports SET is_hidden = ? WHERE id = ?`, true, reportID).Error)
	_, err = svc.Toggle(ctx, reportID.String(), actor.Actor{UserID: neighbor})
	assert.ErrorIs(t, err, reportdomain.ErrReportNotFound)
}

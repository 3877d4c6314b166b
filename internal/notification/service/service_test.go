package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/civicpulse/internal/clock"
	"github.com/smallbiznis/civicpulse/internal/dbtest"
	followdomain "github.com/smallbiznis/civicpulse/internal/follow/domain"
	followrepo "github.com/smallbiznis/civicpulse/internal/follow/repository"
	"github.com/smallbiznis/civicpulse/internal/notification/domain"
	"github.com/smallbiznis/civicpulse/internal/notification/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db      *gorm.DB
	svc     domain.Service
	follows followdomain.Repository
	node    *snowflake.Node
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := dbtest.Open(t)
	node := dbtest.Node(t)
	follows := followrepo.NewRepository(db)
	svc := NewService(Params{
		Log:        zap.NewNop(),
		GenID:      node,
		Clock:      clock.NewFakeClock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)),
		Repo:       repository.NewRepository(db),
		FollowRepo: follows,
	})
	return fixture{db: db, svc: svc, follows: follows, node: node}
}

func (f fixture) follow(t *testing.T, reportID, userID snowflake.ID) {
	t.Helper()
	_, err := f.follows.Insert(context.Background(), followdomain.Follow{
		ID:        f.node.Generate(),
		ReportID:  reportID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
}

func TestNotifyFollowersExcludesActor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reportID := snowflake.ID(500)

	f.follow(t, reportID, 1)
	f.follow(t, reportID, 2)
	f.follow(t, reportID, 3)

	count, err := f.svc.NotifyFollowers(ctx, reportID, domain.TypeStatusChange, "Status changed", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	var recipients []int64
	require.NoError(t, f.db.Raw(`SELECT user_id FROM notifications ORDER BY user_id`).Scan(&recipients).Error)
	assert.Equal(t, []int64{1, 3}, recipients)
}

func TestNotifyFollowersWithNoFollowers(t *testing.T) {
	f := newFixture(t)
	count, err := f.svc.NotifyFollowers(context.Background(), 501, domain.TypeNewComment, "hello", 0)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = f.svc.NotifyFollowers(context.Background(), 501, domain.TypeNewComment, "  ", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidNotification)
}

func TestListPaginatesNewestFirstAndMarkRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := snowflake.ID(7)

	for i := 0; i < 3; i++ {
		require.NoError(t, f.svc.NotifyUser(ctx, userID, 0, domain.TypeBadgeEarned, "badge", map[string]any{"tier": "bronze"}))
	}

	first, err := f.svc.List(ctx, userID, domain.ListNotificationRequest{})
	require.NoError(t, err)
	require.Len(t, first.Notifications, 3)
	assert.False(t, first.PageInfo.HasMore)
	assert.Greater(t, first.Notifications[0].ID, first.Notifications[1].ID)
	assert.Equal(t, "bronze", first.Notifications[0].Metadata["tier"])

	req := domain.ListNotificationRequest{}
	req.PageSize = 2
	page, err := f.svc.List(ctx, userID, req)
	require.NoError(t, err)
	require.Len(t, page.Notifications, 2)
	require.True(t, page.PageInfo.HasMore)

	req.PageToken = page.PageInfo.NextPageToken
	next, err := f.svc.List(ctx, userID, req)
	require.NoError(t, err)
	require.Len(t, next.Notifications, 1)
	assert.Equal(t, first.Notifications[2].ID, next.Notifications[0].ID)

	target := first.Notifications[0].ID.String()
	require.NoError(t, f.svc.MarkRead(ctx, userID, target))
	assert.ErrorIs(t, f.svc.MarkRead(ctx, 999, target), domain.ErrNotificationNotFound)
	assert.ErrorIs(t, f.svc.MarkRead(ctx, userID, "nope"), domain.ErrInvalidNotification)

	req.PageToken = "!!"
	_, err = f.svc.List(ctx, userID, req)
	assert.ErrorIs(t, err, domain.ErrInvalidPageToken)
}

func TestMarkAllReadOnlyTouchesUnreadOfOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner, other := snowflake.ID(7), snowflake.ID(8)

	for i := 0; i < 3; i++ {
		require.NoError(t, f.svc.NotifyUser(ctx, owner, 0, domain.TypeBadgeEarned, "badge", nil))
	}
	require.NoError(t, f.svc.NotifyUser(ctx, other, 0, domain.TypeBadgeEarned, "badge", nil))

	list, err := f.svc.List(ctx, owner, domain.ListNotificationRequest{})
	require.NoError(t, err)
	require.NoError(t, f.svc.MarkRead(ctx, owner, list.Notifications[0].ID.String()))

	changed, err := f.svc.MarkAllRead(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(2), changed)

	changed, err = f.svc.MarkAllRead(ctx, owner)
	require.NoError(t, err)
	assert.Zero(t, changed)

	list, err = f.svc.List(ctx, owner, domain.ListNotificationRequest{})
	require.NoError(t, err)
	for _, n := range list.Notifications {
		assert.NotNil(t, n.ReadAt)
	}

	theirs, err := f.svc.List(ctx, other, domain.ListNotificationRequest{})
	require.NoError(t, err)
	require.Len(t, theirs.Notifications, 1)
	assert.Nil(t, theirs.Notifications[0].ReadAt)
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/civicpulse/internal/clock"
	"github.com/smallbiznis/civicpulse/internal/config"
	"github.com/smallbiznis/civicpulse/internal/dbtest"
	"github.com/smallbiznis/civicpulse/internal/gamification/domain"
	"github.com/smallbiznis/civicpulse/internal/gamification/repository"
	notificationdomain "github.com/smallbiznis/civicpulse/internal/notification/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type sentNotification struct {
	userID  snowflake.ID
	typ     notificationdomain.Type
	message string
}

type recordingNotifier struct {
	notificationdomain.Service
	sent []sentNotification
}

func (r *recordingNotifier) NotifyUser(_ context.Context, userID snowflake.ID, _ snowflake.ID, typ notificationdomain.Type, message string, _ map[string]any) error {
	r.sent = append(r.sent, sentNotification{userID: userID, typ: typ, message: message})
	return nil
}

type fixture struct {
	db       *gorm.DB
	svc      domain.Service
	clock    *clock.FakeClock
	notifier *recordingNotifier
}

func newFixture(t *testing.T, loc *time.Location) fixture {
	t.Helper()
	db := dbtest.Open(t)
	holder, err := config.NewStaticGamificationConfigHolder(config.DefaultGamificationConfig())
	require.NoError(t, err)

	fc := clock.NewFakeClock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	notifier := &recordingNotifier{}
	svc := NewService(Params{
		DB:            db,
		Log:           zap.NewNop(),
		GenID:         dbtest.Node(t),
		Clock:         fc,
		Config:        config.Config{StreakLocation: loc},
		Rewards:       holder,
		Repo:          repository.NewRepository(db),
		Notifications: notifier,
	})
	return fixture{db: db, svc: svc, clock: fc, notifier: notifier}
}

func (f fixture) totalPoints(t *testing.T, userID snowflake.ID) int64 {
	t.Helper()
	var total int64
	require.NoError(t, f.db.Raw(`SELECT total_points FROM users WHERE id = ?`, userID).Scan(&total).Error)
	return total
}

func (f fixture) ledgerRows(t *testing.T, userID snowflake.ID) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.db.Raw(`SELECT COUNT(1) FROM point_events WHERE user_id = ?`, userID).Scan(&count).Error)
	return count
}

func TestAwardPointsAppendsLedgerAndTotal(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	userID := dbtest.SeedUser(t, f.db, 1, "Aisyah", "user")
	reportID := snowflake.ID(77)

	event, err := f.svc.AwardPoints(ctx, userID, domain.ActionCreateReport, &reportID)
	require.NoError(t, err)
	assert.Equal(t, 10, event.Points)
	assert.Equal(t, domain.ActionCreateReport, event.Action)

	_, err = f.svc.AwardPoints(ctx, userID, domain.ActionComment, &reportID)
	require.NoError(t, err)

	assert.Equal(t, int64(15), f.totalPoints(t, userID))
	assert.Equal(t, int64(2), f.ledgerRows(t, userID))
}

func TestAwardPointsRejectsUnknownUserAndAction(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.AwardPoints(ctx, 999, domain.ActionComment, nil)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.Equal(t, int64(0), f.ledgerRows(t, 999))

	userID := dbtest.SeedUser(t, f.db, 2, "Ben", "user")
	_, err = f.svc.AwardPoints(ctx, userID, domain.Action("teleport"), nil)
	assert.ErrorIs(t, err, domain.ErrUnknownAction)

	_, err = f.svc.AwardPoints(ctx, 0, domain.ActionComment, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidUser)
}

func TestUpdateStreakAcrossDays(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	userID := dbtest.SeedUser(t, f.db, 3, "Chen", "user")

	streak, err := f.svc.UpdateStreak(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, streak.Current)

	f.clock.Advance(3 * time.Hour)
	streak, err = f.svc.UpdateStreak(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, streak.Current, "same day activity does not extend the streak")

	f.clock.Advance(24 * time.Hour)
	streak, err = f.svc.UpdateStreak(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, streak.Current)
	assert.Equal(t, 2, streak.Longest)

	f.clock.Advance(72 * time.Hour)
	streak, err = f.svc.UpdateStreak(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, streak.Current)
	assert.Equal(t, 2, streak.Longest)
}

func TestUpdateStreakUsesConfiguredCalendar(t *testing.T) {
	f := newFixture(t, time.FixedZone("UTC+8", 8*60*60))
	ctx := context.Background()
	userID := dbtest.SeedUser(t, f.db, 4, "Devi", "user")

	f.clock.Set(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))
	_, err := f.svc.UpdateStreak(ctx, userID)
	require.NoError(t, err)

	// 17:00 UTC is already the next local day.
	f.clock.Set(time.Date(2025, 3, 1, 17, 0, 0, 0, time.UTC))
	streak, err := f.svc.UpdateStreak(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, streak.Current)
}

func TestUpdateStreakUnknownUser(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.UpdateStreak(context.Background(), 404)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestCheckAndAwardBadgesIsIdempotent(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	userID := dbtest.SeedUser(t, f.db, 5, "Eng", "user")
	dbtest.SeedReport(t, f.db, 100, userID, "open", 0, time.Time{})

	awarded, err := f.svc.CheckAndAwardBadges(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []domain.NewBadge{{Type: domain.BadgeSpotter, Tier: domain.TierBronze}}, awarded)

	awarded, err = f.svc.CheckAndAwardBadges(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, awarded)

	assert.Equal(t, int64(10), f.totalPoints(t, userID), "badge_unlocked is credited once")
	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, notificationdomain.TypeBadgeEarned, f.notifier.sent[0].typ)
	assert.Equal(t, "You earned the Spotter bronze badge", f.notifier.sent[0].message)
}

func TestCheckAndAwardBadgesCatchesUpMissedTiers(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	userID := dbtest.SeedUser(t, f.db, 6, "Farah", "user")
	for i := 0; i < 5; i++ {
		dbtest.SeedReport(t, f.db, snowflake.ID(200+i), userID, "open", 0, time.Time{})
	}

	awarded, err := f.svc.CheckAndAwardBadges(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []domain.NewBadge{
		{Type: domain.BadgeSpotter, Tier: domain.TierBronze},
		{Type: domain.BadgeSpotter, Tier: domain.TierSilver},
	}, awarded)
	assert.Equal(t, int64(20), f.totalPoints(t, userID))
}

func TestCloserBadgeCountsConfirmedVotesOnly(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	userID := dbtest.SeedUser(t, f.db, 7, "Gopal", "user")
	now := time.Now().UTC()
	require.NoError(t, f.db.Exec(
		`INSERT INTO confirmations (id, report_id, user_id, vote, created_at) VALUES (1, 301, ?, 'confirmed', ?), (2, 302, ?, 'not_yet', ?), (3, 303, ?, 'confirmed', ?)`,
		userID, now, userID, now, userID, now,
	).Error)

	awarded, err := f.svc.CheckAndAwardBadges(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []domain.NewBadge{{Type: domain.BadgeCloser, Tier: domain.TierBronze}}, awarded)
}

func TestSummaryReportsProgress(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	userID := dbtest.SeedUser(t, f.db, 8, "Hana", "user")
	dbtest.SeedReport(t, f.db, 400, userID, "open", 0, time.Time{})
	reportID := snowflake.ID(400)
	_, err := f.svc.AwardPoints(ctx, userID, domain.ActionCreateReport, &reportID)
	require.NoError(t, err)
	_, err = f.svc.UpdateStreak(ctx, userID)
	require.NoError(t, err)
	_, err = f.svc.CheckAndAwardBadges(ctx, userID)
	require.NoError(t, err)

	summary, err := f.svc.Summary(ctx, userID.String())
	require.NoError(t, err)
	assert.Equal(t, int64(20), summary.TotalPoints)
	assert.Equal(t, 1, summary.CurrentStreak)
	require.NotNil(t, summary.LastActiveDate)
	assert.Len(t, summary.Badges, 1)
	assert.Len(t, summary.RecentEvents, 2)

	require.Len(t, summary.Progress, len(domain.BadgeTypes))
	spotter := summary.Progress[0]
	assert.Equal(t, domain.BadgeSpotter, spotter.Type)
	assert.Equal(t, int64(1), spotter.Count)
	assert.Equal(t, domain.TierSilver, spotter.NextTier)
	assert.Equal(t, int64(5), spotter.NextThreshold)
}

func TestSummaryValidatesUser(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.Summary(context.Background(), "abc")
	assert.ErrorIs(t, err, domain.ErrInvalidUser)
	_, err = f.svc.Summary(context.Background(), "12345")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestReconcileTotalsFixesDrift(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	good := dbtest.SeedUser(t, f.db, 10, "Ivan", "user")
	drifted := dbtest.SeedUser(t, f.db, 11, "Jia", "user")

	_, err := f.svc.AwardPoints(ctx, good, domain.ActionComment, nil)
	require.NoError(t, err)
	_, err = f.svc.AwardPoints(ctx, drifted, domain.ActionCreateReport, nil)
	require.NoError(t, err)
	require.NoError(t, f.db.Exec(`UPDATE users SET total_points = 999 WHERE id = ?`, drifted).Error)

	result, err := f.svc.ReconcileTotals(ctx, 0, 50)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Scanned)
	assert.Equal(t, 1, result.Fixed)
	assert.Equal(t, drifted, result.LastUserID)
	assert.Equal(t, int64(10), f.totalPoints(t, drifted))
	assert.Equal(t, int64(5), f.totalPoints(t, good))
}

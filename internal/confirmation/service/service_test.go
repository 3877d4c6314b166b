package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/civicpulse/internal/actor"
	"github.com/smallbiznis/civicpulse/internal/authorization"
	"github.com/smallbiznis/civicpulse/internal/clock"
	"github.com/smallbiznis/civicpulse/internal/config"
	"github.com/smallbiznis/civicpulse/internal/confirmation/domain"
	"github.com/smallbiznis/civicpulse/internal/confirmation/repository"
	"github.com/smallbiznis/civicpulse/internal/dbtest"
	"github.com/smallbiznis/civicpulse/internal/events"
	reportdomain "github.com/smallbiznis/civicpulse/internal/report/domain"
	reportrepo "github.com/smallbiznis/civicpulse/internal/report/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	creatorID  snowflake.ID = 1
	resolverID snowflake.ID = 2
	reportID   snowflake.ID = 900
)

var resolvedAt = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

type fixture struct {
	db      *gorm.DB
	svc     *Service
	clock   *clock.FakeClock
	reports reportdomain.Repository
	events  *events.Recorder
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := dbtest.Open(t)
	enforcer, err := authorization.NewMemoryEnforcer()
	require.NoError(t, err)

	fc := clock.NewFakeClock(resolvedAt.Add(time.Hour))
	reports := reportrepo.NewRepository(db)
	recorder := &events.Recorder{}
	svc := NewService(Params{
		Log:        zap.NewNop(),
		GenID:      dbtest.Node(t),
		Clock:      fc,
		Config:     config.Config{ResolutionWindow: 72 * time.Hour},
		Repo:       repository.NewRepository(db),
		ReportRepo: reports,
		Authz:      authorization.NewService(authorization.Params{Log: zap.NewNop(), Enforcer: enforcer}),
		Events:     recorder,
	})

	for id := snowflake.ID(1); id <= 6; id++ {
		dbtest.SeedUser(t, db, id, "citizen", "user")
	}
	dbtest.SeedReport(t, db, reportID, creatorID, "resolved", resolverID, resolvedAt)

	return fixture{db: db, svc: svc, clock: fc, reports: reports, events: recorder}
}

func (f fixture) vote(t *testing.T, userID snowflake.ID, vote domain.Vote) *domain.CastVoteResult {
	t.Helper()
	result, err := f.svc.CastVote(context.Background(), reportID.String(), actor.Actor{UserID: userID}, string(vote))
	require.NoError(t, err)
	return result
}

func (f fixture) report(t *testing.T) *reportdomain.Report {
	t.Helper()
	report, err := f.reports.FindByID(context.Background(), reportID)
	require.NoError(t, err)
	require.NotNil(t, report)
	return report
}

func TestThirdConfirmationClosesReport(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, domain.OutcomeNone, f.vote(t, 3, domain.VoteConfirmed).Outcome)
	assert.Equal(t, domain.OutcomeNone, f.vote(t, 4, domain.VoteConfirmed).Outcome)
	result := f.vote(t, 5, domain.VoteConfirmed)
	assert.Equal(t, domain.OutcomeClose, result.Outcome)
	assert.Equal(t, int64(3), result.Tally.Confirmed)

	report := f.report(t)
	assert.Equal(t, reportdomain.StatusClosed, report.Status)
	assert.True(t, report.ResolutionConsistent())

	closed := f.events.OfType(events.ReportClosed)
	require.Len(t, closed, 1)
	assert.Equal(t, creatorID, closed[0].OwnerID)
	assert.Equal(t, resolverID, closed[0].ResolverID)
	assert.Equal(t, events.TriggerVote, closed[0].Trigger)
	assert.Len(t, f.events.OfType(events.VoteCast), 3)
}

func TestNotYetMajorityRevertsAndClearsResolution(t *testing.T) {
	f := newFixture(t)

	result := f.vote(t, 3, domain.VoteNotYet)
	assert.Equal(t, domain.OutcomeRevert, result.Outcome)

	report := f.report(t)
	assert.Equal(t, reportdomain.StatusInProgress, report.Status)
	assert.Nil(t, report.ResolvedAt)
	assert.Nil(t, report.ResolvedBy)
	assert.Len(t, f.events.OfType(events.ReportReverted), 1)
}

func TestCastVoteRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	voter := actor.Actor{UserID: 3}

	f.vote(t, 3, domain.VoteConfirmed)
	_, err := f.svc.CastVote(ctx, reportID.String(), voter, "not_yet")
	assert.ErrorIs(t, err, domain.ErrAlreadyVoted)

	_, err = f.svc.CastVote(ctx, reportID.String(), actor.Actor{UserID: 4, Suspended: true}, "confirmed")
	assert.ErrorIs(t, err, actor.ErrAccountSuspended)

	_, err = f.svc.CastVote(ctx, reportID.String(), actor.System, "confirmed")
	assert.ErrorIs(t, err, actor.ErrNotAuthenticated)

	_, err = f.svc.CastVote(ctx, reportID.String(), actor.Actor{UserID: 4}, "perhaps")
	assert.ErrorIs(t, err, domain.ErrInvalidVote)

	_, err = f.svc.CastVote(ctx, "not-an-id", actor.Actor{UserID: 4}, "confirmed")
	assert.ErrorIs(t, err, domain.ErrInvalidReport)

	_, err = f.svc.CastVote(ctx, "12345", actor.Actor{UserID: 4}, "confirmed")
	assert.ErrorIs(t, err, reportdomain.ErrReportNotFound)

	dbtest.SeedReport(t, f.db, 901, creatorID, "in_progress", 0, time.Time{})
	_, err = f.svc.CastVote(ctx, "901", actor.Actor{UserID: 4}, "confirmed")
	assert.ErrorIs(t, err, domain.ErrReportNotResolved)
}

func TestEvaluateIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, id := range []snowflake.ID{3, 4, 5} {
		f.vote(t, id, domain.VoteConfirmed)
	}
	outcome, err := f.svc.Evaluate(ctx, reportID, events.TriggerRead)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeNone, outcome)

	outcome, err = f.svc.Evaluate(ctx, reportID, events.TriggerSweep)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeNone, outcome)

	assert.Len(t, f.events.OfType(events.ReportClosed), 1)
}

func TestTimeoutRules(t *testing.T) {
	t.Run("silence reverts", func(t *testing.T) {
		f := newFixture(t)
		f.clock.Set(resolvedAt.Add(72 * time.Hour))

		outcome, err := f.svc.Evaluate(context.Background(), reportID, events.TriggerSweep)
		require.NoError(t, err)
		assert.Equal(t, domain.OutcomeRevert, outcome)
		assert.Equal(t, reportdomain.StatusInProgress, f.report(t).Status)
	})

	t.Run("uncontested confirmation closes", func(t *testing.T) {
		f := newFixture(t)
		f.vote(t, 3, domain.VoteConfirmed)
		f.clock.Set(resolvedAt.Add(80 * time.Hour))

		outcome, err := f.svc.Evaluate(context.Background(), reportID, events.TriggerSweep)
		require.NoError(t, err)
		assert.Equal(t, domain.OutcomeClose, outcome)
		assert.Equal(t, reportdomain.StatusClosed, f.report(t).Status)
	})

	t.Run("mixed votes stall", func(t *testing.T) {
		f := newFixture(t)
		f.vote(t, 3, domain.VoteConfirmed)
		f.vote(t, 4, domain.VoteNotYet)
		f.clock.Set(resolvedAt.Add(100 * time.Hour))

		outcome, err := f.svc.Evaluate(context.Background(), reportID, events.TriggerSweep)
		require.NoError(t, err)
		assert.Equal(t, domain.OutcomeStalled, outcome)
		assert.Equal(t, reportdomain.StatusResolved, f.report(t).Status)
		assert.Empty(t, f.events.OfType(events.ReportClosed))
		assert.Empty(t, f.events.OfType(events.ReportReverted))
	})

	t.Run("stall is flagged once", func(t *testing.T) {
		f := newFixture(t)
		f.vote(t, 3, domain.VoteConfirmed)
		f.vote(t, 4, domain.VoteNotYet)
		firstSweep := resolvedAt.Add(100 * time.Hour)
		f.clock.Set(firstSweep)

		for i := 0; i < 2; i++ {
			outcome, err := f.svc.Evaluate(context.Background(), reportID, events.TriggerRead)
			require.NoError(t, err)
			assert.Equal(t, domain.OutcomeStalled, outcome)
			f.clock.Advance(time.Hour)
		}

		report := f.report(t)
		require.NotNil(t, report.StalledAt)
		assert.True(t, report.StalledAt.Equal(firstSweep))
	})

	t.Run("confirmations still close a stalled report", func(t *testing.T) {
		f := newFixture(t)
		f.vote(t, 3, domain.VoteConfirmed)
		f.vote(t, 4, domain.VoteNotYet)
		f.clock.Set(resolvedAt.Add(100 * time.Hour))

		outcome, err := f.svc.Evaluate(context.Background(), reportID, events.TriggerSweep)
		require.NoError(t, err)
		require.Equal(t, domain.OutcomeStalled, outcome)
		require.NotNil(t, f.report(t).StalledAt)

		f.vote(t, 5, domain.VoteConfirmed)
		result := f.vote(t, 6, domain.VoteConfirmed)
		assert.Equal(t, domain.OutcomeClose, result.Outcome)

		report := f.report(t)
		assert.Equal(t, reportdomain.StatusClosed, report.Status)
		assert.Nil(t, report.StalledAt)
	})
}

func TestVotesFromEarlierCycleAreIgnored(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Exec(
		`INSERT INTO confirmations (id, report_id, user_id, vote, created_at) VALUES (?, ?, ?, ?, ?)`,
		1, reportID, 3, "not_yet", resolvedAt.Add(-24*time.Hour),
	).Error)

	outcome, err := f.svc.Evaluate(context.Background(), reportID, events.TriggerRead)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeNone, outcome)
	assert.Equal(t, reportdomain.StatusResolved, f.report(t).Status)
}

func TestVoteFromLaggingClockCountsTowardCycle(t *testing.T) {
	f := newFixture(t)
	f.clock.Set(resolvedAt.Add(-time.Second))

	result := f.vote(t, 3, domain.VoteConfirmed)
	assert.Equal(t, domain.Tally{Confirmed: 1}, result.Tally)
	assert.False(t, result.Vote.CreatedAt.Before(resolvedAt))

	f.clock.Set(resolvedAt.Add(73 * time.Hour))
	outcome, err := f.svc.Evaluate(context.Background(), reportID, events.TriggerSweep)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeClose, outcome)
	assert.Equal(t, reportdomain.StatusClosed, f.report(t).Status)
}

func TestInsertRequiresResolvedReport(t *testing.T) {
	f := newFixture(t)
	repo := repository.NewRepository(f.db)
	ctx := context.Background()

	updated, err := f.reports.RevertResolved(ctx, reportID, resolvedAt.Add(2*time.Hour))
	require.NoError(t, err)
	require.True(t, updated)

	err = repo.Insert(ctx, domain.Confirmation{
		ID:        dbtest.Node(t).Generate(),
		ReportID:  reportID,
		UserID:    3,
		Vote:      domain.VoteConfirmed,
		CreatedAt: resolvedAt.Add(2 * time.Hour),
	})
	assert.ErrorIs(t, err, domain.ErrReportNotResolved)

	mine, err := repo.FindVote(ctx, reportID, 3)
	require.NoError(t, err)
	assert.Nil(t, mine)
}

func TestConcurrentVotesFromOneUser(t *testing.T) {
	f := newFixture(t)
	const attempts = 8

	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.CastVote(context.Background(), reportID.String(), actor.Actor{UserID: 3}, "confirmed")
		}(i)
	}
	wg.Wait()

	var accepted int
	for _, err := range errs {
		if err == nil {
			accepted++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrAlreadyVoted)
	}
	assert.Equal(t, 1, accepted)

	tally, err := repository.NewRepository(f.db).Tally(context.Background(), reportID, resolvedAt)
	require.NoError(t, err)
	assert.Equal(t, domain.Tally{Confirmed: 1}, tally)
}

func TestGetTally(t *testing.T) {
	f := newFixture(t)
	f.vote(t, 3, domain.VoteConfirmed)
	f.vote(t, 4, domain.VoteConfirmed)

	resp, err := f.svc.GetTally(context.Background(), reportID.String(), actor.Actor{UserID: 3})
	require.NoError(t, err)
	assert.Equal(t, "resolved", resp.Status)
	assert.Equal(t, domain.Tally{Confirmed: 2}, resp.Tally)
	require.NotNil(t, resp.ExpiresAt)
	assert.True(t, resp.ExpiresAt.Equal(resolvedAt.Add(72*time.Hour)))
	require.NotNil(t, resp.MyVote)
	assert.Equal(t, domain.VoteConfirmed, *resp.MyVote)

	resp, err = f.svc.GetTally(context.Background(), reportID.String(), actor.System)
	require.NoError(t, err)
	assert.Nil(t, resp.MyVote)
}

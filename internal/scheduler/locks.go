package scheduler

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	obsmetrics "github.com/smallbiznis/civicpulse/internal/observability/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type WorkReport struct {
	ID         snowflake.ID
	UserID     snowflake.ID
	ResolvedBy *snowflake.ID
	ResolvedAt time.Time
}

// FetchExpiredResolutions claims a batch of resolved reports whose window
// ended at or before cutoff and that are not flagged as stalled. Row locks are released when the claim
// transaction commits, before the arbiter updates any row.
func (s *Scheduler) FetchExpiredResolutions(ctx context.Context, afterID snowflake.ID, cutoff time.Time, limit int) ([]WorkReport, error) {
	if limit <= 0 {
		limit = s.cfg.BatchSize
	}
	claimCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	var reports []WorkReport
	err := s.db.WithContext(claimCtx).Transaction(func(tx *gorm.DB) error {
		var err error
		reports, err = s.fetchExpiredResolutions(claimCtx, tx, afterID, cutoff, limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	return reports, nil
}

func (s *Scheduler) fetchExpiredResolutions(ctx context.Context, tx *gorm.DB, afterID snowflake.ID, cutoff time.Time, limit int) ([]WorkReport, error) {
	var reports []WorkReport
	schedMetrics := obsmetrics.Scheduler()
	lockStart := time.Now()
	err := tx.WithContext(ctx).Raw(
		`SELECT id, user_id, resolved_by, resolved_at
		 FROM reports
		 WHERE status = ?
		   AND resolved_at IS NOT NULL
		   AND resolved_at <= ?
		   AND stalled_at IS NULL
		   AND id > ?
		 ORDER BY id
		 LIMIT ?
		 FOR UPDATE SKIP LOCKED`,
		"resolved",
		cutoff,
		afterID,
		limit,
	).Scan(&reports).Error
	schedMetrics.ObserveDBLockWait(obsmetrics.LockResourceResolvedReports, time.Since(lockStart))
	if err != nil {
		return nil, err
	}
	return reports, nil
}

// acquireLeader takes the scheduler leader lock. Without Redis every instance
// is its own leader, and Redis errors fail open.
func (s *Scheduler) acquireLeader(ctx context.Context) (func(), bool, error) {
	noop := func() {}
	if s.locker == nil {
		return noop, true, nil
	}

	token, ok, err := s.locker.TryLock(ctx, leaderLockKey, s.cfg.LockTTL)
	if err != nil {
		return noop, true, err
	}
	if !ok {
		return noop, false, nil
	}
	return func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.locker.Release(releaseCtx, leaderLockKey, token); err != nil {
			s.log.Warn("scheduler leader lock release failed", zap.Error(err))
		}
	}, true, nil
}

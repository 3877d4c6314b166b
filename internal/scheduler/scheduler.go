package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/civicpulse/internal/clock"
	confirmationdomain "github.com/smallbiznis/civicpulse/internal/confirmation/domain"
	"github.com/smallbiznis/civicpulse/internal/events"
	gamificationdomain "github.com/smallbiznis/civicpulse/internal/gamification/domain"
	obsmetrics "github.com/smallbiznis/civicpulse/internal/observability/metrics"
	"github.com/smallbiznis/civicpulse/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Clock         clock.Clock
	Confirmations confirmationdomain.Service
	Gamification  gamificationdomain.Service
	Locker        *ratelimit.Locker `optional:"true"`
	Config        Config            `optional:"true"`
}

type Scheduler struct {
	db            *gorm.DB
	log           *zap.Logger
	cfg           Config
	genID         *snowflake.Node
	clock         clock.Clock
	confirmations confirmationdomain.Service
	gamification  gamificationdomain.Service
	locker        *ratelimit.Locker
}

func New(p Params) (*Scheduler, error) {
	if p.DB == nil || p.Log == nil || p.GenID == nil || p.Clock == nil || p.Confirmations == nil || p.Gamification == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		db:            p.DB,
		log:           p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:           p.Config.withDefaults(),
		genID:         p.GenID,
		clock:         p.Clock,
		confirmations: p.Confirmations,
		gamification:  p.Gamification,
		locker:        p.Locker,
	}, nil
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	batchSize int,
	timeout time.Duration,
	fn func(ctx context.Context) error,
) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	ctx, run, owner := s.ensureJobRun(ctx, name, batchSize)
	if owner {
		s.logJobStart(ctx, run)
	}
	log := s.logger(ctx).With(
		zap.String("job", name),
		zap.String("run_id", run.runID),
	)
	schedMetrics := obsmetrics.Scheduler()
	schedMetrics.IncJobRun(name)

	err := fn(ctx)
	schedMetrics.ObserveJobDuration(name, s.clock.Now().Sub(start))
	if owner {
		if err != nil && run.errorCount == 0 {
			run.IncError()
		}
		s.logJobFinish(ctx, run)
	}
	if err == nil {
		return nil
	}

	// A deadline is a soft timeout: the next tick resumes where this one stopped.
	isTimeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
	if isTimeout {
		schedMetrics.IncJobTimeout(name)
	}
	schedMetrics.IncJobError(name, err)
	if isTimeout {
		log.Warn("job timed out",
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}

	return fmt.Errorf("%s: %w", name, err)
}

// RunOnce runs every enabled job a single time. When a Redis locker is
// configured only the instance holding the leader lock does any work.
func (s *Scheduler) RunOnce(parent context.Context) error {
	release, leader, err := s.acquireLeader(parent)
	if err != nil {
		s.log.Warn("scheduler leader lock unavailable, running unguarded", zap.Error(err))
	}
	if !leader {
		obsmetrics.Scheduler().IncBatchDeferred("run_once", obsmetrics.SchedulerBatchDeferredReasonLeaderLockHeld)
		return nil
	}
	defer release()

	var runErr error
	jobs := []struct {
		Name    string
		Enabled bool
		Run     func(context.Context) error
	}{
		{JobExpireResolutions, s.isJobEnabled(JobExpireResolutions), func(ctx context.Context) error {
			return s.runJob(ctx, JobExpireResolutions, s.cfg.BatchSize, 30*time.Second, s.ExpireResolutionsJob)
		}},
		{JobReconcilePoints, s.isJobEnabled(JobReconcilePoints), func(ctx context.Context) error {
			return s.runJob(ctx, JobReconcilePoints, s.cfg.BatchSize, 30*time.Second, s.ReconcilePointsJob)
		}},
	}

	for _, job := range jobs {
		if job.Enabled {
			runErr = errors.Join(runErr, job.Run(parent))
		}
	}
	return runErr
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()
	nextRun := s.clock.Now().Add(s.cfg.RunInterval)
	schedMetrics := obsmetrics.Scheduler()

	for {
		runLag := s.clock.Now().Sub(nextRun)
		if runLag > 0 {
			schedMetrics.ObserveRunLoopLag(runLag)
		}
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}
		nextRun = nextRun.Add(s.cfg.RunInterval)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(enabled, jobName) {
			return true
		}
	}
	return false
}

// ExpireResolutionsJob applies the timeout rules to resolved reports whose
// confirmation window has elapsed. Reports are walked in id order so one run
// never revisits a row, and each is handed to the arbiter, which re-checks
// the state under its own compare-and-set.
func (s *Scheduler) ExpireResolutionsJob(ctx context.Context) error {
	run := jobRunFromContext(ctx)
	schedMetrics := obsmetrics.Scheduler()
	cutoff := s.clock.Now().Add(-s.cfg.Window)

	var afterID snowflake.ID
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		reports, err := s.FetchExpiredResolutions(ctx, afterID, cutoff, s.cfg.BatchSize)
		if err != nil {
			return err
		}
		if len(reports) == 0 {
			if afterID == 0 {
				schedMetrics.IncBatchDeferred(JobExpireResolutions, obsmetrics.SchedulerBatchDeferredReasonSkipLockedEmpty)
			}
			return nil
		}

		for _, report := range reports {
			afterID = report.ID
			s.logReportClaimed(ctx, JobExpireResolutions, report)

			outcome, err := s.confirmations.Evaluate(ctx, report.ID, events.TriggerSweep)
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
					return err
				}
				s.logSchedulerError(ctx, run, "scheduler.expire_resolution.failed", JobExpireResolutions, err,
					zap.String("report_id", idString(report.ID)),
				)
				continue
			}
			schedMetrics.IncSweepOutcome(string(outcome))
		}

		run.AddProcessed(len(reports))
		schedMetrics.AddBatchProcessed(JobExpireResolutions, obsmetrics.LockResourceResolvedReports, len(reports))

		if len(reports) < s.cfg.BatchSize {
			return nil
		}
	}
}

// ReconcilePointsJob repairs users whose cached total drifted from the sum of
// their point events.
func (s *Scheduler) ReconcilePointsJob(ctx context.Context) error {
	run := jobRunFromContext(ctx)
	schedMetrics := obsmetrics.Scheduler()

	var afterUserID snowflake.ID
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		lockStart := time.Now()
		result, err := s.gamification.ReconcileTotals(ctx, afterUserID, s.cfg.BatchSize)
		schedMetrics.ObserveDBLockWait(obsmetrics.LockResourceUserTotals, time.Since(lockStart))
		if err != nil {
			return err
		}

		run.AddProcessed(result.Fixed)
		schedMetrics.AddBatchProcessed(JobReconcilePoints, obsmetrics.LockResourceUserTotals, result.Fixed)
		if result.Fixed > 0 {
			s.logger(ctx).Info("scheduler.points.reconciled",
				zap.Int("scanned", result.Scanned),
				zap.Int("fixed", result.Fixed),
			)
		}

		if result.Scanned < s.cfg.BatchSize || result.LastUserID == 0 {
			return nil
		}
		afterUserID = result.LastUserID
	}
}

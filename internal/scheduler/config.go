package scheduler

import (
	"errors"
	"time"

	"github.com/smallbiznis/civicpulse/internal/config"
)

var ErrInvalidConfig = errors.New("invalid_scheduler_config")

const (
	JobExpireResolutions = "expire_resolutions"
	JobReconcilePoints   = "reconcile_points"

	leaderLockKey = "civicpulse:scheduler:leader"
)

// Config controls scheduler intervals and batch sizes.
type Config struct {
	RunInterval time.Duration
	BatchSize   int
	// LockTTL bounds how long a leader keeps the Redis lock if it dies mid-run.
	LockTTL time.Duration
	// Window is the confirmation window; resolutions older than this are swept.
	Window      time.Duration
	EnabledJobs []string
}

func DefaultConfig() Config {
	return Config{
		RunInterval: time.Minute,
		BatchSize:   50,
		LockTTL:     55 * time.Second,
		Window:      72 * time.Hour,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaults.BatchSize
	}
	if c.LockTTL <= 0 {
		c.LockTTL = defaults.LockTTL
	}
	if c.Window <= 0 {
		c.Window = defaults.Window
	}
	return c
}

func ProvideConfig(cfg config.Config) Config {
	return Config{
		RunInterval: time.Duration(cfg.Scheduler.IntervalSeconds) * time.Second,
		BatchSize:   cfg.Scheduler.BatchSize,
		LockTTL:     time.Duration(cfg.Scheduler.LockTTLSeconds) * time.Second,
		Window:      cfg.ResolutionWindow,
	}.withDefaults()
}

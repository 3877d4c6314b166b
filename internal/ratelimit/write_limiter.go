package ratelimit

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/civicpulse/internal/config"
	"go.uber.org/zap"
)

const keyUserWrites = "writes:user:%s"

// WriteLimiter bounds how often one user may create reports, comments, votes,
// follows and flags. It fails open: without Redis, or when Redis errors,
// writes are allowed.
type WriteLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
	log    *zap.Logger
}

func NewWriteLimiter(cfg config.Config, client *redis.Client, log *zap.Logger) *WriteLimiter {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled || client == nil || limitCfg.WritesPerMinute <= 0 || limitCfg.WriteBurst <= 0 {
		return &WriteLimiter{log: log.Named("ratelimit.writes")}
	}
	return &WriteLimiter{
		bucket: NewTokenBucket(client),
		rate:   limitCfg.WritesPerMinute / 60,
		burst:  limitCfg.WriteBurst,
		log:    log.Named("ratelimit.writes"),
	}
}

func (l *WriteLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

func (l *WriteLimiter) Allow(ctx context.Context, userID snowflake.ID) *Result {
	if !l.Enabled() || userID == 0 {
		return &Result{Allowed: true}
	}
	res, err := l.bucket.Allow(ctx, fmt.Sprintf(keyUserWrites, userID.String()), l.rate, l.burst)
	if err != nil {
		l.log.Warn("rate limiter unavailable; allowing write",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
		return &Result{Allowed: true}
	}
	return res
}

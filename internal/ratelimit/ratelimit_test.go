package ratelimit

import (
	"context"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/civicpulse/internal/config"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNilClientDisablesRedisHelpers(t *testing.T) {
	assert.Nil(t, NewLocker(nil))
	assert.Nil(t, NewTokenBucket(nil))

	var locker *Locker
	_, ok, err := locker.TryLock(context.Background(), "k", time.Second)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrLockNotConfigured)
	assert.NoError(t, locker.Release(context.Background(), "k", "token"))

	var bucket *TokenBucket
	_, err = bucket.Allow(context.Background(), "k", 1, 1)
	assert.ErrorIs(t, err, ErrLimiterNotConfigured)
}

func TestLockerValidatesArguments(t *testing.T) {
	locker := NewLocker(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}))

	_, _, err := locker.TryLock(context.Background(), "", time.Second)
	assert.ErrorIs(t, err, ErrInvalidLockKey)
	_, _, err = locker.TryLock(context.Background(), "k", 0)
	assert.ErrorIs(t, err, ErrInvalidLockTTL)
}

func TestWriteLimiterDisabledAllows(t *testing.T) {
	limiter := NewWriteLimiter(config.Config{}, nil, zap.NewNop())
	assert.False(t, limiter.Enabled())
	assert.True(t, limiter.Allow(context.Background(), 42).Allowed)

	cfg := config.Config{RateLimit: config.RateLimitConfig{Enabled: true, WritesPerMinute: 30, WriteBurst: 5}}
	limiter = NewWriteLimiter(cfg, nil, zap.NewNop())
	assert.False(t, limiter.Enabled(), "no redis client means no shared budget")
}

func TestWriteLimiterFailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	cfg := config.Config{RateLimit: config.RateLimitConfig{Enabled: true, WritesPerMinute: 30, WriteBurst: 5}}
	limiter := NewWriteLimiter(cfg, client, zap.NewNop())
	assert.True(t, limiter.Enabled())
	assert.True(t, limiter.Allow(context.Background(), 42).Allowed)
}

func TestRetryAfter(t *testing.T) {
	assert.Equal(t, time.Duration(0), retryAfter(true, 0, 1))
	assert.Equal(t, 2*time.Second, retryAfter(false, 0, 0.5))
	assert.Equal(t, 500*time.Millisecond, retryAfter(false, 0.5, 1))
}

func TestBucketTTL(t *testing.T) {
	assert.Equal(t, 20*time.Second, bucketTTL(1, 10))
	assert.Equal(t, time.Second, bucketTTL(100, 1))
	assert.Equal(t, time.Second, bucketTTL(0, 1))
}

func TestScriptValueConversion(t *testing.T) {
	assert.Equal(t, int64(1), toInt64(int64(1)))
	assert.Equal(t, int64(7), toInt64("7"))
	assert.Equal(t, 2.5, toFloat64("2.5"))
	assert.Equal(t, float64(3), toFloat64(int64(3)))
	assert.Equal(t, float64(0), toFloat64(nil))
}

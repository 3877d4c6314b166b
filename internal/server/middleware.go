package server

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/civicpulse/internal/actor"
	obscontext "github.com/smallbiznis/civicpulse/internal/observability/context"
	"github.com/smallbiznis/civicpulse/internal/observability/logger"
	userdomain "github.com/smallbiznis/civicpulse/internal/user/domain"
	"go.uber.org/zap"
)

const (
	// HeaderUserID carries the user id the gateway has already authenticated.
	HeaderUserID     = "X-User-Id"
	contextUserIDKey = "user_id"
)

// ActorRequired resolves the gateway-supplied user into an actor.Actor and
// stores it on the request context. Suspended users still resolve; the
// domain services reject their writes.
func (s *Server) ActorRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if raw == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		a, err := s.userSvc.ResolveActor(c.Request.Context(), raw)
		if err != nil {
			if errors.Is(err, userdomain.ErrUserNotFound) || errors.Is(err, userdomain.ErrInvalidUser) {
				AbortWithError(c, ErrUnauthorized)
				return
			}
			AbortWithError(c, err)
			return
		}

		ctx := actor.WithActor(c.Request.Context(), a)
		ctx = obscontext.WithActor(ctx, "user", a.UserID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Set(contextUserIDKey, a.UserID.String())
		c.Next()
	}
}

// WriteRateLimit applies the per-user write budget. Runs after ActorRequired.
func (s *Server) WriteRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.writeLimiter == nil || !s.writeLimiter.Enabled() {
			c.Next()
			return
		}

		a, ok := actor.FromContext(c.Request.Context())
		if !ok {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		res := s.writeLimiter.Allow(ctx, a.UserID)
		if res.Limit > 0 {
			c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		}
		if res.Allowed {
			c.Next()
			return
		}

		endpoint := normalizeRateLimitEndpoint(c)
		logger.FromContext(ctx).Warn("write rate limit exceeded",
			zap.String("endpoint", endpoint),
		)
		s.obsMetrics.RecordRateLimitDenied(ctx, endpoint)

		retryAfter := int(res.RetryAfter.Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		AbortWithError(c, ErrRateLimited)
	}
}

func currentActor(c *gin.Context) actor.Actor {
	a, _ := actor.FromContext(c.Request.Context())
	return a
}

func normalizeRateLimitEndpoint(c *gin.Context) string {
	if c == nil {
		return "unknown"
	}
	endpoint := strings.TrimSpace(c.FullPath())
	if endpoint == "" {
		endpoint = strings.TrimSpace(c.Request.URL.Path)
	}
	if endpoint == "" {
		endpoint = "unknown"
	}
	return endpoint
}

package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	apperrors "github.com/allisson/viewvault/internal/errors"
	"github.com/allisson/viewvault/internal/httputil"
)

const (
	limiterCleanupInterval = 5 * time.Minute
	limiterIdleTimeout     = time.Hour
)

// limiterStore holds keyed rate limiters with automatic cleanup.
type limiterStore struct {
	limiters sync.Map // map[string]*limiterEntry
	rps      float64
	burst    int
}

// limiterEntry holds a rate limiter and last access time for cleanup.
type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
	mu         sync.Mutex
}

func newLimiterStore(ctx context.Context, rps float64, burst int) *limiterStore {
	store := &limiterStore{rps: rps, burst: burst}
	go store.cleanupStale(ctx, limiterCleanupInterval)
	return store
}

// RateLimitMiddleware enforces per-actor rate limiting on privileged requests.
//
// MUST be used after InternalKeyMiddleware (requires an actor in context). Uses the
// token bucket algorithm via golang.org/x/time/rate. The cleanup goroutine stops
// when ctx is done.
//
// Returns:
//   - 429 Too Many Requests: Rate limit exceeded (includes Retry-After header)
//   - Continues: Request allowed within rate limit
func RateLimitMiddleware(ctx context.Context, rps float64, burst int, logger *slog.Logger) gin.HandlerFunc {
	store := newLimiterStore(ctx, rps, burst)

	return func(c *gin.Context) {
		actor, ok := GetActor(c.Request.Context())
		if !ok {
			logger.Error("rate limit middleware: no authenticated actor in context")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		store.allow(c, "actor:"+actor, logger)
	}
}

// PublicRateLimitMiddleware enforces per-IP rate limiting on unauthenticated
// endpoints such as the owner dashboard.
//
// Uses c.ClientIP(), which honours X-Forwarded-For and X-Real-IP from trusted proxies.
func PublicRateLimitMiddleware(ctx context.Context, rps float64, burst int, logger *slog.Logger) gin.HandlerFunc {
	store := newLimiterStore(ctx, rps, burst)

	return func(c *gin.Context) {
		store.allow(c, "ip:"+c.ClientIP(), logger)
	}
}

// AuthFailureRateLimitMiddleware bounds how often one client IP may present a bad
// internal key. Only rejected requests (401) spend budget, so authenticated traffic
// is unaffected; once the budget is gone the IP gets 429 before the key check runs,
// and no further AUTH_FAILED audit rows are written for it.
//
// MUST be registered before InternalKeyMiddleware.
func AuthFailureRateLimitMiddleware(ctx context.Context, rps float64, burst int, logger *slog.Logger) gin.HandlerFunc {
	store := newLimiterStore(ctx, rps, burst)

	return func(c *gin.Context) {
		key := "auth_failure:" + c.ClientIP()
		limiter := store.getLimiter(key)
		if limiter.Tokens() < 1 {
			tooManyRequests(c, limiter, key, logger)
			return
		}

		c.Next()

		if c.Writer.Status() == http.StatusUnauthorized {
			limiter.Allow()
		}
	}
}

// allow continues the chain if key has budget left and writes a 429 otherwise.
func (s *limiterStore) allow(c *gin.Context, key string, logger *slog.Logger) {
	limiter := s.getLimiter(key)
	if limiter.Allow() {
		c.Next()
		return
	}
	tooManyRequests(c, limiter, key, logger)
}

func tooManyRequests(c *gin.Context, limiter *rate.Limiter, key string, logger *slog.Logger) {
	reservation := limiter.Reserve()
	retryAfter := int(reservation.Delay().Seconds())
	reservation.Cancel()
	if retryAfter < 1 {
		retryAfter = 1
	}

	logger.Debug("rate limit exceeded",
		slog.String("key", key),
		slog.Int("retry_after", retryAfter))

	c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
	c.JSON(http.StatusTooManyRequests, gin.H{
		"error":   "rate_limit_exceeded",
		"message": "Too many requests. Please retry after the specified delay.",
	})
	c.Abort()
}

// getLimiter retrieves or creates the rate limiter for key.
func (s *limiterStore) getLimiter(key string) *rate.Limiter {
	if val, ok := s.limiters.Load(key); ok {
		entry := val.(*limiterEntry)
		entry.mu.Lock()
		entry.lastAccess = time.Now()
		entry.mu.Unlock()
		return entry.limiter
	}

	entry := &limiterEntry{
		limiter:    rate.NewLimiter(rate.Limit(s.rps), s.burst),
		lastAccess: time.Now(),
	}
	actual, _ := s.limiters.LoadOrStore(key, entry)
	return actual.(*limiterEntry).limiter
}

// cleanupStale removes rate limiters that haven't been accessed recently.
func (s *limiterStore) cleanupStale(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.removeIdle(time.Now().Add(-limiterIdleTimeout))
		}
	}
}

func (s *limiterStore) removeIdle(threshold time.Time) {
	s.limiters.Range(func(key, value any) bool {
		entry := value.(*limiterEntry)
		entry.mu.Lock()
		stale := entry.lastAccess.Before(threshold)
		entry.mu.Unlock()

		if stale {
			s.limiters.Delete(key)
		}
		return true
	})
}

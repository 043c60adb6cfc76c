package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	auditDomain "github.com/allisson/viewvault/internal/audit/domain"
	auditTesting "github.com/allisson/viewvault/internal/audit/testing"
	authService "github.com/allisson/viewvault/internal/auth/service"
)

func newActorRouter(t *testing.T, rps float64, burst int, actor string) *gin.Engine {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		if actor != "" {
			c.Request = c.Request.WithContext(WithActor(c.Request.Context(), actor))
		}
		c.Next()
	})
	router.Use(RateLimitMiddleware(ctx, rps, burst, createTestLogger()))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

func serve(router *gin.Engine, remoteAddr string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimitMiddleware_AllowsRequestsWithinLimit(t *testing.T) {
	router := newActorRouter(t, 10.0, 20, "ops")

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, serve(router, "").Code)
	}
}

func TestRateLimitMiddleware_BlocksRequestsExceedingLimit(t *testing.T) {
	router := newActorRouter(t, 0.5, 2, "ops")

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, serve(router, "").Code)
	}

	w := serve(router, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestRateLimitMiddleware_RequiresActor(t *testing.T) {
	router := newActorRouter(t, 10.0, 20, "")
	assert.Equal(t, http.StatusUnauthorized, serve(router, "").Code)
}

func TestPublicRateLimitMiddleware_PerIP(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	router := gin.New()
	router.Use(PublicRateLimitMiddleware(ctx, 0.5, 1, createTestLogger()))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, serve(router, "192.0.2.1:1234").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(router, "192.0.2.1:1234").Code)
	assert.Equal(t, http.StatusOK, serve(router, "192.0.2.2:1234").Code)
}

func newAuthFailureRouter(t *testing.T, burst int, recorder *auditTesting.Recorder) *gin.Engine {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	router := gin.New()
	router.Use(AuthFailureRateLimitMiddleware(ctx, 0.001, burst, createTestLogger()))
	router.Use(InternalKeyMiddleware(authService.NewKeyVerifier(testKey), recorder, createTestLogger()))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func serveWithKey(router *gin.Engine, remoteAddr, key string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = remoteAddr
	req.Header.Set(KeyHeader, key)
	router.ServeHTTP(w, req)
	return w
}

func TestAuthFailureRateLimitMiddleware(t *testing.T) {
	t.Run("bounds audit rows per ip", func(t *testing.T) {
		recorder := auditTesting.NewRecorder()
		router := newAuthFailureRouter(t, 3, recorder)

		codes := map[int]int{}
		for i := 0; i < 200; i++ {
			codes[serveWithKey(router, "198.51.100.7:4000", "wrong-key").Code]++
		}

		assert.Equal(t, map[int]int{http.StatusUnauthorized: 3, http.StatusTooManyRequests: 197}, codes)
		assert.Len(t, recorder.ByAction(auditDomain.ActionAuthFailed), 3)
	})

	t.Run("valid keys spend no budget", func(t *testing.T) {
		recorder := auditTesting.NewRecorder()
		router := newAuthFailureRouter(t, 1, recorder)

		for i := 0; i < 20; i++ {
			assert.Equal(t, http.StatusOK, serveWithKey(router, "198.51.100.8:4000", testKey).Code)
		}
		assert.Equal(t, http.StatusUnauthorized, serveWithKey(router, "198.51.100.8:4000", "wrong-key").Code)
		assert.Equal(t, http.StatusTooManyRequests, serveWithKey(router, "198.51.100.8:4000", "wrong-key").Code)
		assert.Len(t, recorder.Records(), 1)
	})

	t.Run("other ips keep their budget", func(t *testing.T) {
		router := newAuthFailureRouter(t, 1, auditTesting.NewRecorder())

		assert.Equal(t, http.StatusUnauthorized, serveWithKey(router, "198.51.100.9:4000", "wrong-key").Code)
		assert.Equal(t, http.StatusTooManyRequests, serveWithKey(router, "198.51.100.9:4000", "wrong-key").Code)
		assert.Equal(t, http.StatusUnauthorized, serveWithKey(router, "198.51.100.10:4000", "wrong-key").Code)
	})
}

func TestLimiterStore_RemoveIdle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := newLimiterStore(ctx, 1, 1)
	store.getLimiter("a")
	store.getLimiter("b")

	store.removeIdle(time.Now().Add(time.Minute))

	count := 0
	store.limiters.Range(func(key, value any) bool {
		count++
		return true
	})
	assert.Zero(t, count)
}

package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"accounts.backend/pkg/redis"
)

type limiterStub struct {
	err      error
	resetErr error
	resets   []string
}

func (s *limiterStub) Hit(context.Context, string) (redis.Window, error) {
	if s.err != nil {
		return redis.Window{}, s.err
	}
	return redis.Window{Count: 1, Limit: 5, Remaining: 4}, nil
}

func (s *limiterStub) Reset(_ context.Context, key string) error {
	s.resets = append(s.resets, key)
	return s.resetErr
}

func newRateLimitedRouter(limiter RateLimiter) *gin.Engine {
	return newRateLimitedRouterWithStatus(limiter, http.StatusNoContent)
}

func newRateLimitedRouterWithStatus(limiter RateLimiter, status int) *gin.Engine {
	r := gin.New()
	r.POST("/login", RateLimitMiddleware(limiter, "login"), func(c *gin.Context) { c.Status(status) })
	return r
}

func TestRateLimitMiddleware_Redis(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	r := newRateLimitedRouterWithStatus(redis.NewFixedWindowLimiter(rdb, "rl:", 2, time.Minute), http.StatusUnauthorized)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		require.Equal(t, http.StatusUnauthorized, w.Code)
		require.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	require.NotEmpty(t, w.Header().Get("Retry-After"))

	mr.FastForward(time.Minute + time.Second)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRateLimitMiddleware_SuccessClearsWindow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	r := newRateLimitedRouter(redis.NewFixedWindowLimiter(rdb, "rl:", 1, time.Minute))
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		require.Equal(t, http.StatusNoContent, w.Code)
	}
	require.False(t, mr.Exists("rl:login:192.0.2.1"))
}

func TestRateLimitMiddleware_ResetOnlyAfterSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)

	stub := &limiterStub{}
	w := httptest.NewRecorder()
	newRateLimitedRouterWithStatus(stub, http.StatusUnauthorized).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Empty(t, stub.resets)

	w = httptest.NewRecorder()
	newRateLimitedRouter(stub).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, []string{"login:192.0.2.1"}, stub.resets)

	stub.resetErr = errors.New("redis down")
	w = httptest.NewRecorder()
	newRateLimitedRouter(stub).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestRateLimitMiddleware_FailsOpen(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	newRateLimitedRouter(&limiterStub{err: errors.New("redis down")}).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
	require.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	newRateLimitedRouter(nil).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
	require.Equal(t, http.StatusNoContent, w.Code)
}

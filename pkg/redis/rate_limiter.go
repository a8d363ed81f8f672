package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNoClient is returned when the limiter has no Redis connection
var ErrNoClient = errors.New("redis client not configured")

// INCR the window counter and arm its expiry on the first hit
var incrExpireScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// Window is the state of one fixed rate-limit window after a hit
type Window struct {
	Count     int
	Limit     int
	Remaining int
	ResetIn   time.Duration
}

// Exceeded reports whether the hit went over the limit
func (w Window) Exceeded() bool {
	return w.Count > w.Limit
}

// FixedWindowLimiter counts hits per key in fixed windows
type FixedWindowLimiter struct {
	rdb    *redis.Client
	prefix string
	limit  int
	window time.Duration
}

// NewFixedWindowLimiter creates a limiter. A nil rdb falls back to the package client at hit time.
func NewFixedWindowLimiter(rdb *redis.Client, prefix string, limit int, window time.Duration) *FixedWindowLimiter {
	return &FixedWindowLimiter{rdb: rdb, prefix: prefix, limit: limit, window: window}
}

func (l *FixedWindowLimiter) conn() *redis.Client {
	if l.rdb != nil {
		return l.rdb
	}
	return client
}

// Hit records one attempt for key
func (l *FixedWindowLimiter) Hit(ctx context.Context, key string) (Window, error) {
	rdb := l.conn()
	if rdb == nil {
		return Window{}, ErrNoClient
	}
	fullKey := l.prefix + key

	res, err := incrExpireScript.Run(ctx, rdb, []string{fullKey}, l.window.Milliseconds()).Result()
	if err != nil {
		return Window{}, err
	}
	count := toInt(res)

	ttl, err := rdb.PTTL(ctx, fullKey).Result()
	if err != nil || ttl < 0 {
		ttl = 0
	}

	remaining := l.limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Window{Count: count, Limit: l.limit, Remaining: remaining, ResetIn: ttl}, nil
}

// Reset drops the counter for key
func (l *FixedWindowLimiter) Reset(ctx context.Context, key string) error {
	rdb := l.conn()
	if rdb == nil {
		return ErrNoClient
	}
	return rdb.Del(ctx, l.prefix+key).Err()
}

func toInt(v interface{}) int {
	switch x := v.(type) {
	case int64:
		return int(x)
	case int:
		return x
	case string:
		i, _ := strconv.Atoi(x)
		return i
	}
	return 0
}

package ratelimit

import (
	"context"
	"time"

	"rental-settlement/internal/pkg/errs"

	"github.com/redis/go-redis/v9"
)

// fixedWindowScript increments the counter and starts the window on first hit.
// Returns {count, pttl}.
var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// RedisLimiter shares fixed-window counters across instances.
type RedisLimiter struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisLimiter(client redis.UniversalClient, prefix string) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: prefix}
}

func (l *RedisLimiter) Check(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	values, err := fixedWindowScript.Run(ctx, l.client, []string{l.prefix + key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return Result{}, errs.Wrap(err, "rate limit script failed")
	}
	if len(values) != 2 {
		return Result{}, errs.New("rate limit script returned unexpected result")
	}

	count, ttl := int(values[0]), time.Duration(values[1])*time.Millisecond
	if count > limit {
		return Result{}, &ExceededError{Key: key, Limit: limit, Remaining: 0, Reset: ttl}
	}
	return Result{Limit: limit, Remaining: limit - count, Reset: ttl}, nil
}

func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.prefix+key).Err(); err != nil {
		return errs.Wrap(err, "failed to reset rate limit key")
	}
	return nil
}

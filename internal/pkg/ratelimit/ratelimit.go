// Package ratelimit implements fixed-window request throttling keyed by
// "route:identifier". It is an abuse-mitigation layer only; correctness of
// settlement never depends on it.
package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

type Limiter interface {
	// Check counts one call against key. Over the limit it returns an
	// *ExceededError carrying the time left in the current window.
	Check(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
	Reset(ctx context.Context, key string) error
}

type Result struct {
	Limit     int
	Remaining int
	// Reset is the time left until the current window expires.
	Reset time.Duration
}

type ExceededError struct {
	Key       string
	Limit     int
	Remaining int
	Reset     time.Duration
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s: retry in %s", e.Key, e.Reset)
}

func (e *ExceededError) StatusCode() int {
	return http.StatusTooManyRequests
}

// RetryAfterSeconds rounds up so clients never retry inside the window.
func (e *ExceededError) RetryAfterSeconds() int64 {
	return ceilSeconds(e.Reset)
}

func Key(route, identifier string) string {
	return route + ":" + identifier
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64((d + time.Second - 1) / time.Second)
}

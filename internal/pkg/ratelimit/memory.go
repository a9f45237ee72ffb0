package ratelimit

import (
	"context"
	"sync"
	"time"

	"rental-settlement/internal/pkg/clock"
)

type bucket struct {
	count     int
	expiresAt time.Time
}

// MemoryLimiter keeps buckets in process memory; state is lost on restart
// and not shared between instances.
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	clock   clock.Clock
}

func NewMemoryLimiter(clk clock.Clock) *MemoryLimiter {
	return &MemoryLimiter{
		buckets: make(map[string]*bucket),
		clock:   clk,
	}
}

func (l *MemoryLimiter) Check(_ context.Context, key string, limit int, window time.Duration) (Result, error) {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok || !now.Before(b.expiresAt) {
		b = &bucket{count: 1, expiresAt: now.Add(window)}
		l.buckets[key] = b
		return Result{Limit: limit, Remaining: max(limit-1, 0), Reset: window}, nil
	}

	resetIn := b.expiresAt.Sub(now)
	if b.count >= limit {
		return Result{}, &ExceededError{Key: key, Limit: limit, Remaining: 0, Reset: resetIn}
	}

	b.count++
	return Result{Limit: limit, Remaining: limit - b.count, Reset: resetIn}, nil
}

func (l *MemoryLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	delete(l.buckets, key)
	l.mu.Unlock()
	return nil
}

// Sweep drops expired buckets and reports how many were removed.
func (l *MemoryLimiter) Sweep(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, b := range l.buckets {
		if !now.Before(b.expiresAt) {
			delete(l.buckets, key)
			removed++
		}
	}
	return removed
}

func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MinGap enforces a minimum wall-clock gap between any two consecutive
// acquisitions across all callers in the process. The mutex is held for the
// whole read-wait-update sequence so concurrent callers cannot observe a
// stale last-call timestamp.
type MinGap struct {
	mu    sync.Mutex
	gap   time.Duration
	last  time.Time
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewMinGap builds a limiter from a calls-per-minute budget.
func NewMinGap(maxCallsPerMinute int) *MinGap {
	if maxCallsPerMinute <= 0 {
		maxCallsPerMinute = 1
	}
	return &MinGap{
		gap:   time.Minute / time.Duration(maxCallsPerMinute),
		now:   time.Now,
		sleep: sleepContext,
	}
}

// Gap returns the configured minimum gap.
func (l *MinGap) Gap() time.Duration {
	return l.gap
}

// Acquire blocks until the minimum gap since the previous acquisition has
// elapsed, then records the new last-call timestamp before releasing the
// exclusion. Waiters are served in lock-acquisition order.
func (l *MinGap) Acquire(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.last.IsZero() {
		if wait := l.gap - l.now().Sub(l.last); wait > 0 {
			if err := l.sleep(ctx, wait); err != nil {
				return err
			}
		}
	}
	l.last = l.now()
	return nil
}

// sleepContext waits for d or until the context is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

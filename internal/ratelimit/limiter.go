package ratelimit

import "context"

// Limiter gates outbound classification calls.
type Limiter interface {
	// Acquire blocks until the caller is allowed to issue the next call.
	Acquire(ctx context.Context) error
}

// Noop is a Limiter that never delays.
var Noop Limiter = noopLimiter{}

// noopLimiter satisfies Limiter without enforcing a gap.
type noopLimiter struct{}

// Acquire allows every call immediately.
func (noopLimiter) Acquire(_ context.Context) error {
	return nil
}

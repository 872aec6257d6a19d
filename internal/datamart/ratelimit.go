package datamart

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter caps how often a source may hit the Datamart. A refused call is
// reported as ErrRateLimited rather than being dropped silently, so callers
// can choose to wait or skip. A nil *RateLimiter allows everything.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter allows calls per period, with bursts of up to calls.
// It returns nil when calls or period is not positive.
func NewRateLimiter(calls int, period time.Duration) *RateLimiter {
	if calls <= 0 || period <= 0 {
		return nil
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Every(period/time.Duration(calls)), calls),
	}
}

// Allow consumes one call or returns ErrRateLimited.
func (l *RateLimiter) Allow() error {
	if l == nil {
		return nil
	}
	if !l.limiter.Allow() {
		return ErrRateLimited
	}
	return nil
}

// Wait blocks until a call is allowed or ctx is done.
func (l *RateLimiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	return l.limiter.Wait(ctx)
}

package rate_limiter

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// CreateLimiter creates a limiter that lets one request through per delay.
// The first request is never delayed.
func CreateLimiter(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

// SleepUntilReady blocks until the limiter allows the next request or ctx ends.
func SleepUntilReady(ctx context.Context, limiter *rate.Limiter) error {
	if limiter == nil {
		return ctx.Err()
	}
	return limiter.Wait(ctx)
}

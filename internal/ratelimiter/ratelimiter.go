// Package ratelimiter throttles outbound work with a token bucket.
package ratelimiter

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/time/rate"
)

// RateLimiter wraps golang.org/x/time/rate.
//
// The fetch handler takes one token per outbound request. Tokens refill at
// requestsPerSecond and at most burst can accumulate, so short spikes pass
// without delay while the sustained rate stays bounded.
//
// Thread safety:
// All methods are safe for concurrent use.
type RateLimiter struct {
	limiter *rate.Limiter
}

// New creates a RateLimiter.
//
// Special cases:
//   - requestsPerSecond <= 0: unlimited; Wait and Allow never throttle
//   - burst == 0: defaults to ceil(requestsPerSecond), at least 1, so a single
//     request can always eventually proceed
//
// Example:
//
//	// 5 fetches/s sustained, bursts of 10
//	limiter := New(5, 10)
func New(requestsPerSecond float64, burst uint) *RateLimiter {
	if requestsPerSecond <= 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}

	if burst == 0 {
		burst = uint(math.Max(1, math.Ceil(requestsPerSecond)))
	}

	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), int(burst)),
	}
}

// Unlimited reports whether the limiter never throttles.
func (r *RateLimiter) Unlimited() bool {
	return r.limiter.Limit() == rate.Inf
}

// Allow takes a token if one is available, without waiting.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// Wait blocks until a token is available or ctx is done.
//
// Returns the context error (wrapped) when the wait is abandoned, including
// the case where ctx's deadline is too close for a token to arrive in time.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if err := r.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("rate limit wait: %w", ctxErr)
		}
		return fmt.Errorf("rate limit wait: %w", context.DeadlineExceeded)
	}
	return nil
}

// SetLimit changes the sustained rate. Zero or less removes the limit.
func (r *RateLimiter) SetLimit(requestsPerSecond float64) {
	if requestsPerSecond <= 0 {
		r.limiter.SetLimit(rate.Inf)
		return
	}
	r.limiter.SetLimit(rate.Limit(requestsPerSecond))
	if r.limiter.Burst() == 0 {
		r.limiter.SetBurst(int(math.Max(1, math.Ceil(requestsPerSecond))))
	}
}

// Tokens returns the tokens currently in the bucket, for monitoring.
func (r *RateLimiter) Tokens() float64 {
	return r.limiter.Tokens()
}

// String renders the limit for logs.
func (r *RateLimiter) String() string {
	if r.Unlimited() {
		return "unlimited"
	}
	return fmt.Sprintf("%.2f/s burst %d", float64(r.limiter.Limit()), r.limiter.Burst())
}

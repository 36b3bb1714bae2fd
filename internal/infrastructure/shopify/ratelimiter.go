package shopify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// RateLimiter paces outbound requests so one process stays under the remote
// platform's REST bucket refill rate (2 requests per second by default).
type RateLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	next     time.Time
	logger   zerolog.Logger
}

// NewRateLimiter creates a limiter at the default 2 req/s pace.
func NewRateLimiter(logger zerolog.Logger) *RateLimiter {
	return NewRateLimiterWithInterval(500*time.Millisecond, logger)
}

// NewRateLimiterWithInterval creates a limiter with a custom minimum
// interval between requests.
func NewRateLimiterWithInterval(interval time.Duration, logger zerolog.Logger) *RateLimiter {
	return &RateLimiter{
		interval: interval,
		logger:   logger,
	}
}

// Wait blocks until the next request slot, or until ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	rl.mu.Lock()
	now := time.Now()
	wait := rl.next.Sub(now)
	if wait < 0 {
		wait = 0
	}
	rl.next = now.Add(wait + rl.interval)
	rl.mu.Unlock()

	if wait == 0 {
		return nil
	}
	select {
	case <-time.After(wait):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RetryConfig controls how 429 responses are retried before a pull aborts.
type RetryConfig struct {
	// MaxAttempts is the total number of tries per request.
	MaxAttempts int
	// BaseDelay is used when the response carries no Retry-After header.
	BaseDelay time.Duration
}

// DefaultRetryConfig returns the retry settings used in production.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   2 * time.Second,
	}
}

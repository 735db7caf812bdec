package util

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a token-bucket limiter replenishing at a fixed per-minute
// rate. Bar-data providers share one limiter per API key.
type RateLimiter struct {
	rate     float64 // tokens per second
	tokens   float64
	lastTime time.Time
	mu       sync.Mutex
}

// NewRateLimiter creates a RateLimiter allowing perMinute operations per
// minute.
func NewRateLimiter(perMinute int) *RateLimiter {
	return &RateLimiter{
		rate:     float64(perMinute) / 60.0,
		tokens:   1, // one token available immediately
		lastTime: time.Now(),
	}
}

// Wait blocks until a token is available or ctx is cancelled.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		rl.mu.Lock()
		now := time.Now()
		elapsed := now.Sub(rl.lastTime).Seconds()
		rl.tokens += elapsed * rl.rate
		if rl.tokens > 1 {
			rl.tokens = 1
		}
		rl.lastTime = now

		if rl.tokens >= 1 {
			rl.tokens -= 1
			rl.mu.Unlock()
			return nil
		}
		rl.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
}

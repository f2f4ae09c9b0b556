// Package ratelimit provides rate limiting for API calls using a token bucket algorithm.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/breachnotifier/breach-notifier/internal/logging"
)

// RateLimiter is a token bucket limiter.
// It allows bursts up to burstSize, then refills at tokensPerSecond.
type RateLimiter struct {
	limiter      *rate.Limiter
	name         string
	logger       *logging.Logger
	lastWarnTime time.Time // Last time we warned user about rate limiting
	mu           sync.Mutex
}

// NewRateLimiter creates a new rate limiter.
//
// Parameters:
//   - tokensPerSecond: Rate at which tokens are added (e.g., 0.166 for 10/minute)
//   - burstSize: Maximum tokens that can accumulate (allows brief bursts)
func NewRateLimiter(tokensPerSecond float64, burstSize int) *RateLimiter {
	if burstSize < 1 {
		burstSize = 1
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(tokensPerSecond), burstSize),
		logger:  logging.Nop(),
	}
}

// WithLogger attaches a logger used for long-wait warnings.
func (rl *RateLimiter) WithLogger(name string, logger *logging.Logger) *RateLimiter {
	rl.name = name
	if logger != nil {
		rl.logger = logger
	}
	return rl
}

// Wait blocks until a token is available or context is cancelled.
// Returns an error if the context is cancelled before a token becomes available.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	r := rl.limiter.Reserve()
	if !r.OK() {
		return rl.limiter.Wait(ctx)
	}

	delay := r.Delay()
	if delay == 0 {
		return nil
	}

	if delay > WarnWaitThreshold {
		rl.mu.Lock()
		// Only warn every 10 seconds to avoid spam
		if time.Since(rl.lastWarnTime) > WarnInterval {
			rl.logger.Warn().Str("scope", rl.name).Msgf("Rate limited: waiting ~%.1fs for API capacity...", delay.Seconds())
			rl.lastWarnTime = time.Now()
		}
		rl.mu.Unlock()
	}

	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < delay {
		r.Cancel()
		return context.DeadlineExceeded
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Allow reports whether a token is available right now and consumes it if so.
func (rl *RateLimiter) Allow() bool {
	return rl.limiter.Allow()
}

// GetCurrentTokens returns the current number of tokens.
func (rl *RateLimiter) GetCurrentTokens() float64 {
	return rl.limiter.Tokens()
}

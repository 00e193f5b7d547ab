package gdocs

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Docs API quotas are per user per minute; stay well below them.
const (
	defaultRequestsPerSecond = 1.0
	defaultBurst             = 5
)

// rateLimiter is a token bucket with a backoff window after 429 responses.
type rateLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
}

func newRateLimiter(rps float64, burst int) *rateLimiter {
	return &rateLimiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Wait blocks until a request may be sent, honouring any backoff.
func (r *rateLimiter) Wait(ctx context.Context) error {
	if d := r.pause(); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return r.limiter.Wait(ctx)
}

func (r *rateLimiter) pause() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return time.Until(r.retryAt)
}

// Backoff holds further requests for the Retry-After window, or a minute
// when the server did not send one.
func (r *rateLimiter) Backoff(retryAfterSeconds int) {
	wait := time.Minute
	if retryAfterSeconds > 0 {
		wait = time.Duration(retryAfterSeconds) * time.Second
	}
	r.mu.Lock()
	r.retryAt = time.Now().Add(wait)
	r.mu.Unlock()
}

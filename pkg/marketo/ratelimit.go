package marketo

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter keeps request starts at least interval apart. One instance
// belongs to one Client and is shared by every call it makes, token fetches
// included.
type RateLimiter struct {
	mu       sync.Mutex
	limiter  *rate.Limiter
	interval time.Duration
	last     time.Time
}

// NewRateLimiter returns a limiter for interval. A non-positive interval
// disables limiting.
func NewRateLimiter(interval time.Duration) *RateLimiter {
	l := &RateLimiter{interval: interval}
	if interval > 0 {
		l.limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
	return l
}

// Interval returns the configured spacing.
func (l *RateLimiter) Interval() time.Duration { return l.interval }

// Acquire blocks until a request may start, then records the start. Waiters
// are served one at a time.
func (l *RateLimiter) Acquire(ctx context.Context) error {
	if l == nil || l.limiter == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.limiter.Wait(ctx); err != nil {
		return err
	}

	// rate.Limiter does its token math in float64; top up whatever rounding
	// shaved off so the gap is never below interval. time.Since is monotonic.
	if !l.last.IsZero() {
		if wait := l.interval - time.Since(l.last); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	l.last = time.Now()
	return nil
}

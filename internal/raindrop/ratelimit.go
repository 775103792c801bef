package raindrop

import (
	"context"
	"sync"
	"time"
)

const (
	DefaultRequestsPerMinute = 60
	DefaultRequestDelay      = 300 * time.Millisecond

	rateWindow = time.Minute
)

// Clock abstracts time for the rate limiter.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done.
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// RateLimiter paces requests against a per-minute quota. While under quota
// every call still waits the politeness delay; once the quota is used up the
// caller is suspended until the window rolls over.
//
// The lock is held for the whole of CheckLimit, so concurrent callers are
// serialised and observe the same window.
type RateLimiter struct {
	mu      sync.Mutex
	clock   Clock
	max     int
	delay   time.Duration
	count   int
	resetAt time.Time
}

type RateLimiterOption func(*RateLimiter)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c Clock) RateLimiterOption {
	return func(l *RateLimiter) { l.clock = c }
}

// NewRateLimiter returns a limiter allowing maxPerMinute requests per window
// with delay between consecutive requests. Non-positive values fall back to
// the defaults; a negative delay is treated as zero.
func NewRateLimiter(maxPerMinute int, delay time.Duration, opts ...RateLimiterOption) *RateLimiter {
	if maxPerMinute <= 0 {
		maxPerMinute = DefaultRequestsPerMinute
	}
	if delay < 0 {
		delay = 0
	}
	l := &RateLimiter{
		clock: realClock{},
		max:   maxPerMinute,
		delay: delay,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.resetAt = l.clock.Now().Add(rateWindow)
	return l
}

// CheckLimit waits until another request may be issued and counts it.
func (l *RateLimiter) CheckLimit(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	if now.After(l.resetAt) {
		l.resetAt = now.Add(rateWindow)
		l.count = 0
	}

	if l.count >= l.max {
		if err := l.clock.Sleep(ctx, l.resetAt.Sub(now)); err != nil {
			return err
		}
		l.resetAt = l.clock.Now().Add(rateWindow)
		l.count = 0
	} else if err := l.clock.Sleep(ctx, l.delay); err != nil {
		return err
	}

	l.count++
	return nil
}

// ResetCounter starts a fresh window. Used after the server rejected a
// request for exceeding its own limit.
func (l *RateLimiter) ResetCounter() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.resetAt = l.clock.Now().Add(rateWindow)
	l.count = 0
}

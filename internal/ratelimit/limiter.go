// Package ratelimit paces outbound catalog requests.
//
// Limiter is a token bucket holding at most one token that refills once per
// interval, so consecutive Wait calls return at least one interval apart.
// Callers acquire before each request. The clock is injectable so pacing can
// be verified without sleeping.
//
// The bucket starts full: the first request of a process goes out without
// waiting, and only later requests are delayed. This differs from a fixed
// sleep before every request, which would also delay the first one.
package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Clock supplies time to the limiter.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// SystemClock uses the wall clock and real timers.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Sleep blocks for d, returning early if the context is cancelled.
func (SystemClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Limiter enforces a minimum interval between acquisitions.
type Limiter struct {
	mu       sync.Mutex
	interval time.Duration
	bucket   *rate.Limiter
	clock    Clock
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides the system clock.
func WithClock(clock Clock) Option {
	return func(l *Limiter) {
		if clock != nil {
			l.clock = clock
		}
	}
}

// New returns a limiter allowing one acquisition per interval. The first
// acquisition is immediate. A non-positive interval disables pacing.
func New(interval time.Duration, opts ...Option) *Limiter {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	l := &Limiter{
		interval: interval,
		bucket:   rate.NewLimiter(limit, 1),
		clock:    SystemClock{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Interval reports the configured minimum spacing.
func (l *Limiter) Interval() time.Duration {
	return l.interval
}

// Wait blocks until a token is available or ctx is done. A cancelled wait
// returns its reservation so the next caller is not delayed by it.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.interval <= 0 {
		return ctx.Err()
	}

	l.mu.Lock()
	now := l.clock.Now()
	reservation := l.bucket.ReserveN(now, 1)
	l.mu.Unlock()
	if !reservation.OK() {
		return errors.New("rate limiter cannot grant a token")
	}

	if err := l.clock.Sleep(ctx, reservation.DelayFrom(now)); err != nil {
		reservation.CancelAt(l.clock.Now())
		return err
	}
	return nil
}

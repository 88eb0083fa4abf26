package engine

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"
)

const (
	decayFactor  = 0.9
	growthFactor = 1.5
	maxJitter    = 500 * time.Millisecond
)

// Bounds is the allowed range of the adaptive delay.
type Bounds struct {
	Min time.Duration
	Max time.Duration
}

// DefaultBounds is the range used by the provider client.
var DefaultBounds = Bounds{Min: time.Second, Max: 30 * time.Second}

// ConservativeBounds caps backoff lower for short interactive runs.
var ConservativeBounds = Bounds{Min: time.Second, Max: 10 * time.Second}

// Validate checks 0 < Min <= Max.
func (b Bounds) Validate() error {
	if b.Min <= 0 {
		return fmt.Errorf("rate limit min delay must be positive, got %s", b.Min)
	}
	if b.Max < b.Min {
		return fmt.Errorf("rate limit max delay %s is below min delay %s", b.Max, b.Min)
	}
	return nil
}

// AdaptiveLimiter paces outbound provider calls. The delay shrinks by 10% on
// success and grows by 50% on failure, always within [Min, Max]. It is safe
// for concurrent use.
type AdaptiveLimiter struct {
	// Jitter returns the random extra delay; defaults to uniform [0, 500ms).
	Jitter func() time.Duration
	// Sleep blocks for d or until ctx is done.
	Sleep func(ctx context.Context, d time.Duration) error

	mu      sync.Mutex
	bounds  Bounds
	current time.Duration
}

// NewAdaptiveLimiter returns a limiter starting at the minimum delay.
func NewAdaptiveLimiter(bounds Bounds) (*AdaptiveLimiter, error) {
	if err := bounds.Validate(); err != nil {
		return nil, err
	}
	return &AdaptiveLimiter{bounds: bounds, current: bounds.Min}, nil
}

// Wait blocks for the current delay plus jitter. It must be called
// immediately before every outbound fetch.
func (l *AdaptiveLimiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	delay := l.Current() + l.jitter()

	sleep := l.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	return sleep(ctx, delay)
}

// Success decays the delay toward the minimum.
func (l *AdaptiveLimiter) Success() {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	next := time.Duration(float64(l.current) * decayFactor)
	if next < l.bounds.Min {
		next = l.bounds.Min
	}
	l.current = next
}

// Failure grows the delay toward the maximum.
func (l *AdaptiveLimiter) Failure() {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	next := time.Duration(float64(l.current) * growthFactor)
	if next > l.bounds.Max {
		next = l.bounds.Max
	}
	l.current = next
}

// Hold raises the delay to at least d, capped at the maximum. It applies a
// server-sent Retry-After hint.
func (l *AdaptiveLimiter) Hold(d time.Duration) {
	if l == nil || d <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if d > l.bounds.Max {
		d = l.bounds.Max
	}
	if d > l.current {
		l.current = d
	}
}

// Current returns the delay Wait would apply before jitter.
func (l *AdaptiveLimiter) Current() time.Duration {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// Bounds returns the configured range.
func (l *AdaptiveLimiter) Bounds() Bounds {
	if l == nil {
		return Bounds{}
	}
	return l.bounds
}

func (l *AdaptiveLimiter) jitter() time.Duration {
	if l.Jitter != nil {
		return l.Jitter()
	}
	return time.Duration(rand.Int64N(int64(maxJitter)))
}

func sleepContext(ctx context.Context, d time.Duration) error {
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

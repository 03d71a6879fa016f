package dispatch

import (
	"context"
	"math/rand"
	"time"
)

// Default backoff configuration values for throttled sends.
const (
	DefaultBackoffInitial = 500 * time.Millisecond
	DefaultBackoffMax     = 10 * time.Second
)

// backoff implements exponential backoff with jitter.
type backoff struct {
	initial time.Duration
	max     time.Duration
	current time.Duration
}

// newBackoff creates a new backoff with the given initial and max durations.
func newBackoff(initial, max time.Duration) *backoff {
	return &backoff{
		initial: initial,
		max:     max,
		current: initial,
	}
}

// Sleep waits for the current backoff duration (or hint, when the platform
// supplied one) and increases the duration for next time. Returns early with
// the context's error when ctx is cancelled.
func (b *backoff) Sleep(ctx context.Context, hint time.Duration) error {
	wait := b.current
	if hint > 0 {
		wait = hint
	}
	// Add jitter: ±20%
	jitter := float64(wait) * 0.2 * (rand.Float64()*2 - 1)
	wait = time.Duration(float64(wait) + jitter)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
	}

	b.current *= 2
	if b.current > b.max {
		b.current = b.max
	}
	return nil
}

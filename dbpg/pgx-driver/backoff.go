package pgxdriver

import (
	"math/rand"
	"time"
)

// Backoff produces retry delays with full jitter. The window doubles after
// every call and never exceeds limit.
type Backoff struct {
	window time.Duration
	limit  time.Duration
}

// NewBackoff starts the window at base. Both durations must be positive.
func NewBackoff(base, limit time.Duration) *Backoff {
	return &Backoff{window: base, limit: limit}
}

// Next returns a random delay below 2*window, capped at limit, and widens
// the window.
func (b *Backoff) Next() time.Duration {
	//nolint:gosec
	d := min(time.Duration(rand.Int63n(int64(2*b.window))), b.limit)
	b.window = min(2*b.window, b.limit)
	return d
}

// Package retry repeats an operation with a growing delay between attempts.
// It is used to establish connections; failed batches are never retried.
package retry

import (
	"context"
	"time"
)

// Strategy describes how many times an operation is attempted and how long
// to wait between attempts.
type Strategy struct {
	Attempts int
	Delay    time.Duration
	Backoff  float64 // множитель для увеличения задержки
}

// Once is a Strategy with a single attempt.
var Once = Strategy{Attempts: 1}

// Do calls fn until it succeeds or the attempts are exhausted and returns
// the last error.
func Do(fn func() error, strat Strategy) error {
	return DoContext(context.Background(), strat, fn)
}

// DoContext is Do that stops waiting when ctx is done. It returns ctx.Err()
// if the context ends between attempts.
func DoContext(ctx context.Context, strat Strategy, fn func() error) error {
	attempts := max(strat.Attempts, 1)
	delay := strat.Delay

	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if strat.Backoff > 0 {
			delay = time.Duration(float64(delay) * strat.Backoff)
		}
	}
	return err
}

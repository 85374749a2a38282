package transaction

import (
	"errors"
	"time"
)

// Option validation errors returned by NewManager.
var (
	ErrInvalidMaxAttempts    = errors.New("max attempts must be positive")
	ErrInvalidBaseRetryDelay = errors.New("base retry delay must be positive")
	ErrInvalidMaxRetryDelay  = errors.New("max retry delay must be positive")
	ErrBaseExceedsMaxDelay   = errors.New("base retry delay is greater than max retry delay")
)

// Option configures the transaction manager.
type Option func(*manager)

// MaxAttempts sets how many times ExecuteInTransaction runs a function,
// including the first try. Batch transactions are never retried.
func MaxAttempts(attempts int) Option {
	return func(m *manager) { m.maxAttempts = attempts }
}

// BaseRetryDelay sets the initial delay between ExecuteInTransaction attempts.
func BaseRetryDelay(delay time.Duration) Option {
	return func(m *manager) { m.baseRetryDelay = delay }
}

// MaxRetryDelay sets the upper bound for the delay between attempts.
func MaxRetryDelay(delay time.Duration) Option {
	return func(m *manager) { m.maxRetryDelay = delay }
}

func (m *manager) validate() error {
	switch {
	case m.maxAttempts <= 0:
		return ErrInvalidMaxAttempts
	case m.baseRetryDelay <= 0:
		return ErrInvalidBaseRetryDelay
	case m.maxRetryDelay <= 0:
		return ErrInvalidMaxRetryDelay
	case m.baseRetryDelay > m.maxRetryDelay:
		return ErrBaseExceedsMaxDelay
	}
	return nil
}

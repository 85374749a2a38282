package pgxdriver

import (
	"errors"
	"time"
)

// Option validation errors returned by New.
var (
	ErrInvalidMaxPoolSize    = errors.New("pool size must be positive")
	ErrInvalidConnAttempts   = errors.New("connection attempts must be positive")
	ErrInvalidBaseRetryDelay = errors.New("base retry delay must be positive")
	ErrInvalidMaxRetryDelay  = errors.New("max retry delay must be positive")
	ErrBaseExceedsMaxDelay   = errors.New("base retry delay is greater than max retry delay")
	ErrInvalidConnTimeout    = errors.New("connection timeout must be positive")
)

// Option configures the Postgres connection.
type Option func(*Postgres)

// MaxPoolSize sets the maximum number of connections in the pool.
// Batches run one after another, so a small pool is enough.
func MaxPoolSize(size int32) Option {
	return func(p *Postgres) { p.maxPoolSize = size }
}

// MaxConnAttempts sets how many times New tries to reach the server.
func MaxConnAttempts(attempts int) Option {
	return func(p *Postgres) { p.connAttempts = attempts }
}

// BaseRetryDelay sets the initial delay between connection attempts.
func BaseRetryDelay(delay time.Duration) Option {
	return func(p *Postgres) { p.baseRetryDelay = delay }
}

// MaxRetryDelay sets the upper bound for the delay between connection attempts.
// It must not be lower than BaseRetryDelay.
func MaxRetryDelay(delay time.Duration) Option {
	return func(p *Postgres) { p.maxRetryDelay = delay }
}

// ConnTimeout bounds a single connection attempt.
func ConnTimeout(timeout time.Duration) Option {
	return func(p *Postgres) { p.connTimeout = timeout }
}

func (p *Postgres) validate() error {
	switch {
	case p.maxPoolSize <= 0:
		return ErrInvalidMaxPoolSize
	case p.connAttempts <= 0:
		return ErrInvalidConnAttempts
	case p.baseRetryDelay <= 0:
		return ErrInvalidBaseRetryDelay
	case p.maxRetryDelay <= 0:
		return ErrInvalidMaxRetryDelay
	case p.baseRetryDelay > p.maxRetryDelay:
		return ErrBaseExceedsMaxDelay
	case p.connTimeout <= 0:
		return ErrInvalidConnTimeout
	}
	return nil
}

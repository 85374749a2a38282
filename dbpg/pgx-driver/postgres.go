// Package pgxdriver provides a PostgreSQL connection built on pgx/v5,
// with connection retries using exponential backoff and jitter.
// Rows are sent with the pgx batch protocol, see BatchInsert.
package pgxdriver

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wb-go/pgbulk/inserter"
	"github.com/wb-go/pgbulk/logger"
)

const (
	_defaultMaxPoolSize    = 4
	_defaultConnAttempts   = 10
	_defaultBaseRetryDelay = 100 * time.Millisecond
	_defaultMaxRetryDelay  = 5 * time.Second
	_defaultConnTimeout    = 5 * time.Second
)

// Postgres holds a pgx connection pool. The pool belongs to whoever called
// New and is closed with Close.
type Postgres struct {
	Pool   *pgxpool.Pool
	logger logger.Logger

	connAttempts   int
	baseRetryDelay time.Duration
	maxRetryDelay  time.Duration
	connTimeout    time.Duration
	maxPoolSize    int32
}

// New parses dsn, creates the pool and pings the server until it answers
// or the connection attempts are exhausted. A server that cannot be reached
// is reported as *inserter.ConnectionError.
func New(dsn string, log logger.Logger, opts ...Option) (*Postgres, error) {
	const op = "dbpg.pgxdriver.New"

	if log == nil {
		log = logger.NewNop()
	}

	pg := &Postgres{
		logger:         log,
		connAttempts:   _defaultConnAttempts,
		baseRetryDelay: _defaultBaseRetryDelay,
		maxRetryDelay:  _defaultMaxRetryDelay,
		connTimeout:    _defaultConnTimeout,
		maxPoolSize:    _defaultMaxPoolSize,
	}

	for _, opt := range opts {
		opt(pg)
	}
	if err := pg.validate(); err != nil {
		return nil, fmt.Errorf("%s: validation: %w", op, err)
	}

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: parse pool config: %w", op, err)
	}
	poolConfig.MaxConns = pg.maxPoolSize

	backoff := NewBackoff(pg.baseRetryDelay, pg.maxRetryDelay)
	for attempt := 1; ; attempt++ {
		if err = pg.connect(poolConfig); err == nil {
			pg.logger.Info("postgresql connection successful",
				"host", poolConfig.ConnConfig.Host,
				"database", poolConfig.ConnConfig.Database,
			)
			return pg, nil
		}
		if attempt >= pg.connAttempts {
			break
		}

		delay := backoff.Next()
		pg.logger.Warn("postgresql connection attempt failed",
			"operation", op,
			"attempt", attempt,
			"retry_after", delay.String(),
			"error", err.Error(),
		)
		time.Sleep(delay)
	}

	return nil, &inserter.ConnectionError{Op: op, Err: err}
}

// connect creates the pool and verifies it, since pgxpool dials lazily.
func (p *Postgres) connect(cfg *pgxpool.Config) error {
	ctx, cancel := context.WithTimeout(context.Background(), p.connTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return err
	}

	p.Pool = pool
	return nil
}

// Ping verifies the database connection.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.Pool.Ping(ctx)
}

// Close shuts down the connection pool. It is safe to call Close multiple times.
func (p *Postgres) Close() {
	if p.Pool != nil {
		p.logger.Info("closing postgresql connection pool")
		p.Pool.Close()
	}
}

// Package transaction runs work inside PostgreSQL transactions on a pgx pool.
// BeginBatch hands the inserter one transaction per batch; ExecuteInTransaction
// runs setup statements and retries them on transient errors such as
// serialization failures, deadlocks and connection issues.
package transaction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxdriver "github.com/wb-go/pgbulk/dbpg/pgx-driver"
	"github.com/wb-go/pgbulk/inserter"
	"github.com/wb-go/pgbulk/logger"
)

const (
	_defaultMaxAttempts    = 3
	_defaultBaseRetryDelay = 10 * time.Millisecond
	_defaultMaxRetryDelay  = 100 * time.Millisecond
)

// Manager opens transactions on a pgx pool.
type Manager interface {
	inserter.Conn

	// ExecuteInTransaction runs fn inside a transaction and commits it.
	// Retryable errors restart the whole transaction, up to maxAttempts times
	// with exponential backoff and jitter. tsName is used in logs and errors.
	ExecuteInTransaction(
		ctx context.Context,
		tsName string,
		fn func(tx pgxdriver.QueryExecuter) error,
	) error
}

// Beginner starts pgx transactions. *pgxpool.Pool satisfies it.
type Beginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

type manager struct {
	db     Beginner
	logger logger.Logger

	maxAttempts    int
	baseRetryDelay time.Duration
	maxRetryDelay  time.Duration
}

// NewManager creates a transaction manager over the pool of pg.
func NewManager(pg *pgxdriver.Postgres, log logger.Logger, opts ...Option) (Manager, error) {
	return NewManagerWith(pg.Pool, log, opts...)
}

// NewManagerWith creates a transaction manager over any Beginner.
func NewManagerWith(db Beginner, log logger.Logger, opts ...Option) (Manager, error) {
	if log == nil {
		log = logger.NewNop()
	}

	tm := &manager{
		db:     db,
		logger: log,

		maxAttempts:    _defaultMaxAttempts,
		baseRetryDelay: _defaultBaseRetryDelay,
		maxRetryDelay:  _defaultMaxRetryDelay,
	}

	for _, opt := range opts {
		opt(tm)
	}
	if err := tm.validate(); err != nil {
		return nil, fmt.Errorf("dbpg.pgx-driver.transaction.NewManager: %w", err)
	}

	return tm, nil
}

// BeginBatch opens the read-committed transaction one batch is inserted in.
func (tm *manager) BeginBatch(ctx context.Context) (inserter.Tx, error) {
	const op = "dbpg.pgx-driver.transaction.BeginBatch"

	tx, err := tm.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		if inserter.IsCanceled(err) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return nil, &inserter.ConnectionError{Op: op, Err: err}
	}
	return &batchTx{tx: tx}, nil
}

// ExecuteInTransaction executes fn within a retriable transaction.
func (tm *manager) ExecuteInTransaction(
	ctx context.Context,
	tsName string,
	fn func(tx pgxdriver.QueryExecuter) error,
) error {
	const op = "dbpg.pgx-driver.transaction.ExecuteInTransaction"
	backoff := pgxdriver.NewBackoff(tm.baseRetryDelay, tm.maxRetryDelay)

	for attempt := 1; ; attempt++ {
		err := tm.doTransaction(ctx, tsName, fn)
		if err == nil {
			return nil
		}
		if !isRetryableError(err) {
			return err
		}
		if attempt == tm.maxAttempts {
			return fmt.Errorf("%s: %s: %d attempts: %w", op, tsName, attempt, err)
		}

		delay := backoff.Next()
		tm.logger.LogAttrs(ctx, logger.WarnLevel, "retrying transaction",
			logger.String("op", op),
			logger.String("transaction", tsName),
			logger.Int("attempt", attempt),
			logger.Int("max_attempts", tm.maxAttempts),
			logger.Duration("retry_after", delay),
			logger.Err(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

// doTransaction runs a single attempt: begin, fn, commit. The transaction
// is rolled back if fn or the commit fails.
func (tm *manager) doTransaction(ctx context.Context, tsName string, fn func(tx pgxdriver.QueryExecuter) error) error {
	tx, err := tm.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return HandleError(tsName, "begin", err)
	}
	defer tm.safelyRollback(ctx, tx, tsName)

	if err := fn(&pgxdriver.TxQueryExecuter{Tx: tx}); err != nil {
		return HandleError(tsName, "execute", err)
	}

	return HandleError(tsName, "commit", tx.Commit(ctx))
}

// safelyRollback suppresses pgx.ErrTxClosed, which means the transaction was already committed.
func (tm *manager) safelyRollback(ctx context.Context, tx pgx.Tx, tsName string) {
	const op = "dbpg.pgx-driver.transaction.safelyRollback"

	if err := tx.Rollback(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		tm.logger.LogAttrs(ctx, logger.ErrorLevel, "rollback failed",
			logger.String("op", op),
			logger.String("transaction", tsName),
			logger.Err(err),
		)
	}
}

// isRetryableError reports whether err is transient: serialization failures
// (40001), deadlocks (40P01) and connection errors.
func isRetryableError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40P01" || pgErr.Code == "40001" || isConnectionClass(pgErr.Code)
	}

	return inserter.IsConnection(err) || errors.Is(err, pgx.ErrTxClosed)
}

// batchTx is the transaction of a single batch.
type batchTx struct {
	tx pgx.Tx
}

func (b *batchTx) ExecBatch(ctx context.Context, query string, rows [][]any) error {
	err := pgxdriver.BatchInsert(ctx, &pgxdriver.TxQueryExecuter{Tx: b.tx}, query, rows)
	return HandleError("transaction.ExecBatch", "batch insert", err)
}

func (b *batchTx) Commit(ctx context.Context) error {
	return HandleError("transaction.Commit", "commit", b.tx.Commit(ctx))
}

func (b *batchTx) Rollback(ctx context.Context) error {
	if err := b.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}

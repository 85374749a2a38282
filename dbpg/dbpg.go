// Package dbpg provides a PostgreSQL connection over database/sql and lib/pq.
// A *DB can be passed to inserter as its Conn: every batch is executed
// through a prepared statement inside its own transaction.
package dbpg

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/wb-go/pgbulk/inserter"
	"github.com/wb-go/pgbulk/retry"
)

// DB wraps a database/sql handle opened with the "postgres" driver that
// lib/pq registers.
type DB struct {
	Master *sql.DB
}

// Options defines database connection configuration options.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func applyOptions(db *sql.DB, opts *Options) {
	if opts == nil {
		return
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}
}

// New creates a DB without contacting the server.
func New(dsn string, opts *Options) (*DB, error) {
	master, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, &inserter.ConnectionError{Op: "dbpg.New", Err: err}
	}
	applyOptions(master, opts)

	return &DB{Master: master}, nil
}

// Connect creates a DB and pings the server, retrying according to strategy.
// Failures are reported as *inserter.ConnectionError.
func Connect(ctx context.Context, dsn string, strategy retry.Strategy, opts *Options) (*DB, error) {
	const op = "dbpg.Connect"

	db, err := New(dsn, opts)
	if err != nil {
		return nil, err
	}

	err = retry.DoContext(ctx, strategy, func() error {
		return db.Master.PingContext(ctx)
	})
	if err != nil {
		_ = db.Master.Close()
		return nil, &inserter.ConnectionError{Op: op, Err: err}
	}

	return db, nil
}

// Close closes the underlying handle.
func (db *DB) Close() error {
	return db.Master.Close()
}

// ExecContext executes a command on the master database.
func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.Master.ExecContext(ctx, query, args...)
}

// WithTx executes a function within a transaction on the master database.
func (db *DB) WithTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := db.Master.BeginTx(ctx, nil)
	if err != nil {
		return handleError("dbpg.WithTx", "begin", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return handleError("dbpg.WithTx", "execute", err)
	}

	return handleError("dbpg.WithTx", "commit", tx.Commit())
}

// BeginBatch opens the transaction one batch is inserted in.
func (db *DB) BeginBatch(ctx context.Context) (inserter.Tx, error) {
	tx, err := db.Master.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		if inserter.IsCanceled(err) {
			return nil, fmt.Errorf("dbpg.BeginBatch: %w", err)
		}
		return nil, &inserter.ConnectionError{Op: "dbpg.BeginBatch", Err: err}
	}
	return &batchTx{tx: tx}, nil
}

type batchTx struct {
	tx *sql.Tx
}

// ExecBatch prepares query once and executes it for every row.
func (b *batchTx) ExecBatch(ctx context.Context, query string, rows [][]any) error {
	const op = "dbpg.ExecBatch"

	stmt, err := b.tx.PrepareContext(ctx, query)
	if err != nil {
		return handleError(op, "prepare", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for i, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return handleError(op, fmt.Sprintf("row %d", i), err)
		}
	}

	return nil
}

func (b *batchTx) Commit(context.Context) error {
	return handleError("dbpg.Commit", "commit", b.tx.Commit())
}

func (b *batchTx) Rollback(context.Context) error {
	if err := b.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

// handleError names the PostgreSQL condition of a *pq.Error and marks
// connection failures as *inserter.ConnectionError.
func handleError(op, step string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, driver.ErrBadConn) {
		return &inserter.ConnectionError{Op: op, Err: err}
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code.Class() == "08" {
			return &inserter.ConnectionError{Op: op, Err: err}
		}
		return fmt.Errorf("%s: %s: %s: %w", op, step, pqErr.Code.Name(), err)
	}

	return fmt.Errorf("%s: %s: %w", op, step, err)
}

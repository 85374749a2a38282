package pgxdriver

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// QueryExecuter is what the loader needs from a pool or a transaction.
type QueryExecuter interface {
	// Exec executes a statement that does not return rows.
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)

	// SendBatch sends queued statements to the server in a single round trip.
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Exec delegates to the underlying pool.
func (p *Postgres) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return p.Pool.Exec(ctx, sql, args...)
}

// SendBatch delegates to the underlying pool.
func (p *Postgres) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	return p.Pool.SendBatch(ctx, b)
}

// TxQueryExecuter wraps a pgx.Tx to satisfy QueryExecuter.
type TxQueryExecuter struct {
	Tx pgx.Tx
}

// Exec executes a statement within the transaction.
func (t *TxQueryExecuter) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return t.Tx.Exec(ctx, sql, args...)
}

// SendBatch sends a batch within the transaction.
func (t *TxQueryExecuter) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	return t.Tx.SendBatch(ctx, b)
}

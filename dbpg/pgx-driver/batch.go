package pgxdriver

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// BatchInsert queues query once per row and sends all of them to the server
// in a single round trip. It works with any QueryExecuter, so the same code
// runs on the pool and inside a transaction (see TxQueryExecuter).
// The error names the index of the first row that failed.
func BatchInsert(ctx context.Context, qe QueryExecuter, query string, rows [][]any) error {
	const op = "dbpg.pgx-driver.BatchInsert"

	if len(rows) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(query, row...)
	}

	results := qe.SendBatch(ctx, batch)
	for i := range rows {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("%s: row %d: %w", op, i, err)
		}
	}

	if err := results.Close(); err != nil {
		return fmt.Errorf("%s: close batch: %w", op, err)
	}
	return nil
}

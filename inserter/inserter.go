// Package inserter loads rows into a PostgreSQL table in bounded-size batches
// through a caller-owned connection, committing and reporting progress batch
// by batch.
package inserter

import (
	"context"
	"fmt"
	"time"

	"github.com/wb-go/pgbulk/logger"
)

// Conn is a caller-owned database handle. The inserter only borrows it for
// the duration of one call and never closes it.
type Conn interface {
	// BeginBatch opens the transaction a batch is executed and committed in.
	BeginBatch(ctx context.Context) (Tx, error)
}

// Tx is a transaction opened by Conn.BeginBatch.
type Tx interface {
	// ExecBatch executes query once per row, binding the row's values positionally.
	ExecBatch(ctx context.Context, query string, rows [][]any) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Inserter runs batched inserts. It keeps no per-call state and can be
// shared between goroutines as long as each call uses its own Conn.
type Inserter struct {
	log       logger.Logger
	reporters multiReporter

	batchSize int
	mode      CommitMode
}

// New creates an Inserter logging through log. Progress is always reported
// to log; additional reporters are added with WithReporter.
func New(log logger.Logger, opts ...Option) (*Inserter, error) {
	if log == nil {
		log = logger.NewNop()
	}

	ins := &Inserter{
		log:       log,
		reporters: multiReporter{LogReporter(log)},
		batchSize: DefaultBatchSize,
		mode:      CommitPerBatch,
	}

	for _, opt := range opts {
		opt(ins)
	}
	if err := ins.validate(); err != nil {
		return nil, fmt.Errorf("inserter.New: validation: %w", err)
	}

	return ins, nil
}

// BatchSize returns the batch size used by Insert.
func (ins *Inserter) BatchSize() int { return ins.batchSize }

// Insert loads rows into table using the configured batch size.
// See InsertBatches.
func (ins *Inserter) Insert(ctx context.Context, conn Conn, table string, columns []string, rows [][]any) (int, error) {
	return ins.InsertBatches(ctx, conn, table, columns, rows, ins.batchSize)
}

// InsertBatches loads rows into table, batchSize rows per transaction, and
// returns the number of rows inserted.
//
// Inputs are validated before conn is used; a *ValidationError means nothing
// was written. A failing batch stops the insert and yields an
// *ExecutionError naming that batch; later batches are never attempted.
// An empty row set returns 0 without opening a transaction.
//
// table is split on "." into schema and table name and each part is quoted
// separately, so a table whose name itself contains a dot cannot be addressed.
func (ins *Inserter) InsertBatches(
	ctx context.Context,
	conn Conn,
	table string,
	columns []string,
	rows [][]any,
	batchSize int,
) (int, error) {
	if err := Validate(table, columns, rows, batchSize); err != nil {
		return 0, err
	}

	if len(rows) == 0 {
		ins.log.LogAttrs(ctx, logger.DebugLevel, "no rows to insert",
			logger.String("table", table),
		)
		return 0, nil
	}

	query, err := BuildInsert(table, columns)
	if err != nil {
		return 0, err
	}

	windows := Partition(len(rows), batchSize)
	started := time.Now()

	ins.reporters.Started(ctx, Start{
		Table:     table,
		Total:     len(rows),
		BatchSize: batchSize,
		Batches:   len(windows),
	})

	r := run{
		ins:     ins,
		conn:    conn,
		table:   table,
		query:   query,
		rows:    rows,
		windows: windows,
	}

	var inserted int
	if ins.mode == CommitOnce {
		inserted, err = r.once(ctx)
	} else {
		inserted, err = r.perBatch(ctx)
	}
	if err != nil {
		ins.log.LogAttrs(ctx, logger.ErrorLevel, "bulk insert failed",
			logger.String("table", table),
			logger.Int("committed", Committed(err)),
			logger.Int("total_rows", len(rows)),
			logger.Err(err),
		)
		return 0, err
	}

	ins.reporters.Finished(ctx, Summary{
		Table:    table,
		Inserted: inserted,
		Batches:  len(windows),
		Duration: time.Since(started),
	})

	return inserted, nil
}

// run holds the state of one insert call.
type run struct {
	ins     *Inserter
	conn    Conn
	table   string
	query   string
	rows    [][]any
	windows []Window

	committed int
}

func (r *run) perBatch(ctx context.Context) (int, error) {
	for _, w := range r.windows {
		if err := ctx.Err(); err != nil {
			return 0, r.fail(w, StepCanceled, err)
		}

		tx, err := r.conn.BeginBatch(ctx)
		if err != nil {
			return 0, r.fail(w, StepBegin, err)
		}

		if err := tx.ExecBatch(ctx, r.query, r.rows[w.Start:w.End]); err != nil {
			r.rollback(ctx, tx)
			return 0, r.fail(w, StepExec, err)
		}

		// A failed COMMIT already ends the transaction server-side.
		if err := tx.Commit(ctx); err != nil {
			return 0, r.fail(w, StepCommit, err)
		}

		r.committed += w.Len()
		r.ins.reporters.Committed(ctx, Progress{
			Table:     r.table,
			Batch:     w.Index + 1,
			Batches:   len(r.windows),
			Committed: r.committed,
			Total:     len(r.rows),
		})
	}

	return r.committed, nil
}

func (r *run) once(ctx context.Context) (int, error) {
	first, last := r.windows[0], r.windows[len(r.windows)-1]

	if err := ctx.Err(); err != nil {
		return 0, r.fail(first, StepCanceled, err)
	}

	tx, err := r.conn.BeginBatch(ctx)
	if err != nil {
		return 0, r.fail(first, StepBegin, err)
	}

	for _, w := range r.windows {
		if err := ctx.Err(); err != nil {
			r.rollback(ctx, tx)
			return 0, r.fail(w, StepCanceled, err)
		}
		if err := tx.ExecBatch(ctx, r.query, r.rows[w.Start:w.End]); err != nil {
			r.rollback(ctx, tx)
			return 0, r.fail(w, StepExec, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, r.fail(last, StepCommit, err)
	}

	r.committed = len(r.rows)
	r.ins.reporters.Committed(ctx, Progress{
		Table:     r.table,
		Batch:     len(r.windows),
		Batches:   len(r.windows),
		Committed: r.committed,
		Total:     len(r.rows),
	})

	return r.committed, nil
}

func (r *run) fail(w Window, step Step, err error) error {
	return &ExecutionError{
		Table:     r.table,
		Window:    w,
		Batches:   len(r.windows),
		Step:      step,
		Committed: r.committed,
		Err:       err,
	}
}

// rollback uses a fresh context so a cancelled ctx does not leave the
// transaction open.
func (r *run) rollback(ctx context.Context, tx Tx) {
	if err := tx.Rollback(context.WithoutCancel(ctx)); err != nil {
		r.ins.log.LogAttrs(ctx, logger.WarnLevel, "rollback failed",
			logger.String("table", r.table),
			logger.Err(err),
		)
	}
}

package transaction

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pgxdriver "github.com/wb-go/pgbulk/dbpg/pgx-driver"
	"github.com/wb-go/pgbulk/inserter"
)

type fakeResults struct {
	pgx.BatchResults
	err error
}

func (r *fakeResults) Exec() (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag("INSERT 0 1"), r.err
}

func (r *fakeResults) Close() error { return nil }

type fakeTx struct {
	pgx.Tx
	execErr    error
	commitErr  error
	batchErr   error
	queued     int
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, t.execErr
}

func (t *fakeTx) SendBatch(_ context.Context, b *pgx.Batch) pgx.BatchResults {
	t.queued += b.Len()
	return &fakeResults{err: t.batchErr}
}

func (t *fakeTx) Commit(context.Context) error {
	if t.commitErr != nil {
		return t.commitErr
	}
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	if t.committed || t.rolledBack {
		return pgx.ErrTxClosed
	}
	t.rolledBack = true
	return nil
}

type fakeBeginner struct {
	txs   []*fakeTx
	begun int
	err   error
}

func (b *fakeBeginner) BeginTx(context.Context, pgx.TxOptions) (pgx.Tx, error) {
	if b.err != nil {
		return nil, b.err
	}
	tx := b.txs[b.begun]
	b.begun++
	return tx, nil
}

func newTestManager(t *testing.T, db Beginner) Manager {
	t.Helper()
	tm, err := NewManagerWith(db, nil,
		MaxAttempts(3),
		BaseRetryDelay(time.Millisecond),
		MaxRetryDelay(2*time.Millisecond),
	)
	require.NoError(t, err)
	return tm
}

func TestHandleError(t *testing.T) {
	assert.NoError(t, HandleError("op", "step", nil))

	unique := &pgconn.PgError{Code: "23505", Message: "duplicate key value"}
	err := HandleError("load", "batch insert", unique)
	assert.ErrorIs(t, err, ErrConflictingData)
	var pgErr *pgconn.PgError
	require.ErrorAs(t, err, &pgErr)
	assert.Equal(t, "23505", pgErr.Code)
	assert.Contains(t, err.Error(), "load: batch insert: unique constraint violation")

	assert.ErrorIs(t, HandleError("op", "step", &pgconn.PgError{Code: "23503"}), ErrInvalidData)
	assert.ErrorIs(t, HandleError("op", "step", &pgconn.PgError{Code: "23502"}), ErrInvalidData)
	assert.Contains(t, HandleError("op", "step", &pgconn.PgError{Code: "40P01"}).Error(), "deadlock")
	assert.True(t, inserter.IsConnection(HandleError("op", "step", &pgconn.PgError{Code: "08006"})))

	err = HandleError("op", "step", context.DeadlineExceeded)
	assert.ErrorIs(t, err, ErrTransactionTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	assert.ErrorIs(t, HandleError("op", "step", context.Canceled), context.Canceled)
}

func TestIsRetryableError(t *testing.T) {
	assert.True(t, isRetryableError(&pgconn.PgError{Code: "40001"}))
	assert.True(t, isRetryableError(&pgconn.PgError{Code: "40P01"}))
	assert.True(t, isRetryableError(&pgconn.PgError{Code: "08003"}))
	assert.False(t, isRetryableError(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isRetryableError(context.Canceled))
	assert.False(t, isRetryableError(errors.New("syntax")))
}

func TestNewManager_Validation(t *testing.T) {
	_, err := NewManagerWith(&fakeBeginner{}, nil, MaxAttempts(0))
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)

	_, err = NewManagerWith(&fakeBeginner{}, nil, BaseRetryDelay(time.Second), MaxRetryDelay(time.Millisecond))
	assert.ErrorIs(t, err, ErrBaseExceedsMaxDelay)
}

func TestBeginBatch_CommitsBatch(t *testing.T) {
	tx := &fakeTx{}
	tm := newTestManager(t, &fakeBeginner{txs: []*fakeTx{tx}})
	ctx := context.Background()

	btx, err := tm.BeginBatch(ctx)
	require.NoError(t, err)
	require.NoError(t, btx.ExecBatch(ctx, "INSERT", [][]any{{1}, {2}}))
	require.NoError(t, btx.Commit(ctx))
	require.NoError(t, btx.Rollback(ctx))

	assert.Equal(t, 2, tx.queued)
	assert.True(t, tx.committed)
	assert.False(t, tx.rolledBack)
}

func TestBeginBatch_ExecErrorIsClassified(t *testing.T) {
	tx := &fakeTx{batchErr: &pgconn.PgError{Code: "23505"}}
	tm := newTestManager(t, &fakeBeginner{txs: []*fakeTx{tx}})
	ctx := context.Background()

	btx, err := tm.BeginBatch(ctx)
	require.NoError(t, err)

	err = btx.ExecBatch(ctx, "INSERT", [][]any{{1}})
	assert.ErrorIs(t, err, ErrConflictingData)
	require.NoError(t, btx.Rollback(ctx))
	assert.True(t, tx.rolledBack)
}

func TestBeginBatch_BeginFailureIsConnectionError(t *testing.T) {
	tm := newTestManager(t, &fakeBeginner{err: errors.New("dial tcp: refused")})

	_, err := tm.BeginBatch(context.Background())
	assert.True(t, inserter.IsConnection(err))
}

func TestBeginBatch_CanceledContextIsNotConnectionError(t *testing.T) {
	tm := newTestManager(t, &fakeBeginner{err: fmt.Errorf("begin: %w", context.DeadlineExceeded)})

	_, err := tm.BeginBatch(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, inserter.IsConnection(err))
}

func TestExecuteInTransaction_RetriesTransientErrors(t *testing.T) {
	first := &fakeTx{execErr: &pgconn.PgError{Code: "40001"}}
	second := &fakeTx{}
	db := &fakeBeginner{txs: []*fakeTx{first, second}}
	tm := newTestManager(t, db)

	err := tm.ExecuteInTransaction(context.Background(), "pre_sql", func(qe pgxdriver.QueryExecuter) error {
		_, err := qe.Exec(context.Background(), "CREATE TABLE t (id int)")
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, 2, db.begun)
	assert.True(t, first.rolledBack)
	assert.True(t, second.committed)
}

func TestExecuteInTransaction_StopsOnPermanentError(t *testing.T) {
	tx := &fakeTx{execErr: &pgconn.PgError{Code: "42601", Message: "syntax error"}}
	db := &fakeBeginner{txs: []*fakeTx{tx}}
	tm := newTestManager(t, db)

	err := tm.ExecuteInTransaction(context.Background(), "pre_sql", func(qe pgxdriver.QueryExecuter) error {
		_, err := qe.Exec(context.Background(), "CREATE TABLE")
		return err
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pre_sql: execute")
	assert.Equal(t, 1, db.begun)
	assert.True(t, tx.rolledBack)
}

func TestExecuteInTransaction_GivesUpAfterMaxAttempts(t *testing.T) {
	deadlock := &pgconn.PgError{Code: "40P01"}
	db := &fakeBeginner{txs: []*fakeTx{{execErr: deadlock}, {execErr: deadlock}, {execErr: deadlock}}}
	tm := newTestManager(t, db)

	err := tm.ExecuteInTransaction(context.Background(), "pre_sql", func(qe pgxdriver.QueryExecuter) error {
		_, err := qe.Exec(context.Background(), "UPDATE t SET x = 1")
		return err
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 attempts")
	assert.Equal(t, 3, db.begun)
}

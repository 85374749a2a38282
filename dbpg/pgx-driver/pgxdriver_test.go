package pgxdriver_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pgxdriver "github.com/wb-go/pgbulk/dbpg/pgx-driver"
	"github.com/wb-go/pgbulk/inserter"
	"github.com/wb-go/pgbulk/logger"
)

type fakeResults struct {
	pgx.BatchResults
	failAt int
	calls  int
	closed bool
}

func (r *fakeResults) Exec() (pgconn.CommandTag, error) {
	defer func() { r.calls++ }()
	if r.calls == r.failAt {
		return pgconn.CommandTag{}, errors.New("duplicate key")
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (r *fakeResults) Close() error {
	r.closed = true
	return nil
}

type fakeExecuter struct {
	batch   *pgx.Batch
	results *fakeResults
}

func (f *fakeExecuter) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (f *fakeExecuter) SendBatch(_ context.Context, b *pgx.Batch) pgx.BatchResults {
	f.batch = b
	return f.results
}

func TestBatchInsert_QueuesEveryRow(t *testing.T) {
	qe := &fakeExecuter{results: &fakeResults{failAt: -1}}
	query := `INSERT INTO "users" ("id","name") VALUES ($1,$2)`
	rows := [][]any{{1, "a"}, {2, "b"}, {3, "c"}}

	require.NoError(t, pgxdriver.BatchInsert(context.Background(), qe, query, rows))

	require.Equal(t, 3, qe.batch.Len())
	for i, q := range qe.batch.QueuedQueries {
		assert.Equal(t, query, q.SQL)
		assert.Equal(t, rows[i], q.Arguments)
	}
	assert.Equal(t, 3, qe.results.calls)
	assert.True(t, qe.results.closed)
}

func TestBatchInsert_ReportsFailingRow(t *testing.T) {
	qe := &fakeExecuter{results: &fakeResults{failAt: 1}}

	err := pgxdriver.BatchInsert(context.Background(), qe, "INSERT", [][]any{{1}, {2}, {3}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 1: duplicate key")
	assert.Equal(t, 2, qe.results.calls)
	assert.True(t, qe.results.closed)
}

func TestBatchInsert_NoRows(t *testing.T) {
	qe := &fakeExecuter{}
	require.NoError(t, pgxdriver.BatchInsert(context.Background(), qe, "INSERT", nil))
	assert.Nil(t, qe.batch)
}

func TestNew_InvalidOptions(t *testing.T) {
	dsn := "postgres://loader@localhost:5432/app"
	tests := []struct {
		name string
		opt  pgxdriver.Option
		want error
	}{
		{"pool size", pgxdriver.MaxPoolSize(0), pgxdriver.ErrInvalidMaxPoolSize},
		{"attempts", pgxdriver.MaxConnAttempts(0), pgxdriver.ErrInvalidConnAttempts},
		{"base delay", pgxdriver.BaseRetryDelay(0), pgxdriver.ErrInvalidBaseRetryDelay},
		{"max delay", pgxdriver.MaxRetryDelay(-time.Second), pgxdriver.ErrInvalidMaxRetryDelay},
		{"base above max", pgxdriver.BaseRetryDelay(time.Minute), pgxdriver.ErrBaseExceedsMaxDelay},
		{"timeout", pgxdriver.ConnTimeout(0), pgxdriver.ErrInvalidConnTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := pgxdriver.New(dsn, logger.NewNop(), tt.opt)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNew_InvalidDSN(t *testing.T) {
	_, err := pgxdriver.New("postgres://%zz", nil)
	require.Error(t, err)
	assert.False(t, inserter.IsConnection(err))
}

func TestNew_UnreachableServer(t *testing.T) {
	_, err := pgxdriver.New("postgres://loader@127.0.0.1:1/app?sslmode=disable", nil,
		pgxdriver.MaxConnAttempts(2),
		pgxdriver.BaseRetryDelay(time.Millisecond),
		pgxdriver.MaxRetryDelay(5*time.Millisecond),
		pgxdriver.ConnTimeout(time.Second),
	)
	require.Error(t, err)
	assert.True(t, inserter.IsConnection(err))
}

func TestBackoff_StaysWithinLimit(t *testing.T) {
	b := pgxdriver.NewBackoff(10*time.Millisecond, 50*time.Millisecond)
	windows := []time.Duration{20, 40, 50, 50, 50}
	for i, w := range windows {
		d := b.Next()
		assert.GreaterOrEqual(t, d, time.Duration(0), i)
		assert.LessOrEqual(t, d, w*time.Millisecond, i)
	}
}

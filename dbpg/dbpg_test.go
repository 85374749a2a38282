package dbpg

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/pgbulk/inserter"
	"github.com/wb-go/pgbulk/retry"
)

var _ inserter.Conn = (*DB)(nil)

func TestHandleError(t *testing.T) {
	assert.NoError(t, handleError("op", "step", nil))

	err := handleError("dbpg.ExecBatch", "row 3", &pq.Error{Code: "23505", Message: "duplicate key"})
	assert.Contains(t, err.Error(), "dbpg.ExecBatch: row 3: unique_violation")
	var pqErr *pq.Error
	assert.ErrorAs(t, err, &pqErr)
	assert.False(t, inserter.IsConnection(err))

	err = handleError("dbpg.ExecBatch", "row 0", &pq.Error{Code: "08006"})
	assert.True(t, inserter.IsConnection(err))

	err = handleError("dbpg.Commit", "commit", driver.ErrBadConn)
	assert.True(t, inserter.IsConnection(err))

	plain := errors.New("plain")
	err = handleError("op", "step", plain)
	assert.ErrorIs(t, err, plain)
	assert.Equal(t, "op: step: plain", err.Error())
}

func TestBeginBatch_CanceledContext(t *testing.T) {
	db, err := New("postgres://loader@127.0.0.1:1/app?sslmode=disable", nil)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = db.BeginBatch(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, inserter.IsConnection(err))
}

func TestConnect_UnreachableServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := Connect(ctx,
		"postgres://loader@127.0.0.1:1/app?sslmode=disable&connect_timeout=1",
		retry.Strategy{Attempts: 2, Delay: 10 * time.Millisecond},
		&Options{MaxOpenConns: 1},
	)
	require.Error(t, err)
	assert.True(t, inserter.IsConnection(err))
}

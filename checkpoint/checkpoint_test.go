package checkpoint_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/pgbulk/checkpoint"
	"github.com/wb-go/pgbulk/inserter"
	"github.com/wb-go/pgbulk/redis"
)

var _ checkpoint.Store = (*redis.Client)(nil)

type memStore struct {
	data   map[string]string
	ttl    time.Duration
	setErr error
}

func newMemStore() *memStore {
	return &memStore{data: map[string]string{}}
}

func (m *memStore) Get(_ context.Context, key string) (string, error) {
	v, ok := m.data[key]
	if !ok {
		return "", redis.NoMatches
	}
	return v, nil
}

func (m *memStore) SetWithExpiration(_ context.Context, key string, value any, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = fmt.Sprint(value)
	m.ttl = ttl
	return nil
}

func (m *memStore) Del(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func TestCheckpoint_SaveAndResume(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	cp := checkpoint.New(store, "users", "users.csv", time.Hour, nil)

	n, err := cp.Committed(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, cp.Save(ctx, 5000))
	n, err = cp.Committed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5000, n)
	assert.Equal(t, time.Hour, store.ttl)
	assert.Contains(t, store.data, "pgload:checkpoint:users:users.csv")

	require.NoError(t, cp.Reset(ctx))
	n, err = cp.Committed(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCheckpoint_Corrupted(t *testing.T) {
	store := newMemStore()
	store.data[checkpoint.Key("users", "users.csv")] = "many"

	_, err := checkpoint.New(store, "users", "users.csv", 0, nil).Committed(context.Background())
	assert.ErrorIs(t, err, checkpoint.ErrCorrupted)
}

func TestCheckpoint_ReporterAddsOffset(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	cp := checkpoint.New(store, "users", "users.csv", 0, nil)
	r := cp.Reporter(100)

	r.Started(ctx, inserter.Start{Table: "users", Total: 50})
	r.Committed(ctx, inserter.Progress{Table: "users", Batch: 1, Batches: 2, Committed: 25, Total: 50})

	n, err := cp.Committed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 125, n)

	r.Finished(ctx, inserter.Summary{Table: "users", Inserted: 50})
	n, err = cp.Committed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 150, n)
}

func TestCheckpoint_ReporterIgnoresStoreFailure(t *testing.T) {
	store := newMemStore()
	store.setErr = errors.New("redis down")
	r := checkpoint.New(store, "users", "users.csv", 0, nil).Reporter(0)

	assert.NotPanics(t, func() {
		r.Committed(context.Background(), inserter.Progress{Committed: 1, Total: 1})
	})
}

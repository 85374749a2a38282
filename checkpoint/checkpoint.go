// Package checkpoint remembers how many rows of a load are committed so
// that a re-run skips them. Batches commit in order, so the committed rows
// are always a prefix of the source.
package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/wb-go/pgbulk/inserter"
	"github.com/wb-go/pgbulk/logger"
	"github.com/wb-go/pgbulk/redis"
)

const keyPrefix = "pgload:checkpoint"

// ErrCorrupted is returned when a stored checkpoint is not a row count.
var ErrCorrupted = errors.New("corrupted checkpoint value")

// Store is the key-value storage checkpoints are kept in. *redis.Client satisfies it.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	SetWithExpiration(ctx context.Context, key string, value any, expiration time.Duration) error
	Del(ctx context.Context, key string) error
}

// Key returns the storage key of a load of source into table.
func Key(table, source string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, table, source)
}

// Checkpoint is the committed row count of one load.
type Checkpoint struct {
	store Store
	key   string
	ttl   time.Duration
	log   logger.Logger
}

// New returns the checkpoint of loading source into table. A zero ttl keeps it forever.
func New(store Store, table, source string, ttl time.Duration, log logger.Logger) *Checkpoint {
	if log == nil {
		log = logger.NewNop()
	}
	return &Checkpoint{
		store: store,
		key:   Key(table, source),
		ttl:   ttl,
		log:   log,
	}
}

// Committed returns the number of rows already committed, or 0 if the load never ran.
func (c *Checkpoint) Committed(ctx context.Context) (int, error) {
	const op = "checkpoint.Committed"

	val, err := c.store.Get(ctx, c.key)
	if errors.Is(err, redis.NoMatches) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%s: %s: %w", op, c.key, err)
	}

	n, err := strconv.Atoi(val)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s: %s: %w: %q", op, c.key, ErrCorrupted, val)
	}
	return n, nil
}

// Save records committed as the number of rows already committed.
func (c *Checkpoint) Save(ctx context.Context, committed int) error {
	if err := c.store.SetWithExpiration(ctx, c.key, committed, c.ttl); err != nil {
		return fmt.Errorf("checkpoint.Save: %s: %w", c.key, err)
	}
	return nil
}

// Reset forgets the checkpoint so the next run starts from the first row.
func (c *Checkpoint) Reset(ctx context.Context) error {
	if err := c.store.Del(ctx, c.key); err != nil {
		return fmt.Errorf("checkpoint.Reset: %s: %w", c.key, err)
	}
	return nil
}

// Reporter returns an inserter.Reporter that saves the checkpoint after
// every committed batch. offset is the number of rows skipped because an
// earlier run committed them. A failed save is logged and does not stop the load.
func (c *Checkpoint) Reporter(offset int) inserter.Reporter {
	return &reporter{cp: c, offset: offset}
}

type reporter struct {
	cp     *Checkpoint
	offset int
}

func (r *reporter) Started(context.Context, inserter.Start) {}

func (r *reporter) Committed(ctx context.Context, p inserter.Progress) {
	r.save(ctx, r.offset+p.Committed)
}

func (r *reporter) Finished(ctx context.Context, s inserter.Summary) {
	r.save(ctx, r.offset+s.Inserted)
}

func (r *reporter) save(ctx context.Context, committed int) {
	if err := r.cp.Save(ctx, committed); err != nil {
		r.cp.log.LogAttrs(ctx, logger.WarnLevel, "checkpoint not saved",
			logger.String("key", r.cp.key),
			logger.Int("committed", committed),
			logger.Err(err),
		)
	}
}

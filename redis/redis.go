// Package redis wraps a go-redis client with retried reads and writes.
package redis

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/wb-go/pgbulk/retry"
)

// NoMatches is returned when Redis did not find any matching key.
const NoMatches = redis.Nil

// Client wraps the Redis client.
type Client struct {
	*redis.Client
	strategy retry.Strategy
}

// New creates a new Redis client. Every call is attempted according to strategy.
func New(addr, password string, db int, strategy retry.Strategy) *Client {
	return &Client{
		Client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		strategy: strategy,
	}
}

// Ping checks that the server answers.
func (c *Client) Ping(ctx context.Context) error {
	return retry.DoContext(ctx, c.strategy, func() error {
		return c.Client.Ping(ctx).Err()
	})
}

// Get retrieves a value by key. A missing key is reported as NoMatches and is not retried.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	var (
		val     string
		missing bool
	)
	err := retry.DoContext(ctx, c.strategy, func() error {
		v, err := c.Client.Get(ctx, key).Result()
		if errors.Is(err, NoMatches) {
			missing = true
			return nil
		}
		val = v
		return err
	})
	if err == nil && missing {
		return "", NoMatches
	}
	return val, err
}

// SetWithExpiration stores a value with a specified expiration time.
// A zero expiration keeps the key forever.
func (c *Client) SetWithExpiration(ctx context.Context, key string, value any, expiration time.Duration) error {
	return retry.DoContext(ctx, c.strategy, func() error {
		return c.Client.Set(ctx, key, value, expiration).Err()
	})
}

// Del removes a key.
func (c *Client) Del(ctx context.Context, key string) error {
	return retry.DoContext(ctx, c.strategy, func() error {
		return c.Client.Del(ctx, key).Err()
	})
}

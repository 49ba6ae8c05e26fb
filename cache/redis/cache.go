// Package redis provides a Redis-backed pending.Cache.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xraph/mealledger/pending"
)

// DefaultPrefix namespaces every key written by the cache.
const DefaultPrefix = "mealledger:pending:"

// compile-time interface check
var _ pending.Cache = (*Cache)(nil)

// Cache stores pending summaries as JSON strings with a TTL.
type Cache struct {
	client redis.Cmdable
	prefix string
}

// Option configures a Cache.
type Option func(*Cache)

// WithPrefix overrides DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(c *Cache) { c.prefix = prefix }
}

// New wraps an existing client.
func New(client redis.Cmdable, opts ...Option) *Cache {
	c := &Cache{client: client, prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dial connects to addr and checks the connection with a ping.
func Dial(ctx context.Context, addr, password string, db int, opts ...Option) (*Cache, *redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close() //nolint:errcheck // best-effort cleanup
		return nil, nil, fmt.Errorf("mealledger/redis: ping %s: %w", addr, err)
	}
	return New(client, opts...), client, nil
}

// Key returns the Redis key used for a customer.
func (c *Cache) Key(customerID string) string {
	return c.prefix + customerID
}

func (c *Cache) GetCached(ctx context.Context, customerID string) (*pending.Summary, error) {
	data, err := c.client.Get(ctx, c.Key(customerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, pending.ErrCacheMiss
		}
		return nil, fmt.Errorf("mealledger/redis: get %s: %w", customerID, err)
	}

	var s pending.Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("mealledger/redis: decode %s: %w", customerID, err)
	}
	return &s, nil
}

func (c *Cache) SetCached(ctx context.Context, customerID string, s *pending.Summary, ttl time.Duration) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("mealledger/redis: encode %s: %w", customerID, err)
	}
	if err := c.client.Set(ctx, c.Key(customerID), data, ttl).Err(); err != nil {
		return fmt.Errorf("mealledger/redis: set %s: %w", customerID, err)
	}
	return nil
}

func (c *Cache) Invalidate(ctx context.Context, customerID string) error {
	if err := c.client.Del(ctx, c.Key(customerID)).Err(); err != nil {
		return fmt.Errorf("mealledger/redis: invalidate %s: %w", customerID, err)
	}
	return nil
}

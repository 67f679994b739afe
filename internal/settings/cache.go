package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a JSON read-through cache in front of the settings table. Redis
// failures degrade to reading through; they never fail the caller. A nil
// Cache always reads through.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCache builds a cache with the given entry lifetime (5m when unset).
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{client: client, ttl: ttl, logger: slog.Default()}
}

// WithLogger sets the logger used to report degraded cache operations.
func (c *Cache) WithLogger(logger *slog.Logger) *Cache {
	if c != nil && logger != nil {
		c.logger = logger
	}
	return c
}

// FetchJSON decodes the entry under key into dest, calling load and storing
// its result on a miss.
func (c *Cache) FetchJSON(ctx context.Context, key string, dest any, load func(context.Context) (any, error)) error {
	if load == nil {
		return errors.New("settings cache: loader required")
	}
	if c != nil && c.client != nil {
		raw, err := c.client.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			jsonErr := json.Unmarshal(raw, dest)
			if jsonErr == nil {
				return nil
			}
			c.degraded("decode", key, jsonErr)
		case !errors.Is(err, redis.Nil):
			c.degraded("get", key, err)
		}
	}

	value, err := load(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("settings cache: encode %s: %w", key, err)
	}
	if c != nil && c.client != nil {
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			c.degraded("set", key, err)
		}
	}
	return json.Unmarshal(raw, dest)
}

// Invalidate drops the entry under key.
func (c *Cache) Invalidate(ctx context.Context, key string) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, key).Err()
}

func (c *Cache) degraded(op, key string, err error) {
	c.logger.Warn("settings cache degraded", slog.String("op", op), slog.String("key", key), slog.Any("error", err))
}

// Package cache memoizes predicted labels in redis, keyed by dataset name
// and point digest. An empty address disables it.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"sibyl/internal/logging"
)

type Config struct {
	Addr     string        `envconfig:"SIBYL_CACHE_ADDR" default:""`
	Password string        `envconfig:"SIBYL_CACHE_PASSWORD" default:""`
	TTL      time.Duration `envconfig:"SIBYL_CACHE_TTL" default:"10m"`
}

type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewFromEnv connects to redis when an address is configured. With no
// address the cache runs disabled and every lookup misses.
func NewFromEnv(ctx context.Context, config *Config) (*Cache, error) {
	logger := logging.FromContext(ctx)
	if config.Addr == "" {
		logger.Infof("label cache disabled")
		return &Cache{ttl: config.TTL}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting label cache: %w", err)
	}
	logger.Infof("label cache connected to %s", config.Addr)

	return &Cache{rdb: rdb, ttl: config.TTL}, nil
}

func (c *Cache) Enabled() bool {
	return c != nil && c.rdb != nil
}

// Get returns the cached label for the key, ok false on miss or when the
// cache is disabled.
func (c *Cache) Get(ctx context.Context, key string) (string, bool) {
	if !c.Enabled() {
		return "", false
	}
	label, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logging.FromContext(ctx).Debugf("cache get %s: %v", key, err)
		}
		return "", false
	}
	return label, true
}

// Set stores the label under the key for the configured TTL. Failures are
// logged and swallowed, a broken cache never fails a classification.
func (c *Cache) Set(ctx context.Context, key, label string) {
	if !c.Enabled() {
		return
	}
	if err := c.rdb.Set(ctx, key, label, c.ttl).Err(); err != nil {
		logging.FromContext(ctx).Debugf("cache set %s: %v", key, err)
	}
}

func (c *Cache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Close()
}

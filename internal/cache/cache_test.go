package cache

import (
	"context"
	"testing"
	"time"
)

func TestDisabledCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFromEnv(ctx, &Config{TTL: time.Minute})
	if err != nil {
		t.Fatalf("NewFromEnv: %v", err)
	}
	if c.Enabled() {
		t.Fatalf("cache with no address must be disabled")
	}

	c.Set(ctx, "iris:abc", "setosa")
	if _, ok := c.Get(ctx, "iris:abc"); ok {
		t.Errorf("disabled cache must always miss")
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestNilCache(t *testing.T) {
	var c *Cache
	if c.Enabled() {
		t.Errorf("nil cache must report disabled")
	}
	if _, ok := c.Get(context.Background(), "k"); ok {
		t.Errorf("nil cache must miss")
	}
}

// Package cache provides a TTL key/value store with JSON encoding on top.
// Expired entries are indistinguishable from absent ones.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Store is a string-valued TTL store. Get reports presence explicitly so
// callers never confuse an empty value with a miss.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Cache wraps a Store with JSON marshaling for structured values.
type Cache struct {
	store Store
}

func New(store Store) *Cache {
	return &Cache{store: store}
}

// Get unmarshals the cached value into dest. The boolean reports whether a
// live entry was found.
func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, fmt.Errorf("decoding cached value for %s: %w", key, err)
	}
	return true, nil
}

// Set marshals value as JSON and stores it under key for ttl. Writes always
// replace whatever was there before.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding cache value for %s: %w", key, err)
	}
	return c.store.Set(ctx, key, string(raw), ttl)
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.store.Delete(ctx, key)
}

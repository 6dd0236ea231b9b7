package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Cache is a read-through JSON cache for catalog payloads. A nil Cache (or a
// Cache with a nil client) is a no-op, so callers never branch on presence.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache wraps a redis client with a default TTL for catalog entries.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{client: client, ttl: ttl}
}

func productListKey(collectionID *uuid.UUID, limit, offset int32) string {
	scope := "all"
	if collectionID != nil {
		scope = collectionID.String()
	}
	return fmt.Sprintf("catalog:products:%s:%d:%d", scope, limit, offset)
}

func productDetailKey(slug string) string {
	return "catalog:product:" + slug
}

func collectionsKey() string {
	return "catalog:collections"
}

// GetJSON loads a cached value into dst. The bool reports a hit; a cache miss
// is not an error.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	if c == nil || c.client == nil {
		return false, nil
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON stores a value under key for the cache TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, val any) error {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// Invalidate drops cached keys, used after admin catalog writes.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	if c == nil || c.client == nil || len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}

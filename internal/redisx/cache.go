package redisx

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache holds JSON snapshots of public read models. A Redis outage degrades
// to loading from the source every time.
type Cache struct {
	RDB redis.Cmdable
	TTL time.Duration
}

// Remember returns the cached value for resource, or calls load and caches
// its result.
func Remember[T any](ctx context.Context, c *Cache, resource string, load func(context.Context) (T, error)) (T, error) {
	key := PublicCacheKey(resource)
	if c != nil && c.RDB != nil {
		if b, err := c.RDB.Get(ctx, key).Bytes(); err == nil {
			var v T
			if json.Unmarshal(b, &v) == nil {
				return v, nil
			}
		}
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	if c != nil && c.RDB != nil {
		if b, err := json.Marshal(v); err == nil {
			_ = c.RDB.Set(ctx, key, b, c.TTL).Err()
		}
	}
	return v, nil
}

// Invalidate drops cached snapshots for the given resources.
func (c *Cache) Invalidate(ctx context.Context, resources ...string) error {
	if c == nil || c.RDB == nil || len(resources) == 0 {
		return nil
	}
	keys := make([]string, 0, len(resources))
	for _, r := range resources {
		keys = append(keys, PublicCacheKey(r))
	}
	return c.RDB.Del(ctx, keys...).Err()
}

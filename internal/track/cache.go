package track

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const cachePrefix = "opotopo:track:"

// Cache keeps parsed GeoJSON per source URL in Redis. A nil Cache, or one
// without a client, never hits.
type Cache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{redis: client, ttl: ttl}
}

func (c *Cache) Get(ctx context.Context, url string) ([]byte, bool, error) {
	if c == nil || c.redis == nil {
		return nil, false, nil
	}
	data, err := c.redis.Get(ctx, cachePrefix+url).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (c *Cache) Set(ctx context.Context, url string, data []byte) error {
	if c == nil || c.redis == nil {
		return nil
	}
	return c.redis.Set(ctx, cachePrefix+url, data, c.ttl).Err()
}

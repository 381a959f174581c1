package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a thin Redis wrapper. A nil *Cache is valid and behaves as a
// cache miss on every call, so callers degrade gracefully when Redis is
// not configured.
type Cache struct {
	client *redis.Client
}

// New connects to Redis and returns nil if the server is unreachable.
func New(addr, password string) *Cache {
	if addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil
	}

	return &Cache{client: client}
}

func (c *Cache) Get(ctx context.Context, key string) (string, bool) {
	if c == nil {
		return "", false
	}
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

func (c *Cache) Set(ctx context.Context, key, value string, ttl time.Duration) {
	if c == nil {
		return
	}
	c.client.Set(ctx, key, value, ttl)
}

func (c *Cache) Delete(ctx context.Context, key string) {
	if c == nil {
		return
	}
	c.client.Del(ctx, key)
}

// Package redisad caches raw row batches in redis as JSON.
package redisad

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"qc_restaurants/internal/adapters/observability"
)

const keyPrefix = "qcr:"

type Cache struct{ c *redis.Client }

func New(addr, pass string, db int) *Cache {
	return NewWithClient(redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}))
}

func NewWithClient(c *redis.Client) *Cache { return &Cache{c: c} }

// Ping checks connectivity so callers can run without a cache when redis is down.
func (r *Cache) Ping(ctx context.Context) error { return r.c.Ping(ctx).Err() }

func (r *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	v, err := r.c.Get(ctx, keyPrefix+key).Bytes()
	if err == redis.Nil {
		observability.ObserveCache("redis", "miss")
		return false, nil
	}
	if err != nil {
		observability.ObserveCache("redis", "error")
		return false, err
	}
	if err := json.Unmarshal(v, dst); err != nil {
		// a stale or foreign payload counts as a miss
		observability.ObserveCache("redis", "miss")
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	observability.ObserveCache("redis", "hit")
	return true, nil
}

func (r *Cache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	observability.ObserveCache("redis", "set")
	return r.c.Set(ctx, keyPrefix+key, b, time.Duration(ttlSec)*time.Second).Err()
}

func (r *Cache) Del(ctx context.Context, key string) error {
	observability.ObserveCache("redis", "del")
	return r.c.Del(ctx, keyPrefix+key).Err()
}

func (r *Cache) Close() error { return r.c.Close() }

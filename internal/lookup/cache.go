package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Lagunov2003/practice-registry/internal/config"
	"github.com/Lagunov2003/practice-registry/internal/types"
)

// Cache stores lookup results by key. A miss is (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) ([]types.Suggestion, bool, error)
	Set(ctx context.Context, key string, items []types.Suggestion) error
}

// Key is the cache key of a (domain, query) pair.
func Key(domain types.Domain, query string) string {
	return fmt.Sprintf("practice:lookup:%s:%s", domain, query)
}

// MemoryCache is a size-bounded LRU whose entries expire after a TTL.
type MemoryCache struct {
	lru *expirable.LRU[string, []types.Suggestion]
}

// NewMemoryCache holds at most size entries for ttl each.
func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	if size <= 0 {
		size = 512
	}
	return &MemoryCache{lru: expirable.NewLRU[string, []types.Suggestion](size, nil, ttl)}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]types.Suggestion, bool, error) {
	items, ok := c.lru.Get(key)
	return items, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, items []types.Suggestion) error {
	c.lru.Add(key, items)
	return nil
}

// Len reports the number of live entries.
func (c *MemoryCache) Len() int { return c.lru.Len() }

// RedisCache stores JSON-encoded results in Redis with a TTL.
type RedisCache struct {
	rdb *goredis.Client
	ttl time.Duration
}

// NewRedisCache wraps an existing client.
func NewRedisCache(rdb *goredis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]types.Suggestion, bool, error) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	var items []types.Suggestion
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return items, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, items []types.Suggestion) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, raw, c.ttl).Err()
}

// NewCache builds the cache selected by cfg. The returned close function
// is never nil. Driver "none" returns a nil Cache.
func NewCache(ctx context.Context, cfg config.CacheConfig) (Cache, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Driver {
	case "", "none":
		return nil, noop, nil
	case "memory":
		return NewMemoryCache(cfg.Size, cfg.TTL), noop, nil
	case "redis":
		rdb := goredis.NewClient(&goredis.Options{
			Addr:        cfg.RedisAddr,
			Password:    cfg.RedisPassword,
			DB:          cfg.RedisDB,
			DialTimeout: 5 * time.Second,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, noop, fmt.Errorf("redis ping: %w", err)
		}
		return NewRedisCache(rdb, cfg.TTL), rdb.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
}

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coocood/freecache"
	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const (
	// CacheKeyPrefix is the key prefix for cached data
	CacheKeyPrefix = "cache:"
	// DefaultCacheTTL applies when a caller passes a zero TTL
	DefaultCacheTTL = 10 * time.Minute
)

// Cache stores JSON encoded values. A miss is (false, nil).
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// CacheKey generates a cache key for a specific resource
func CacheKey(resource string, identifier string) string {
	return fmt.Sprintf("%s:%s", resource, identifier)
}

// RedisCache is the shared cache used when Redis is configured.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	val, err := c.client.Get(ctx, CacheKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, CacheKeyPrefix+key, data, ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, CacheKeyPrefix+key).Err()
}

// LocalCache is an in-process fallback used when Redis is not configured.
type LocalCache struct {
	cache *freecache.Cache
}

// NewLocalCache allocates a cache of sizeMB megabytes.
func NewLocalCache(sizeMB int) *LocalCache {
	if sizeMB <= 0 {
		sizeMB = 1
	}
	return &LocalCache{cache: freecache.NewCache(sizeMB * 1024 * 1024)}
}

func (c *LocalCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	val, err := c.cache.Get([]byte(CacheKeyPrefix + key))
	if errors.Is(err, freecache.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *LocalCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.cache.Set([]byte(CacheKeyPrefix+key), data, ttlSeconds(ttl))
}

func (c *LocalCache) Delete(_ context.Context, key string) error {
	c.cache.Del([]byte(CacheKeyPrefix + key))
	return nil
}

func ttlSeconds(ttl time.Duration) int {
	s := int(ttl / time.Second)
	if s < 1 {
		s = 1
	}
	return s
}

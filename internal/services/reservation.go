package services

import (
	"context"
	"time"

	"github.com/coocood/freecache"
	"github.com/redis/go-redis/v9"
)

const ReservationKeyPrefix = "reservation:"

// Reserver grants short-lived exclusive claims on a key. Reserve reports
// false when someone else already holds the key.
type Reserver interface {
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

type RedisReserver struct {
	client *redis.Client
}

func NewRedisReserver(client *redis.Client) *RedisReserver {
	return &RedisReserver{client: client}
}

func (r *RedisReserver) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, ReservationKeyPrefix+key, "1", ttl).Result()
}

// LocalReserver only protects a single process.
type LocalReserver struct {
	cache *freecache.Cache
}

func NewLocalReserver() *LocalReserver {
	// 512 KiB is the freecache minimum and holds far more than a port range
	return &LocalReserver{cache: freecache.NewCache(512 * 1024)}
}

func (r *LocalReserver) Reserve(_ context.Context, key string, ttl time.Duration) (bool, error) {
	prev, err := r.cache.GetOrSet([]byte(ReservationKeyPrefix+key), []byte{1}, ttlSeconds(ttl))
	if err != nil {
		return false, err
	}
	return prev == nil, nil
}

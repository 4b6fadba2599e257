package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend implements Backend on top of a Redis connection. The caller
// owns the client lifecycle; the backend never closes it.
type RedisBackend struct {
	rdb *redis.Client
}

// NewRedisBackend wraps an existing Redis client. The client should be
// configured with short dial/read timeouts so a degraded call cannot stall
// a request for long.
func NewRedisBackend(rdb *redis.Client) *RedisBackend {
	return &RedisBackend{rdb: rdb}
}

func (rb *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := rb.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (rb *RedisBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return rb.rdb.Set(ctx, key, value, ttl).Err()
}

func (rb *RedisBackend) Delete(ctx context.Context, key string) error {
	return rb.rdb.Del(ctx, key).Err()
}

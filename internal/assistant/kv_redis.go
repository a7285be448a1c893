package assistant

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisKV backs the assistant KV with redis. A zero TTL means keys do not
// expire.
type RedisKV struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewRedisKV creates a redis-backed KV.
func NewRedisKV(client *redis.Client, ttl time.Duration) *RedisKV {
	if client == nil {
		panic("assistant: redis client cannot be nil")
	}
	return &RedisKV{redis: client, ttl: ttl}
}

func (r *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("assistant: kv get %s: %w", key, err)
	}
	return val, true, nil
}

func (r *RedisKV) Set(ctx context.Context, key, value string) error {
	if err := r.redis.Set(ctx, key, value, r.ttl).Err(); err != nil {
		return fmt.Errorf("assistant: kv set %s: %w", key, err)
	}
	return nil
}

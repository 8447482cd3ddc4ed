// Package cache holds the Redis-backed adapters.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taskmaster/recurring/internal/infrastructure/config"
	"github.com/taskmaster/recurring/internal/ports"
)

const throttlePrefix = "throttle:"

// NewRedisClient creates a Redis client and performs a health check.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetAddr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

// setter is the slice of the Redis API the throttle needs.
type setter interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisThrottle grants one slot per key until the key expires, shared by
// every process pointed at the same Redis.
type RedisThrottle struct {
	client setter
}

// NewRedisThrottle creates a generation throttle backed by SET NX
func NewRedisThrottle(client setter) ports.GenerationThrottle {
	return &RedisThrottle{client: client}
}

func (t *RedisThrottle) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := t.client.SetNX(ctx, throttlePrefix+key, time.Now().UTC().Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire throttle %s: %w", key, err)
	}
	return ok, nil
}

func (t *RedisThrottle) Release(ctx context.Context, key string) error {
	if err := t.client.Del(ctx, throttlePrefix+key).Err(); err != nil {
		return fmt.Errorf("release throttle %s: %w", key, err)
	}
	return nil
}

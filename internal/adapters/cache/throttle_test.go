package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmaster/recurring/internal/infrastructure/config"
)

type fakeRedis struct {
	keys map[string]time.Duration
	err  error
}

func (f *fakeRedis) SetNX(_ context.Context, key string, _ interface{}, ttl time.Duration) *redis.BoolCmd {
	if f.err != nil {
		return redis.NewBoolResult(false, f.err)
	}
	if _, ok := f.keys[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.keys[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	var n int64
	for _, key := range keys {
		if _, ok := f.keys[key]; ok {
			delete(f.keys, key)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestRedisThrottle_Acquire(t *testing.T) {
	ctx := context.Background()
	fake := &fakeRedis{keys: make(map[string]time.Duration)}
	throttle := NewRedisThrottle(fake)

	ok, err := throttle.Acquire(ctx, "recurring:generate:a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, time.Minute, fake.keys["throttle:recurring:generate:a"])

	ok, err = throttle.Acquire(ctx, "recurring:generate:a", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second caller inside the ttl is throttled")

	ok, err = throttle.Acquire(ctx, "recurring:generate:b", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisThrottle_Release(t *testing.T) {
	ctx := context.Background()
	fake := &fakeRedis{keys: make(map[string]time.Duration)}
	throttle := NewRedisThrottle(fake)

	ok, err := throttle.Acquire(ctx, "recurring:generate:a", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, throttle.Release(ctx, "recurring:generate:a"))
	assert.NotContains(t, fake.keys, "throttle:recurring:generate:a")

	ok, err = throttle.Acquire(ctx, "recurring:generate:a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "released slot can be taken again")

	require.NoError(t, throttle.Release(ctx, "recurring:generate:missing"))
}

func TestRedisThrottle_Error(t *testing.T) {
	down := errors.New("connection refused")
	throttle := NewRedisThrottle(&fakeRedis{err: down})

	ok, err := throttle.Acquire(context.Background(), "k", time.Minute)
	assert.False(t, ok)
	assert.ErrorIs(t, err, down)

	assert.ErrorIs(t, throttle.Release(context.Background(), "k"), down)
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	_, err := NewRedisClient(context.Background(), config.RedisConfig{Host: "127.0.0.1", Port: 1})
	assert.Error(t, err)
}

package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridhawk-systems/charger-telemetry/internal/ratelimit"
)

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return client
}

func TestRedisRateLimiter_AllowsUnderLimit(t *testing.T) {
	client := setupTestRedis(t)
	limiter := ratelimit.NewRedisRateLimiter(client, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(ctx, "CHG001")
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should be allowed", i+1)
	}
}

func TestRedisRateLimiter_BlocksOverLimit(t *testing.T) {
	client := setupTestRedis(t)
	limiter := ratelimit.NewRedisRateLimiter(client, 2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, err := limiter.Allow(ctx, "CHG001")
		require.NoError(t, err)
		require.True(t, allowed)
	}

	allowed, err := limiter.Allow(ctx, "CHG001")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestRedisRateLimiter_KeysAreIndependent(t *testing.T) {
	client := setupTestRedis(t)
	limiter := ratelimit.NewRedisRateLimiter(client, 1, time.Minute)
	ctx := context.Background()

	allowed, err := limiter.Allow(ctx, "CHG001")
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = limiter.Allow(ctx, "CHG002")
	require.NoError(t, err)
	assert.True(t, allowed, "a second device must have its own budget")
}

func TestNoOpRateLimiter(t *testing.T) {
	allowed, err := ratelimit.NoOpRateLimiter{}.Allow(context.Background(), "anything")
	require.NoError(t, err)
	assert.True(t, allowed)
}

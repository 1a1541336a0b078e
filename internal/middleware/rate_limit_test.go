package middleware_test

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/deppfellow/listings-api/internal/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T, limit int64, window time.Duration) (*middleware.RedisRateLimiterStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := zerolog.Nop()
	return middleware.NewRedisRateLimiterStore(client, limit, window, &logger), mr
}

func TestRedisRateLimiterStore_AllowsUpToLimit(t *testing.T) {
	store, mr := newRedisStore(t, 3, time.Second)

	for i := 0; i < 3; i++ {
		allowed, err := store.Allow("10.0.0.1")
		require.NoError(t, err)
		assert.True(t, allowed, "request %d", i+1)
	}

	allowed, err := store.Allow("10.0.0.1")
	require.NoError(t, err)
	assert.False(t, allowed)

	// Other clients have their own counter.
	allowed, err = store.Allow("10.0.0.2")
	require.NoError(t, err)
	assert.True(t, allowed)

	assert.True(t, mr.Exists("listings:ratelimit:10.0.0.1"))
	assert.Equal(t, time.Second, mr.TTL("listings:ratelimit:10.0.0.1"))
}

func TestRedisRateLimiterStore_WindowResets(t *testing.T) {
	store, mr := newRedisStore(t, 1, time.Second)

	allowed, _ := store.Allow("client")
	require.True(t, allowed)
	allowed, _ = store.Allow("client")
	require.False(t, allowed)

	mr.FastForward(2 * time.Second)

	allowed, err := store.Allow("client")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRedisRateLimiterStore_FailsOpen(t *testing.T) {
	store, mr := newRedisStore(t, 1, time.Second)
	mr.Close()

	for i := 0; i < 3; i++ {
		allowed, err := store.Allow("client")
		require.NoError(t, err)
		assert.True(t, allowed)
	}
}

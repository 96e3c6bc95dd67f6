package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisCacheFromClient(client), mr
}

func TestClaimIdempotencyKeyFresh(t *testing.T) {
	cache, _ := newTestCache(t)

	existing, err := cache.ClaimIdempotencyKey(context.Background(), "key-1", "req-1")
	require.NoError(t, err)
	assert.Empty(t, existing)
}

func TestClaimIdempotencyKeyReturnsBoundRequest(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	_, err := cache.ClaimIdempotencyKey(ctx, "key-1", "req-1")
	require.NoError(t, err)

	existing, err := cache.ClaimIdempotencyKey(ctx, "key-1", "req-2")
	require.NoError(t, err)
	assert.Equal(t, "req-1", existing)
}

func TestClaimIdempotencyKeyIsolatesKeys(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	_, err := cache.ClaimIdempotencyKey(ctx, "key-1", "req-1")
	require.NoError(t, err)

	existing, err := cache.ClaimIdempotencyKey(ctx, "key-2", "req-2")
	require.NoError(t, err)
	assert.Empty(t, existing)
}

func TestClaimIdempotencyKeyExpires(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	_, err := cache.ClaimIdempotencyKey(ctx, "key-1", "req-1")
	require.NoError(t, err)

	mr.FastForward(idempotencyTTL + 1)

	existing, err := cache.ClaimIdempotencyKey(ctx, "key-1", "req-2")
	require.NoError(t, err)
	assert.Empty(t, existing)
}

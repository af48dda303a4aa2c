package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisImageCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisImageCache(client, time.Hour), mr
}

func TestImageCache_SetGet(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "55", "https://cdn.example.com/55.jpg"))

	url, err := cache.Get(ctx, "55")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/55.jpg", url)

	ttl := mr.TTL(imageKey("55"))
	assert.True(t, ttl >= time.Hour, "TTL should be at least base TTL")
	assert.True(t, ttl <= time.Hour+6*time.Minute, "TTL should be base + max jitter")
}

func TestImageCache_Miss(t *testing.T) {
	cache, _ := setupTestRedis(t)

	_, err := cache.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestImageCache_Expiry(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "7", "https://cdn/7.png"))
	mr.FastForward(2 * time.Hour)

	_, err := cache.Get(ctx, "7")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestImageKey_Format(t *testing.T) {
	assert.Equal(t, "cloudcart:image:12", imageKey("12"))
}

func TestNoopCache(t *testing.T) {
	var c ImageCache = NoopCache{}
	require.NoError(t, c.Set(context.Background(), "1", "x"))
	_, err := c.Get(context.Background(), "1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

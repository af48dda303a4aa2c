package cache

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
)

func NewRedisImageCache(client *redis.Client, ttl time.Duration) *RedisImageCache {
	return &RedisImageCache{
		client:  client,
		baseTTL: ttl,
	}
}

type RedisImageCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r RedisImageCache) Get(ctx context.Context, imageID string) (string, error) {
	url, err := r.client.Get(ctx, imageKey(imageID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	if err != nil {
		return "", fmt.Errorf("redis get failed: %w", err)
	}
	return url, nil
}

func (r RedisImageCache) Set(ctx context.Context, imageID, url string) error {
	// jitter spreads expiry of images fetched by the same catalog page
	jitter := time.Duration(rand.Int63n(int64(r.baseTTL/10) + 1))
	if err := r.client.Set(ctx, imageKey(imageID), url, r.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func imageKey(imageID string) string {
	return fmt.Sprintf("cloudcart:image:%s", imageID)
}

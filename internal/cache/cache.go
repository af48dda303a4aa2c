package cache

import (
	"context"
	"errors"
)

// ImageCache remembers CloudCart image id -> URL lookups.
type ImageCache interface {
	Get(ctx context.Context, imageID string) (string, error)
	Set(ctx context.Context, imageID, url string) error
}

var ErrCacheMiss = errors.New("cache miss")

// NoopCache never hits; used when no Redis is configured and in tests.
type NoopCache struct{}

func (NoopCache) Get(context.Context, string) (string, error) { return "", ErrCacheMiss }
func (NoopCache) Set(context.Context, string, string) error   { return nil }

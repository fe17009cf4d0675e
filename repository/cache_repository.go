package repository

import (
	"context"
	"time"
)

// CacheRepository stores serialized score results. A miss is reported as
// found == false with a nil error.
type CacheRepository interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}

// NoopCache never stores anything.
type NoopCache struct{}

func NewNoopCache() NoopCache {
	return NoopCache{}
}

func (NoopCache) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, nil
}

func (NoopCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return nil
}

package cache

import (
	"context"
	"time"

	"github.com/go-fitdash/fitdash/internal/core"
)

// Cache is the key-value cache contract shared with the services.
type Cache[T any] = core.Cache[T]

// getWithFetch is the cache-aside path shared by the implementations.
// A failed Set is ignored: the fetched value is still returned.
// No stampede protection is provided.
func getWithFetch[T any](
	ctx context.Context,
	c Cache[T],
	key string,
	ttl time.Duration,
	fetchFunc func(ctx context.Context, key string) (T, error),
) (T, error) {
	if value, err := c.Get(ctx, key); err == nil {
		return value, nil
	}

	value, err := fetchFunc(ctx, key)
	if err != nil {
		var zero T
		return zero, err
	}

	_ = c.Set(ctx, key, value, ttl)
	return value, nil
}

package cache

import (
	"context"
	"fmt"

	"github.com/Amund211/japa/internal/logging"
)

// Returns data, created, error
//
// Concurrent callers for the same key wait for the first caller to create the entry.
// A failed create leaves no entry behind, so the next caller tries again.
func GetOrCreate[T any](ctx context.Context, cache Cache[T], key string, create func() (T, error)) (T, bool, error) {
	claimed := false
	set := false
	defer func() {
		if claimed && !set {
			cache.delete(key)
		}
	}()

	for {
		result := cache.getOrClaim(key)

		if result.claimed {
			claimed = true

			logging.FromContext(ctx).InfoContext(ctx, "Getting cached value", "key", key, "cache", "miss")

			data, err := create()
			if err != nil {
				var empty T
				return empty, false, fmt.Errorf("failed to create cache entry: %w", err)
			}

			cache.set(key, data)
			set = true

			return data, true, nil
		}

		if result.valid {
			logging.FromContext(ctx).InfoContext(ctx, "Getting cached value", "key", key, "cache", "hit")
			return result.data, false, nil
		}

		if ctx.Err() != nil {
			var empty T
			return empty, false, fmt.Errorf("gave up waiting for cache entry: %w", ctx.Err())
		}

		logging.FromContext(ctx).InfoContext(ctx, "Waiting for cache", "key", key)
		cache.wait()
	}
}

// Drop a cached entry so the next read recreates it
func Invalidate[T any](cache Cache[T], key string) {
	cache.delete(key)
}

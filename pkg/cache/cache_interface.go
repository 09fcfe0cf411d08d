package cache

import (
	"context"
	"time"
)

// Cache is the contract for the cache layer, so Redis can be swapped for
// another backend (or a map in tests).
type Cache interface {
	// Get unmarshals the cached value into dest.
	// found is false on a miss, in which case dest is untouched.
	Get(ctx context.Context, key string, dest interface{}) (found bool, err error)

	// Set stores value with the given TTL.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	Delete(ctx context.Context, keys ...string) error

	Ping(ctx context.Context) error
}

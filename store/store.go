package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates the key does not exist or has expired.
var ErrNotFound = errors.New("store: key not found")

// IsNotFound reports whether err is the not-found sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// KVStore is the contract semcache requires from its backing store.
// Implementations must be safe for concurrent use.
type KVStore interface {
	// Get returns the value at key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set writes value at key with the given TTL. A zero TTL falls back to
	// the implementation's default.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete removes the given keys and returns how many existed.
	Delete(ctx context.Context, keys ...string) (int64, error)

	// KeysMatching enumerates keys matching a glob-style pattern.
	KeysMatching(ctx context.Context, pattern string) ([]string, error)

	// TTL returns the remaining lifetime of key.
	TTL(ctx context.Context, key string) (time.Duration, error)

	// HIncrBy atomically increments a hash field and returns the new value.
	HIncrBy(ctx context.Context, key, field string, delta int64) (int64, error)

	// HGetAll returns all fields of a hash; empty map if the key is absent.
	HGetAll(ctx context.Context, key string) (map[string]string, error)

	// Expire sets the TTL of an existing key.
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// Ping checks connectivity.
	Ping(ctx context.Context) error

	// Close releases the underlying connections.
	Close() error
}

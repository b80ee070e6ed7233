package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("cache: key not found")

// Cache is the key/value store behind gateway message lookups and flood
// control.
type Cache interface {
	Ping(ctx context.Context) error

	// Set stores a value with the given TTL.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	// Get retrieves a value by key, returning ErrNotFound if missing.
	Get(ctx context.Context, key string) (string, error)

	// Del removes a key. No-op if the key does not exist.
	Del(ctx context.Context, key string) error

	// IncrWindow atomically increments the counter at key and returns the
	// new value. The TTL is set when the counter is created and left alone
	// afterwards, so the counter expires ttl after its first increment.
	IncrWindow(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

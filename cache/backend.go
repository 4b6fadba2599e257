// Package cache provides degrade-safe access to the shared cache store.
// The cache is an optimization, never a dependency for correctness: every
// read and write path tolerates the backend being completely unavailable.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by a Backend when a key is absent or expired.
var ErrNotFound = errors.New("cache: key not found")

// Backend is the minimal contract over the underlying key/value store.
// Implementations return ErrNotFound for missing keys and any other error
// for connectivity or protocol failures.
type Backend interface {
	// Get retrieves the raw value stored under key.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key for ttl. TTL must be positive.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

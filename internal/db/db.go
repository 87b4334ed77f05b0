// Package db defines the key-value storage contract used by the result
// cache. Implementations live in subpackages (redis, memory).
package db

import (
	"context"
	"time"
)

// Store is a key-value store with per-key expiration.
type Store interface {
	// Ping checks connectivity.
	Ping(ctx context.Context) error

	// Get retrieves a value by key. Returns ErrKeyNotFound when the key
	// does not exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// SetWithTTL stores a value with an expiration. Overwrites any
	// existing value at the key.
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// WaitForReady polls Ping until the store responds or timeout expires.
	WaitForReady(ctx context.Context, timeout time.Duration) error

	// Close shuts down the store.
	Close()
}

// Package memory implements the db.Store contract on an in-process LRU.
// Used for development setups without a Redis instance and by tests.
package memory

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/bhalbert/rest-api/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// DefaultCapacity bounds the cache when no capacity is configured.
const DefaultCapacity = 4096

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Store is a bounded in-memory key-value store with per-key expiration.
// Expired entries are dropped lazily on read.
type Store struct {
	cache *lru.Cache[string, entry]
	now   func() time.Time
}

// NewStore creates an in-memory store holding at most capacity entries.
func NewStore(capacity int) (*Store, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	cache, err := lru.New[string, entry](capacity)
	if err != nil {
		return nil, err
	}
	return &Store{cache: cache, now: time.Now}, nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Get retrieves a value by key, dropping it when expired.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	e, ok := s.cache.Get(key)
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	if s.now().After(e.expiresAt) {
		s.cache.Remove(key)
		return nil, db.ErrKeyNotFound
	}
	return e.value, nil
}

// SetWithTTL stores a value with an expiration, replacing any previous
// value and expiry at the key.
func (s *Store) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.cache.Add(key, entry{value: value, expiresAt: s.now().Add(ttl)})
	return nil
}

// WaitForReady returns immediately; the store is always available.
func (s *Store) WaitForReady(context.Context, time.Duration) error { return nil }

// Close releases the cache.
func (s *Store) Close() {
	s.cache.Purge()
}

// Package rescache caches shaped query results keyed by the operation and
// its arguments. Entries live longer the more expensive they were to
// compute, so slow queries are the ones most likely to be served warm.
package rescache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"

	"github.com/bhalbert/rest-api/internal/db"
	"github.com/bhalbert/rest-api/internal/metrics"
)

const keyPrefix = "assoc:cache"

// Cache wraps a db.Store with operation-keyed lookups and latency-scaled
// expiry. Store failures degrade to uncached fetches and never fail the
// request.
type Cache struct {
	store   db.Store
	version string
	log     *zap.Logger
	now     func() time.Time
}

// New builds a cache over store. The version string partitions keys so a
// data release invalidates every prior entry.
func New(store db.Store, version string, log *zap.Logger) *Cache {
	return &Cache{
		store:   store,
		version: version,
		log:     log,
		now:     time.Now,
	}
}

// Key derives the deterministic store key for one operation call. Arguments
// are canonicalized through JSON, so two equal calls always share a key.
func (c *Cache) Key(op string, args any) (string, error) {
	payload, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("canonicalize cache args: %w", err)
	}
	h := xxhash.New()
	h.WriteString(op)
	h.Write(payload)
	return fmt.Sprintf("%s:%s:%016x", keyPrefix, c.version, h.Sum64()), nil
}

// Do returns the cached payload for (op, args) when present, otherwise runs
// fetch and stores its result with a TTL scaled to the fetch latency.
// Concurrent misses on the same key each fetch and write; last write wins.
func (c *Cache) Do(ctx context.Context, op string, args any, fetch func(context.Context) ([]byte, error)) ([]byte, error) {
	key, err := c.Key(op, args)
	if err != nil {
		return nil, err
	}

	data, err := c.store.Get(ctx, key)
	if err == nil {
		metrics.ResultCacheTotal.WithLabelValues("hit").Inc()
		return data, nil
	}
	if !errors.Is(err, db.ErrKeyNotFound) {
		c.log.Warn("cache read failed", zap.String("op", op), zap.Error(err))
	}
	metrics.ResultCacheTotal.WithLabelValues("miss").Inc()

	start := c.now()
	payload, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	elapsed := c.now().Sub(start)

	ttl := TTL(elapsed)
	if err := c.store.SetWithTTL(ctx, key, payload, ttl); err != nil {
		c.log.Warn("cache write failed", zap.String("op", op), zap.Error(err))
	}
	return payload, nil
}

// TTL converts a fetch latency into an expiry: one minute per rounded
// elapsed second, never below one minute.
func TTL(elapsed time.Duration) time.Duration {
	secs := int64(math.Round(elapsed.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return time.Duration(secs) * time.Minute
}

package rescache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bhalbert/rest-api/internal/db/es"
)

// Searcher is the slice of the backend client the cache decorates.
type Searcher interface {
	Search(ctx context.Context, index string, req es.Request) (*es.Response, error)
}

// Compile-time check: CachedSearcher implements Searcher.
var _ Searcher = (*CachedSearcher)(nil)

// CachedSearcher serves Search calls from the cache when possible, making
// caching transparent to the use cases above it.
type CachedSearcher struct {
	next  Searcher
	cache *Cache
}

// NewCachedSearcher decorates next with the cache.
func NewCachedSearcher(next Searcher, cache *Cache) *CachedSearcher {
	return &CachedSearcher{next: next, cache: cache}
}

// Search returns the cached response for an identical earlier request, or
// runs the request and caches the response.
func (s *CachedSearcher) Search(ctx context.Context, index string, req es.Request) (*es.Response, error) {
	data, err := s.cache.Do(ctx, "search:"+index, req, func(ctx context.Context) ([]byte, error) {
		resp, err := s.next.Search(ctx, index, req)
		if err != nil {
			return nil, err
		}
		payload, err := json.Marshal(resp)
		if err != nil {
			return nil, fmt.Errorf("encode cached response: %w", err)
		}
		return payload, nil
	})
	if err != nil {
		return nil, err
	}

	var resp es.Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode cached response: %w", err)
	}
	return &resp, nil
}

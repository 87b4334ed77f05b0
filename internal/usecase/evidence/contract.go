package evidence

import (
	"context"

	"github.com/bhalbert/rest-api/internal/db/es"
)

// Searcher executes queries against the search backend, usually through the
// result cache.
type Searcher interface {
	Search(ctx context.Context, index string, req es.Request) (*es.Response, error)
}

// GeneLookup resolves uniprot keywords to gene ids.
type GeneLookup interface {
	GenesForKeywords(ctx context.Context, keywords []string) []string
}

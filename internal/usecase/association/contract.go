package association

import (
	"context"

	"github.com/bhalbert/rest-api/internal/db/es"
	"github.com/bhalbert/rest-api/internal/repository/lookup"
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

// LabelLookup resolves pathway codes to labels with raw-code fallback.
type LabelLookup interface {
	Labels(ctx context.Context, codes []string) map[string]string
}

// OntologyLookup resolves disease codes to their ancestor paths.
type OntologyLookup interface {
	OntologyPaths(ctx context.Context, codes []string) (map[string]lookup.OntologyEntry, error)
}

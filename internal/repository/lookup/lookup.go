// Package lookup resolves secondary-index data used to enrich queries and
// facets: pathway labels, keyword-to-gene sets and disease ontology paths.
// Misses degrade to fallback values; only backend failures surface as
// errors, and only where the caller cannot degrade.
package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/bhalbert/rest-api/internal/db/es"
	"github.com/bhalbert/rest-api/internal/domain/query"
)

// maxLookupSize bounds secondary-index scans. Keyword and pathway gene sets
// are large but finite; label and ontology lookups are keyed by id.
const maxLookupSize = 100000

// ontologyRoot is the ontology's own root code as stored on path_codes.
// Parent paths are exposed root-less, so it is stripped when present.
const ontologyRoot = "cttv_root"

// Searcher is the slice of the backend client this repository needs.
type Searcher interface {
	Search(ctx context.Context, index string, req es.Request) (*es.Response, error)
}

// Indexes names the secondary indexes the repository reads.
type Indexes struct {
	Gene     string
	Efo      string
	Reactome string
}

// Repository answers lookup queries against the secondary indexes.
type Repository struct {
	search Searcher
	idx    Indexes
	log    *zap.Logger
}

// New builds a lookup repository.
func New(search Searcher, idx Indexes, log *zap.Logger) *Repository {
	return &Repository{search: search, idx: idx, log: log}
}

// Labels resolves pathway codes to human-readable labels. Codes are
// uppercased before lookup; unknown or unreachable codes fall back to the
// raw code so decoration never fails a request.
func (r *Repository) Labels(ctx context.Context, codes []string) map[string]string {
	labels := make(map[string]string, len(codes))
	for _, code := range codes {
		labels[strings.ToUpper(code)] = code
	}
	if len(codes) == 0 {
		return labels
	}

	upper := make([]string, 0, len(labels))
	for code := range labels {
		upper = append(upper, code)
	}

	resp, err := r.search.Search(ctx, r.idx.Reactome, es.Request{
		Query:  query.IDs{Values: upper},
		Size:   es.Size(maxLookupSize),
		Source: []string{"label"},
	})
	if err != nil {
		r.log.Warn("pathway label lookup failed", zap.Error(err))
		return labels
	}

	for _, hit := range resp.Hits.Hits {
		var doc struct {
			Label string `json:"label"`
		}
		if err := json.Unmarshal(hit.Source, &doc); err != nil || doc.Label == "" {
			continue
		}
		labels[strings.ToUpper(hit.ID)] = doc.Label
	}
	return labels
}

// GenesForKeywords resolves uniprot keywords to the gene ids carrying them.
// An empty or failed lookup yields an empty set, never an error, so one bad
// facet cannot fail the whole request.
func (r *Repository) GenesForKeywords(ctx context.Context, keywords []string) []string {
	if len(keywords) == 0 {
		return nil
	}
	return r.geneIDs(ctx, query.Bool{Should: []query.Expr{
		query.Terms{Field: "private.facets.uniprot_keywords", Values: keywords},
	}})
}

func (r *Repository) geneIDs(ctx context.Context, q query.Expr) []string {
	resp, err := r.search.Search(ctx, r.idx.Gene, es.Request{
		Query:  q,
		Size:   es.Size(maxLookupSize),
		Source: []string{"id"},
	})
	if err != nil {
		r.log.Warn("gene lookup failed", zap.Error(err))
		return nil
	}
	ids := make([]string, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		ids = append(ids, hit.ID)
	}
	return ids
}

// OntologyEntry is the ancestry data of one disease code.
type OntologyEntry struct {
	Label string
	// ParentPaths holds one root-less ancestor chain per ontology path,
	// excluding the code itself. The first element is the therapeutic area.
	ParentPaths [][]string
	// TherapeuticAreas are the distinct first-path-position ancestors.
	TherapeuticAreas []string
	// Labels maps every ancestor code seen on the paths to its label.
	Labels map[string]string
}

// OntologyPaths resolves disease codes to their ancestor paths and labels.
// Tree construction cannot degrade without this data, so backend failures
// propagate.
func (r *Repository) OntologyPaths(ctx context.Context, codes []string) (map[string]OntologyEntry, error) {
	out := make(map[string]OntologyEntry, len(codes))
	if len(codes) == 0 {
		return out, nil
	}

	resp, err := r.search.Search(ctx, r.idx.Efo, es.Request{
		Query:  query.IDs{Values: codes},
		Size:   es.Size(len(codes)),
		Source: []string{"code", "label", "path_codes", "path_labels"},
	})
	if err != nil {
		return nil, fmt.Errorf("ontology path lookup: %w", err)
	}

	for _, hit := range resp.Hits.Hits {
		var doc struct {
			Code       string     `json:"code"`
			Label      string     `json:"label"`
			PathCodes  [][]string `json:"path_codes"`
			PathLabels [][]string `json:"path_labels"`
		}
		if err := json.Unmarshal(hit.Source, &doc); err != nil {
			r.log.Warn("skipping malformed ontology document", zap.String("id", hit.ID), zap.Error(err))
			continue
		}

		// Codes are stored as URIs; the last segment is the short code.
		parts := strings.Split(doc.Code, "/")
		code := parts[len(parts)-1]

		entry := OntologyEntry{Label: doc.Label, Labels: map[string]string{}}
		for i, path := range doc.PathCodes {
			if len(path) == 0 {
				continue
			}
			// Drop the code itself; what remains is the parent chain.
			parents := path[:len(path)-1]
			if len(parents) > 0 && parents[0] == ontologyRoot {
				parents = parents[1:]
			}
			entry.ParentPaths = append(entry.ParentPaths, parents)
			if i < len(doc.PathLabels) {
				labels := doc.PathLabels[i]
				for j, ancestor := range path {
					if j < len(labels) {
						entry.Labels[ancestor] = labels[j]
					}
				}
			}
			if len(parents) > 0 && !contains(entry.TherapeuticAreas, parents[0]) {
				entry.TherapeuticAreas = append(entry.TherapeuticAreas, parents[0])
			}
		}
		out[code] = entry
	}
	return out, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

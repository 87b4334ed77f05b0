// Package association is the query facade over target-disease association
// data: filtered and faceted pages, id lookups and the therapeutic-area
// tree view.
package association

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/bhalbert/rest-api/internal/db/es"
	"github.com/bhalbert/rest-api/internal/domain"
	"github.com/bhalbert/rest-api/internal/domain/assoc"
	"github.com/bhalbert/rest-api/internal/domain/query"
	"github.com/bhalbert/rest-api/internal/domain/query/params"
	"github.com/bhalbert/rest-api/internal/domain/tree"
	"github.com/bhalbert/rest-api/internal/search/aggs"
	"github.com/bhalbert/rest-api/internal/search/filters"
)

// Service answers association queries.
type Service struct {
	search   Searcher
	labels   LabelLookup
	ontology OntologyLookup
	builder  *aggs.Builder
	reg      *domain.DataTypeRegistry
	index    string
	log      *zap.Logger
}

// New creates an association service over the given association index.
func New(search Searcher, genes GeneLookup, labels LabelLookup, ontology OntologyLookup,
	reg *domain.DataTypeRegistry, index string, log *zap.Logger,
) *Service {
	return &Service{
		search:   search,
		labels:   labels,
		ontology: ontology,
		builder:  aggs.NewBuilder(reg, genes),
		reg:      reg,
		index:    index,
		log:      log,
	}
}

// Page is one page of shaped associations.
type Page struct {
	Total              int64                `json:"total"`
	Data               []*assoc.Association `json:"data"`
	Facets             map[string]Facet     `json:"facets,omitempty"`
	AvailableDatatypes []string             `json:"available_datatypes"`
	// TherapeuticAreas carries the area-level scores backfilled for
	// single-target direct queries, absent otherwise.
	TherapeuticAreas []*assoc.Association `json:"therapeutic_areas,omitempty"`
}

// Get runs a filtered, optionally faceted association query.
func (s *Service) Get(ctx context.Context, p *params.SearchParams) (*Page, error) {
	built := s.builder.Load(ctx, p)

	req := es.Request{
		Query:      s.textQuery(p),
		PostFilter: built.PostFilter(),
		Size:       es.Size(p.Size()),
		From:       p.From(),
		Sort:       s.scoreSort(p),
		Source:     p.SourceFields(),
	}
	if len(built.Aggs) > 0 {
		req.Aggs = built.Aggs
	}

	resp, err := s.search.Search(ctx, s.index, req)
	if err != nil {
		return nil, fmt.Errorf("association search: %w", err)
	}

	data, err := s.shapeHits(resp, p)
	if err != nil {
		return nil, err
	}

	page := &Page{
		Total:              resp.Hits.Total,
		Data:               data,
		AvailableDatatypes: s.reg.AvailableDatatypes(),
	}

	if len(resp.Aggregations) > 0 {
		page.Facets = s.parseFacets(ctx, resp.Aggregations)
	}

	if tas, err := s.backfillTherapeuticAreas(ctx, p, data); err != nil {
		return nil, err
	} else if tas != nil {
		page.TherapeuticAreas = tas
	}

	return page, nil
}

// GetByIDs fetches associations by identifier, preserving result order.
func (s *Service) GetByIDs(ctx context.Context, ids []string, p *params.SearchParams) (*Page, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: at least one association id is required", domain.ErrValidation)
	}

	resp, err := s.search.Search(ctx, s.index, es.Request{
		Query:  query.IDs{Values: ids},
		Size:   es.Size(len(ids)),
		Source: p.SourceFields(),
	})
	if err != nil {
		return nil, fmt.Errorf("association lookup: %w", err)
	}

	data, err := s.shapeHits(resp, p)
	if err != nil {
		return nil, err
	}
	return &Page{
		Total:              resp.Hits.Total,
		Data:               data,
		AvailableDatatypes: s.reg.AvailableDatatypes(),
	}, nil
}

// Tree is the therapeutic-area tree view of one association query.
type Tree struct {
	Total              int64            `json:"total"`
	Root               *tree.Node       `json:"data"`
	Facets             map[string]Facet `json:"facets,omitempty"`
	AvailableDatatypes []string         `json:"available_datatypes"`
}

// GetTree runs Get and regroups the page into the ontology tree. Diseases
// with direct evidence anchor the placement; their therapeutic-area
// ancestors are backfilled as grouping nodes.
func (s *Service) GetTree(ctx context.Context, p *params.SearchParams) (*Tree, error) {
	page, err := s.Get(ctx, p)
	if err != nil {
		return nil, err
	}

	codes := make([]string, 0, len(page.Data))
	var withData []string
	for _, a := range page.Data {
		codes = append(codes, a.Disease.ID)
		if a.IsDirect {
			withData = append(withData, a.Disease.ID)
		}
	}

	entries, err := s.ontology.OntologyPaths(ctx, codes)
	if err != nil {
		return nil, err
	}
	parentPaths := make(map[string][][]string, len(entries))
	for code, entry := range entries {
		parentPaths[code] = entry.ParentPaths
	}

	root, err := tree.Build(page.Data, parentPaths, withData)
	if err != nil {
		return nil, err
	}
	return &Tree{
		Total:              page.Total,
		Root:               root,
		Facets:             page.Facets,
		AvailableDatatypes: page.AvailableDatatypes,
	}, nil
}

// backfillTherapeuticAreas fetches area-level association rows when the
// request is scoped to exactly one target and restricted to direct
// associations. The paginated page cannot contain them, so they ride along
// separately.
func (s *Service) backfillTherapeuticAreas(ctx context.Context, p *params.SearchParams, data []*assoc.Association) ([]*assoc.Association, error) {
	f := p.Filters()
	if len(f.Targets) != 1 || f.IsDirect == nil || !*f.IsDirect {
		return nil, nil
	}
	areas := assoc.TherapeuticAreas(data)
	if len(areas) == 0 {
		return nil, nil
	}

	resp, err := s.search.Search(ctx, s.index, es.Request{
		Query: query.And(
			filters.Disease(areas, filters.Or, true, false),
			filters.Target(f.Targets, filters.Or, false),
		),
		Size:   es.Size(params.MaxSize),
		Source: p.SourceFields(),
	})
	if err != nil {
		return nil, fmt.Errorf("therapeutic area backfill: %w", err)
	}

	var out []*assoc.Association
	for _, hit := range resp.Hits.Hits {
		a, err := assoc.ParseHit(hit.Source, p.ScoringMethod(), s.reg)
		if err != nil {
			return nil, err
		}
		if a.Disease.ID == "cttv_root" {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *Service) shapeHits(resp *es.Response, p *params.SearchParams) ([]*assoc.Association, error) {
	out := make([]*assoc.Association, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		a, err := assoc.ParseHit(hit.Source, p.ScoringMethod(), s.reg)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *Service) textQuery(p *params.SearchParams) query.Expr {
	if p.Search() != "" {
		return query.MatchPhrasePrefix{Field: "_all", Query: p.Search()}
	}
	return query.MatchAll{}
}

// scoreSort prefixes sort names with the scoring method: association pages
// sort on score dimensions, not raw document fields.
func (s *Service) scoreSort(p *params.SearchParams) []query.Sort {
	out := make([]query.Sort, 0, len(p.Sort()))
	for _, sf := range p.Sort() {
		out = append(out, query.Sort{
			Field:     p.ScoringMethod() + "." + sf.Name,
			Ascending: sf.Ascending,
		})
	}
	return out
}

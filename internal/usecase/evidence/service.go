// Package evidence serves filtered pages of raw evidence documents, the
// per-record counterpart of the rolled-up association view.
package evidence

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/bhalbert/rest-api/internal/db/es"
	"github.com/bhalbert/rest-api/internal/domain"
	"github.com/bhalbert/rest-api/internal/domain/query"
	"github.com/bhalbert/rest-api/internal/domain/query/params"
	"github.com/bhalbert/rest-api/internal/search/filters"
)

// Query is one evidence filter request. Every slice is optional; the three
// operators default to OR. Sort entries name raw document fields, with a
// leading "~" for ascending order.
type Query struct {
	Targets         []string
	Diseases        []string
	EvidenceTypes   []string
	Datasources     []string // datasource and datatype tokens, mixed
	Pathways        []string
	UniprotKeywords []string

	TargetOperator       filters.Operator
	DiseaseOperator      filters.Operator
	EvidenceTypeOperator filters.Operator

	// IsDirect widens the disease filter to the full ancestor code list
	// when false.
	IsDirect bool

	ScoreMin float64
	ScoreMax float64

	Size   *int
	From   int
	Sort   []string
	Fields []string
}

// Page is one page of raw evidence documents.
type Page struct {
	Total int64             `json:"total"`
	Data  []json.RawMessage `json:"data"`
}

// Service answers evidence queries.
type Service struct {
	search Searcher
	genes  GeneLookup
	reg    *domain.DataTypeRegistry
	index  string
	log    *zap.Logger
}

// New creates an evidence service over the given evidence index.
func New(search Searcher, genes GeneLookup, reg *domain.DataTypeRegistry, index string, log *zap.Logger) *Service {
	return &Service{search: search, genes: genes, reg: reg, index: index, log: log}
}

// Get runs a filtered evidence query. All filter conditions are ANDed; value
// sets within one condition combine with that condition's operator.
func (s *Service) Get(ctx context.Context, q Query) (*Page, error) {
	size := params.DefaultSize
	if q.Size != nil {
		size = *q.Size
	}
	if size < 0 || size > params.MaxSize {
		return nil, fmt.Errorf("%w: size must be between 0 and %d", domain.ErrValidation, params.MaxSize)
	}
	if q.From < 0 {
		return nil, fmt.Errorf("%w: from cannot be negative", domain.ErrValidation)
	}
	// A zero max is meaningless for a (gt, lte] range; treat it as unset.
	scoreMax := q.ScoreMax
	if scoreMax == 0 {
		scoreMax = 1
	}
	if q.ScoreMin > scoreMax {
		return nil, fmt.Errorf("%w: score range min %.3f above max %.3f",
			domain.ErrValidation, q.ScoreMin, scoreMax)
	}

	conditions := []query.Expr{
		filters.Target(q.Targets, orDefault(q.TargetOperator), false),
		filters.Disease(q.Diseases, orDefault(q.DiseaseOperator), q.IsDirect, false),
		filters.EvidenceType(q.EvidenceTypes, orDefault(q.EvidenceTypeOperator)),
		filters.Pathway(q.Pathways),
	}
	if len(q.Datasources) > 0 {
		conditions = append(conditions,
			filters.DatasourceEvidence(s.reg.ExpandDatasources(q.Datasources), filters.Or))
	}
	if len(q.UniprotKeywords) > 0 {
		if genes := s.genes.GenesForKeywords(ctx, q.UniprotKeywords); len(genes) > 0 {
			conditions = append(conditions, filters.Target(genes, filters.Or, false))
		}
	}
	// The identity range [0, 1] matches everything, skip it.
	if q.ScoreMin > 0 || scoreMax < 1 {
		conditions = append(conditions, filters.EvidenceScoreRange(q.ScoreMin, scoreMax))
	}

	req := es.Request{
		Query: query.And(conditions...),
		Size:  es.Size(size),
		From:  q.From,
		Sort:  digestSort(q.Sort),
	}
	if len(q.Fields) > 0 {
		req.Source = q.Fields
	}

	resp, err := s.search.Search(ctx, s.index, req)
	if err != nil {
		return nil, fmt.Errorf("evidence search: %w", err)
	}
	return pageOf(resp), nil
}

// GetByIDs fetches evidence records by identifier.
func (s *Service) GetByIDs(ctx context.Context, ids []string) (*Page, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: at least one evidence id is required", domain.ErrValidation)
	}
	resp, err := s.search.Search(ctx, s.index, es.Request{
		Query: query.IDs{Values: ids},
		Size:  es.Size(len(ids)),
	})
	if err != nil {
		return nil, fmt.Errorf("evidence lookup: %w", err)
	}
	return pageOf(resp), nil
}

func pageOf(resp *es.Response) *Page {
	page := &Page{Total: resp.Hits.Total, Data: make([]json.RawMessage, 0, len(resp.Hits.Hits))}
	for _, hit := range resp.Hits.Hits {
		page.Data = append(page.Data, hit.Source)
	}
	return page
}

func orDefault(op filters.Operator) filters.Operator {
	if op == "" {
		return filters.Or
	}
	return op
}

// digestSort turns raw sort field strings into sort clauses. Evidence sorts
// on document fields directly, no scoring-method prefix.
func digestSort(fields []string) []query.Sort {
	out := make([]query.Sort, 0, len(fields))
	for _, f := range fields {
		if strings.HasPrefix(f, "~") {
			out = append(out, query.Sort{Field: f[1:], Ascending: true})
			continue
		}
		out = append(out, query.Sort{Field: f})
	}
	return out
}

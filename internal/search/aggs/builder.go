package aggs

import (
	"context"

	"github.com/bhalbert/rest-api/internal/domain"
	"github.com/bhalbert/rest-api/internal/domain/query"
	"github.com/bhalbert/rest-api/internal/domain/query/params"
	"github.com/bhalbert/rest-api/internal/search/filters"
)

// Builder assembles the filter and aggregation maps for one request.
type Builder struct {
	reg   *domain.DataTypeRegistry
	genes GeneLookup
}

// NewBuilder builds an aggregation builder over the datatype registry and
// the keyword-to-gene collaborator.
func NewBuilder(reg *domain.DataTypeRegistry, genes GeneLookup) *Builder {
	return &Builder{reg: reg, genes: genes}
}

// Result is the combined output of one Load call.
type Result struct {
	// Filters maps every facet kind to its own filter, nil for inactive
	// facets.
	Filters map[domain.FacetKind]query.Expr
	// Aggs holds the facet aggregations to request, keyed by facet kind.
	Aggs map[string]query.Agg
}

// PostFilter conjoins every active facet filter. It restricts the returned
// hits without restricting the facet aggregations, which carry their own
// complementary scoping.
func (r Result) PostFilter() query.Expr {
	exprs := make([]query.Expr, 0, len(r.Filters))
	for _, k := range domain.FacetKinds() {
		if f := r.Filters[k]; f != nil {
			exprs = append(exprs, f)
		}
	}
	return query.And(exprs...)
}

// Load instantiates one unit per facet kind, collects their filters and,
// when facets are requested, their aggregations. When exactly one
// non-service facet kind is active its own aggregation is suppressed: it
// would only echo totals already implied by pagination.
func (b *Builder) Load(ctx context.Context, p *params.SearchParams) Result {
	units := make(map[domain.FacetKind]Unit, len(domain.FacetKinds()))
	for _, kind := range domain.FacetKinds() {
		units[kind] = b.newUnit(ctx, kind, p)
	}

	out := Result{
		Filters: make(map[domain.FacetKind]query.Expr, len(units)),
		Aggs:    map[string]query.Agg{},
	}
	for kind, unit := range units {
		out.Filters[kind] = unit.QueryFilter()
	}

	if !p.Facets() {
		return out
	}

	suppressed, haveSuppressed := suppressedKind(p)
	for kind, unit := range units {
		if haveSuppressed && kind == suppressed {
			continue
		}
		if agg := unit.Agg(out.Filters); agg != nil {
			out.Aggs[string(kind)] = *agg
		}
	}
	return out
}

// newUnit is the closed facet-kind-to-unit mapping. The facet set is fixed;
// adding a kind means adding a case here.
func (b *Builder) newUnit(ctx context.Context, kind domain.FacetKind, p *params.SearchParams) Unit {
	f := p.Filters()
	switch kind {
	case domain.FacetTarget:
		return termsUnit{
			kind:   kind,
			field:  "target.id",
			filter: filters.Target(f.Targets, filters.Or, false),
		}
	case domain.FacetDisease:
		return termsUnit{
			kind:   kind,
			field:  "disease.id",
			filter: filters.Disease(f.Diseases, filters.Or, true, false),
		}
	case domain.FacetIsDirect:
		var filter query.Expr
		if f.IsDirect != nil {
			filter = filters.IsDirect(*f.IsDirect)
		}
		return termsUnit{kind: kind, field: "is_direct", filter: filter}
	case domain.FacetPathway:
		return pathwayUnit{filter: filters.Pathway(f.Pathways)}
	case domain.FacetUniprotKW:
		var filter query.Expr
		if genes := b.genes.GenesForKeywords(ctx, f.UniprotKeywords); len(genes) > 0 {
			filter = filters.Target(genes, filters.Or, false)
		}
		return uniprotUnit{filter: filter}
	case domain.FacetScoreRange:
		return scoreRangeUnit{filter: filters.ScoreRange(
			p.ScoringMethod(), p.ScoreDimensions(), f.ScoreMin, f.ScoreMax,
		)}
	case domain.FacetDatasource:
		return datasourceUnit{filter: filters.Datasource(f.Datasources, filters.Or, b.reg)}
	default:
		return scoreRangeUnit{}
	}
}

// suppressedKind applies the single-active-filter rule: service kinds
// (is-direct, score-range) never count, and when exactly one other kind is
// active that kind's facet is dropped.
func suppressedKind(p *params.SearchParams) (domain.FacetKind, bool) {
	var active []domain.FacetKind
	for _, k := range p.ActiveFilterKinds() {
		if !domain.IsServiceKind(k) {
			active = append(active, k)
		}
	}
	if len(active) == 1 {
		return active[0], true
	}
	return "", false
}

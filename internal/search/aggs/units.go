// Package aggs composes per-facet aggregation units into the combined
// filter and aggregation document of one request. Each unit owns its
// facet's filter and its bucketed aggregation; the aggregation is scoped by
// every OTHER facet's filter, never its own, so bucket counts always answer
// "what would I get if I changed only this facet".
package aggs

import (
	"context"

	"github.com/bhalbert/rest-api/internal/domain"
	"github.com/bhalbert/rest-api/internal/domain/query"
)

// GeneLookup resolves uniprot keywords to gene ids. A failed or empty
// lookup yields an empty set.
type GeneLookup interface {
	GenesForKeywords(ctx context.Context, keywords []string) []string
}

// Unit is one facet's contribution to the request document. Units are
// built fresh per request and never shared.
type Unit interface {
	Kind() domain.FacetKind
	// QueryFilter is this facet's own filter expression, nil when the
	// facet carries no active value.
	QueryFilter() query.Expr
	// Agg is this facet's bucketed aggregation scoped by the other
	// facets' filters, nil for filter-only facets.
	Agg(all map[domain.FacetKind]query.Expr) *query.Agg
}

// complementary collects every other facet's non-nil filter.
func complementary(kind domain.FacetKind, all map[domain.FacetKind]query.Expr) []query.Expr {
	var out []query.Expr
	for _, k := range domain.FacetKinds() {
		if k == kind || all[k] == nil {
			continue
		}
		out = append(out, all[k])
	}
	return out
}

func cardinalityAggs() map[string]query.Agg {
	return map[string]query.Agg{
		"unique_target_count": {Cardinality: &query.CardinalityAgg{
			Field:              "target.id",
			PrecisionThreshold: query.CardinalityPrecision,
		}},
		"unique_disease_count": {Cardinality: &query.CardinalityAgg{
			Field:              "disease.id",
			PrecisionThreshold: query.CardinalityPrecision,
		}},
	}
}

// scoped wraps one facet's data aggregation in its complementary filter.
func scoped(kind domain.FacetKind, all map[domain.FacetKind]query.Expr, data query.Agg) *query.Agg {
	return &query.Agg{
		Filter: query.Bool{Must: complementary(kind, all)},
		Aggs:   map[string]query.Agg{"data": data},
	}
}

// termsUnit covers the facets whose aggregation is a flat terms bucket with
// per-bucket cardinality estimates: target, disease and is-direct.
type termsUnit struct {
	kind   domain.FacetKind
	filter query.Expr
	field  string
}

func (u termsUnit) Kind() domain.FacetKind { return u.kind }

func (u termsUnit) QueryFilter() query.Expr { return u.filter }

func (u termsUnit) Agg(all map[domain.FacetKind]query.Expr) *query.Agg {
	return scoped(u.kind, all, query.Agg{
		Terms: &query.TermsAgg{Field: u.field, Size: 10},
		Aggs:  cardinalityAggs(),
	})
}

// pathwayUnit nests the pathway-type buckets over individual pathways.
type pathwayUnit struct {
	filter query.Expr
}

func (pathwayUnit) Kind() domain.FacetKind { return domain.FacetPathway }

func (u pathwayUnit) QueryFilter() query.Expr { return u.filter }

func (u pathwayUnit) Agg(all map[domain.FacetKind]query.Expr) *query.Agg {
	typeAggs := cardinalityAggs()
	typeAggs["pathway"] = query.Agg{
		Terms: &query.TermsAgg{Field: "private.facets.reactome.pathway_code", Size: 10},
		Aggs:  cardinalityAggs(),
	}
	return scoped(domain.FacetPathway, all, query.Agg{
		Terms: &query.TermsAgg{Field: "private.facets.reactome.pathway_type_code", Size: 20},
		Aggs:  typeAggs,
	})
}

// uniprotUnit resolves keywords to a gene set before filtering; it is the
// one facet whose own filter depends on a collaborator call.
type uniprotUnit struct {
	filter query.Expr
}

func (uniprotUnit) Kind() domain.FacetKind { return domain.FacetUniprotKW }

func (u uniprotUnit) QueryFilter() query.Expr { return u.filter }

func (u uniprotUnit) Agg(all map[domain.FacetKind]query.Expr) *query.Agg {
	return scoped(domain.FacetUniprotKW, all, query.Agg{
		SignificantTerms: &query.TermsAgg{Field: "private.facets.uniprot_keywords", Size: 25},
		Aggs:             cardinalityAggs(),
	})
}

// scoreRangeUnit only contributes a filter; there is no score facet.
type scoreRangeUnit struct {
	filter query.Expr
}

func (scoreRangeUnit) Kind() domain.FacetKind { return domain.FacetScoreRange }

func (u scoreRangeUnit) QueryFilter() query.Expr { return u.filter }

func (scoreRangeUnit) Agg(map[domain.FacetKind]query.Expr) *query.Agg { return nil }

// datasourceUnit filters by datasource and buckets by datatype with a
// per-datatype datasource sub-bucket.
type datasourceUnit struct {
	filter query.Expr
}

func (datasourceUnit) Kind() domain.FacetKind { return domain.FacetDatasource }

func (u datasourceUnit) QueryFilter() query.Expr { return u.filter }

func (u datasourceUnit) Agg(all map[domain.FacetKind]query.Expr) *query.Agg {
	datatypeAggs := cardinalityAggs()
	datatypeAggs["datasources"] = query.Agg{
		Terms: &query.TermsAgg{Field: "private.facets.datasource"},
		Aggs:  cardinalityAggs(),
	}
	return scoped(domain.FacetDatasource, all, query.Agg{
		Terms: &query.TermsAgg{Field: "private.facets.datatype", Size: 10},
		Aggs:  datatypeAggs,
	})
}

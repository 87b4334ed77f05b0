// Package filters builds boolean filter expressions from domain filter
// values. Every function is pure: empty input yields a nil expression,
// which any enclosing conjunction omits.
package filters

import (
	"strings"

	"github.com/bhalbert/rest-api/internal/domain"
	"github.com/bhalbert/rest-api/internal/domain/query"
)

// Operator selects how multiple values of one filter combine.
type Operator string

const (
	// And requires every value to match.
	And Operator = "AND"
	// Or requires any value to match.
	Or Operator = "OR"
	// Not requires no value to match.
	Not Operator = "NOT"
)

// ParseOperator reads an operator token case-insensitively, defaulting to
// Or for unknown or empty input.
func ParseOperator(s string) Operator {
	switch strings.ToUpper(s) {
	case string(And):
		return And
	case string(Not):
		return Not
	default:
		return Or
	}
}

// ResolveNegatable splits plain tokens from `!`-prefixed negated tokens.
// With negation disabled only the plain tokens survive; with negation
// enabled only the stripped negated tokens do. The asymmetry is the
// established contract of callers and is kept deliberately.
func ResolveNegatable(tokens []string, includeNegated bool) []string {
	var out []string
	for _, t := range tokens {
		if negated := strings.HasPrefix(t, "!"); negated == includeNegated {
			out = append(out, strings.TrimPrefix(t, "!"))
		}
	}
	return out
}

// compose combines values over one field. Or collapses to a single terms
// predicate; And and Not wrap one singleton terms predicate per value.
func compose(field string, values []string, op Operator) query.Expr {
	if len(values) == 0 {
		return nil
	}
	if op == Or {
		return query.Terms{Field: field, Values: values}
	}
	singletons := make([]query.Expr, len(values))
	for i, v := range values {
		singletons[i] = query.Terms{Field: field, Values: []string{v}}
	}
	if op == Not {
		return query.Bool{MustNot: singletons}
	}
	return query.Bool{Must: singletons}
}

// Target filters associations by gene id.
func Target(ids []string, op Operator, allowNegation bool) query.Expr {
	return compose("target.id", ResolveNegatable(ids, allowNegation), op)
}

// Disease filters associations by disease id. Direct associations match the
// exact id field; indirect ones match any ancestor on the ontology path.
func Disease(ids []string, op Operator, isDirect, allowNegation bool) query.Expr {
	field := "private.efo_codes"
	if isDirect {
		field = "disease.id"
	}
	return compose(field, ResolveNegatable(ids, allowNegation), op)
}

// ScoreRange filters associations on (min, max] for every scoring dimension
// of the given method. Multiple dimensions are ANDed.
func ScoreRange(method string, dimensions []string, min, max float64) query.Expr {
	if len(dimensions) == 0 {
		dimensions = []string{"overall"}
	}
	ranges := make([]query.Expr, len(dimensions))
	for i, dim := range dimensions {
		lo, hi := min, max
		ranges[i] = query.Range{Field: method + "." + dim, GT: &lo, LTE: &hi}
	}
	if len(ranges) == 1 {
		return ranges[0]
	}
	return query.Bool{Must: ranges}
}

// Pathway filters associations carrying any of the codes at either reactome
// level, leaf pathway or pathway type.
func Pathway(codes []string) query.Expr {
	if len(codes) == 0 {
		return nil
	}
	return query.Bool{Should: []query.Expr{
		query.Terms{Field: "private.facets.reactome.pathway_code", Values: codes},
		query.Terms{Field: "private.facets.reactome.pathway_type_code", Values: codes},
	}}
}

// EvidenceType filters associations by evidence datatype.
func EvidenceType(types []string, op Operator) query.Expr {
	return compose("private.facets.datatype", types, op)
}

// Datasource filters associations by datasource. Datatype tokens in the
// input expand to their member datasources through the registry; the
// expanded set is de-duplicated and combined with op.
func Datasource(tokens []string, op Operator, reg *domain.DataTypeRegistry) query.Expr {
	return compose("private.facets.datasource", reg.ExpandDatasources(tokens), op)
}

// DatasourceEvidence filters evidence records by their source.
func DatasourceEvidence(datasources []string, op Operator) query.Expr {
	return compose("sourceID", datasources, op)
}

// IsDirect filters associations on the direct/rolled-up flag.
func IsDirect(direct bool) query.Expr {
	return query.Term{Field: "is_direct", Value: direct}
}

// EvidenceScoreRange filters evidence records on (min, max] association
// score.
func EvidenceScoreRange(min, max float64) query.Expr {
	lo, hi := min, max
	return query.Range{Field: "scores.association_score", GT: &lo, LTE: &hi}
}

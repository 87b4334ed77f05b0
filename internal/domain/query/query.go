// Package query models the boolean filter and aggregation JSON DSL sent to
// the search backend. Expressions are built once per request and are never
// mutated after construction; a nil Expr is the identity element and is
// omitted by any enclosing Bool.
package query

import (
	"encoding/json"
	"fmt"
)

// Expr is a node of a boolean filter expression. Every implementation
// marshals to the backend's native JSON query DSL.
type Expr interface {
	json.Marshaler
}

// Terms matches documents whose field equals any of the given values.
type Terms struct {
	Field  string
	Values []string
}

// MarshalJSON renders {"terms": {field: [values...]}}.
func (t Terms) MarshalJSON() ([]byte, error) {
	return marshalWrapped("terms", map[string][]string{t.Field: t.Values})
}

// Term matches documents whose field equals a single value.
type Term struct {
	Field string
	Value any
}

// MarshalJSON renders {"term": {field: value}}.
func (t Term) MarshalJSON() ([]byte, error) {
	return marshalWrapped("term", map[string]any{t.Field: t.Value})
}

// Range matches a numeric field in (gt, lte]. Nil bounds are omitted.
type Range struct {
	Field string
	GT    *float64
	LTE   *float64
}

type rangeBounds struct {
	GT  *float64 `json:"gt,omitempty"`
	LTE *float64 `json:"lte,omitempty"`
}

// MarshalJSON renders {"range": {field: {"gt": x, "lte": y}}}.
func (r Range) MarshalJSON() ([]byte, error) {
	return marshalWrapped("range", map[string]rangeBounds{
		r.Field: {GT: r.GT, LTE: r.LTE},
	})
}

// IDs matches documents by their identifiers.
type IDs struct {
	Values []string
}

// MarshalJSON renders {"ids": {"values": [...]}}.
func (i IDs) MarshalJSON() ([]byte, error) {
	return marshalWrapped("ids", map[string][]string{"values": i.Values})
}

// MatchAll matches every document.
type MatchAll struct{}

// MarshalJSON renders {"match_all": {}}.
func (MatchAll) MarshalJSON() ([]byte, error) {
	return []byte(`{"match_all":{}}`), nil
}

// MatchPhrasePrefix is a free-text phrase-prefix query over one field.
type MatchPhrasePrefix struct {
	Field string
	Query string
}

// MarshalJSON renders {"match_phrase_prefix": {field: {"query": q}}}.
func (m MatchPhrasePrefix) MarshalJSON() ([]byte, error) {
	return marshalWrapped("match_phrase_prefix", map[string]map[string]string{
		m.Field: {"query": m.Query},
	})
}

// Bool combines sub-expressions with must (AND), should (OR) and
// must_not (NOT) semantics. Nil members and empty groups are omitted.
type Bool struct {
	Must    []Expr
	Should  []Expr
	MustNot []Expr
}

type boolBody struct {
	Must    []Expr `json:"must,omitempty"`
	Should  []Expr `json:"should,omitempty"`
	MustNot []Expr `json:"must_not,omitempty"`
}

// MarshalJSON renders {"bool": {"must": [...], "should": [...], "must_not": [...]}}.
func (b Bool) MarshalJSON() ([]byte, error) {
	body := boolBody{
		Must:    compact(b.Must),
		Should:  compact(b.Should),
		MustNot: compact(b.MustNot),
	}
	return marshalWrapped("bool", body)
}

// And conjoins the non-nil expressions. Returns nil when none remain and
// the single expression unchanged when only one remains.
func And(exprs ...Expr) Expr {
	kept := compact(exprs)
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	default:
		return Bool{Must: kept}
	}
}

func compact(exprs []Expr) []Expr {
	var kept []Expr
	for _, e := range exprs {
		if e != nil {
			kept = append(kept, e)
		}
	}
	return kept
}

func marshalWrapped(key string, body any) ([]byte, error) {
	inner, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal %s body: %w", key, err)
	}
	return []byte(`{"` + key + `":` + string(inner) + `}`), nil
}

// Sort is one sort clause of a search request.
type Sort struct {
	Field     string
	Ascending bool
}

// MarshalJSON renders {field: {"order": "asc"|"desc"}}.
func (s Sort) MarshalJSON() ([]byte, error) {
	order := "desc"
	if s.Ascending {
		order = "asc"
	}
	return marshalWrapped(s.Field, map[string]string{"order": order})
}

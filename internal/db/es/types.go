package es

import (
	"encoding/json"

	"github.com/bhalbert/rest-api/internal/domain/query"
)

// Request is the body of one search call. Zero-valued members are omitted
// from the wire form; Size is a pointer so an explicit zero (count-only
// requests) survives marshaling.
type Request struct {
	Query      query.Expr           `json:"query,omitempty"`
	PostFilter query.Expr           `json:"post_filter,omitempty"`
	Aggs       map[string]query.Agg `json:"aggs,omitempty"`
	Size       *int                 `json:"size,omitempty"`
	From       int                  `json:"from,omitempty"`
	Sort       []query.Sort         `json:"sort,omitempty"`
	Source     any                  `json:"_source,omitempty"`
}

// Hit is one matched document.
type Hit struct {
	ID     string          `json:"_id"`
	Score  float64         `json:"_score"`
	Source json.RawMessage `json:"_source"`
}

// Hits is the matched-document section of a response.
type Hits struct {
	Total int64 `json:"total"`
	Hits  []Hit `json:"hits"`
}

// Response is the parsed body of one search call. Aggregation payloads stay
// raw; each caller knows the shape of the aggregations it asked for.
type Response struct {
	Took         int64                      `json:"took"`
	TimedOut     bool                       `json:"timed_out"`
	Hits         Hits                       `json:"hits"`
	Aggregations map[string]json.RawMessage `json:"aggregations,omitempty"`
}

// Size returns a Request size pointer for inline literals.
func Size(n int) *int { return &n }

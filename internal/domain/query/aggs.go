package query

// Agg is one node of a bucketed aggregation request. Exactly one of the
// bucket/metric members is normally set; Filter scopes the sub-aggregations
// and Aggs nests them.
type Agg struct {
	Filter           Expr            `json:"filter,omitempty"`
	Terms            *TermsAgg       `json:"terms,omitempty"`
	SignificantTerms *TermsAgg       `json:"significant_terms,omitempty"`
	Cardinality      *CardinalityAgg `json:"cardinality,omitempty"`
	Aggs             map[string]Agg  `json:"aggs,omitempty"`
}

// TermsAgg buckets documents by the distinct values of a field.
type TermsAgg struct {
	Field string `json:"field"`
	Size  int    `json:"size,omitempty"`
}

// CardinalityAgg estimates the distinct-value count of a field.
type CardinalityAgg struct {
	Field              string `json:"field"`
	PrecisionThreshold int    `json:"precision_threshold,omitempty"`
}

// CardinalityPrecision is the approximation threshold used by every
// per-bucket distinct-target / distinct-disease estimate.
const CardinalityPrecision = 1000

package association

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bhalbert/rest-api/internal/db/es"
	"github.com/bhalbert/rest-api/internal/domain/query"
)

// Stats summarizes the released data: totals and per-datatype breakdowns
// over both the evidence and the association index.
type Stats struct {
	Evidence     StatsSection `json:"evidence"`
	Associations StatsSection `json:"associations"`
}

// StatsSection is one index's rollup.
type StatsSection struct {
	Total     int64                    `json:"total"`
	Datatypes map[string]DatatypeStats `json:"datatypes"`
}

// DatatypeStats is one datatype's count with its datasource split.
type DatatypeStats struct {
	Total       int64            `json:"total"`
	Datasources map[string]int64 `json:"datasources"`
}

// StatsIndexes names the two indexes Stats reads.
type StatsIndexes struct {
	Association string
	Evidence    string
}

// Stats counts evidence and associations per datatype and datasource.
func (s *Service) Stats(ctx context.Context, idx StatsIndexes) (*Stats, error) {
	evidence, err := s.countByDatatype(ctx, idx.Evidence, "type", "sourceID")
	if err != nil {
		return nil, fmt.Errorf("evidence stats: %w", err)
	}
	associations, err := s.countByDatatype(ctx, idx.Association,
		"private.facets.datatype", "private.facets.datasource")
	if err != nil {
		return nil, fmt.Errorf("association stats: %w", err)
	}
	return &Stats{Evidence: *evidence, Associations: *associations}, nil
}

func (s *Service) countByDatatype(ctx context.Context, index, datatypeField, datasourceField string) (*StatsSection, error) {
	resp, err := s.search.Search(ctx, index, es.Request{
		Query: query.MatchAll{},
		Aggs: map[string]query.Agg{
			"data": {
				Terms: &query.TermsAgg{Field: datatypeField, Size: 10},
				Aggs: map[string]query.Agg{
					"datasources": {Terms: &query.TermsAgg{Field: datasourceField}},
				},
			},
		},
		Size:   es.Size(0),
		Source: false,
	})
	if err != nil {
		return nil, err
	}

	section := &StatsSection{
		Total:     resp.Hits.Total,
		Datatypes: map[string]DatatypeStats{},
	}
	var data rawBucketList
	if raw, ok := resp.Aggregations["data"]; ok {
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("parse %s buckets: %w", index, err)
		}
	}
	for _, b := range data.Buckets {
		entry := DatatypeStats{Total: b.DocCount, Datasources: map[string]int64{}}
		if b.Datasources != nil {
			for _, sub := range b.Datasources.Buckets {
				entry.Datasources[bucketKey(sub)] = sub.DocCount
			}
		}
		section.Datatypes[bucketKey(b)] = entry
	}
	return section, nil
}

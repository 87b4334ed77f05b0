package association

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Facet is one post-processed facet of a response.
type Facet struct {
	Total   int64         `json:"total"`
	Buckets []FacetBucket `json:"buckets"`
}

// FacetBucket is one value bucket with its distinct-entity estimates.
type FacetBucket struct {
	Key            string        `json:"key"`
	Label          string        `json:"label,omitempty"`
	Count          int64         `json:"doc_count"`
	UniqueTargets  int64         `json:"unique_target_count"`
	UniqueDiseases int64         `json:"unique_disease_count"`
	Buckets        []FacetBucket `json:"buckets,omitempty"`
}

// Wire shapes of the backend's aggregation section.
type rawCardinality struct {
	Value int64 `json:"value"`
}

type rawBucketList struct {
	Buckets []rawBucket `json:"buckets"`
}

type rawBucket struct {
	Key            any            `json:"key"`
	KeyAsString    string         `json:"key_as_string"`
	DocCount       int64          `json:"doc_count"`
	UniqueTargets  rawCardinality `json:"unique_target_count"`
	UniqueDiseases rawCardinality `json:"unique_disease_count"`
	Pathway        *rawBucketList `json:"pathway"`
	Datasources    *rawBucketList `json:"datasources"`
}

type rawFacet struct {
	DocCount int64         `json:"doc_count"`
	Data     rawBucketList `json:"data"`
}

// parseFacets unwraps the complementary-filter envelope of every facet,
// decorates pathway buckets with labels and drops datasource sub-buckets
// that do not belong to their datatype.
func (s *Service) parseFacets(ctx context.Context, raw map[string]json.RawMessage) map[string]Facet {
	parsed := make(map[string]rawFacet, len(raw))
	for kind, payload := range raw {
		var f rawFacet
		if err := json.Unmarshal(payload, &f); err != nil {
			s.log.Warn("skipping malformed facet", zap.String("facet", kind), zap.Error(err))
			continue
		}
		parsed[kind] = f
	}

	labels := s.pathwayLabels(ctx, parsed)

	out := make(map[string]Facet, len(parsed))
	for kind, f := range parsed {
		facet := Facet{Total: f.DocCount}
		for _, b := range f.Data.Buckets {
			facet.Buckets = append(facet.Buckets, s.shapeBucket(kind, b, labels))
		}
		out[kind] = facet
	}
	return out
}

// pathwayLabels resolves every pathway code seen at either bucket level.
func (s *Service) pathwayLabels(ctx context.Context, parsed map[string]rawFacet) map[string]string {
	f, ok := parsed["pathway"]
	if !ok {
		return nil
	}
	var codes []string
	for _, b := range f.Data.Buckets {
		codes = append(codes, bucketKey(b))
		if b.Pathway != nil {
			for _, sub := range b.Pathway.Buckets {
				codes = append(codes, bucketKey(sub))
			}
		}
	}
	if len(codes) == 0 {
		return nil
	}
	return s.labels.Labels(ctx, codes)
}

func (s *Service) shapeBucket(kind string, b rawBucket, labels map[string]string) FacetBucket {
	out := FacetBucket{
		Key:            bucketKey(b),
		Count:          b.DocCount,
		UniqueTargets:  b.UniqueTargets.Value,
		UniqueDiseases: b.UniqueDiseases.Value,
	}

	switch kind {
	case "pathway":
		out.Label = labels[strings.ToUpper(out.Key)]
		if b.Pathway != nil {
			for _, sub := range b.Pathway.Buckets {
				shaped := s.shapeBucket(kind, sub, labels)
				out.Buckets = append(out.Buckets, shaped)
			}
		}
	case "datasource":
		// Datasource and datatype fields are flat on the documents, so a
		// datatype bucket picks up datasources of other datatypes; keep
		// only its own members.
		if b.Datasources != nil {
			for _, sub := range b.Datasources.Buckets {
				if !s.reg.InDatatype(bucketKey(sub), out.Key) {
					continue
				}
				out.Buckets = append(out.Buckets, s.shapeBucket("", sub, labels))
			}
		}
	}
	return out
}

// bucketKey normalizes the bucket key: boolean and numeric keys surface
// through key_as_string.
func bucketKey(b rawBucket) string {
	if b.KeyAsString != "" {
		return b.KeyAsString
	}
	switch k := b.Key.(type) {
	case string:
		return k
	default:
		return fmt.Sprintf("%v", k)
	}
}

// Package assoc parses raw association hits from the search backend into
// typed, read-only association records.
package assoc

import (
	"encoding/json"
	"fmt"

	"github.com/bhalbert/rest-api/internal/domain"
)

// Target is the gene side of an association.
type Target struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// Disease is the ontology side of an association. Path holds every root-less
// ancestor chain ending at this disease; the first element of each chain is
// the therapeutic area.
type Disease struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	TherapeuticArea []string   `json:"therapeutic_area,omitempty"`
	Path            [][]string `json:"path,omitempty"`
}

// DatasourceScore is the per-datasource slice of the score breakdown.
type DatasourceScore struct {
	Datasource       string  `json:"datasource"`
	AssociationScore float64 `json:"association_score"`
	EvidenceCount    int64   `json:"evidence_count"`
}

// DatatypeScore groups the datasource scores of one datatype.
type DatatypeScore struct {
	Datatype         string            `json:"datatype"`
	AssociationScore float64           `json:"association_score"`
	EvidenceCount    int64             `json:"evidence_count"`
	Datasources      []DatasourceScore `json:"datasources"`
}

// Association is one shaped target-disease record. Constructed once from a
// raw hit and read-only afterwards; every score is capped to 1.0.
type Association struct {
	ID               string          `json:"id"`
	IsDirect         bool            `json:"is_direct"`
	Target           Target          `json:"target"`
	Disease          Disease         `json:"disease"`
	AssociationScore float64         `json:"association_score"`
	EvidenceCount    int64           `json:"evidence_count"`
	Datatypes        []DatatypeScore `json:"datatypes"`
}

// hitDocument mirrors the backend's association document layout.
type hitDocument struct {
	ID     string `json:"id"`
	Direct bool   `json:"is_direct"`
	Target struct {
		ID       string `json:"id"`
		GeneInfo struct {
			Name   string `json:"name"`
			Symbol string `json:"symbol"`
		} `json:"gene_info"`
	} `json:"target"`
	Disease struct {
		ID      string `json:"id"`
		EfoInfo struct {
			Label           string     `json:"label"`
			TherapeuticArea []string   `json:"therapeutic_area"`
			Path            [][]string `json:"path"`
		} `json:"efo_info"`
	} `json:"disease"`
	EvidenceCount struct {
		Total      int64            `json:"total"`
		Datatype   map[string]int64 `json:"datatype"`
		Datasource map[string]int64 `json:"datasource"`
	} `json:"evidence_count"`
}

// scoreBlock is the pre-scored section stored per scoring method.
type scoreBlock struct {
	Overall     float64            `json:"overall"`
	Datatypes   map[string]float64 `json:"datatypes"`
	Datasources map[string]float64 `json:"datasources"`
}

// ParseHit shapes one raw hit into an Association, reading the score block
// named by method and breaking it down per datatype and datasource through
// the registry. Aggregation drift above 1.0 is capped.
func ParseHit(raw json.RawMessage, method string, reg *domain.DataTypeRegistry) (*Association, error) {
	var doc hitDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse association hit: %w", err)
	}

	var blocks map[string]json.RawMessage
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return nil, fmt.Errorf("parse association hit: %w", err)
	}
	var score scoreBlock
	if rawBlock, ok := blocks[method]; ok {
		if err := json.Unmarshal(rawBlock, &score); err != nil {
			return nil, fmt.Errorf("parse %s score block: %w", method, err)
		}
	}

	a := &Association{
		ID:       doc.ID,
		IsDirect: doc.Direct,
		Target: Target{
			ID:     doc.Target.ID,
			Name:   doc.Target.GeneInfo.Name,
			Symbol: doc.Target.GeneInfo.Symbol,
		},
		Disease: Disease{
			ID:              doc.Disease.ID,
			Name:            doc.Disease.EfoInfo.Label,
			TherapeuticArea: doc.Disease.EfoInfo.TherapeuticArea,
			Path:            doc.Disease.EfoInfo.Path,
		},
		AssociationScore: CapScore(score.Overall),
		EvidenceCount:    doc.EvidenceCount.Total,
	}

	for _, dt := range reg.AvailableDatatypes() {
		dtScore, ok := score.Datatypes[dt]
		if !ok || dtScore == 0 {
			continue
		}
		entry := DatatypeScore{
			Datatype:         dt,
			AssociationScore: CapScore(dtScore),
			EvidenceCount:    doc.EvidenceCount.Datatype[dt],
		}
		for _, ds := range reg.Datasources(dt) {
			dsScore, ok := score.Datasources[ds]
			if !ok || dsScore == 0 {
				continue
			}
			entry.Datasources = append(entry.Datasources, DatasourceScore{
				Datasource:       ds,
				AssociationScore: CapScore(dsScore),
				EvidenceCount:    doc.EvidenceCount.Datasource[ds],
			})
		}
		a.Datatypes = append(a.Datatypes, entry)
	}

	return a, nil
}

// CapScore clamps aggregation drift: scores above 1.0 become exactly 1.0,
// everything else passes through unchanged.
func CapScore(score float64) float64 {
	if score > 1 {
		return 1
	}
	return score
}

// TherapeuticAreas returns the distinct therapeutic-area codes touched by
// the associations, taken from the first element of every ontology path.
func TherapeuticAreas(list []*Association) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, a := range list {
		for _, path := range a.Disease.Path {
			if len(path) == 0 {
				continue
			}
			if _, ok := seen[path[0]]; ok {
				continue
			}
			seen[path[0]] = struct{}{}
			out = append(out, path[0])
		}
	}
	return out
}

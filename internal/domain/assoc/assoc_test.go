package assoc

import (
	"encoding/json"
	"testing"

	"github.com/bhalbert/rest-api/internal/domain"
)

var testRegistry = domain.NewDataTypeRegistry(map[string][]string{
	"genetic_association": {"gwas_catalog", "eva"},
	"known_drug":          {"chembl"},
})

const rawHit = `{
	"id": "ENSG1-EFO_0000270",
	"is_direct": true,
	"target": {"id": "ENSG1", "gene_info": {"name": "gene one", "symbol": "G1"}},
	"disease": {"id": "EFO_0000270", "efo_info": {
		"label": "asthma",
		"therapeutic_area": ["respiratory"],
		"path": [["EFO_0000684", "EFO_0000270"]]
	}},
	"evidence_count": {
		"total": 12,
		"datatype": {"genetic_association": 10, "known_drug": 2},
		"datasource": {"gwas_catalog": 7, "eva": 3, "chembl": 2}
	},
	"harmonic-sum": {
		"overall": 1.37,
		"datatypes": {"genetic_association": 0.8, "known_drug": 0},
		"datasources": {"gwas_catalog": 0.7, "eva": 0.3, "chembl": 0}
	}
}`

func TestParseHit(t *testing.T) {
	a, err := ParseHit(json.RawMessage(rawHit), "harmonic-sum", testRegistry)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a.ID != "ENSG1-EFO_0000270" || !a.IsDirect {
		t.Errorf("header = %+v", a)
	}
	if a.Target.Symbol != "G1" || a.Disease.Name != "asthma" {
		t.Errorf("target/disease = %+v / %+v", a.Target, a.Disease)
	}
	if a.AssociationScore != 1.0 {
		t.Errorf("overall score = %v, want drift capped to 1.0", a.AssociationScore)
	}
	if a.EvidenceCount != 12 {
		t.Errorf("evidence count = %d", a.EvidenceCount)
	}

	if len(a.Datatypes) != 1 {
		t.Fatalf("datatypes = %+v, want only the non-zero one", a.Datatypes)
	}
	dt := a.Datatypes[0]
	if dt.Datatype != "genetic_association" || dt.AssociationScore != 0.8 || dt.EvidenceCount != 10 {
		t.Errorf("datatype entry = %+v", dt)
	}
	if len(dt.Datasources) != 2 {
		t.Fatalf("datasources = %+v, want the two non-zero ones", dt.Datasources)
	}
	if dt.Datasources[0].Datasource != "gwas_catalog" || dt.Datasources[0].EvidenceCount != 7 {
		t.Errorf("first datasource = %+v", dt.Datasources[0])
	}
	if dt.Datasources[1].Datasource != "eva" || dt.Datasources[1].AssociationScore != 0.3 {
		t.Errorf("second datasource = %+v", dt.Datasources[1])
	}
}

func TestParseHit_MissingScoreBlock(t *testing.T) {
	a, err := ParseHit(json.RawMessage(rawHit), "sum", testRegistry)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.AssociationScore != 0 || len(a.Datatypes) != 0 {
		t.Errorf("unknown method must yield zero scores, got %+v", a)
	}
}

func TestParseHit_Malformed(t *testing.T) {
	if _, err := ParseHit(json.RawMessage(`{`), "harmonic-sum", testRegistry); err == nil {
		t.Fatal("expected error")
	}
}

func TestCapScore(t *testing.T) {
	if got := CapScore(1.37); got != 1.0 {
		t.Errorf("CapScore(1.37) = %v, want 1.0", got)
	}
	if got := CapScore(0.42); got != 0.42 {
		t.Errorf("CapScore(0.42) = %v, want 0.42", got)
	}
	if got := CapScore(1.0); got != 1.0 {
		t.Errorf("CapScore(1.0) = %v", got)
	}
}

func TestTherapeuticAreas(t *testing.T) {
	list := []*Association{
		{Disease: Disease{ID: "D1", Path: [][]string{{"TA1", "D1"}, {"TA2", "X", "D1"}}}},
		{Disease: Disease{ID: "D2", Path: [][]string{{"TA1", "D2"}}}},
	}
	got := TherapeuticAreas(list)
	if len(got) != 2 || got[0] != "TA1" || got[1] != "TA2" {
		t.Errorf("got %v, want [TA1 TA2]", got)
	}
}

package filters

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/bhalbert/rest-api/internal/domain"
	"github.com/bhalbert/rest-api/internal/domain/query"
)

func marshal(t *testing.T, e query.Expr) string {
	t.Helper()
	if e == nil {
		t.Fatal("expression is nil")
	}
	raw, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(raw)
}

func TestResolveNegatable(t *testing.T) {
	in := []string{"BRCA1", "!TP53"}

	if got := ResolveNegatable(in, false); !reflect.DeepEqual(got, []string{"BRCA1"}) {
		t.Errorf("negation disabled: got %v, want [BRCA1]", got)
	}
	if got := ResolveNegatable(in, true); !reflect.DeepEqual(got, []string{"TP53"}) {
		t.Errorf("negation enabled: got %v, want [TP53]", got)
	}
	if got := ResolveNegatable(nil, true); got != nil {
		t.Errorf("empty input: got %v", got)
	}
}

func TestTarget_OrCollapsesToTerms(t *testing.T) {
	got := marshal(t, Target([]string{"ENSG1", "ENSG2"}, Or, false))
	want := `{"terms":{"target.id":["ENSG1","ENSG2"]}}`
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestTarget_AndUsesSingletonConjunction(t *testing.T) {
	got := marshal(t, Target([]string{"ENSG1", "ENSG2"}, And, false))
	want := `{"bool":{"must":[{"terms":{"target.id":["ENSG1"]}},{"terms":{"target.id":["ENSG2"]}}]}}`
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestTarget_NotUsesMustNot(t *testing.T) {
	got := marshal(t, Target([]string{"ENSG1"}, Not, false))
	want := `{"bool":{"must_not":[{"terms":{"target.id":["ENSG1"]}}]}}`
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestTarget_EmptyYieldsNil(t *testing.T) {
	if e := Target(nil, Or, false); e != nil {
		t.Errorf("got %v, want nil", e)
	}
	// All-negated input with negation disabled resolves to nothing.
	if e := Target([]string{"!TP53"}, Or, false); e != nil {
		t.Errorf("got %v, want nil", e)
	}
}

func TestDisease_FieldFollowsDirectness(t *testing.T) {
	direct := marshal(t, Disease([]string{"EFO_1"}, Or, true, false))
	if direct != `{"terms":{"disease.id":["EFO_1"]}}` {
		t.Errorf("direct: got %s", direct)
	}
	indirect := marshal(t, Disease([]string{"EFO_1"}, Or, false, false))
	if indirect != `{"terms":{"private.efo_codes":["EFO_1"]}}` {
		t.Errorf("indirect: got %s", indirect)
	}
}

func TestScoreRange_SingleDimension(t *testing.T) {
	got := marshal(t, ScoreRange("harmonic-sum", []string{"overall"}, 0.2, 0.9))
	want := `{"range":{"harmonic-sum.overall":{"gt":0.2,"lte":0.9}}}`
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestScoreRange_MultipleDimensionsAnded(t *testing.T) {
	got := marshal(t, ScoreRange("harmonic-sum", []string{"overall", "datatypes.literature"}, 0, 1))
	want := `{"bool":{"must":[` +
		`{"range":{"harmonic-sum.overall":{"gt":0,"lte":1}}},` +
		`{"range":{"harmonic-sum.datatypes.literature":{"gt":0,"lte":1}}}]}}`
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestPathway_MatchesBothLevels(t *testing.T) {
	got := marshal(t, Pathway([]string{"R-HSA-1"}))
	want := `{"bool":{"should":[` +
		`{"terms":{"private.facets.reactome.pathway_code":["R-HSA-1"]}},` +
		`{"terms":{"private.facets.reactome.pathway_type_code":["R-HSA-1"]}}]}}`
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
	if e := Pathway(nil); e != nil {
		t.Errorf("empty input: got %v", e)
	}
}

func TestDatasource_ExpandsDatatypeTokens(t *testing.T) {
	reg := domain.NewDataTypeRegistry(map[string][]string{
		"genetic_association": {"gwas_catalog", "eva"},
		"known_drug":          {"chembl"},
	})

	got := marshal(t, Datasource([]string{"genetic_association", "chembl"}, Or, reg))
	want := `{"terms":{"private.facets.datasource":["chembl","eva","gwas_catalog"]}}`
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}

	if e := Datasource([]string{"unknown_token"}, Or, reg); e != nil {
		t.Errorf("unknown tokens: got %v, want nil", e)
	}
}

func TestIsDirect(t *testing.T) {
	got := marshal(t, IsDirect(true))
	if got != `{"term":{"is_direct":true}}` {
		t.Errorf("got %s", got)
	}
}

func TestEvidenceFilters(t *testing.T) {
	got := marshal(t, DatasourceEvidence([]string{"chembl"}, Or))
	if got != `{"terms":{"sourceID":["chembl"]}}` {
		t.Errorf("datasource: got %s", got)
	}
	got = marshal(t, EvidenceScoreRange(0, 1))
	if got != `{"range":{"scores.association_score":{"gt":0,"lte":1}}}` {
		t.Errorf("score range: got %s", got)
	}
}

func TestParseOperator(t *testing.T) {
	tests := []struct {
		in   string
		want Operator
	}{
		{"and", And},
		{"AND", And},
		{"not", Not},
		{"or", Or},
		{"", Or},
		{"bogus", Or},
	}
	for _, tc := range tests {
		if got := ParseOperator(tc.in); got != tc.want {
			t.Errorf("ParseOperator(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

package lookup

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"github.com/bhalbert/rest-api/internal/db/es"
)

type fakeSearcher struct {
	gotIndex string
	gotReq   es.Request
	resp     *es.Response
	err      error
}

func (f *fakeSearcher) Search(_ context.Context, index string, req es.Request) (*es.Response, error) {
	f.gotIndex = index
	f.gotReq = req
	return f.resp, f.err
}

var testIndexes = Indexes{Gene: "genes", Efo: "efo", Reactome: "reactome"}

func newRepo(s Searcher) *Repository {
	return New(s, testIndexes, zap.NewNop())
}

func TestLabels_ResolvesAndFallsBack(t *testing.T) {
	s := &fakeSearcher{resp: &es.Response{Hits: es.Hits{Total: 1, Hits: []es.Hit{
		{ID: "R-HSA-109582", Source: []byte(`{"label":"Hemostasis"}`)},
	}}}}
	r := newRepo(s)

	labels := r.Labels(context.Background(), []string{"r-hsa-109582", "r-hsa-999999"})

	if s.gotIndex != "reactome" {
		t.Errorf("index = %q", s.gotIndex)
	}
	if labels["R-HSA-109582"] != "Hemostasis" {
		t.Errorf("resolved label = %q", labels["R-HSA-109582"])
	}
	if labels["R-HSA-999999"] != "r-hsa-999999" {
		t.Errorf("unknown code must fall back to raw code, got %q", labels["R-HSA-999999"])
	}
}

func TestLabels_BackendFailureDegradesToRawCodes(t *testing.T) {
	r := newRepo(&fakeSearcher{err: errors.New("down")})

	labels := r.Labels(context.Background(), []string{"r-hsa-109582"})
	if labels["R-HSA-109582"] != "r-hsa-109582" {
		t.Errorf("got %q", labels["R-HSA-109582"])
	}
}

func TestGenesForKeywords(t *testing.T) {
	s := &fakeSearcher{resp: &es.Response{Hits: es.Hits{Total: 2, Hits: []es.Hit{
		{ID: "ENSG1"}, {ID: "ENSG2"},
	}}}}
	r := newRepo(s)

	ids := r.GenesForKeywords(context.Background(), []string{"Kinase"})

	if s.gotIndex != "genes" {
		t.Errorf("index = %q", s.gotIndex)
	}
	if !reflect.DeepEqual(ids, []string{"ENSG1", "ENSG2"}) {
		t.Errorf("ids = %v", ids)
	}
}

func TestGenesForKeywords_FailureYieldsEmptySet(t *testing.T) {
	r := newRepo(&fakeSearcher{err: errors.New("down")})
	if ids := r.GenesForKeywords(context.Background(), []string{"Kinase"}); len(ids) != 0 {
		t.Errorf("ids = %v, want empty set", ids)
	}
}

func TestGenesForKeywords_EmptyInputSkipsBackend(t *testing.T) {
	s := &fakeSearcher{}
	r := newRepo(s)
	if ids := r.GenesForKeywords(context.Background(), nil); ids != nil {
		t.Errorf("ids = %v", ids)
	}
	if s.gotIndex != "" {
		t.Error("empty input must not reach the backend")
	}
}

func TestOntologyPaths(t *testing.T) {
	s := &fakeSearcher{resp: &es.Response{Hits: es.Hits{Total: 1, Hits: []es.Hit{
		{ID: "EFO_0000270", Source: []byte(`{
			"code": "http://www.ebi.ac.uk/efo/EFO_0000270",
			"label": "asthma",
			"path_codes": [["cttv_root", "EFO_0000684", "EFO_0000270"]],
			"path_labels": [["root", "respiratory system disease", "asthma"]]
		}`)},
	}}}}
	r := newRepo(s)

	out, err := r.OntologyPaths(context.Background(), []string{"EFO_0000270"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entry, ok := out["EFO_0000270"]
	if !ok {
		t.Fatalf("entries = %v", out)
	}
	if entry.Label != "asthma" {
		t.Errorf("label = %q", entry.Label)
	}
	want := [][]string{{"EFO_0000684"}}
	if !reflect.DeepEqual(entry.ParentPaths, want) {
		t.Errorf("parent paths = %v, want root-less %v", entry.ParentPaths, want)
	}
	if !reflect.DeepEqual(entry.TherapeuticAreas, []string{"EFO_0000684"}) {
		t.Errorf("therapeutic areas = %v", entry.TherapeuticAreas)
	}
	if entry.Labels["EFO_0000684"] != "respiratory system disease" {
		t.Errorf("ancestor label = %q", entry.Labels["EFO_0000684"])
	}
}

func TestOntologyPaths_BackendFailurePropagates(t *testing.T) {
	r := newRepo(&fakeSearcher{err: errors.New("down")})
	if _, err := r.OntologyPaths(context.Background(), []string{"EFO_0000270"}); err == nil {
		t.Fatal("expected error")
	}
}

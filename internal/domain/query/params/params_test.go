package params

import (
	"errors"
	"reflect"
	"testing"

	"github.com/bhalbert/rest-api/internal/domain"
)

func intp(v int) *int { return &v }

func TestNew_Defaults(t *testing.T) {
	p, err := New(Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Size() != DefaultSize {
		t.Errorf("size = %d", p.Size())
	}
	if p.Output() != OutputFull {
		t.Errorf("output = %v", p.Output())
	}
	if p.ScoringMethod() != DefaultScoringMethod {
		t.Errorf("scoring method = %q", p.ScoringMethod())
	}
	if f := p.Filters(); f.ScoreMin != 0 || f.ScoreMax != 1 {
		t.Errorf("score range = [%v, %v], want [0, 1]", f.ScoreMin, f.ScoreMax)
	}
	if len(p.Sort()) != 1 || p.Sort()[0].Name != OverallDimension || p.Sort()[0].Ascending {
		t.Errorf("sort = %+v", p.Sort())
	}
}

func TestNew_SizeOverCap(t *testing.T) {
	_, err := New(Config{Size: intp(1001)})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestNew_SizeAtCap(t *testing.T) {
	p, err := New(Config{Size: intp(1000)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Size() != 1000 {
		t.Errorf("size = %d", p.Size())
	}
}

func TestNew_NegativeInputs(t *testing.T) {
	if _, err := New(Config{Size: intp(-1)}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("negative size: got %v", err)
	}
	if _, err := New(Config{From: -1}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("negative from: got %v", err)
	}
}

func TestNew_InvertedScoreRange(t *testing.T) {
	_, err := New(Config{Filters: Filters{ScoreMin: 0.9, ScoreMax: 0.1}})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestNew_SortDigestion(t *testing.T) {
	p := MustNew(Config{Sort: []string{"~association_score", "evidence_count"}})
	want := []SortField{
		{Name: "association_score", Ascending: true},
		{Name: "evidence_count", Ascending: false},
	}
	if !reflect.DeepEqual(p.Sort(), want) {
		t.Errorf("sort = %+v, want %+v", p.Sort(), want)
	}
}

func TestNew_FieldsForceCustomOutput(t *testing.T) {
	p := MustNew(Config{Output: OutputFull, Fields: []string{"target.id"}})
	if p.Output() != OutputCustom {
		t.Errorf("output = %v", p.Output())
	}
	got := p.SourceFields()
	if !reflect.DeepEqual(got, []string{"target.id"}) {
		t.Errorf("source fields = %v", got)
	}
}

func TestSourceFields(t *testing.T) {
	if got := MustNew(Config{}).SourceFields(); got != nil {
		t.Errorf("full output: %v, want nil", got)
	}
	if got := MustNew(Config{Output: OutputIDs}).SourceFields(); !reflect.DeepEqual(got, []string{"id"}) {
		t.Errorf("ids output: %v", got)
	}
	if got := MustNew(Config{Output: OutputCount}).SourceFields(); got != false {
		t.Errorf("count output: %v, want false", got)
	}
	simple, ok := MustNew(Config{Output: OutputSimple}).SourceFields().([]string)
	if !ok || len(simple) == 0 {
		t.Errorf("simple output: %v", simple)
	}
}

func TestActiveFilterKinds(t *testing.T) {
	direct := true
	p := MustNew(Config{Filters: Filters{
		Targets:  []string{"ENSG1"},
		IsDirect: &direct,
	}})

	active := p.ActiveFilterKinds()
	want := map[domain.FacetKind]bool{
		domain.FacetTarget:     true,
		domain.FacetIsDirect:   true,
		domain.FacetScoreRange: true, // always present via the [0, 1] default
	}
	if len(active) != len(want) {
		t.Fatalf("active = %v", active)
	}
	for _, k := range active {
		if !want[k] {
			t.Errorf("unexpected active kind %v", k)
		}
	}

	if p.Active(domain.FacetDisease) {
		t.Error("disease must be inactive")
	}
}

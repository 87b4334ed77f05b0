// Package params holds the validated, immutable per-request search
// configuration shared by the filter and aggregation builders.
package params

import (
	"fmt"
	"strings"

	"github.com/bhalbert/rest-api/internal/domain"
)

const (
	// MaxSize is the hard cap on a single result page.
	MaxSize = 1000
	// DefaultSize is the page size used when none is requested.
	DefaultSize = 10

	// DefaultScoringMethod selects the pre-scored block read from each hit.
	DefaultScoringMethod = "harmonic-sum"
	// OverallDimension is the default scoring dimension.
	OverallDimension = "overall"
)

// Output selects the shape of returned documents.
type Output string

const (
	OutputFull   Output = "full"
	OutputSimple Output = "simple"
	OutputIDs    Output = "ids"
	OutputCount  Output = "count"
	OutputCustom Output = "custom"
)

// Filters is the per-kind filter value set of one request. Slice values are
// inactive when empty; IsDirect is inactive when nil; the score range is
// always present and defaults to [0, 1].
type Filters struct {
	Targets         []string
	Diseases        []string
	Pathways        []string
	UniprotKeywords []string
	Datasources     []string // datasource and datatype tokens, mixed
	ECO             []string
	IsDirect        *bool
	ScoreMin        float64
	ScoreMax        float64
}

// SortField is one digested sort clause; a leading "~" on the input string
// means ascending.
type SortField struct {
	Name      string
	Ascending bool
}

// SearchParams is the immutable per-request configuration.
type SearchParams struct {
	size            int
	from            int
	sort            []SortField
	search          string
	output          Output
	fields          []string
	facets          bool
	scoringMethod   string
	scoreDimensions []string
	filters         Filters
}

// Config carries the raw values validated by New. A nil Size means "use the
// default"; a zero ScoreMax means "use 1.0" only when ScoreMin is also zero
// and no explicit range was set, so callers should always populate both.
type Config struct {
	Size            *int
	From            int
	Sort            []string
	Search          string
	Output          Output
	Fields          []string
	Facets          bool
	ScoringMethod   string
	ScoreDimensions []string
	Filters         Filters
}

// New validates and freezes a SearchParams.
func New(c Config) (*SearchParams, error) {
	size := DefaultSize
	if c.Size != nil {
		size = *c.Size
	}
	if size > MaxSize {
		return nil, fmt.Errorf("%w: size cannot be bigger than %d", domain.ErrValidation, MaxSize)
	}
	if size < 0 {
		return nil, fmt.Errorf("%w: size cannot be negative", domain.ErrValidation)
	}
	if c.From < 0 {
		return nil, fmt.Errorf("%w: from cannot be negative", domain.ErrValidation)
	}

	p := &SearchParams{
		size:    size,
		from:    c.From,
		search:  c.Search,
		output:  c.Output,
		facets:  c.Facets,
		filters: c.Filters,
	}

	if p.output == "" {
		p.output = OutputFull
	}
	if len(c.Fields) > 0 {
		p.fields = append([]string(nil), c.Fields...)
		p.output = OutputCustom
	}

	p.scoringMethod = c.ScoringMethod
	if p.scoringMethod == "" {
		p.scoringMethod = DefaultScoringMethod
	}
	p.scoreDimensions = append([]string(nil), c.ScoreDimensions...)
	if len(p.scoreDimensions) == 0 {
		p.scoreDimensions = []string{OverallDimension}
	}

	sortInput := c.Sort
	if len(sortInput) == 0 {
		sortInput = []string{OverallDimension}
	}
	for _, s := range sortInput {
		p.sort = append(p.sort, digestSort(s))
	}

	if p.filters.ScoreMax == 0 && p.filters.ScoreMin == 0 {
		p.filters.ScoreMax = 1
	}
	if p.filters.ScoreMin > p.filters.ScoreMax {
		return nil, fmt.Errorf("%w: score range min %.3f above max %.3f",
			domain.ErrValidation, p.filters.ScoreMin, p.filters.ScoreMax)
	}

	return p, nil
}

// MustNew is New for fixed inputs known to be valid; it panics otherwise.
func MustNew(c Config) *SearchParams {
	p, err := New(c)
	if err != nil {
		panic(err)
	}
	return p
}

func digestSort(s string) SortField {
	if strings.HasPrefix(s, "~") {
		return SortField{Name: s[1:], Ascending: true}
	}
	return SortField{Name: s, Ascending: false}
}

// Size returns the requested page size.
func (p *SearchParams) Size() int { return p.size }

// From returns the page offset.
func (p *SearchParams) From() int { return p.from }

// Sort returns the digested sort clauses.
func (p *SearchParams) Sort() []SortField { return p.sort }

// Search returns the free-text phrase, empty when unset.
func (p *SearchParams) Search() string { return p.search }

// Output returns the requested output shape.
func (p *SearchParams) Output() Output { return p.output }

// Facets reports whether facet aggregations were requested.
func (p *SearchParams) Facets() bool { return p.facets }

// ScoringMethod returns the pre-scored block name to read from hits.
func (p *SearchParams) ScoringMethod() string { return p.scoringMethod }

// ScoreDimensions returns the scoring dimensions the score-range filter
// applies to.
func (p *SearchParams) ScoreDimensions() []string { return p.scoreDimensions }

// Filters returns the per-kind filter values.
func (p *SearchParams) Filters() Filters { return p.filters }

// SourceFields translates the output shape into a _source restriction.
// Returns nil for the full document and false for count-only requests.
func (p *SearchParams) SourceFields() any {
	switch p.output {
	case OutputSimple:
		return []string{
			"id", "is_direct",
			"target.id", "target.gene_info.symbol",
			"disease.id", "disease.efo_info.label",
			p.scoringMethod + ".overall",
		}
	case OutputIDs:
		return []string{"id"}
	case OutputCount:
		return false
	case OutputCustom:
		return p.fields
	default:
		return nil
	}
}

// Active reports whether the given facet kind carries a filter value in
// this request.
func (p *SearchParams) Active(kind domain.FacetKind) bool {
	switch kind {
	case domain.FacetTarget:
		return len(p.filters.Targets) > 0
	case domain.FacetDisease:
		return len(p.filters.Diseases) > 0
	case domain.FacetPathway:
		return len(p.filters.Pathways) > 0
	case domain.FacetUniprotKW:
		return len(p.filters.UniprotKeywords) > 0
	case domain.FacetDatasource:
		return len(p.filters.Datasources) > 0
	case domain.FacetIsDirect:
		return p.filters.IsDirect != nil
	case domain.FacetScoreRange:
		// The score range always has a value; [0, 1] is the identity.
		return true
	default:
		return false
	}
}

// ActiveFilterKinds returns the facet kinds with an active value, in the
// fixed kind order.
func (p *SearchParams) ActiveFilterKinds() []domain.FacetKind {
	var active []domain.FacetKind
	for _, k := range domain.FacetKinds() {
		if p.Active(k) {
			active = append(active, k)
		}
	}
	return active
}

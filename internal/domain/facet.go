package domain

// FacetKind identifies one facet dimension of the association index.
// The set is closed: every kind has a dedicated aggregation unit and the
// dispatch is a compile-time switch, not a registry.
type FacetKind string

const (
	FacetTarget     FacetKind = "target"
	FacetDisease    FacetKind = "disease"
	FacetIsDirect   FacetKind = "is_direct"
	FacetPathway    FacetKind = "pathway"
	FacetUniprotKW  FacetKind = "uniprot_kw"
	FacetScoreRange FacetKind = "score_range"
	FacetDatasource FacetKind = "datasource"
)

// FacetKinds lists every facet kind in a fixed order.
func FacetKinds() []FacetKind {
	return []FacetKind{
		FacetTarget,
		FacetDisease,
		FacetIsDirect,
		FacetPathway,
		FacetUniprotKW,
		FacetScoreRange,
		FacetDatasource,
	}
}

// ServiceFacetKinds are filter-carrying kinds that never count as "active"
// for the single-filter facet suppression rule: a score range or an
// is-direct toggle alone does not make the other facets redundant.
func ServiceFacetKinds() []FacetKind {
	return []FacetKind{FacetIsDirect, FacetScoreRange}
}

// IsServiceKind reports whether k is one of the service kinds.
func IsServiceKind(k FacetKind) bool {
	for _, s := range ServiceFacetKinds() {
		if s == k {
			return true
		}
	}
	return false
}

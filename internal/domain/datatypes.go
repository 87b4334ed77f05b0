package domain

import "sort"

// DataTypeRegistry maps evidence datatypes (e.g. genetic_association,
// known_drug) to their member datasources. Loaded once from configuration
// and read-only afterwards.
type DataTypeRegistry struct {
	datatypes   map[string][]string
	datasources map[string][]string // datasource -> datatypes it belongs to
	order       []string
}

// NewDataTypeRegistry builds a registry from a datatype -> datasources map.
func NewDataTypeRegistry(mapping map[string][]string) *DataTypeRegistry {
	r := &DataTypeRegistry{
		datatypes:   make(map[string][]string, len(mapping)),
		datasources: make(map[string][]string),
	}
	for dt, sources := range mapping {
		ds := make([]string, len(sources))
		copy(ds, sources)
		r.datatypes[dt] = ds
		r.order = append(r.order, dt)
		for _, s := range sources {
			r.datasources[s] = append(r.datasources[s], dt)
		}
	}
	sort.Strings(r.order)
	return r
}

// AvailableDatatypes returns all known datatype names, sorted.
func (r *DataTypeRegistry) AvailableDatatypes() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Datasources returns the datasources belonging to a datatype.
func (r *DataTypeRegistry) Datasources(datatype string) []string {
	return r.datatypes[datatype]
}

// IsDatatype reports whether name is a known datatype.
func (r *DataTypeRegistry) IsDatatype(name string) bool {
	_, ok := r.datatypes[name]
	return ok
}

// IsDatasource reports whether name is a known datasource.
func (r *DataTypeRegistry) IsDatasource(name string) bool {
	_, ok := r.datasources[name]
	return ok
}

// InDatatype reports whether datasource ds belongs to datatype dt.
func (r *DataTypeRegistry) InDatatype(ds, dt string) bool {
	for _, member := range r.datatypes[dt] {
		if member == ds {
			return true
		}
	}
	return false
}

// ExpandDatasources resolves a mixed list of datasource and datatype tokens
// into a flat, de-duplicated, sorted datasource set. Unknown tokens are
// dropped.
func (r *DataTypeRegistry) ExpandDatasources(tokens []string) []string {
	seen := make(map[string]struct{})
	for _, t := range tokens {
		switch {
		case r.IsDatasource(t):
			seen[t] = struct{}{}
		case r.IsDatatype(t):
			for _, ds := range r.datatypes[t] {
				seen[ds] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for ds := range seen {
		out = append(out, ds)
	}
	sort.Strings(out)
	return out
}

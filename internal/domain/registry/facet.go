package registry

import "fmt"

// FacetKind discriminates the facet aggregation and post-filter shape.
type FacetKind string

const (
	// FacetTerms buckets documents by distinct field value.
	FacetTerms FacetKind = "terms"
	// FacetStats computes min/max statistics over a numeric field.
	FacetStats FacetKind = "stats"
	// FacetRanges buckets documents into configured discrete ranges.
	FacetRanges FacetKind = "ranges"
	// FacetFilters buckets documents by predefined named sub-filters.
	FacetFilters FacetKind = "filters"
)

// FacetRange is one bucket of a ranges facet. Nil bounds are open.
type FacetRange struct {
	Key  string
	From *float64
	To   *float64
}

// FacetFilter is one predefined sub-clause of a filters facet.
type FacetFilter struct {
	Field string
	Value any
}

// FacetConfig describes one facet of a type.
type FacetConfig struct {
	Key  string
	Kind FacetKind
	// Field drives terms, stats and ranges facets; unused for filters.
	Field string
	// Size caps the bucket count for terms facets; 0 means backend default.
	Size           int
	Ranges         []FacetRange
	Filters        map[string]FacetFilter
	IncludeMissing bool
	NestedPath     string
}

func (f FacetConfig) validate() error {
	switch f.Kind {
	case FacetTerms, FacetStats, FacetRanges:
		if f.Field == "" {
			return fmt.Errorf("field is required for kind %q", f.Kind)
		}
	case FacetFilters:
		if len(f.Filters) == 0 {
			return fmt.Errorf("filters payload is required for kind %q", f.Kind)
		}
		for name, sub := range f.Filters {
			if sub.Field == "" {
				return fmt.Errorf("filter %q: field is required", name)
			}
		}
	default:
		return fmt.Errorf("unknown kind %q", f.Kind)
	}
	if f.Kind == FacetRanges {
		if len(f.Ranges) == 0 {
			return fmt.Errorf("ranges payload is required for kind %q", f.Kind)
		}
		for _, r := range f.Ranges {
			if r.Key == "" {
				return fmt.Errorf("range key is required")
			}
			if r.From == nil && r.To == nil {
				return fmt.Errorf("range %q: at least one bound is required", r.Key)
			}
		}
	}
	return nil
}

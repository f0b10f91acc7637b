package registry

import (
	"fmt"

	"github.com/octoseek/searchdex/internal/domain"
)

// QueryField is one full-text field of a searchable type.
type QueryField struct {
	Field string
	// Weight is the relative ranking weight; 1 means no boost.
	Weight float64
	// VernacularOnly restricts the field to secondary-variant queries; such
	// fields are excluded from the primary full-text clause.
	VernacularOnly bool
	// NoFuzzy disables fuzzy matching on this field regardless of the
	// request-level fuzzy flag.
	NoFuzzy bool
	// NestedPath is set when the field lives inside a repeated sub-document.
	NestedPath string
}

// SortOption is one sortable field of a type.
type SortOption struct {
	Field string
	// Default marks the option as part of the fallback sort when the request
	// names no sort field.
	Default bool
	// Order is the direction used when the request does not specify one.
	Order string
	// Strategy names a registered custom ordering; empty means a plain
	// field/direction sort.
	Strategy string
}

// Summary is a scalar aggregation computed alongside search results.
type Summary struct {
	Field string
	// Op is the aggregation operator: avg, min, max, sum or count.
	Op string
}

// TypeConfig describes one searchable entity type.
type TypeConfig struct {
	Type          string
	Index         string
	DocType       string
	WeightField   string
	LanguageField string
	SuggestIndex  string
	QueryFields   []QueryField
	Filters       map[string]FilterConfig
	Facets        []FacetConfig
	Sort          []SortOption
	Summaries     map[string]Summary
	// IntentEntities lists the entity-recognition fields relevant to this
	// type, most specific last.
	IntentEntities []string
}

// ActiveQueryFields returns the query fields that participate in the primary
// full-text clause.
func (t TypeConfig) ActiveQueryFields() []QueryField {
	out := make([]QueryField, 0, len(t.QueryFields))
	for _, f := range t.QueryFields {
		if !f.VernacularOnly {
			out = append(out, f)
		}
	}
	return out
}

// FacetByKey returns the facet with the given key.
func (t TypeConfig) FacetByKey(key string) (FacetConfig, bool) {
	for _, f := range t.Facets {
		if f.Key == key {
			return f, true
		}
	}
	return FacetConfig{}, false
}

// Registry is the immutable set of searchable types. Built once at startup;
// read-only afterwards.
type Registry struct {
	types []TypeConfig
	byID  map[string]TypeConfig
	// defaultOrder applies when neither the request nor the sort option
	// specifies a direction.
	defaultOrder string
	// flatIndex is the shared index queried in flat mode.
	flatIndex string
	// typeField discriminates entity types inside the shared index.
	typeField string
}

// New validates the given type configurations and builds a registry.
// Configuration problems fail here, never at request time.
func New(types []TypeConfig, defaultOrder string) (*Registry, error) {
	return NewWithFlat(types, defaultOrder, "", "")
}

// NewWithFlat builds a registry with flat-mode settings.
func NewWithFlat(types []TypeConfig, defaultOrder, flatIndex, typeField string) (*Registry, error) {
	if defaultOrder == "" {
		defaultOrder = "desc"
	}
	if typeField == "" {
		typeField = "__type"
	}
	byID := make(map[string]TypeConfig, len(types))
	for i := range types {
		t := types[i]
		if t.Type == "" {
			return nil, fmt.Errorf("%w: type id is required", domain.ErrConfiguration)
		}
		if _, dup := byID[t.Type]; dup {
			return nil, fmt.Errorf("%w: duplicate type %q", domain.ErrConfiguration, t.Type)
		}
		if t.Index == "" {
			return nil, fmt.Errorf("%w: type %q: index is required", domain.ErrConfiguration, t.Type)
		}
		if err := validateType(t); err != nil {
			return nil, fmt.Errorf("%w: type %q: %w", domain.ErrConfiguration, t.Type, err)
		}
		byID[t.Type] = t
	}
	return &Registry{
		types:        types,
		byID:         byID,
		defaultOrder: defaultOrder,
		flatIndex:    flatIndex,
		typeField:    typeField,
	}, nil
}

// MustNew builds a registry or panics.
func MustNew(types []TypeConfig, defaultOrder string) *Registry {
	r, err := New(types, defaultOrder)
	if err != nil {
		panic(err)
	}
	return r
}

// Types returns all configured types in declaration order.
func (r *Registry) Types() []TypeConfig { return r.types }

// TypeCount returns the number of configured types.
func (r *Registry) TypeCount() int { return len(r.types) }

// Get returns the configuration for a type id.
func (r *Registry) Get(id string) (TypeConfig, bool) {
	t, ok := r.byID[id]
	return t, ok
}

// DefaultOrder returns the registry-wide default sort direction.
func (r *Registry) DefaultOrder() string { return r.defaultOrder }

// FlatIndex returns the shared index used in flat mode, empty when flat mode
// is not configured.
func (r *Registry) FlatIndex() string { return r.flatIndex }

// TypeField returns the per-type discriminator field of the shared index.
func (r *Registry) TypeField() string { return r.typeField }

// Resolve expands a request type selector into concrete type configurations.
// An empty selector or "*" selects every type; a list selects the named
// types in registry order.
func (r *Registry) Resolve(selector []string) ([]TypeConfig, error) {
	if len(selector) == 0 {
		return r.types, nil
	}
	if len(selector) == 1 && selector[0] == "*" {
		return r.types, nil
	}
	wanted := make(map[string]bool, len(selector))
	for _, id := range selector {
		if _, ok := r.byID[id]; !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnknownType, id)
		}
		wanted[id] = true
	}
	out := make([]TypeConfig, 0, len(wanted))
	for _, t := range r.types {
		if wanted[t.Type] {
			out = append(out, t)
		}
	}
	return out, nil
}

func validateType(t TypeConfig) error {
	for name, f := range t.Filters {
		if err := f.validate(); err != nil {
			return fmt.Errorf("filter %q: %w", name, err)
		}
	}
	seen := make(map[string]bool, len(t.Facets))
	for _, f := range t.Facets {
		if f.Key == "" {
			return fmt.Errorf("facet key is required")
		}
		if seen[f.Key] {
			return fmt.Errorf("duplicate facet %q", f.Key)
		}
		seen[f.Key] = true
		if err := f.validate(); err != nil {
			return fmt.Errorf("facet %q: %w", f.Key, err)
		}
	}
	for _, s := range t.Sort {
		if s.Field == "" {
			return fmt.Errorf("sort field is required")
		}
		if s.Strategy != "" {
			if _, ok := SortStrategy(s.Strategy); !ok {
				return fmt.Errorf("unknown sort strategy %q", s.Strategy)
			}
		}
	}
	for name, s := range t.Summaries {
		if s.Field == "" {
			return fmt.Errorf("summary %q: field is required", name)
		}
		switch s.Op {
		case "avg", "min", "max", "sum", "count":
		default:
			return fmt.Errorf("summary %q: unknown op %q", name, s.Op)
		}
	}
	return nil
}

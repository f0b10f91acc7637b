package registry

import (
	"errors"
	"testing"

	"github.com/octoseek/searchdex/internal/domain"
)

func makeType(t *testing.T, id string) TypeConfig {
	t.Helper()
	return TypeConfig{
		Type:  id,
		Index: id + "_idx",
		QueryFields: []QueryField{
			{Field: "title", Weight: 3},
			{Field: "description", Weight: 1},
		},
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name  string
		types []TypeConfig
	}{
		{"missing type id", []TypeConfig{{Index: "idx"}}},
		{"missing index", []TypeConfig{{Type: "products"}}},
		{"duplicate type", []TypeConfig{
			{Type: "products", Index: "a"},
			{Type: "products", Index: "b"},
		}},
		{"unknown filter kind", []TypeConfig{{
			Type: "products", Index: "idx",
			Filters: map[string]FilterConfig{"brand": {Field: "brand", Kind: "fancy"}},
		}}},
		{"filter without field", []TypeConfig{{
			Type: "products", Index: "idx",
			Filters: map[string]FilterConfig{"brand": {Kind: FilterTerm}},
		}}},
		{"unknown transform", []TypeConfig{{
			Type: "products", Index: "idx",
			Filters: map[string]FilterConfig{"brand": {Field: "brand", Kind: FilterTerm, Transform: "reverse"}},
		}}},
		{"duplicate facet key", []TypeConfig{{
			Type: "products", Index: "idx",
			Facets: []FacetConfig{
				{Key: "brand", Kind: FacetTerms, Field: "brand"},
				{Key: "brand", Kind: FacetTerms, Field: "brand"},
			},
		}}},
		{"ranges facet without ranges", []TypeConfig{{
			Type: "products", Index: "idx",
			Facets: []FacetConfig{{Key: "price", Kind: FacetRanges, Field: "price"}},
		}}},
		{"range with both bounds open", []TypeConfig{{
			Type: "products", Index: "idx",
			Facets: []FacetConfig{{Key: "price", Kind: FacetRanges, Field: "price",
				Ranges: []FacetRange{{Key: "all"}}}},
		}}},
		{"filters facet without payload", []TypeConfig{{
			Type: "products", Index: "idx",
			Facets: []FacetConfig{{Key: "flags", Kind: FacetFilters}},
		}}},
		{"sort without field", []TypeConfig{{
			Type: "products", Index: "idx",
			Sort: []SortOption{{Order: "asc"}},
		}}},
		{"unknown sort strategy", []TypeConfig{{
			Type: "products", Index: "idx",
			Sort: []SortOption{{Field: "title", Strategy: "bogus"}},
		}}},
		{"unknown summary op", []TypeConfig{{
			Type: "products", Index: "idx",
			Summaries: map[string]Summary{"p": {Field: "price", Op: "median"}},
		}}},
		{"summary without field", []TypeConfig{{
			Type: "products", Index: "idx",
			Summaries: map[string]Summary{"p": {Op: "avg"}},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.types, "desc")
			if !errors.Is(err, domain.ErrConfiguration) {
				t.Errorf("New() error = %v, want ErrConfiguration", err)
			}
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	reg, err := NewWithFlat([]TypeConfig{makeType(t, "products")}, "", "", "")
	if err != nil {
		t.Fatalf("NewWithFlat: %v", err)
	}
	if reg.DefaultOrder() != "desc" {
		t.Errorf("DefaultOrder() = %q, want desc", reg.DefaultOrder())
	}
	if reg.TypeField() != "__type" {
		t.Errorf("TypeField() = %q, want __type", reg.TypeField())
	}
	if reg.FlatIndex() != "" {
		t.Errorf("FlatIndex() = %q, want empty", reg.FlatIndex())
	}
}

func TestResolve(t *testing.T) {
	reg := MustNew([]TypeConfig{
		makeType(t, "products"),
		makeType(t, "articles"),
		makeType(t, "guides"),
	}, "desc")

	t.Run("empty selector returns all", func(t *testing.T) {
		got, err := reg.Resolve(nil)
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if len(got) != 3 {
			t.Errorf("len = %d, want 3", len(got))
		}
	})

	t.Run("wildcard returns all", func(t *testing.T) {
		got, err := reg.Resolve([]string{"*"})
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if len(got) != 3 {
			t.Errorf("len = %d, want 3", len(got))
		}
	})

	t.Run("selection keeps registry order", func(t *testing.T) {
		got, err := reg.Resolve([]string{"guides", "products"})
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if len(got) != 2 || got[0].Type != "products" || got[1].Type != "guides" {
			t.Errorf("Resolve order = %v, want [products guides]", typeIDs(got))
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := reg.Resolve([]string{"products", "missing"})
		if !errors.Is(err, domain.ErrUnknownType) {
			t.Errorf("Resolve error = %v, want ErrUnknownType", err)
		}
	})
}

func typeIDs(types []TypeConfig) []string {
	out := make([]string, len(types))
	for i, tc := range types {
		out[i] = tc.Type
	}
	return out
}

func TestActiveQueryFields(t *testing.T) {
	tc := TypeConfig{
		Type: "products", Index: "idx",
		QueryFields: []QueryField{
			{Field: "title", Weight: 3},
			{Field: "vernacular_names", Weight: 1, VernacularOnly: true},
			{Field: "sku", Weight: 1, NoFuzzy: true},
		},
	}
	active := tc.ActiveQueryFields()
	if len(active) != 2 {
		t.Fatalf("len = %d, want 2", len(active))
	}
	for _, f := range active {
		if f.VernacularOnly {
			t.Errorf("vernacular-only field %q in active set", f.Field)
		}
	}
}

func TestFacetByKey(t *testing.T) {
	tc := TypeConfig{
		Type: "products", Index: "idx",
		Facets: []FacetConfig{{Key: "brand", Kind: FacetTerms, Field: "brand"}},
	}
	if _, ok := tc.FacetByKey("brand"); !ok {
		t.Error("FacetByKey(brand) not found")
	}
	if _, ok := tc.FacetByKey("color"); ok {
		t.Error("FacetByKey(color) unexpectedly found")
	}
}

func TestTransform(t *testing.T) {
	lower, ok := Transform("lowercase")
	if !ok {
		t.Fatal("lowercase transform not registered")
	}
	if got := lower("ACME"); got != "acme" {
		t.Errorf("lowercase(ACME) = %v, want acme", got)
	}

	csv, ok := Transform("csv")
	if !ok {
		t.Fatal("csv transform not registered")
	}
	got, ok := csv("a, b, ,c").([]any)
	if !ok || len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("csv(a, b, ,c) = %v, want [a b c]", got)
	}
}

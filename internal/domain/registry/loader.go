package registry

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// rawFile mirrors the registry YAML document. The raw structs are consumed
// by Load and converted into immutable TypeConfig values; caller-supplied
// configuration is never mutated in place.
type rawFile struct {
	DefaultOrder string    `yaml:"default_order"`
	FlatIndex    string    `yaml:"flat_index"`
	TypeField    string    `yaml:"type_field"`
	Types        []rawType `yaml:"types"`
}

type rawType struct {
	Type           string                `yaml:"type"`
	Index          string                `yaml:"index"`
	DocType        string                `yaml:"doc_type"`
	WeightField    string                `yaml:"weight_field"`
	LanguageField  string                `yaml:"language_field"`
	SuggestIndex   string                `yaml:"suggest_index"`
	QueryFields    []rawQueryField       `yaml:"query_fields"`
	Filters        map[string]rawFilter  `yaml:"filters"`
	Facets         []rawFacet            `yaml:"facets"`
	Sort           []rawSort             `yaml:"sort"`
	Summaries      map[string]rawSummary `yaml:"summaries"`
	IntentEntities []string              `yaml:"intent_entities"`
}

type rawQueryField struct {
	Field          string  `yaml:"field"`
	Weight         float64 `yaml:"weight"`
	VernacularOnly bool    `yaml:"vernacular_only"`
	NoFuzzy        bool    `yaml:"no_fuzzy"`
	NestedPath     string  `yaml:"nested_path"`
}

type rawFilter struct {
	Field          string `yaml:"field"`
	Kind           string `yaml:"kind"`
	Default        any    `yaml:"default"`
	Transform      string `yaml:"transform"`
	IncludeMissing bool   `yaml:"include_missing"`
	NestedPath     string `yaml:"nested_path"`
	Post           bool   `yaml:"post"`
}

type rawFacet struct {
	Key            string                  `yaml:"key"`
	Kind           string                  `yaml:"kind"`
	Field          string                  `yaml:"field"`
	Size           int                     `yaml:"size"`
	Ranges         []rawRange              `yaml:"ranges"`
	Filters        map[string]rawFacetUnit `yaml:"filters"`
	IncludeMissing bool                    `yaml:"include_missing"`
	NestedPath     string                  `yaml:"nested_path"`
}

type rawRange struct {
	Key  string   `yaml:"key"`
	From *float64 `yaml:"from"`
	To   *float64 `yaml:"to"`
}

type rawFacetUnit struct {
	Field string `yaml:"field"`
	Value any    `yaml:"value"`
}

type rawSort struct {
	Field    string `yaml:"field"`
	Default  bool   `yaml:"default"`
	Order    string `yaml:"order"`
	Strategy string `yaml:"strategy"`
}

type rawSummary struct {
	Field string `yaml:"field"`
	Op    string `yaml:"op"`
}

// Load reads a registry YAML file and builds the immutable registry.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read registry %s: %w", path, err)
	}
	return Parse(data)
}

// Parse builds a registry from YAML bytes.
func Parse(data []byte) (*Registry, error) {
	var raw rawFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}
	types := make([]TypeConfig, 0, len(raw.Types))
	for _, rt := range raw.Types {
		types = append(types, convertType(rt))
	}
	return NewWithFlat(types, raw.DefaultOrder, raw.FlatIndex, raw.TypeField)
}

func convertType(rt rawType) TypeConfig {
	t := TypeConfig{
		Type:           rt.Type,
		Index:          rt.Index,
		DocType:        rt.DocType,
		WeightField:    rt.WeightField,
		LanguageField:  rt.LanguageField,
		SuggestIndex:   rt.SuggestIndex,
		IntentEntities: rt.IntentEntities,
	}
	if t.DocType == "" {
		t.DocType = "_doc"
	}
	for _, f := range rt.QueryFields {
		w := f.Weight
		if w == 0 {
			w = 1
		}
		t.QueryFields = append(t.QueryFields, QueryField{
			Field:          f.Field,
			Weight:         w,
			VernacularOnly: f.VernacularOnly,
			NoFuzzy:        f.NoFuzzy,
			NestedPath:     f.NestedPath,
		})
	}
	if len(rt.Filters) > 0 {
		t.Filters = make(map[string]FilterConfig, len(rt.Filters))
		for name, f := range rt.Filters {
			t.Filters[name] = FilterConfig{
				Field:          f.Field,
				Kind:           FilterKind(f.Kind),
				Default:        f.Default,
				Transform:      f.Transform,
				IncludeMissing: f.IncludeMissing,
				NestedPath:     f.NestedPath,
				Post:           f.Post,
			}
		}
	}
	for _, f := range rt.Facets {
		fc := FacetConfig{
			Key:            f.Key,
			Kind:           FacetKind(f.Kind),
			Field:          f.Field,
			Size:           f.Size,
			IncludeMissing: f.IncludeMissing,
			NestedPath:     f.NestedPath,
		}
		for _, r := range f.Ranges {
			fc.Ranges = append(fc.Ranges, FacetRange{Key: r.Key, From: r.From, To: r.To})
		}
		if len(f.Filters) > 0 {
			fc.Filters = make(map[string]FacetFilter, len(f.Filters))
			for name, u := range f.Filters {
				fc.Filters[name] = FacetFilter{Field: u.Field, Value: u.Value}
			}
		}
		t.Facets = append(t.Facets, fc)
	}
	for _, s := range rt.Sort {
		t.Sort = append(t.Sort, SortOption{
			Field:    s.Field,
			Default:  s.Default,
			Order:    s.Order,
			Strategy: s.Strategy,
		})
	}
	if len(rt.Summaries) > 0 {
		t.Summaries = make(map[string]Summary, len(rt.Summaries))
		for name, s := range rt.Summaries {
			op := s.Op
			if op == "" {
				op = "avg"
			}
			t.Summaries[name] = Summary{Field: s.Field, Op: op}
		}
	}
	return t
}

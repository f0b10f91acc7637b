package request

import (
	"reflect"
	"strings"
	"testing"
)

func TestNewScalar_AllSentinel(t *testing.T) {
	v := NewScalar(AllValues)
	if !v.IsAll() {
		t.Error("IsAll() = false for __all__")
	}
	if v.IsZero() {
		t.Error("IsZero() = true for __all__")
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want Value
	}{
		{"nil", nil, Value{}},
		{"scalar", "acme", NewScalar("acme")},
		{"list", []any{"red", "blue"}, NewValues([]any{"red", "blue"})},
		{"value wrapper", map[string]any{"value": "acme"}, NewScalar("acme")},
		{"values wrapper", map[string]any{"values": []any{"a", "b"}}, NewValues([]any{"a", "b"})},
		{
			"range wrapper",
			map[string]any{"range": map[string]any{"from": 10, "to": 50}},
			NewRanges([]ValueRange{{From: 10, To: 50}}),
		},
		{
			"ranges wrapper",
			map[string]any{"ranges": []any{
				map[string]any{"to": 50},
				map[string]any{"from": 50},
			}},
			NewRanges([]ValueRange{{To: 50}, {From: 50}}),
		},
		{
			"facet wrapper",
			map[string]any{"values": []any{"budget"}, "type": "facet"},
			NewValues([]any{"budget"}).AsFacet(),
		},
		{"empty wrapper", map[string]any{"type": "facet"}, Value{}.AsFacet()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseValue(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseValue(%v) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestValue_NonEmptySentinel(t *testing.T) {
	if !NewScalar(NonEmpty).IsNonEmptySentinel() {
		t.Error("IsNonEmptySentinel() = false for __non_empty__")
	}
	if NewScalar("acme").IsNonEmptySentinel() {
		t.Error("IsNonEmptySentinel() = true for ordinary scalar")
	}
}

func TestValue_Terms(t *testing.T) {
	if got := NewScalar("acme").Terms(); len(got) != 1 || got[0] != "acme" {
		t.Errorf("scalar Terms() = %v, want [acme]", got)
	}
	if got := NewValues([]any{"a", "b"}).Terms(); len(got) != 2 {
		t.Errorf("list Terms() = %v, want two entries", got)
	}
}

func TestValue_Transform(t *testing.T) {
	upper := func(v any) any {
		if s, ok := v.(string); ok {
			return strings.ToUpper(s)
		}
		return v
	}

	if got := NewScalar("acme").Transform(upper); got.Scalar() != "ACME" {
		t.Errorf("scalar transform = %v, want ACME", got.Scalar())
	}

	got := NewValues([]any{"a", "b"}).Transform(upper)
	if !reflect.DeepEqual(got.Values(), []any{"A", "B"}) {
		t.Errorf("list transform = %v, want [A B]", got.Values())
	}

	// A csv-style transform fans a scalar out into a list.
	split := func(v any) any {
		if s, ok := v.(string); ok {
			parts := strings.Split(s, ",")
			out := make([]any, len(parts))
			for i, p := range parts {
				out[i] = p
			}
			return out
		}
		return v
	}
	fanned := NewScalar("a,b").Transform(split)
	if fanned.Scalar() != nil || len(fanned.Values()) != 2 {
		t.Errorf("fan-out transform = %#v, want list of 2", fanned)
	}

	// Ranges pass through untouched.
	rv := NewRanges([]ValueRange{{From: 1, To: 2}})
	if got := rv.Transform(upper); !reflect.DeepEqual(got, rv) {
		t.Errorf("range transform = %#v, want unchanged", got)
	}

	// Facet marking survives the transform.
	if got := NewScalar("acme").AsFacet().Transform(upper); !got.IsFacet() {
		t.Error("facet flag lost through transform")
	}
}

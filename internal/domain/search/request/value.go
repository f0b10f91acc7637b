package request

// Sentinel filter values understood by the compiler.
const (
	// AllValues means "no constraint": the filter contributes no clause.
	AllValues = "__all__"
	// NonEmpty means "field must be present", suppressing the
	// include-missing OR branch.
	NonEmpty = "__non_empty__"
)

// FacetWrapper marks a structured value as a facet selection, evaluated as a
// post-filter instead of a main-query filter.
const FacetWrapper = "facet"

// ValueRange is one from/to pair of a range filter value. Nil bounds are open.
type ValueRange struct {
	From any
	To   any
}

// Value is a resolved filter input: a scalar, a value list, one or more
// ranges, or a sentinel. A facet-typed value is excluded from the main query
// and applied as a post-filter.
type Value struct {
	scalar any
	values []any
	ranges []ValueRange
	facet  bool
	all    bool
}

// NewScalar wraps a single scalar value.
func NewScalar(v any) Value {
	if s, ok := v.(string); ok && s == AllValues {
		return Value{all: true}
	}
	return Value{scalar: v}
}

// NewValues wraps a list of values.
func NewValues(vs []any) Value { return Value{values: vs} }

// NewRanges wraps one or more from/to pairs.
func NewRanges(rs []ValueRange) Value { return Value{ranges: rs} }

// AsFacet marks the value as a facet selection.
func (v Value) AsFacet() Value {
	v.facet = true
	return v
}

// ParseValue converts decoded request input into a Value. Structured wrappers
// carry {value|values|range|ranges, type}; everything else is taken verbatim.
func ParseValue(in any) Value {
	switch x := in.(type) {
	case nil:
		return Value{}
	case map[string]any:
		v := parseWrapper(x)
		if t, _ := x["type"].(string); t == FacetWrapper {
			v = v.AsFacet()
		}
		return v
	case []any:
		return NewValues(x)
	default:
		return NewScalar(x)
	}
}

func parseWrapper(m map[string]any) Value {
	if raw, ok := m["value"]; ok {
		return NewScalar(raw)
	}
	if raw, ok := m["values"].([]any); ok {
		return NewValues(raw)
	}
	if raw, ok := m["range"].(map[string]any); ok {
		return NewRanges([]ValueRange{{From: raw["from"], To: raw["to"]}})
	}
	if raw, ok := m["ranges"].([]any); ok {
		rs := make([]ValueRange, 0, len(raw))
		for _, e := range raw {
			if rm, ok := e.(map[string]any); ok {
				rs = append(rs, ValueRange{From: rm["from"], To: rm["to"]})
			}
		}
		return NewRanges(rs)
	}
	return Value{}
}

// IsZero reports whether the value carries no input at all.
func (v Value) IsZero() bool {
	return v.scalar == nil && len(v.values) == 0 && len(v.ranges) == 0 && !v.all
}

// IsAll reports whether the value is the no-constraint sentinel.
func (v Value) IsAll() bool { return v.all }

// IsFacet reports whether the value is a facet selection.
func (v Value) IsFacet() bool { return v.facet }

// Scalar returns the scalar value, nil when absent.
func (v Value) Scalar() any { return v.scalar }

// Values returns the value list.
func (v Value) Values() []any { return v.values }

// Ranges returns the range pairs.
func (v Value) Ranges() []ValueRange { return v.ranges }

// Terms returns the scalar or list input as a flat slice, for term and
// facet-key selection clauses.
func (v Value) Terms() []any {
	if v.scalar != nil {
		return []any{v.scalar}
	}
	return v.values
}

// IsNonEmptySentinel reports whether the value is the field-must-be-present
// sentinel.
func (v Value) IsNonEmptySentinel() bool {
	s, ok := v.scalar.(string)
	return ok && s == NonEmpty
}

// Transform applies fn to the scalar and list values, returning a new Value.
// Range values pass through untouched.
func (v Value) Transform(fn func(any) any) Value {
	if v.scalar != nil {
		out := fn(v.scalar)
		// A transform may fan a scalar out into a list (e.g. csv).
		if vs, ok := out.([]any); ok {
			return Value{values: vs, facet: v.facet}
		}
		return Value{scalar: out, facet: v.facet}
	}
	if len(v.values) > 0 {
		vs := make([]any, len(v.values))
		for i, e := range v.values {
			vs[i] = fn(e)
		}
		return Value{values: vs, facet: v.facet}
	}
	return v
}

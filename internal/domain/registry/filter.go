package registry

import (
	"fmt"
	"strings"
)

// FilterKind discriminates the filter clause shape. Kinds are matched
// exhaustively by the compiler; an unknown kind is a build-time error.
type FilterKind string

const (
	// FilterTerm matches the field against one or more exact values.
	FilterTerm FilterKind = "term"
	// FilterRange matches the field against numeric or date bounds.
	FilterRange FilterKind = "range"
	// FilterText matches the field with a full-text clause.
	FilterText FilterKind = "text"
)

// FilterConfig describes one named filter of a type.
type FilterConfig struct {
	Field string
	Kind  FilterKind
	// Default applies when the request does not constrain the filter.
	Default any
	// Transform names a registered value transform applied before clause
	// construction; empty means no transform.
	Transform string
	// IncludeMissing also matches documents lacking the field.
	IncludeMissing bool
	NestedPath     string
	// Post excludes the filter from the backend query; it is evaluated
	// client-side after fetch.
	Post bool
}

func (f FilterConfig) validate() error {
	if f.Field == "" {
		return fmt.Errorf("field is required")
	}
	switch f.Kind {
	case FilterTerm, FilterRange, FilterText:
	default:
		return fmt.Errorf("unknown kind %q", f.Kind)
	}
	if f.Transform != "" {
		if _, ok := Transform(f.Transform); !ok {
			return fmt.Errorf("unknown transform %q", f.Transform)
		}
	}
	return nil
}

// TransformFunc is a pure value transform applied to filter input before
// clause construction.
type TransformFunc func(any) any

// transforms is the registered strategy table. Configuration names a
// transform instead of embedding a function so configs stay serializable.
var transforms = map[string]TransformFunc{
	"lowercase": func(v any) any { return applyToStrings(v, strings.ToLower) },
	"uppercase": func(v any) any { return applyToStrings(v, strings.ToUpper) },
	"trim":      func(v any) any { return applyToStrings(v, strings.TrimSpace) },
	"csv": func(v any) any {
		s, ok := v.(string)
		if !ok {
			return v
		}
		parts := strings.Split(s, ",")
		out := make([]any, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	},
}

// Transform looks up a registered transform by name.
func Transform(name string) (TransformFunc, bool) {
	fn, ok := transforms[name]
	return fn, ok
}

func applyToStrings(v any, fn func(string) string) any {
	switch x := v.(type) {
	case string:
		return fn(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			if s, ok := e.(string); ok {
				out[i] = fn(s)
			} else {
				out[i] = e
			}
		}
		return out
	default:
		return v
	}
}

package registry

// SortStrategyFunc builds the sort clause document for a custom ordering.
// Configuration names a strategy instead of embedding a comparator so the
// registry stays serializable.
type SortStrategyFunc func(field, order string) map[string]any

var sortStrategies = map[string]SortStrategyFunc{
	// Missing values sort last regardless of direction.
	"missing_last": func(field, order string) map[string]any {
		return map[string]any{field: map[string]any{"order": order, "missing": "_last"}}
	},
	// Case-insensitive keyword ordering via a script sort.
	"case_insensitive": func(field, order string) map[string]any {
		return map[string]any{
			"_script": map[string]any{
				"type":   "string",
				"order":  order,
				"script": map[string]any{"source": "doc['" + field + "'].value.toLowerCase()"},
			},
		}
	},
}

// SortStrategy looks up a registered sort strategy by name.
func SortStrategy(name string) (SortStrategyFunc, bool) {
	fn, ok := sortStrategies[name]
	return fn, ok
}

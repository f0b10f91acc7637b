package searchdex

// Query is a fluent search request builder.
type Query struct {
	text    string
	filters map[string]any
	sort    string
	order   string
	page    int
	count   int
	types   []string
	lang    string
	format  string
	fuzzy   *bool
}

// NewQuery starts a query with the given free text. Empty text is a pure
// listing shaped by filters.
func NewQuery(text string) *Query {
	return &Query{text: text}
}

// Types restricts the search to the named entity types.
func (q *Query) Types(types ...string) *Query {
	q.types = types
	return q
}

// Filter adds a filter value. Pass a slice for multi-value OR semantics, or
// a map for the wrapped range/facet forms.
func (q *Query) Filter(name string, value any) *Query {
	if q.filters == nil {
		q.filters = make(map[string]any)
	}
	q.filters[name] = value
	return q
}

// Sort orders results by a configured sort field.
func (q *Query) Sort(field, order string) *Query {
	q.sort = field
	q.order = order
	return q
}

// Page selects the zero-based result page and page size.
func (q *Query) Page(page, count int) *Query {
	q.page = page
	q.count = count
	return q
}

// Lang sets the request language for language-filtered types.
func (q *Query) Lang(lang string) *Query {
	q.lang = lang
	return q
}

// Flat requests a single cross-type result set instead of per-type groups.
func (q *Query) Flat() *Query {
	q.format = "flat"
	return q
}

// NoFuzzy disables fuzzy text matching.
func (q *Query) NoFuzzy() *Query {
	f := false
	q.fuzzy = &f
	return q
}

// payload builds the JSON request body.
func (q *Query) payload() map[string]any {
	body := map[string]any{"query": q.text}
	if len(q.filters) > 0 {
		body["filters"] = q.filters
	}
	if q.sort != "" {
		body["sort"] = q.sort
	}
	if q.order != "" {
		body["order"] = q.order
	}
	if q.page > 0 {
		body["page"] = q.page
	}
	if q.count > 0 {
		body["count"] = q.count
	}
	if len(q.types) > 0 {
		body["types"] = q.types
	}
	if q.lang != "" {
		body["lang"] = q.lang
	}
	if q.format != "" {
		body["format"] = q.format
	}
	if q.fuzzy != nil {
		body["fuzzy"] = *q.fuzzy
	}
	return body
}

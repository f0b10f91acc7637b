package request

import (
	"github.com/octoseek/searchdex/internal/domain"
)

// Paging limits.
const (
	MaxQueryLength = 1024
	DefaultCount   = 10
	MaxCount       = 200
)

// Format selects the multi-type response shape.
const (
	// FormatGrouped keys results by entity type with per-type paging windows.
	FormatGrouped = ""
	// FormatFlat merges all matching types into one query against the shared
	// index with a single paging window.
	FormatFlat = "flat"
)

// Request is a validated search request.
type Request struct {
	text      string
	filters   map[string]Value
	sortField string
	sortOrder string
	page      int
	count     int
	types     []string
	lang      string
	fuzzy     bool
	format    string
	// termLanguages are the languages detected on the query text by the
	// caller; consumed as given.
	termLanguages []string
}

// Option mutates a request under construction.
type Option func(*Request)

// WithFilters sets the filter inputs.
func WithFilters(filters map[string]Value) Option {
	return func(r *Request) { r.filters = filters }
}

// WithSort sets the requested sort field and direction.
func WithSort(field, order string) Option {
	return func(r *Request) { r.sortField, r.sortOrder = field, order }
}

// WithPage sets the zero-based page and page size.
func WithPage(page, count int) Option {
	return func(r *Request) { r.page, r.count = page, count }
}

// WithTypes sets the type selector: a single id, "*" or a list.
func WithTypes(types ...string) Option {
	return func(r *Request) { r.types = types }
}

// WithLang sets the requested language.
func WithLang(lang string) Option {
	return func(r *Request) { r.lang = lang }
}

// WithTermLanguages sets the caller-detected query-text languages.
func WithTermLanguages(langs []string) Option {
	return func(r *Request) { r.termLanguages = langs }
}

// WithFuzzy enables fuzzy matching on query fields.
func WithFuzzy(on bool) Option {
	return func(r *Request) { r.fuzzy = on }
}

// WithFormat sets the multi-type response shape.
func WithFormat(format string) Option {
	return func(r *Request) { r.format = format }
}

// New validates and normalizes a search request.
// Defaults: page=0, count=10, fuzzy=false, grouped format.
func New(text string, opts ...Option) (Request, error) {
	r := Request{count: DefaultCount}
	for _, opt := range opts {
		opt(&r)
	}
	if len(text) > MaxQueryLength {
		return Request{}, domain.NewValidation("query_too_long", "text")
	}
	r.text = text
	if r.page < 0 {
		return Request{}, domain.NewValidation("negative_page", "page")
	}
	if r.count <= 0 {
		r.count = DefaultCount
	}
	if r.count > MaxCount {
		r.count = MaxCount
	}
	switch r.sortOrder {
	case "", "asc", "desc":
	default:
		return Request{}, domain.NewValidation("invalid_sort_order", "sort.order")
	}
	switch r.format {
	case FormatGrouped, FormatFlat:
	default:
		return Request{}, domain.NewValidation("invalid_format", "format")
	}
	return r, nil
}

// WithoutText returns a copy of the request with the free-text query
// dropped, for filter-driven listings.
func (r *Request) WithoutText() Request {
	out := *r
	out.text = ""
	return out
}

// WithText returns a copy of the request carrying adjusted query text.
func (r *Request) WithText(text string) Request {
	out := *r
	out.text = text
	return out
}

// WithFilter returns a copy of the request with one filter value replaced.
func (r *Request) WithFilter(name string, v Value) Request {
	out := *r
	filters := make(map[string]Value, len(r.filters)+1)
	for k, e := range r.filters {
		filters[k] = e
	}
	filters[name] = v
	out.filters = filters
	return out
}

// WithFuzzyOff returns a copy of the request with fuzzy matching disabled.
func (r *Request) WithFuzzyOff() Request {
	out := *r
	out.fuzzy = false
	return out
}

// Text returns the free-text query, empty for match-everything.
func (r *Request) Text() string { return r.text }

// Filter returns the input value for a filter name.
func (r *Request) Filter(name string) Value { return r.filters[name] }

// Filters returns all filter inputs.
func (r *Request) Filters() map[string]Value { return r.filters }

// SortField returns the requested sort field, empty for relevance order.
func (r *Request) SortField() string { return r.sortField }

// SortOrder returns the requested sort direction.
func (r *Request) SortOrder() string { return r.sortOrder }

// Page returns the zero-based page index.
func (r *Request) Page() int { return r.page }

// Count returns the page size.
func (r *Request) Count() int { return r.count }

// Types returns the type selector.
func (r *Request) Types() []string { return r.types }

// Lang returns the requested language, empty for all.
func (r *Request) Lang() string { return r.lang }

// TermLanguages returns the caller-detected query-text languages.
func (r *Request) TermLanguages() []string { return r.termLanguages }

// Fuzzy reports whether fuzzy matching is enabled.
func (r *Request) Fuzzy() bool { return r.fuzzy }

// Format returns the multi-type response shape.
func (r *Request) Format() string { return r.format }

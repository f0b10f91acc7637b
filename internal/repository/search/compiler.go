package search

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/octoseek/searchdex/internal/backend"
	"github.com/octoseek/searchdex/internal/domain/registry"
	"github.com/octoseek/searchdex/internal/domain/search/request"
)

// summaryPrefix keys top-level scalar aggregations so they stay separate from
// facet aggregations and can be merged into bucket sub-aggregations too.
const summaryPrefix = "__summary_"

// summaryKey returns the synthetic aggregation name for a summary.
func summaryKey(name string) string {
	return summaryPrefix + name + "__"
}

// Compiler turns a type configuration plus a request into backend query
// envelopes. It is pure: no I/O, no shared state.
type Compiler struct {
	reg *registry.Registry
}

// NewCompiler creates a query compiler over a registry.
func NewCompiler(reg *registry.Registry) *Compiler {
	return &Compiler{reg: reg}
}

// Compile builds the full query envelope for one type and request.
func (c *Compiler) Compile(t registry.TypeConfig, req *request.Request) *backend.SearchRequest {
	text := c.TextQuery(t, req)
	filters := c.FilterQueries(t, req)

	main := backend.And(append(filters, text)...)
	if main == nil {
		main = backend.MatchAll()
	}
	if t.WeightField != "" && req.Text() != "" {
		main = backend.WeightFactor(main, t.WeightField)
	}

	return &backend.SearchRequest{
		Index:      t.Index,
		DocType:    t.DocType,
		From:       req.Page() * req.Count(),
		Size:       req.Count(),
		Query:      main,
		PostFilter: c.FacetQueries(t, req),
		Sort:       c.SortClause(t, req),
		Aggs:       c.Aggregations(t),
	}
}

// CompileFlat builds one envelope OR-merging all given types against the
// shared index, discriminated per type, with a single paging window.
func (c *Compiler) CompileFlat(types []registry.TypeConfig, req *request.Request) *backend.SearchRequest {
	branches := make([]backend.M, 0, len(types))
	for _, t := range types {
		branch := backend.And(
			append(c.FilterQueries(t, req),
				backend.Term(c.reg.TypeField(), t.Type),
				c.TextQuery(t, req))...)
		branches = append(branches, branch)
	}
	main := backend.Or(branches...)
	if main == nil {
		main = backend.MatchAll()
	}
	return &backend.SearchRequest{
		Index:   c.reg.FlatIndex(),
		DocType: "_doc",
		From:    req.Page() * req.Count(),
		Size:    req.Count(),
		Query:   main,
	}
}

// TextQuery builds the full-text clause. An empty request text yields nil
// (match everything). One active field yields a single weighted field clause;
// several yield one multi-field clause carrying the field/weight list.
func (c *Compiler) TextQuery(t registry.TypeConfig, req *request.Request) backend.M {
	if req.Text() == "" {
		return nil
	}
	active := t.ActiveQueryFields()
	if len(active) == 0 {
		return nil
	}
	if len(active) == 1 {
		return fieldClause(active[0], req.Text(), req.Fuzzy())
	}

	// Fields the multi-field clause can carry directly; nested fields and
	// per-field fuzzy overrides need their own branch.
	var plain []string
	var branches []backend.M
	for _, f := range active {
		if f.NestedPath == "" && !(req.Fuzzy() && f.NoFuzzy) {
			plain = append(plain, weightedField(f))
			continue
		}
		branches = append(branches, fieldClause(f, req.Text(), req.Fuzzy()))
	}
	if len(plain) > 0 {
		branches = append([]backend.M{backend.MultiMatch(req.Text(), plain, req.Fuzzy())}, branches...)
	}
	if len(branches) == 1 {
		return branches[0]
	}
	return backend.DisMax(branches, 0)
}

func weightedField(f registry.QueryField) string {
	if f.Weight == 1 {
		return f.Field
	}
	return f.Field + "^" + strconv.FormatFloat(f.Weight, 'f', -1, 64)
}

// fieldClause builds a single-field text clause honoring the fuzzy override,
// weight boost and nested wrapping.
func fieldClause(f registry.QueryField, text string, fuzzy bool) backend.M {
	clause := backend.Match(f.Field, text, fuzzy && !f.NoFuzzy)
	if f.Weight != 1 {
		inner := clause["match"].(backend.M)[f.Field].(backend.M)
		inner["boost"] = f.Weight
	}
	if f.NestedPath != "" {
		clause = backend.Nested(f.NestedPath, clause)
	}
	return clause
}

// FilterQueries builds the main-query filter clauses for every non-post
// filter with an effective value, plus the language filter. Facet-typed
// values are skipped here; they become post-filters.
func (c *Compiler) FilterQueries(t registry.TypeConfig, req *request.Request) []backend.M {
	names := make([]string, 0, len(t.Filters))
	for name := range t.Filters {
		names = append(names, name)
	}
	sort.Strings(names)

	var clauses []backend.M
	for _, name := range names {
		fc := t.Filters[name]
		if fc.Post {
			continue
		}
		v := effectiveValue(fc, req.Filter(name))
		if v.IsZero() || v.IsAll() || v.IsFacet() {
			continue
		}
		if clause := filterClause(fc, v); clause != nil {
			clauses = append(clauses, clause)
		}
	}
	if lang := languageClause(t, req); lang != nil {
		clauses = append(clauses, lang)
	}
	return clauses
}

// effectiveValue resolves the request value, falling back to the configured
// default, and applies the named transform.
func effectiveValue(fc registry.FilterConfig, v request.Value) request.Value {
	if v.IsZero() && fc.Default != nil {
		v = request.ParseValue(fc.Default)
	}
	if v.IsZero() || v.IsAll() {
		return v
	}
	if fc.Transform != "" {
		if fn, ok := registry.Transform(fc.Transform); ok {
			v = v.Transform(fn)
		}
	}
	return v
}

// filterClause builds one clause for a filter config and resolved value.
// The kind switch is exhaustive; the registry guarantees no other kind
// reaches here.
func filterClause(fc registry.FilterConfig, v request.Value) backend.M {
	if v.IsNonEmptySentinel() {
		return wrapNested(fc.NestedPath, backend.Exists(fc.Field))
	}

	var clause backend.M
	switch fc.Kind {
	case registry.FilterTerm:
		clause = termsClause(fc.Field, v)
	case registry.FilterRange:
		clause = rangesClause(fc.Field, v)
	case registry.FilterText:
		if s := v.Scalar(); s != nil {
			clause = backend.Match(fc.Field, s, false)
		}
	}
	if clause == nil {
		return nil
	}
	clause = wrapNested(fc.NestedPath, clause)
	if fc.IncludeMissing {
		clause = backend.Or(clause, backend.Missing(fc.Field))
	}
	return clause
}

func termsClause(field string, v request.Value) backend.M {
	terms := v.Terms()
	switch len(terms) {
	case 0:
		return nil
	case 1:
		return backend.Term(field, terms[0])
	}
	return backend.Terms(field, terms)
}

func rangesClause(field string, v request.Value) backend.M {
	ranges := v.Ranges()
	if len(ranges) == 0 {
		// A bare scalar on a range filter degrades to an exact match.
		return termsClause(field, v)
	}
	clauses := make([]backend.M, 0, len(ranges))
	for _, r := range ranges {
		clauses = append(clauses, backend.Range(field, r.From, r.To))
	}
	return backend.Or(clauses...)
}

func wrapNested(path string, clause backend.M) backend.M {
	if path == "" || clause == nil {
		return clause
	}
	return backend.Nested(path, clause)
}

// languageClause constrains results to the requested language and any
// caller-detected query-text languages.
func languageClause(t registry.TypeConfig, req *request.Request) backend.M {
	if t.LanguageField == "" {
		return nil
	}
	langs := make([]any, 0, 1+len(req.TermLanguages()))
	if req.Lang() != "" {
		langs = append(langs, req.Lang())
	}
	for _, l := range req.TermLanguages() {
		langs = append(langs, l)
	}
	if len(langs) == 0 {
		return nil
	}
	if len(langs) == 1 {
		return backend.Term(t.LanguageField, langs[0])
	}
	return backend.Terms(t.LanguageField, langs)
}

// FacetQueries builds the post-filter clause from facet-typed filter values.
// Each selected facet narrows the result set independently, so top-level
// facet clauses combine with AND.
func (c *Compiler) FacetQueries(t registry.TypeConfig, req *request.Request) backend.M {
	var perFacet []backend.M
	for _, fc := range t.Facets {
		v := req.Filter(fc.Key)
		if !v.IsFacet() || v.IsZero() || v.IsAll() {
			continue
		}
		if clause := facetClause(fc, v); clause != nil {
			perFacet = append(perFacet, clause)
		}
	}
	return backend.And(perFacet...)
}

// facetClause builds the post-filter clause for one facet selection.
func facetClause(fc registry.FacetConfig, v request.Value) backend.M {
	var clause backend.M
	switch fc.Kind {
	case registry.FacetTerms:
		clause = termsClause(fc.Field, v)
		if clause != nil && fc.IncludeMissing {
			clause = backend.Or(clause, backend.Missing(fc.Field))
		}
	case registry.FacetStats:
		clause = rangesClause(fc.Field, v)
	case registry.FacetRanges:
		var parts []backend.M
		for _, key := range v.Terms() {
			name, _ := key.(string)
			for _, r := range fc.Ranges {
				if r.Key == name {
					parts = append(parts, backend.Range(fc.Field, floatAny(r.From), floatAny(r.To)))
				}
			}
		}
		if fc.IncludeMissing {
			parts = append(parts, backend.Missing(fc.Field))
		}
		clause = backend.Or(parts...)
	case registry.FacetFilters:
		var parts []backend.M
		for _, key := range v.Terms() {
			name, _ := key.(string)
			if sub, ok := fc.Filters[name]; ok {
				parts = append(parts, backend.Term(sub.Field, sub.Value))
			}
		}
		clause = backend.Or(parts...)
	}
	return wrapNested(fc.NestedPath, clause)
}

func floatAny(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

// Aggregations builds the aggregation clause: one synthetic top-level scalar
// per summary plus one bucket aggregation per facet, each carrying the
// summary sub-aggregations. Absent, not empty, when the type declares
// neither.
func (c *Compiler) Aggregations(t registry.TypeConfig) backend.M {
	if len(t.Facets) == 0 && len(t.Summaries) == 0 {
		return nil
	}
	aggs := backend.M{}

	sub := summaryAggs(t)
	for name, agg := range sub {
		aggs[name] = agg
	}

	for _, fc := range t.Facets {
		inner := bucketAgg(fc)
		if len(sub) > 0 {
			inner["aggs"] = sub
		}
		if fc.NestedPath != "" {
			aggs[fc.Key] = backend.M{
				"nested": backend.M{"path": fc.NestedPath},
				"aggs":   backend.M{fc.Key: inner},
			}
		} else {
			aggs[fc.Key] = inner
		}
	}
	return aggs
}

func summaryAggs(t registry.TypeConfig) backend.M {
	if len(t.Summaries) == 0 {
		return nil
	}
	aggs := backend.M{}
	for name, s := range t.Summaries {
		op := s.Op
		if op == "count" {
			op = "value_count"
		}
		aggs[summaryKey(name)] = backend.M{op: backend.M{"field": s.Field}}
	}
	return aggs
}

func bucketAgg(fc registry.FacetConfig) backend.M {
	switch fc.Kind {
	case registry.FacetTerms:
		inner := backend.M{"field": fc.Field}
		if fc.Size > 0 {
			inner["size"] = fc.Size
		}
		if fc.IncludeMissing {
			inner["missing"] = "__missing__"
		}
		return backend.M{"terms": inner}
	case registry.FacetStats:
		return backend.M{"stats": backend.M{"field": fc.Field}}
	case registry.FacetRanges:
		ranges := make([]backend.M, 0, len(fc.Ranges))
		for _, r := range fc.Ranges {
			entry := backend.M{"key": r.Key}
			if r.From != nil {
				entry["from"] = *r.From
			}
			if r.To != nil {
				entry["to"] = *r.To
			}
			ranges = append(ranges, entry)
		}
		return backend.M{"range": backend.M{"field": fc.Field, "ranges": ranges}}
	case registry.FacetFilters:
		names := make([]string, 0, len(fc.Filters))
		for name := range fc.Filters {
			names = append(names, name)
		}
		sort.Strings(names)
		filters := backend.M{}
		for _, name := range names {
			sub := fc.Filters[name]
			filters[name] = backend.Term(sub.Field, sub.Value)
		}
		return backend.M{"filters": backend.M{"filters": filters}}
	}
	// Unreachable: the registry rejects unknown kinds at build time.
	panic(fmt.Sprintf("unknown facet kind %q", fc.Kind))
}

// SortClause builds the sort documents. A request sort field matching a
// configured option wins; otherwise the default-flagged options apply; an
// unmatched request field defers entirely to relevance order.
func (c *Compiler) SortClause(t registry.TypeConfig, req *request.Request) []backend.M {
	if req.SortField() != "" {
		for _, opt := range t.Sort {
			if opt.Field == req.SortField() {
				return []backend.M{c.sortDoc(opt, req.SortOrder())}
			}
		}
		return nil
	}
	var docs []backend.M
	for _, opt := range t.Sort {
		if opt.Default {
			docs = append(docs, c.sortDoc(opt, ""))
		}
	}
	return docs
}

func (c *Compiler) sortDoc(opt registry.SortOption, requestOrder string) backend.M {
	order := requestOrder
	if order == "" {
		order = opt.Order
	}
	if order == "" {
		order = c.reg.DefaultOrder()
	}
	if opt.Strategy != "" {
		if fn, ok := registry.SortStrategy(opt.Strategy); ok {
			return fn(opt.Field, order)
		}
	}
	return backend.M{opt.Field: backend.M{"order": order}}
}

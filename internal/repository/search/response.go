package search

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/octoseek/searchdex/internal/backend"
	"github.com/octoseek/searchdex/internal/domain/registry"
	"github.com/octoseek/searchdex/internal/domain/search/request"
	"github.com/octoseek/searchdex/internal/domain/search/result"
)

// DefaultCliffRatio is the relevancy cliff threshold: a hit keeping no more
// than this share of the previous kept hit's score is dropped. Empirically
// chosen; override via configuration.
const DefaultCliffRatio = 0.40

// Processor converts raw backend responses into normalized results.
// It is pure: no I/O, no shared state.
type Processor struct {
	// redacted lists source field names stripped from every hit.
	redacted map[string]bool
	// cliffRatio tunes the relevancy cliff filter; 0 disables it.
	cliffRatio float64
	// basePath prefixes pagination link URLs.
	basePath string
}

// NewProcessor creates a response processor.
func NewProcessor(redactedFields []string, cliffRatio float64, basePath string) *Processor {
	redacted := make(map[string]bool, len(redactedFields))
	for _, f := range redactedFields {
		redacted[f] = true
	}
	if basePath == "" {
		basePath = "/search"
	}
	return &Processor{redacted: redacted, cliffRatio: cliffRatio, basePath: basePath}
}

// Process converts one raw response for one type into a normalized result.
func (p *Processor) Process(t registry.TypeConfig, req *request.Request, resp *backend.SearchResponse) result.Result {
	hits := p.NormalizeHits(t, resp.Hits.Hits)
	hits = applyPostFilters(t, req, hits)
	hits = p.cliffFilter(hits)
	facets := p.ExtractFacets(t, resp.Aggregations)
	summaries := p.ExtractSummaries(t, resp.Aggregations)
	prev, next := p.PageLinks(req, len(hits), resp.Hits.Total.Value)
	return result.New(hits, facets, summaries, resp.Hits.Total.Value, resp.Took, prev, next)
}

// ProcessFlat converts a flat-mode response, resolving each hit's type from
// the shared index discriminator field.
func (p *Processor) ProcessFlat(reg *registry.Registry, req *request.Request, resp *backend.SearchResponse) result.Result {
	hits := make([]result.Hit, 0, len(resp.Hits.Hits))
	for _, doc := range resp.Hits.Hits {
		typeID, _ := doc.Source[reg.TypeField()].(string)
		t, ok := reg.Get(typeID)
		if !ok {
			t = registry.TypeConfig{Type: typeID}
		}
		hits = append(hits, p.normalizeHit(t, doc))
	}
	hits = p.cliffFilter(hits)
	prev, next := p.PageLinks(req, len(hits), resp.Hits.Total.Value)
	return result.New(hits, nil, nil, resp.Hits.Total.Value, resp.Took, prev, next)
}

// NormalizeHits cleans and overlays identity fields on every hit, in order.
func (p *Processor) NormalizeHits(t registry.TypeConfig, docs []backend.Doc) []result.Hit {
	hits := make([]result.Hit, 0, len(docs))
	for _, doc := range docs {
		hits = append(hits, p.normalizeHit(t, doc))
	}
	return hits
}

func (p *Processor) normalizeHit(t registry.TypeConfig, doc backend.Doc) result.Hit {
	weight := 1.0
	if t.WeightField != "" {
		if w, ok := numberAt(doc.Source, t.WeightField); ok && w > 0 {
			weight = w
		}
	}
	source, _ := p.cleanValue(doc.Source).(map[string]any)
	if source == nil {
		source = map[string]any{}
	}
	source["id"] = doc.ID
	source["score"] = doc.Score
	source["type"] = t.Type
	source["weight"] = weight
	source["version"] = doc.Version
	return result.NewHit(doc.ID, doc.Score, t.Type, weight, doc.Version, source)
}

// cleanValue strips bookkeeping fields (double-underscore convention) and
// redacted fields, recursively, preserving structure.
func (p *Processor) cleanValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			if isBookkeeping(k) || p.redacted[k] {
				continue
			}
			out[k] = p.cleanValue(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = p.cleanValue(e)
		}
		return out
	default:
		return v
	}
}

func isBookkeeping(key string) bool {
	return strings.HasPrefix(key, "__") && strings.HasSuffix(key, "__")
}

// cliffFilter drops every hit retaining no more than the cliff share of the
// previous kept hit's score. The reference score advances only on keep, so a
// dropped hit never becomes the comparison base.
func (p *Processor) cliffFilter(hits []result.Hit) []result.Hit {
	if p.cliffRatio <= 0 || len(hits) == 0 {
		return hits
	}
	kept := hits[:1]
	prev := hits[0].Score()
	for _, h := range hits[1:] {
		if prev > 0 && h.Score()/prev <= p.cliffRatio {
			continue
		}
		kept = append(kept, h)
		prev = h.Score()
	}
	return kept
}

// applyPostFilters evaluates post-flagged filters client-side against the
// cleaned hit sources.
func applyPostFilters(t registry.TypeConfig, req *request.Request, hits []result.Hit) []result.Hit {
	var active []registry.FilterConfig
	var values []request.Value
	for name, fc := range t.Filters {
		if !fc.Post {
			continue
		}
		v := effectiveValue(fc, req.Filter(name))
		if v.IsZero() || v.IsAll() || v.IsFacet() {
			continue
		}
		active = append(active, fc)
		values = append(values, v)
	}
	if len(active) == 0 {
		return hits
	}
	kept := make([]result.Hit, 0, len(hits))
	for _, h := range hits {
		match := true
		for i, fc := range active {
			if !hitMatches(h.Source(), fc, values[i]) {
				match = false
				break
			}
		}
		if match {
			kept = append(kept, h)
		}
	}
	return kept
}

func hitMatches(source map[string]any, fc registry.FilterConfig, v request.Value) bool {
	field, ok := valueAt(source, fc.Field)
	if !ok {
		return fc.IncludeMissing
	}
	if v.IsNonEmptySentinel() {
		return true
	}
	switch fc.Kind {
	case registry.FilterTerm:
		for _, want := range v.Terms() {
			if stringify(field) == stringify(want) {
				return true
			}
		}
		return false
	case registry.FilterRange:
		n, ok := toNumber(field)
		if !ok {
			return false
		}
		for _, r := range v.Ranges() {
			if inRange(n, r) {
				return true
			}
		}
		return false
	case registry.FilterText:
		want := strings.ToLower(stringify(v.Scalar()))
		return want != "" && strings.Contains(strings.ToLower(stringify(field)), want)
	}
	return false
}

func inRange(n float64, r request.ValueRange) bool {
	if from, ok := toNumber(r.From); ok && n < from {
		return false
	}
	if to, ok := toNumber(r.To); ok && n >= to {
		return false
	}
	return true
}

// ExtractFacets reads the declared facet aggregations, unwrapping nested
// envelopes and mapping buckets per kind.
func (p *Processor) ExtractFacets(t registry.TypeConfig, aggs map[string]any) []result.Facet {
	if len(aggs) == 0 || len(t.Facets) == 0 {
		return nil
	}
	facets := make([]result.Facet, 0, len(t.Facets))
	for _, fc := range t.Facets {
		raw, ok := aggs[fc.Key].(map[string]any)
		if !ok {
			continue
		}
		if fc.NestedPath != "" {
			if inner, ok := raw[fc.Key].(map[string]any); ok {
				raw = inner
			}
		}
		facets = append(facets, extractFacet(t, fc, raw))
	}
	return facets
}

func extractFacet(t registry.TypeConfig, fc registry.FacetConfig, raw map[string]any) result.Facet {
	out := result.Facet{Key: fc.Key}
	switch fc.Kind {
	case registry.FacetTerms, registry.FacetRanges:
		buckets, _ := raw["buckets"].([]any)
		for _, b := range buckets {
			bm, ok := b.(map[string]any)
			if !ok {
				continue
			}
			bucket := result.Bucket{
				Key:       stringify(bm["key"]),
				Count:     int64At(bm, "doc_count"),
				Summaries: bucketSummaries(t, bm),
			}
			if from, ok := toNumber(bm["from"]); ok {
				bucket.From = &from
			}
			if to, ok := toNumber(bm["to"]); ok {
				bucket.To = &to
			}
			out.Buckets = append(out.Buckets, bucket)
		}
	case registry.FacetStats:
		min, _ := toNumber(raw["min"])
		max, _ := toNumber(raw["max"])
		out.Stats = &result.Stats{Min: min, Max: max, Count: int64At(raw, "count")}
	case registry.FacetFilters:
		buckets, _ := raw["buckets"].(map[string]any)
		for name, b := range buckets {
			bm, ok := b.(map[string]any)
			if !ok {
				continue
			}
			out.Buckets = append(out.Buckets, result.Bucket{
				Key:       name,
				Count:     int64At(bm, "doc_count"),
				Summaries: bucketSummaries(t, bm),
			})
		}
	}
	return out
}

func bucketSummaries(t registry.TypeConfig, bucket map[string]any) map[string]float64 {
	if len(t.Summaries) == 0 {
		return nil
	}
	out := make(map[string]float64, len(t.Summaries))
	for name := range t.Summaries {
		if raw, ok := bucket[summaryKey(name)].(map[string]any); ok {
			if v, ok := toNumber(raw["value"]); ok {
				out[name] = v
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// ExtractSummaries reads the top-level synthetic summary aggregations.
func (p *Processor) ExtractSummaries(t registry.TypeConfig, aggs map[string]any) map[string]float64 {
	if len(aggs) == 0 || len(t.Summaries) == 0 {
		return nil
	}
	out := make(map[string]float64, len(t.Summaries))
	for name := range t.Summaries {
		if raw, ok := aggs[summaryKey(name)].(map[string]any); ok {
			if v, ok := toNumber(raw["value"]); ok {
				out[name] = v
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// PageLinks decides the previous/next page descriptors.
// Previous exists iff page > 0; next iff page*count+resultCount < total.
func (p *Processor) PageLinks(req *request.Request, resultCount int, total int64) (prev, next *result.PageLink) {
	if req.Page() > 0 {
		prev = &result.PageLink{Page: req.Page() - 1, URL: p.pageURL(req, req.Page()-1)}
	}
	if int64(req.Page()*req.Count()+resultCount) < total {
		next = &result.PageLink{Page: req.Page() + 1, URL: p.pageURL(req, req.Page()+1)}
	}
	return prev, next
}

// pageURL echoes the request parameters with the adjacent page number.
func (p *Processor) pageURL(req *request.Request, page int) string {
	q := url.Values{}
	if req.Text() != "" {
		q.Set("text", req.Text())
	}
	for name, v := range req.Filters() {
		if v.IsZero() || v.IsAll() {
			continue
		}
		for _, term := range v.Terms() {
			q.Add("filter."+name, stringify(term))
		}
		// Range selections echo as from-to with open bounds left empty.
		for _, r := range v.Ranges() {
			q.Add("filter."+name, stringify(r.From)+"-"+stringify(r.To))
		}
	}
	if req.SortField() != "" {
		q.Set("sort", req.SortField())
		if req.SortOrder() != "" {
			q.Set("order", req.SortOrder())
		}
	}
	if len(req.Types()) > 0 {
		q.Set("type", strings.Join(req.Types(), ","))
	}
	q.Set("count", strconv.Itoa(req.Count()))
	q.Set("page", strconv.Itoa(page))
	return p.basePath + "?" + q.Encode()
}

// MergeGrouped combines per-type results into one grouped result. Totals and
// counts add up; took is the slowest branch; pagination is recomputed over
// the merged totals.
func (p *Processor) MergeGrouped(req *request.Request, types []registry.TypeConfig, results []result.Result) result.Grouped {
	byType := make(map[string]result.Result, len(types))
	var total int64
	var took int64
	resultCount := 0
	for i, t := range types {
		byType[t.Type] = results[i]
		total += results[i].Total()
		resultCount += len(results[i].Hits())
		if results[i].Took() > took {
			took = results[i].Took()
		}
	}
	prev, next := p.PageLinks(req, resultCount, total)
	return result.Grouped{ByType: byType, Total: total, Took: took, Prev: prev, Next: next}
}

func valueAt(source map[string]any, path string) (any, bool) {
	cur := any(source)
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

func numberAt(source map[string]any, path string) (float64, bool) {
	v, ok := valueAt(source, path)
	if !ok {
		return 0, false
	}
	return toNumber(v)
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func int64At(m map[string]any, key string) int64 {
	n, _ := toNumber(m[key])
	return int64(n)
}

func stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", s)
	}
}

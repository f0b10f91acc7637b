package result

// Hit is a single normalized search hit.
type Hit struct {
	id     string
	score  float64
	typeID string
	weight float64
	// version is the backend document version, 0 when not reported.
	version int64
	// source is the cleaned document body: bookkeeping and redacted fields
	// stripped, identity fields overlaid.
	source map[string]any
}

// NewHit creates a normalized hit.
func NewHit(id string, score float64, typeID string, weight float64, version int64, source map[string]any) Hit {
	return Hit{id: id, score: score, typeID: typeID, weight: weight, version: version, source: source}
}

// ID returns the document identifier.
func (h *Hit) ID() string { return h.id }

// Score returns the backend relevance score.
func (h *Hit) Score() float64 { return h.score }

// Type returns the entity type id.
func (h *Hit) Type() string { return h.typeID }

// Weight returns the document importance weight, 1 when absent.
func (h *Hit) Weight() float64 {
	if h.weight == 0 {
		return 1
	}
	return h.weight
}

// Version returns the backend document version.
func (h *Hit) Version() int64 { return h.version }

// Source returns the cleaned document body.
func (h *Hit) Source() map[string]any { return h.source }

// Bucket is one facet bucket.
type Bucket struct {
	Key   string
	Count int64
	From  *float64
	To    *float64
	// Summaries carries per-bucket scalar summary values keyed by summary
	// name.
	Summaries map[string]float64
}

// Stats is the output of a min-max facet.
type Stats struct {
	Min   float64
	Max   float64
	Count int64
}

// Facet is the output of one declared facet.
type Facet struct {
	Key     string
	Buckets []Bucket
	Stats   *Stats
}

// PageLink describes an adjacent result page.
type PageLink struct {
	Page int
	URL  string
}

// Result is a normalized, processed search response.
type Result struct {
	hits      []Hit
	facets    []Facet
	summaries map[string]float64
	total     int64
	took      int64
	prev      *PageLink
	next      *PageLink
}

// New creates a normalized result.
func New(hits []Hit, facets []Facet, summaries map[string]float64, total, took int64, prev, next *PageLink) Result {
	return Result{hits: hits, facets: facets, summaries: summaries, total: total, took: took, prev: prev, next: next}
}

// Hits returns the ordered hits.
func (r *Result) Hits() []Hit { return r.hits }

// Facets returns the facet outputs.
func (r *Result) Facets() []Facet { return r.facets }

// Summaries returns the top-level summary values keyed by summary name.
func (r *Result) Summaries() map[string]float64 { return r.summaries }

// Total returns the backend-reported total hit count.
func (r *Result) Total() int64 { return r.total }

// Took returns the backend query time in milliseconds.
func (r *Result) Took() int64 { return r.took }

// Prev returns the previous page link, nil on the first page.
func (r *Result) Prev() *PageLink { return r.prev }

// Next returns the next page link, nil on the last page.
func (r *Result) Next() *PageLink { return r.next }

// Grouped is a multi-type result keyed by entity type. Totals are additive
// across types; Took is the slowest branch.
type Grouped struct {
	ByType map[string]Result
	Total  int64
	Took   int64
	Prev   *PageLink
	Next   *PageLink
}

// Section is a named, titled bundle of results used in composite responses.
type Section struct {
	Name       string
	Title      string
	ResultType string
	Result     Result
}

package searchdex

// Page describes an adjacent result page.
type Page struct {
	Page int    `json:"page"`
	URL  string `json:"url"`
}

// Bucket is one value group inside a facet.
type Bucket struct {
	Key       string             `json:"key"`
	Count     int64              `json:"count"`
	From      *float64           `json:"from,omitempty"`
	To        *float64           `json:"to,omitempty"`
	Summaries map[string]float64 `json:"summaries,omitempty"`
}

// Stats is the output of a min-max facet.
type Stats struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int64   `json:"count"`
}

// Facet is the output of one declared facet.
type Facet struct {
	Key     string   `json:"key"`
	Buckets []Bucket `json:"buckets,omitempty"`
	Stats   *Stats   `json:"stats,omitempty"`
}

// Result is one processed result set.
type Result struct {
	Items     []map[string]any   `json:"items"`
	Facets    []Facet            `json:"facets,omitempty"`
	Summaries map[string]float64 `json:"summaries,omitempty"`
	Total     int64              `json:"total"`
	Took      int64              `json:"took"`
	Prev      *Page              `json:"prev,omitempty"`
	Next      *Page              `json:"next,omitempty"`
}

// Grouped holds per-type result sets with merged pagination.
type Grouped struct {
	Results map[string]Result `json:"results"`
	Total   int64             `json:"total"`
	Took    int64             `json:"took"`
	Prev    *Page             `json:"prev,omitempty"`
	Next    *Page             `json:"next,omitempty"`
}

// Section is one named bundle in a composed section response.
type Section struct {
	Name       string `json:"name"`
	Title      string `json:"title"`
	ResultType string `json:"result_type"`
	Result     Result `json:"result"`
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status  string            `json:"status"`
	Types   int               `json:"types"`
	Checks  map[string]string `json:"checks"`
	Version string            `json:"version"`
}

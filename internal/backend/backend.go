package backend

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrDocNotFound signals a missing document on fetch.
var ErrDocNotFound = errors.New("document not found")

// SearchRequest is one compiled query envelope submitted to the backend.
type SearchRequest struct {
	Index   string
	DocType string
	From    int
	Size    int
	Query   M
	// PostFilter narrows hits after aggregation computation so facet counts
	// reflect the pre-constrained set.
	PostFilter M
	Sort       []M
	Aggs       M
	// SourceExcludes are field patterns stripped by the backend itself.
	SourceExcludes []string
	MinScore       float64
}

// Body assembles the request into the backend's query document.
func (r *SearchRequest) Body() M {
	body := M{"from": r.From, "size": r.Size}
	if r.Query != nil {
		body["query"] = r.Query
	}
	if r.PostFilter != nil {
		body["post_filter"] = r.PostFilter
	}
	if len(r.Sort) > 0 {
		body["sort"] = r.Sort
	}
	if r.Aggs != nil {
		body["aggs"] = r.Aggs
	}
	if len(r.SourceExcludes) > 0 {
		body["_source"] = M{"excludes": r.SourceExcludes}
	}
	if r.MinScore > 0 {
		body["min_score"] = r.MinScore
	}
	return body
}

// Fingerprint returns a stable digest of the request, used as a cache key.
func (r *SearchRequest) Fingerprint() string {
	raw, err := json.Marshal(map[string]any{
		"index": r.Index, "doc_type": r.DocType, "body": r.Body(),
	})
	if err != nil {
		return fmt.Sprintf("%s/%s/%d/%d", r.Index, r.DocType, r.From, r.Size)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// Doc is one raw backend hit.
type Doc struct {
	ID      string         `json:"_id"`
	Index   string         `json:"_index"`
	Type    string         `json:"_type"`
	Score   float64        `json:"_score"`
	Version int64          `json:"_version"`
	Source  map[string]any `json:"_source"`
}

// Hits is the hit envelope of a backend response.
type Hits struct {
	Total Total `json:"total"`
	Hits  []Doc `json:"hits"`
}

// Total is the total hit count. Newer backends report an object with a
// relation; older ones a bare number. Both decode to a plain count.
type Total struct {
	Value int64
}

// MarshalJSON writes the bare-number form so responses survive a cache
// round trip.
func (t Total) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Value)
}

// UnmarshalJSON accepts both the bare-number and {value, relation} forms.
func (t *Total) UnmarshalJSON(data []byte) error {
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		t.Value = n
		return nil
	}
	var obj struct {
		Value int64 `json:"value"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("decode hits.total: %w", err)
	}
	t.Value = obj.Value
	return nil
}

// SearchResponse is one raw backend response.
type SearchResponse struct {
	Took         int64          `json:"took"`
	TimedOut     bool           `json:"timed_out"`
	Hits         Hits           `json:"hits"`
	Aggregations map[string]any `json:"aggregations"`
}

// Gateway executes compiled queries against the document-search backend.
//
// ExecuteBatch responses are correlated to requests strictly by position:
// responses[i] answers requests[i]. Implementations must preserve submission
// order; the multi-type merge depends on it.
type Gateway interface {
	Execute(ctx context.Context, req *SearchRequest) (*SearchResponse, error)
	ExecuteBatch(ctx context.Context, reqs []*SearchRequest) ([]*SearchResponse, error)
	FetchByID(ctx context.Context, index, docType, id string) (*Doc, error)
	Explain(ctx context.Context, index, docType, id string, query M) (map[string]any, error)
	TermVectors(ctx context.Context, index, docType, id string, fields []string) (map[string]any, error)
	// ScrollAll pages through every document matching req, invoking onPage
	// per page until exhaustion or the first error.
	ScrollAll(ctx context.Context, req *SearchRequest, pageSize int, onPage func([]Doc) error) error
}

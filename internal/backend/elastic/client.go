package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/octoseek/searchdex/internal/backend"
	"github.com/octoseek/searchdex/internal/metrics"
)

// Compile-time check: Client implements backend.Gateway.
var _ backend.Gateway = (*Client)(nil)

// Config holds connection parameters for the search backend.
type Config struct {
	// BaseURL is the backend root, e.g. http://localhost:9200.
	BaseURL string
	// Timeout bounds a single round trip.
	Timeout time.Duration
	// ScrollKeepAlive is the scroll context lifetime, e.g. "1m".
	ScrollKeepAlive string
}

// Client is an HTTP gateway to an Elasticsearch-compatible backend.
type Client struct {
	baseURL   string
	keepAlive string
	http      *http.Client
}

// NewClient creates a backend gateway.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	keepAlive := cfg.ScrollKeepAlive
	if keepAlive == "" {
		keepAlive = "1m"
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		keepAlive: keepAlive,
		http:      &http.Client{Timeout: timeout},
	}, nil
}

// Ping checks backend connectivity.
func (c *Client) Ping(ctx context.Context) error {
	var out map[string]any
	if err := c.do(ctx, http.MethodGet, "/", nil, &out); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Execute runs a single search.
func (c *Client) Execute(ctx context.Context, req *backend.SearchRequest) (*backend.SearchResponse, error) {
	var resp backend.SearchResponse
	path := fmt.Sprintf("/%s/%s/_search", req.Index, req.DocType)
	start := time.Now()
	err := c.do(ctx, http.MethodPost, path, req.Body(), &resp)
	observe("search", start, err)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", req.Index, err)
	}
	return &resp, nil
}

// ExecuteBatch runs several searches in one multi-search round trip.
// Responses come back in submission order.
func (c *Client) ExecuteBatch(ctx context.Context, reqs []*backend.SearchRequest) ([]*backend.SearchResponse, error) {
	if len(reqs) == 0 {
		return nil, nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, req := range reqs {
		header := map[string]any{"index": req.Index, "type": req.DocType}
		if err := enc.Encode(header); err != nil {
			return nil, fmt.Errorf("encode msearch header: %w", err)
		}
		if err := enc.Encode(req.Body()); err != nil {
			return nil, fmt.Errorf("encode msearch body: %w", err)
		}
	}

	var out struct {
		Responses []json.RawMessage `json:"responses"`
	}
	metrics.BackendBatchSize.Observe(float64(len(reqs)))
	start := time.Now()
	err := c.doRaw(ctx, http.MethodPost, "/_msearch", buf.Bytes(), "application/x-ndjson", &out)
	observe("msearch", start, err)
	if err != nil {
		return nil, fmt.Errorf("msearch: %w", err)
	}
	if len(out.Responses) != len(reqs) {
		return nil, fmt.Errorf("msearch: %d responses for %d requests", len(out.Responses), len(reqs))
	}

	resps := make([]*backend.SearchResponse, len(out.Responses))
	for i, raw := range out.Responses {
		var errBody struct {
			Error *struct {
				Reason string `json:"reason"`
			} `json:"error"`
		}
		if err := json.Unmarshal(raw, &errBody); err == nil && errBody.Error != nil {
			return nil, fmt.Errorf("msearch item %d: %s", i, errBody.Error.Reason)
		}
		var resp backend.SearchResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			return nil, fmt.Errorf("decode msearch item %d: %w", i, err)
		}
		resps[i] = &resp
	}
	return resps, nil
}

// FetchByID retrieves a single document.
func (c *Client) FetchByID(ctx context.Context, index, docType, id string) (*backend.Doc, error) {
	var out struct {
		backend.Doc
		Found bool `json:"found"`
	}
	path := fmt.Sprintf("/%s/%s/%s", index, docType, id)
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return nil, backend.ErrDocNotFound
		}
		return nil, fmt.Errorf("fetch %s/%s: %w", index, id, err)
	}
	if !out.Found {
		return nil, backend.ErrDocNotFound
	}
	return &out.Doc, nil
}

// Explain returns the backend's scoring explanation for a document.
func (c *Client) Explain(ctx context.Context, index, docType, id string, query backend.M) (map[string]any, error) {
	var out map[string]any
	path := fmt.Sprintf("/%s/%s/%s/_explain", index, docType, id)
	if err := c.do(ctx, http.MethodPost, path, backend.M{"query": query}, &out); err != nil {
		return nil, fmt.Errorf("explain %s/%s: %w", index, id, err)
	}
	return out, nil
}

// TermVectors returns term statistics for a document.
func (c *Client) TermVectors(ctx context.Context, index, docType, id string, fields []string) (map[string]any, error) {
	body := backend.M{"term_statistics": true, "field_statistics": true}
	if len(fields) > 0 {
		body["fields"] = fields
	}
	var out map[string]any
	path := fmt.Sprintf("/%s/%s/%s/_termvectors", index, docType, id)
	if err := c.do(ctx, http.MethodPost, path, body, &out); err != nil {
		return nil, fmt.Errorf("termvectors %s/%s: %w", index, id, err)
	}
	return out, nil
}

// ScrollAll pages through every matching document via the scroll API.
func (c *Client) ScrollAll(ctx context.Context, req *backend.SearchRequest, pageSize int, onPage func([]backend.Doc) error) error {
	if pageSize <= 0 {
		pageSize = 500
	}
	body := req.Body()
	body["from"] = 0
	body["size"] = pageSize

	var page struct {
		backend.SearchResponse
		ScrollID string `json:"_scroll_id"`
	}
	path := fmt.Sprintf("/%s/%s/_search?scroll=%s", req.Index, req.DocType, c.keepAlive)
	if err := c.do(ctx, http.MethodPost, path, body, &page); err != nil {
		return fmt.Errorf("scroll open %s: %w", req.Index, err)
	}
	defer c.clearScroll(ctx, page.ScrollID)

	for len(page.Hits.Hits) > 0 {
		if err := onPage(page.Hits.Hits); err != nil {
			return err
		}
		next := backend.M{"scroll": c.keepAlive, "scroll_id": page.ScrollID}
		page.Hits.Hits = nil
		if err := c.do(ctx, http.MethodPost, "/_search/scroll", next, &page); err != nil {
			return fmt.Errorf("scroll continue: %w", err)
		}
	}
	return nil
}

func (c *Client) clearScroll(ctx context.Context, scrollID string) {
	if scrollID == "" {
		return
	}
	_ = c.do(ctx, http.MethodDelete, "/_search/scroll", backend.M{"scroll_id": []string{scrollID}}, nil)
}

func observe(op string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.BackendRequestsTotal.WithLabelValues(op, status).Inc()
	metrics.BackendRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// statusError carries an unexpected backend HTTP status.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("backend status %d: %s", e.status, e.body)
}

func isStatus(err error, status int) bool {
	se, ok := err.(*statusError)
	return ok && se.status == status
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var raw []byte
	if body != nil {
		var err error
		if raw, err = json.Marshal(body); err != nil {
			return fmt.Errorf("encode body: %w", err)
		}
	}
	return c.doRaw(ctx, method, path, raw, "application/json", out)
}

func (c *Client) doRaw(ctx context.Context, method, path string, body []byte, contentType string, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("round trip: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &statusError{status: resp.StatusCode, body: truncate(string(data), 512)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

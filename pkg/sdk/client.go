package searchdex

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// Client is the searchdex SDK entry point.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	obs     *observer
}

// New creates a searchdex API client.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{timeout: defaultTimeout}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.baseURL == "" {
		return nil, errors.New("searchdex: base URL required (use WithBaseURL)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	h := cfg.http
	if h == nil {
		h = &http.Client{Timeout: cfg.timeout}
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.baseURL, "/"),
		apiKey:  cfg.apiKey,
		http:    h,
		obs:     obs,
	}, nil
}

// SearchResponse is the outcome of a search: a single result set or per-type
// groups, never both.
type SearchResponse struct {
	Result  *Result
	Grouped *Grouped
}

// Search runs the main search operation.
func (c *Client) Search(ctx context.Context, q *Query) (resp SearchResponse, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err) }()

	var raw json.RawMessage
	if err = c.do(ctx, http.MethodPost, "/api/v1/search", q.payload(), &raw); err != nil {
		return SearchResponse{}, err
	}

	// Grouped responses carry a "results" object, single ones an "items" list.
	var probe struct {
		Results json.RawMessage `json:"results"`
	}
	if jerr := json.Unmarshal(raw, &probe); jerr == nil && probe.Results != nil {
		var g Grouped
		if err = json.Unmarshal(raw, &g); err != nil {
			return SearchResponse{}, fmt.Errorf("searchdex: decode grouped response: %w", err)
		}
		return SearchResponse{Grouped: &g}, nil
	}
	var r Result
	if err = json.Unmarshal(raw, &r); err != nil {
		return SearchResponse{}, fmt.Errorf("searchdex: decode response: %w", err)
	}
	return SearchResponse{Result: &r}, nil
}

// Autocomplete returns type-ahead suggestions for a prefix.
func (c *Client) Autocomplete(ctx context.Context, text string, types ...string) (res Result, err error) {
	start := time.Now()
	defer func() { c.obs.observe("autocomplete", start, err) }()

	err = c.do(ctx, http.MethodGet, "/api/v1/autocomplete?"+textParams(text, types), nil, &res)
	return res, err
}

// SuggestedQueries returns related query suggestions with fuzzing disabled.
func (c *Client) SuggestedQueries(ctx context.Context, text string, types ...string) (res Result, err error) {
	start := time.Now()
	defer func() { c.obs.observe("suggested_queries", start, err) }()

	err = c.do(ctx, http.MethodGet, "/api/v1/suggested-queries?"+textParams(text, types), nil, &res)
	return res, err
}

// Browse lists every type without a text constraint.
func (c *Client) Browse(ctx context.Context, page, count int) (g Grouped, err error) {
	start := time.Now()
	defer func() { c.obs.observe("browse", start, err) }()

	params := url.Values{}
	params.Set("page", fmt.Sprint(page))
	if count > 0 {
		params.Set("count", fmt.Sprint(count))
	}
	err = c.do(ctx, http.MethodGet, "/api/v1/browse?"+params.Encode(), nil, &g)
	return g, err
}

// Sections runs the intent cascade and returns composed result sections.
func (c *Client) Sections(ctx context.Context, text string) (sections []Section, err error) {
	start := time.Now()
	defer func() { c.obs.observe("sections", start, err) }()

	var out struct {
		Sections []Section `json:"sections"`
	}
	params := url.Values{}
	params.Set("q", text)
	if err = c.do(ctx, http.MethodGet, "/api/v1/sections?"+params.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Sections, nil
}

// FormSearch runs a filter-driven listing for a single type.
func (c *Client) FormSearch(ctx context.Context, typeID string, q *Query) (res Result, err error) {
	start := time.Now()
	defer func() { c.obs.observe("form_search", start, err) }()

	path := fmt.Sprintf("/api/v1/types/%s/form-search", url.PathEscape(typeID))
	err = c.do(ctx, http.MethodPost, path, q.payload(), &res)
	return res, err
}

// GetDocument fetches one normalized document.
func (c *Client) GetDocument(ctx context.Context, typeID, id string) (doc map[string]any, err error) {
	start := time.Now()
	defer func() { c.obs.observe("get_document", start, err) }()

	path := fmt.Sprintf("/api/v1/types/%s/documents/%s", url.PathEscape(typeID), url.PathEscape(id))
	err = c.do(ctx, http.MethodGet, path, nil, &doc)
	return doc, err
}

// Explain returns the backend's scoring explanation for one document.
func (c *Client) Explain(ctx context.Context, typeID, id string, q *Query) (out map[string]any, err error) {
	start := time.Now()
	defer func() { c.obs.observe("explain", start, err) }()

	path := fmt.Sprintf("/api/v1/types/%s/documents/%s/explain", url.PathEscape(typeID), url.PathEscape(id))
	err = c.do(ctx, http.MethodPost, path, q.payload(), &out)
	return out, err
}

// TermVectors returns term statistics for one document.
func (c *Client) TermVectors(ctx context.Context, typeID, id string, fields []string) (out map[string]any, err error) {
	start := time.Now()
	defer func() { c.obs.observe("term_vectors", start, err) }()

	path := fmt.Sprintf("/api/v1/types/%s/documents/%s/term-vectors", url.PathEscape(typeID), url.PathEscape(id))
	if len(fields) > 0 {
		params := url.Values{}
		params.Set("fields", strings.Join(fields, ","))
		path += "?" + params.Encode()
	}
	err = c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// Health checks the health of the server and its backend.
func (c *Client) Health(ctx context.Context) (hs HealthStatus, err error) {
	start := time.Now()
	defer func() { c.obs.observe("health", start, err) }()

	// A degraded server answers 503 but still carries the report body.
	err = c.doAllow(ctx, http.MethodGet, "/healthz", nil, &hs, func(status int) bool {
		return status == http.StatusOK || status == http.StatusServiceUnavailable
	})
	return hs, err
}

func textParams(text string, types []string) string {
	params := url.Values{}
	params.Set("q", text)
	if len(types) > 0 {
		params.Set("type", strings.Join(types, ","))
	}
	return params.Encode()
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	return c.doAllow(ctx, method, path, body, out, func(status int) bool {
		return status >= 200 && status < 300
	})
}

func (c *Client) doAllow(ctx context.Context, method, path string, body, out any, allow func(int) bool) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("searchdex: encode body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("searchdex: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("searchdex: round trip: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("searchdex: read response: %w", err)
	}

	if !allow(resp.StatusCode) {
		apiErr := &APIError{Status: resp.StatusCode}
		if jerr := json.Unmarshal(data, apiErr); jerr != nil || apiErr.Code == "" {
			apiErr.Code = "unknown"
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("searchdex: decode response: %w", err)
	}
	return nil
}

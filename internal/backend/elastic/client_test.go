package elastic

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/octoseek/searchdex/internal/backend"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Error("NewClient accepted an empty base URL")
	}
}

func TestExecute(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/products_v2/_doc/_search" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["size"] != float64(10) {
			t.Errorf("size = %v, want 10", body["size"])
		}
		_, _ = w.Write([]byte(`{
			"took": 4,
			"hits": {"total": {"value": 1}, "hits": [
				{"_id": "p-1", "_score": 2.5, "_source": {"title": "Tent"}}
			]}
		}`))
	})

	resp, err := client.Execute(context.Background(), &backend.SearchRequest{
		Index: "products_v2", DocType: "_doc", Size: 10, Query: backend.MatchAll(),
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if resp.Hits.Total.Value != 1 || resp.Took != 4 {
		t.Errorf("total/took = %d/%d", resp.Hits.Total.Value, resp.Took)
	}
	if resp.Hits.Hits[0].ID != "p-1" {
		t.Errorf("hit id = %q", resp.Hits.Hits[0].ID)
	}
}

func TestExecute_BackendError(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": "parse failure"}`, http.StatusBadRequest)
	})
	_, err := client.Execute(context.Background(), &backend.SearchRequest{Index: "idx", DocType: "_doc"})
	if err == nil || !strings.Contains(err.Error(), "400") {
		t.Errorf("error = %v, want status 400", err)
	}
}

func TestExecuteBatch(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/_msearch" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-ndjson" {
			t.Errorf("content type = %q", ct)
		}
		var lines []string
		scanner := bufio.NewScanner(r.Body)
		for scanner.Scan() {
			if txt := strings.TrimSpace(scanner.Text()); txt != "" {
				lines = append(lines, txt)
			}
		}
		if len(lines) != 4 {
			t.Fatalf("ndjson lines = %d, want header+body per request", len(lines))
		}
		var header map[string]any
		if err := json.Unmarshal([]byte(lines[0]), &header); err != nil {
			t.Fatalf("decode header: %v", err)
		}
		if header["index"] != "products_v2" {
			t.Errorf("first header = %v", header)
		}
		_, _ = w.Write([]byte(`{"responses": [
			{"took": 1, "hits": {"total": 3, "hits": []}},
			{"took": 2, "hits": {"total": 1, "hits": []}}
		]}`))
	})

	resps, err := client.ExecuteBatch(context.Background(), []*backend.SearchRequest{
		{Index: "products_v2", DocType: "_doc", Query: backend.MatchAll()},
		{Index: "articles_v1", DocType: "_doc", Query: backend.MatchAll()},
	})
	if err != nil {
		t.Fatalf("ExecuteBatch: %v", err)
	}
	if len(resps) != 2 {
		t.Fatalf("responses = %d, want 2", len(resps))
	}
	if resps[0].Hits.Total.Value != 3 || resps[1].Hits.Total.Value != 1 {
		t.Errorf("totals = %d/%d, want 3/1", resps[0].Hits.Total.Value, resps[1].Hits.Total.Value)
	}
}

func TestExecuteBatch_CountMismatch(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"responses": [{"took": 1, "hits": {"total": 0, "hits": []}}]}`))
	})
	_, err := client.ExecuteBatch(context.Background(), []*backend.SearchRequest{
		{Index: "a", DocType: "_doc"},
		{Index: "b", DocType: "_doc"},
	})
	if err == nil {
		t.Fatal("ExecuteBatch accepted a short response list")
	}
}

func TestExecuteBatch_ItemError(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"responses": [
			{"took": 1, "hits": {"total": 0, "hits": []}},
			{"error": {"reason": "index missing"}}
		]}`))
	})
	_, err := client.ExecuteBatch(context.Background(), []*backend.SearchRequest{
		{Index: "a", DocType: "_doc"},
		{Index: "b", DocType: "_doc"},
	})
	if err == nil || !strings.Contains(err.Error(), "index missing") {
		t.Errorf("error = %v, want the item reason", err)
	}
}

func TestExecuteBatch_Empty(t *testing.T) {
	client := testClient(t, func(http.ResponseWriter, *http.Request) {
		t.Error("unexpected round trip for an empty batch")
	})
	resps, err := client.ExecuteBatch(context.Background(), nil)
	if err != nil || resps != nil {
		t.Errorf("empty batch = %v, %v", resps, err)
	}
}

func TestFetchByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/products_v2/_doc/p-1" {
				t.Errorf("path = %q", r.URL.Path)
			}
			_, _ = w.Write([]byte(`{"found": true, "_id": "p-1", "_version": 2, "_source": {"title": "Tent"}}`))
		})
		doc, err := client.FetchByID(context.Background(), "products_v2", "_doc", "p-1")
		if err != nil {
			t.Fatalf("FetchByID: %v", err)
		}
		if doc.ID != "p-1" || doc.Version != 2 {
			t.Errorf("doc = %+v", doc)
		}
	})

	t.Run("404 maps to not found", func(t *testing.T) {
		client := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, `{"found": false}`, http.StatusNotFound)
		})
		_, err := client.FetchByID(context.Background(), "products_v2", "_doc", "missing")
		if !errors.Is(err, backend.ErrDocNotFound) {
			t.Errorf("error = %v, want ErrDocNotFound", err)
		}
	})

	t.Run("found false maps to not found", func(t *testing.T) {
		client := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"found": false}`))
		})
		_, err := client.FetchByID(context.Background(), "products_v2", "_doc", "missing")
		if !errors.Is(err, backend.ErrDocNotFound) {
			t.Errorf("error = %v, want ErrDocNotFound", err)
		}
	})
}

func TestScrollAll(t *testing.T) {
	var calls int
	var cleared bool
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodDelete && r.URL.Path == "/_search/scroll":
			cleared = true
			_, _ = w.Write([]byte(`{}`))
		case strings.HasSuffix(r.URL.Path, "/_search"):
			if r.URL.Query().Get("scroll") == "" {
				t.Error("scroll open without keep-alive")
			}
			calls++
			_, _ = w.Write([]byte(`{"_scroll_id": "s1", "hits": {"total": 3, "hits": [
				{"_id": "a"}, {"_id": "b"}
			]}}`))
		case r.URL.Path == "/_search/scroll":
			calls++
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["scroll_id"] != "s1" {
				t.Errorf("scroll_id = %v", body["scroll_id"])
			}
			if calls == 2 {
				_, _ = w.Write([]byte(`{"_scroll_id": "s1", "hits": {"total": 3, "hits": [{"_id": "c"}]}}`))
			} else {
				_, _ = w.Write([]byte(`{"_scroll_id": "s1", "hits": {"total": 3, "hits": []}}`))
			}
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})

	var ids []string
	err := client.ScrollAll(context.Background(), &backend.SearchRequest{
		Index: "products_v2", DocType: "_doc", Query: backend.MatchAll(),
	}, 2, func(docs []backend.Doc) error {
		for _, d := range docs {
			ids = append(ids, d.ID)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("ScrollAll: %v", err)
	}
	if len(ids) != 3 || ids[0] != "a" || ids[2] != "c" {
		t.Errorf("ids = %v, want [a b c]", ids)
	}
	if !cleared {
		t.Error("scroll context not cleared")
	}
}

func TestScrollAll_PageErrorStops(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			_, _ = w.Write([]byte(`{}`))
			return
		}
		_, _ = w.Write([]byte(`{"_scroll_id": "s1", "hits": {"total": 2, "hits": [{"_id": "a"}]}}`))
	})

	boom := errors.New("sink full")
	err := client.ScrollAll(context.Background(), &backend.SearchRequest{
		Index: "idx", DocType: "_doc",
	}, 10, func([]backend.Doc) error { return boom })
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want the page callback error", err)
	}
}

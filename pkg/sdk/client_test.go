package searchdex

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(append([]Option{WithBaseURL(srv.URL)}, opts...)...)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return c
}

func TestNew_RequiresBaseURL(t *testing.T) {
	if _, err := New(); err == nil {
		t.Error("New() without base URL succeeded, want error")
	}
}

func TestSearch_Single(t *testing.T) {
	var gotBody map[string]any
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/search" {
			t.Errorf("request = %s %s, want POST /api/v1/search", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{{"id": "p-1", "title": "Camp Chair"}},
			"total": 1,
			"took":  12,
		})
	})

	q := NewQuery("chair").Types("products").Filter("color", []string{"red", "blue"}).Page(2, 25)
	resp, err := c.Search(context.Background(), q)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if resp.Grouped != nil {
		t.Error("Search() returned grouped response, want single")
	}
	if resp.Result == nil || resp.Result.Total != 1 || len(resp.Result.Items) != 1 {
		t.Errorf("Search() result = %+v", resp.Result)
	}

	if gotBody["query"] != "chair" {
		t.Errorf("payload query = %v, want chair", gotBody["query"])
	}
	if gotBody["page"] != float64(2) || gotBody["count"] != float64(25) {
		t.Errorf("payload page/count = %v/%v", gotBody["page"], gotBody["count"])
	}
	types, _ := gotBody["types"].([]any)
	if len(types) != 1 || types[0] != "products" {
		t.Errorf("payload types = %v", gotBody["types"])
	}
	filters, _ := gotBody["filters"].(map[string]any)
	if _, ok := filters["color"]; !ok {
		t.Errorf("payload filters = %v, want color key", gotBody["filters"])
	}
}

func TestSearch_Grouped(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": map[string]any{
				"products": map[string]any{"items": []map[string]any{{"id": "p-1"}}, "total": 1},
				"guides":   map[string]any{"items": []map[string]any{}, "total": 0},
			},
			"total": 1,
			"took":  8,
		})
	})

	resp, err := c.Search(context.Background(), NewQuery("chair"))
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if resp.Result != nil {
		t.Error("Search() returned single response, want grouped")
	}
	if resp.Grouped == nil || len(resp.Grouped.Results) != 2 {
		t.Fatalf("Search() grouped = %+v", resp.Grouped)
	}
	if resp.Grouped.Results["products"].Total != 1 {
		t.Errorf("products total = %d, want 1", resp.Grouped.Results["products"].Total)
	}
}

func TestSearch_FlatFormatInPayload(t *testing.T) {
	var gotBody map[string]any
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{"items": []map[string]any{}, "total": 0})
	})

	if _, err := c.Search(context.Background(), NewQuery("chair").Flat().NoFuzzy()); err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if gotBody["format"] != "flat" {
		t.Errorf("payload format = %v, want flat", gotBody["format"])
	}
	if gotBody["fuzzy"] != false {
		t.Errorf("payload fuzzy = %v, want false", gotBody["fuzzy"])
	}
}

func TestAPIKeyHeader(t *testing.T) {
	var gotAuth string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(map[string]any{"items": []map[string]any{}})
	}, WithAPIKey("sk-test"))

	if _, err := c.Autocomplete(context.Background(), "cha"); err != nil {
		t.Fatalf("Autocomplete() error: %v", err)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("Authorization = %q, want Bearer sk-test", gotAuth)
	}
}

func TestAutocomplete_Params(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/autocomplete" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("q"); got != "cha" {
			t.Errorf("q = %q, want cha", got)
		}
		if got := r.URL.Query().Get("type"); got != "products,guides" {
			t.Errorf("type = %q, want products,guides", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{{"id": "p-1"}},
			"total": 1,
		})
	})

	res, err := c.Autocomplete(context.Background(), "cha", "products", "guides")
	if err != nil {
		t.Fatalf("Autocomplete() error: %v", err)
	}
	if res.Total != 1 {
		t.Errorf("Total = %d, want 1", res.Total)
	}
}

func TestSections(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/sections" || r.URL.Query().Get("q") != "buy audi" {
			t.Errorf("request = %s?%s", r.URL.Path, r.URL.RawQuery)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"sections": []map[string]any{
				{"name": "models", "title": "Models", "result_type": "vehicles", "result": map[string]any{"total": 3}},
			},
		})
	})

	sections, err := c.Sections(context.Background(), "buy audi")
	if err != nil {
		t.Fatalf("Sections() error: %v", err)
	}
	if len(sections) != 1 || sections[0].Name != "models" || sections[0].Result.Total != 3 {
		t.Errorf("Sections() = %+v", sections)
	}
}

func TestGetDocument_NotFound(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{"code": "not_found", "message": "no such document"})
	})

	_, err := c.GetDocument(context.Background(), "products", "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetDocument() error = %v, want ErrNotFound", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != "not_found" {
		t.Errorf("GetDocument() error = %v, want APIError with code not_found", err)
	}
}

func TestErrorSentinels(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, ErrUnauthorized},
		{"validation", http.StatusBadRequest, ErrValidation},
		{"not found", http.StatusNotFound, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_ = json.NewEncoder(w).Encode(map[string]any{"code": "x", "message": "boom"})
			})
			_, err := c.Autocomplete(context.Background(), "cha")
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestError_NonJSONBody(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	})

	_, err := c.Autocomplete(context.Background(), "cha")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want APIError", err)
	}
	if apiErr.Status != http.StatusBadGateway || apiErr.Code != "unknown" {
		t.Errorf("APIError = %+v, want status 502 code unknown", apiErr)
	}
}

func TestHealth_Degraded(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" {
			t.Errorf("path = %s, want /healthz", r.URL.Path)
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  "degraded",
			"types":   3,
			"checks":  map[string]string{"backend": "connection refused"},
			"version": "1.4.0",
		})
	})

	hs, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health() error: %v", err)
	}
	if hs.Status != "degraded" || hs.Types != 3 || hs.Checks["backend"] != "connection refused" {
		t.Errorf("Health() = %+v", hs)
	}
	if hs.Version != "1.4.0" {
		t.Errorf("Version = %q, want 1.4.0", hs.Version)
	}
}

func TestFormSearch_Path(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/types/products/form-search" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"items": []map[string]any{}, "total": 0})
	})

	if _, err := c.FormSearch(context.Background(), "products", NewQuery("").Filter("brand", "Acme")); err != nil {
		t.Fatalf("FormSearch() error: %v", err)
	}
}

func TestTermVectors_FieldsParam(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("fields"); got != "title,description" {
			t.Errorf("fields = %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"term_vectors": map[string]any{}})
	})

	if _, err := c.TermVectors(context.Background(), "products", "p-1", []string{"title", "description"}); err != nil {
		t.Fatalf("TermVectors() error: %v", err)
	}
}

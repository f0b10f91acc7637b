package chi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestBearerAuthMiddleware(t *testing.T) {
	handler := BearerAuthMiddleware([]string{"secret-key"})(okHandler())

	tests := []struct {
		name       string
		path       string
		authHeader string
		wantStatus int
	}{
		{"valid key", "/api/v1/search", "Bearer secret-key", http.StatusOK},
		{"missing header", "/api/v1/search", "", http.StatusUnauthorized},
		{"wrong scheme", "/api/v1/search", "Basic secret-key", http.StatusUnauthorized},
		{"invalid key", "/api/v1/search", "Bearer wrong", http.StatusUnauthorized},
		{"health exempt", "/healthz", "", http.StatusOK},
		{"metrics exempt", "/metrics", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestBearerAuthMiddleware_Disabled(t *testing.T) {
	handler := BearerAuthMiddleware(nil)(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/search", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want pass-through with no keys", rec.Code)
	}
}

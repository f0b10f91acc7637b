package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/octoseek/searchdex/internal/domain"
	"github.com/octoseek/searchdex/internal/domain/search/request"
	"github.com/octoseek/searchdex/internal/domain/search/result"
	healthuc "github.com/octoseek/searchdex/internal/usecase/health"
	intentuc "github.com/octoseek/searchdex/internal/usecase/intent"
	searchuc "github.com/octoseek/searchdex/internal/usecase/search"
	suggestuc "github.com/octoseek/searchdex/internal/usecase/suggest"
	"github.com/octoseek/searchdex/internal/version"
)

const exportPageSize = 500

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server exposes the search API over chi.
type Server struct {
	search        *searchuc.Service
	suggest       *suggestuc.Service
	intent        *intentuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. The intent service may be nil when
// the tenant has no section cascade configured.
func NewServer(
	search *searchuc.Service,
	suggest *suggestuc.Service,
	intent *intentuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:  search,
		suggest: suggest,
		intent:  intent,
		health:  health,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		validationHandler,
		sentinelHandler(domain.ErrUnknownType, http.StatusNotFound, "unknown_type"),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, "not_found"),
		sentinelHandler(domain.ErrConfiguration, http.StatusInternalServerError, "configuration_error"),
	}
	return s
}

// Routes registers all API routes on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/search", s.SearchGet)
		r.Post("/search", s.SearchPost)
		r.Get("/autocomplete", s.Autocomplete)
		r.Get("/suggested-queries", s.SuggestedQueries)
		r.Get("/browse", s.Browse)
		r.Get("/sections", s.Sections)

		r.Route("/types/{type}", func(r chi.Router) {
			r.Post("/form-search", s.FormSearch)
			r.Get("/export", s.Export)
			r.Route("/documents/{id}", func(r chi.Router) {
				r.Get("/", s.GetDocument)
				r.Post("/explain", s.Explain)
				r.Get("/term-vectors", s.TermVectors)
			})
		})
	})

	r.Get("/healthz", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// SearchGet handles GET /api/v1/search.
func (s *Server) SearchGet(w http.ResponseWriter, r *http.Request) {
	req, err := requestFromQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	s.runSearch(w, r, &req)
}

// SearchPost handles POST /api/v1/search with a JSON body.
func (s *Server) SearchPost(w http.ResponseWriter, r *http.Request) {
	var body searchBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	req, err := body.toRequest()
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	s.runSearch(w, r, &req)
}

func (s *Server) runSearch(w http.ResponseWriter, r *http.Request, req *request.Request) {
	resp, err := s.search.Search(r.Context(), headersFrom(r), req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	switch {
	case resp.Single != nil:
		writeJSON(w, http.StatusOK, resultToDTO(resp.Single))
	case resp.Grouped != nil:
		writeJSON(w, http.StatusOK, groupedToDTO(resp.Grouped))
	default:
		writeJSON(w, http.StatusOK, resultDTO{Items: []map[string]any{}})
	}
}

// Autocomplete handles GET /api/v1/autocomplete.
func (s *Server) Autocomplete(w http.ResponseWriter, r *http.Request) {
	req, err := requestFromQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	res, err := s.suggest.Autocomplete(r.Context(), headersFrom(r), &req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resultToDTO(&res))
}

// SuggestedQueries handles GET /api/v1/suggested-queries.
func (s *Server) SuggestedQueries(w http.ResponseWriter, r *http.Request) {
	req, err := requestFromQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	res, err := s.suggest.SuggestedQueries(r.Context(), headersFrom(r), &req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resultToDTO(&res))
}

// Browse handles GET /api/v1/browse.
func (s *Server) Browse(w http.ResponseWriter, r *http.Request) {
	req, err := requestFromQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	grouped, err := s.search.BrowseAll(r.Context(), headersFrom(r), &req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, groupedToDTO(&grouped))
}

// Sections handles GET /api/v1/sections.
func (s *Server) Sections(w http.ResponseWriter, r *http.Request) {
	if s.intent == nil {
		writeError(w, http.StatusNotImplemented, "not_implemented", "section cascade is not configured")
		return
	}
	req, err := requestFromQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	sections, err := s.intent.Sections(r.Context(), headersFrom(r), &req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sections": sectionsToDTO(sections)})
}

// FormSearch handles POST /api/v1/types/{type}/form-search.
func (s *Server) FormSearch(w http.ResponseWriter, r *http.Request) {
	var body searchBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	req, err := body.toRequest()
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	res, err := s.search.FormSearch(r.Context(), headersFrom(r), chi.URLParam(r, "type"), &req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resultToDTO(&res))
}

// Export handles GET /api/v1/types/{type}/export. Documents stream out as
// newline-delimited JSON.
func (s *Server) Export(w http.ResponseWriter, r *http.Request) {
	req, err := requestFromQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	enc := json.NewEncoder(w)
	flusher, _ := w.(http.Flusher)

	streamErr := s.search.View(r.Context(), headersFrom(r), chi.URLParam(r, "type"), &req, exportPageSize,
		func(hits []result.Hit) error {
			for i := range hits {
				if err := enc.Encode(hits[i].Source()); err != nil {
					return err
				}
			}
			if flusher != nil {
				flusher.Flush()
			}
			return nil
		})
	if streamErr != nil {
		// Headers are already out; all we can do is log and cut the stream.
		s.logger.Error("export stream failed", zap.Error(streamErr))
	}
}

// GetDocument handles GET /api/v1/types/{type}/documents/{id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	hit, err := s.search.GetByID(r.Context(), chi.URLParam(r, "type"), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hit.Source())
}

// Explain handles POST /api/v1/types/{type}/documents/{id}/explain.
func (s *Server) Explain(w http.ResponseWriter, r *http.Request) {
	var body searchBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	req, err := body.toRequest()
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	out, err := s.search.Explain(r.Context(), chi.URLParam(r, "type"), chi.URLParam(r, "id"), &req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// TermVectors handles GET /api/v1/types/{type}/documents/{id}/term-vectors.
func (s *Server) TermVectors(w http.ResponseWriter, r *http.Request) {
	var fields []string
	if raw := r.URL.Query().Get("fields"); raw != "" {
		fields = strings.Split(raw, ",")
	}
	out, err := s.search.TermVectors(r.Context(), chi.URLParam(r, "type"), chi.URLParam(r, "id"), fields)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HealthCheck handles GET /healthz.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, map[string]any{
		"status":  report.Status,
		"types":   report.Types,
		"checks":  report.Checks,
		"version": version.Version,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// headersFrom picks the request headers carried into operation events.
func headersFrom(r *http.Request) map[string]string {
	headers := make(map[string]string, 3)
	for _, name := range []string{"X-Request-Id", "User-Agent", "Referer"} {
		if v := r.Header.Get(name); v != "" {
			headers[name] = v
		}
	}
	return headers
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

// validationHandler handles ErrValidation with the offending field attached.
func validationHandler(w http.ResponseWriter, err error) bool {
	if !errors.Is(err, domain.ErrValidation) {
		return false
	}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Code:    ve.Code,
			Message: "validation failed",
			Field:   ve.Field,
		})
		return true
	}
	writeError(w, http.StatusBadRequest, "validation_failed", "validation failed")
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}

package search

import (
	"context"
	"fmt"

	"github.com/octoseek/searchdex/internal/domain"
	"github.com/octoseek/searchdex/internal/domain/search/request"
	"github.com/octoseek/searchdex/internal/domain/search/result"
	"github.com/octoseek/searchdex/internal/eventsink"
)

// Response is the outcome of a search operation: a single-type result or a
// grouped multi-type result, never both.
type Response struct {
	Single  *result.Result
	Grouped *result.Grouped
}

// Service orchestrates search operations across entity types.
type Service struct {
	repo   Repository
	types  TypeResolver
	merger Merger
	sink   Sink
}

// New creates a search service.
func New(repo Repository, types TypeResolver, merger Merger, sink Sink) *Service {
	return &Service{repo: repo, types: types, merger: merger, sink: sink}
}

// Search runs the main search operation. A single named type yields one
// result; a wildcard or list fans out as one batched round trip and merges
// per type, or into a flat result set when the flat format is requested.
func (s *Service) Search(ctx context.Context, headers map[string]string, req *request.Request) (Response, error) {
	resp, err := s.search(ctx, req)
	s.notify(ctx, "search", headers, req, resp, err)
	return resp, domain.WrapInternal(err)
}

func (s *Service) search(ctx context.Context, req *request.Request) (Response, error) {
	types, err := s.types.Resolve(req.Types())
	if err != nil {
		return Response{}, err
	}
	if len(types) == 0 {
		return Response{}, fmt.Errorf("%w: empty registry", domain.ErrConfiguration)
	}

	if len(types) == 1 && len(req.Types()) == 1 && req.Types()[0] != "*" {
		res, err := s.repo.SearchType(ctx, types[0], req)
		if err != nil {
			return Response{}, err
		}
		return Response{Single: &res}, nil
	}

	if req.Format() == request.FormatFlat {
		res, err := s.repo.SearchFlat(ctx, types, req)
		if err != nil {
			return Response{}, err
		}
		return Response{Single: &res}, nil
	}

	results, err := s.repo.SearchBatch(ctx, types, req)
	if err != nil {
		return Response{}, err
	}
	grouped := s.merger.MergeGrouped(req, types, results)
	return Response{Grouped: &grouped}, nil
}

// FormSearch runs a filter-driven single-type listing: the free-text query
// is ignored and results are shaped purely by filters, facets and sort.
func (s *Service) FormSearch(ctx context.Context, headers map[string]string, typeID string, req *request.Request) (result.Result, error) {
	t, ok := s.types.Get(typeID)
	if !ok {
		return result.Result{}, fmt.Errorf("%w: %q", domain.ErrUnknownType, typeID)
	}
	listing := req.WithoutText()
	res, err := s.repo.SearchType(ctx, t, &listing)
	s.notify(ctx, "formSearch", headers, req, Response{Single: &res}, err)
	return res, domain.WrapInternal(err)
}

// BrowseAll lists every type with no text constraint, merged with cross-type
// pagination.
func (s *Service) BrowseAll(ctx context.Context, headers map[string]string, req *request.Request) (result.Grouped, error) {
	types, err := s.types.Resolve(nil)
	if err != nil {
		return result.Grouped{}, domain.WrapInternal(err)
	}
	listing := req.WithoutText()
	results, err := s.repo.SearchBatch(ctx, types, &listing)
	if err != nil {
		s.notify(ctx, "browseAll", headers, req, Response{}, err)
		return result.Grouped{}, domain.WrapInternal(err)
	}
	grouped := s.merger.MergeGrouped(&listing, types, results)
	s.notify(ctx, "browseAll", headers, req, Response{Grouped: &grouped}, nil)
	return grouped, nil
}

// GetByID fetches one normalized document.
func (s *Service) GetByID(ctx context.Context, typeID, id string) (result.Hit, error) {
	t, ok := s.types.Get(typeID)
	if !ok {
		return result.Hit{}, fmt.Errorf("%w: %q", domain.ErrUnknownType, typeID)
	}
	hit, err := s.repo.FetchByID(ctx, t, id)
	return hit, domain.WrapInternal(err)
}

// Explain returns the backend's scoring explanation for one document
// against the compiled query.
func (s *Service) Explain(ctx context.Context, typeID, id string, req *request.Request) (map[string]any, error) {
	t, ok := s.types.Get(typeID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownType, typeID)
	}
	out, err := s.repo.Explain(ctx, t, req, id)
	return out, domain.WrapInternal(err)
}

// TermVectors returns term statistics for one document.
func (s *Service) TermVectors(ctx context.Context, typeID, id string, fields []string) (map[string]any, error) {
	t, ok := s.types.Get(typeID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownType, typeID)
	}
	out, err := s.repo.TermVectors(ctx, t, id, fields)
	return out, domain.WrapInternal(err)
}

// View exports every document of a type matching the request's filters,
// streamed page by page through onHits.
func (s *Service) View(ctx context.Context, headers map[string]string, typeID string, req *request.Request, pageSize int, onHits func([]result.Hit) error) error {
	t, ok := s.types.Get(typeID)
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownType, typeID)
	}
	listing := req.WithoutText()
	err := s.repo.Scroll(ctx, t, &listing, pageSize, onHits)
	s.notify(ctx, "view", headers, req, Response{}, err)
	return domain.WrapInternal(err)
}

// notify builds and dispatches the operation event.
func (s *Service) notify(ctx context.Context, op string, headers map[string]string, req *request.Request, resp Response, err error) {
	ev := eventsink.NewEvent(op)
	ev.Headers = headers
	ev.Text = req.Text()
	ev.Types = req.Types()
	switch {
	case resp.Single != nil:
		ev.Total = resp.Single.Total()
		ev.Took = resp.Single.Took()
	case resp.Grouped != nil:
		ev.Total = resp.Grouped.Total
		ev.Took = resp.Grouped.Took
	}
	if err != nil {
		ev.Err = err.Error()
	}
	s.sink.Notify(ctx, ev)
}

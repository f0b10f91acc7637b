package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/octoseek/searchdex/internal/backend"
	"github.com/octoseek/searchdex/internal/domain"
	"github.com/octoseek/searchdex/internal/domain/registry"
	"github.com/octoseek/searchdex/internal/domain/search/request"
	"github.com/octoseek/searchdex/internal/domain/search/result"
)

// gateway is the consumer interface for backend execution (ISP).
type gateway interface {
	Execute(ctx context.Context, req *backend.SearchRequest) (*backend.SearchResponse, error)
	ExecuteBatch(ctx context.Context, reqs []*backend.SearchRequest) ([]*backend.SearchResponse, error)
	FetchByID(ctx context.Context, index, docType, id string) (*backend.Doc, error)
	Explain(ctx context.Context, index, docType, id string, query backend.M) (map[string]any, error)
	TermVectors(ctx context.Context, index, docType, id string, fields []string) (map[string]any, error)
	ScrollAll(ctx context.Context, req *backend.SearchRequest, pageSize int, onPage func([]backend.Doc) error) error
}

// Repo compiles requests, executes them through the gateway and processes
// the raw responses.
type Repo struct {
	gw        gateway
	reg       *registry.Registry
	compiler  *Compiler
	processor *Processor
}

// New creates a search repository.
func New(gw gateway, reg *registry.Registry, compiler *Compiler, processor *Processor) *Repo {
	return &Repo{gw: gw, reg: reg, compiler: compiler, processor: processor}
}

// Compiler exposes the repository's compiler for diagnostic paths.
func (r *Repo) Compiler() *Compiler { return r.compiler }

// SearchType runs one compiled query for a single type.
func (r *Repo) SearchType(ctx context.Context, t registry.TypeConfig, req *request.Request) (result.Result, error) {
	resp, err := r.gw.Execute(ctx, r.compiler.Compile(t, req))
	if err != nil {
		return result.Result{}, fmt.Errorf("search %s: %w", t.Type, err)
	}
	return r.processor.Process(t, req, resp), nil
}

// SearchBatch compiles one query per type before any I/O, submits them as a
// single batch and processes each response. Responses correlate to types by
// position; a count mismatch fails the whole request rather than mis-merging.
func (r *Repo) SearchBatch(ctx context.Context, types []registry.TypeConfig, req *request.Request) ([]result.Result, error) {
	reqs := make([]*backend.SearchRequest, len(types))
	for i, t := range types {
		reqs[i] = r.compiler.Compile(t, req)
	}
	resps, err := r.gw.ExecuteBatch(ctx, reqs)
	if err != nil {
		return nil, fmt.Errorf("batch search: %w", err)
	}
	if len(resps) != len(types) {
		return nil, fmt.Errorf("batch search: %d responses for %d types", len(resps), len(types))
	}
	results := make([]result.Result, len(types))
	for i, t := range types {
		results[i] = r.processor.Process(t, req, resps[i])
	}
	return results, nil
}

// SearchFlat runs the single-envelope flat-mode query across all types.
func (r *Repo) SearchFlat(ctx context.Context, types []registry.TypeConfig, req *request.Request) (result.Result, error) {
	if r.reg.FlatIndex() == "" {
		return result.Result{}, domain.NewValidation("flat_mode_unavailable", "format")
	}
	resp, err := r.gw.Execute(ctx, r.compiler.CompileFlat(types, req))
	if err != nil {
		return result.Result{}, fmt.Errorf("flat search: %w", err)
	}
	return r.processor.ProcessFlat(r.reg, req, resp), nil
}

// SearchSuggest runs the text query against the type's suggestion index,
// skipping facets, summaries and configured sorts.
func (r *Repo) SearchSuggest(ctx context.Context, t registry.TypeConfig, req *request.Request) (result.Result, error) {
	if t.SuggestIndex == "" {
		return result.Result{}, nil
	}
	env := r.compiler.Compile(t, req)
	env.Index = t.SuggestIndex
	env.PostFilter = nil
	env.Sort = nil
	env.Aggs = nil
	resp, err := r.gw.Execute(ctx, env)
	if err != nil {
		return result.Result{}, fmt.Errorf("suggest %s: %w", t.Type, err)
	}
	return r.processor.Process(t, req, resp), nil
}

// SuggestBatch runs the suggestion query for every type carrying a
// suggestion index, as one batched round trip.
func (r *Repo) SuggestBatch(ctx context.Context, types []registry.TypeConfig, req *request.Request) ([]registry.TypeConfig, []result.Result, error) {
	var eligible []registry.TypeConfig
	var reqs []*backend.SearchRequest
	for _, t := range types {
		if t.SuggestIndex == "" {
			continue
		}
		env := r.compiler.Compile(t, req)
		env.Index = t.SuggestIndex
		env.PostFilter = nil
		env.Sort = nil
		env.Aggs = nil
		eligible = append(eligible, t)
		reqs = append(reqs, env)
	}
	if len(reqs) == 0 {
		return nil, nil, nil
	}
	resps, err := r.gw.ExecuteBatch(ctx, reqs)
	if err != nil {
		return nil, nil, fmt.Errorf("suggest batch: %w", err)
	}
	if len(resps) != len(reqs) {
		return nil, nil, fmt.Errorf("suggest batch: %d responses for %d requests", len(resps), len(reqs))
	}
	results := make([]result.Result, len(eligible))
	for i, t := range eligible {
		results[i] = r.processor.Process(t, req, resps[i])
	}
	return eligible, results, nil
}

// SearchPairs batches independently-shaped queries, one per type/request
// pair, in a single round trip. Responses correlate positionally.
func (r *Repo) SearchPairs(ctx context.Context, types []registry.TypeConfig, pairReqs []request.Request) ([]result.Result, error) {
	reqs := make([]*backend.SearchRequest, len(types))
	for i := range types {
		reqs[i] = r.compiler.Compile(types[i], &pairReqs[i])
	}
	resps, err := r.gw.ExecuteBatch(ctx, reqs)
	if err != nil {
		return nil, fmt.Errorf("pair batch: %w", err)
	}
	if len(resps) != len(types) {
		return nil, fmt.Errorf("pair batch: %d responses for %d requests", len(resps), len(types))
	}
	results := make([]result.Result, len(types))
	for i := range types {
		results[i] = r.processor.Process(types[i], &pairReqs[i], resps[i])
	}
	return results, nil
}

// FetchByID retrieves and normalizes a single document.
func (r *Repo) FetchByID(ctx context.Context, t registry.TypeConfig, id string) (result.Hit, error) {
	doc, err := r.gw.FetchByID(ctx, t.Index, t.DocType, id)
	if err != nil {
		if errors.Is(err, backend.ErrDocNotFound) {
			return result.Hit{}, fmt.Errorf("%w: %s/%s", domain.ErrNotFound, t.Type, id)
		}
		return result.Hit{}, fmt.Errorf("fetch %s/%s: %w", t.Type, id, err)
	}
	return r.processor.normalizeHit(t, *doc), nil
}

// Explain returns the backend's scoring explanation for a document against
// the compiled query.
func (r *Repo) Explain(ctx context.Context, t registry.TypeConfig, req *request.Request, id string) (map[string]any, error) {
	env := r.compiler.Compile(t, req)
	out, err := r.gw.Explain(ctx, t.Index, t.DocType, id, env.Query)
	if err != nil {
		return nil, fmt.Errorf("explain %s/%s: %w", t.Type, id, err)
	}
	return out, nil
}

// TermVectors returns term statistics for a document.
func (r *Repo) TermVectors(ctx context.Context, t registry.TypeConfig, id string, fields []string) (map[string]any, error) {
	out, err := r.gw.TermVectors(ctx, t.Index, t.DocType, id, fields)
	if err != nil {
		return nil, fmt.Errorf("termvectors %s/%s: %w", t.Type, id, err)
	}
	return out, nil
}

// Scroll exports every document matching the request's filters, page by
// page, normalized like search hits.
func (r *Repo) Scroll(ctx context.Context, t registry.TypeConfig, req *request.Request, pageSize int, onHits func([]result.Hit) error) error {
	env := r.compiler.Compile(t, req)
	env.Aggs = nil
	env.Sort = nil
	err := r.gw.ScrollAll(ctx, env, pageSize, func(docs []backend.Doc) error {
		return onHits(r.processor.NormalizeHits(t, docs))
	})
	if err != nil {
		return fmt.Errorf("scroll %s: %w", t.Type, err)
	}
	return nil
}

package search

import (
	"context"

	"github.com/octoseek/searchdex/internal/domain/registry"
	"github.com/octoseek/searchdex/internal/domain/search/request"
	"github.com/octoseek/searchdex/internal/domain/search/result"
	"github.com/octoseek/searchdex/internal/eventsink"
)

// Repository defines the backend contract for search operations.
type Repository interface {
	SearchType(ctx context.Context, t registry.TypeConfig, req *request.Request) (result.Result, error)
	SearchBatch(ctx context.Context, types []registry.TypeConfig, req *request.Request) ([]result.Result, error)
	SearchFlat(ctx context.Context, types []registry.TypeConfig, req *request.Request) (result.Result, error)
	FetchByID(ctx context.Context, t registry.TypeConfig, id string) (result.Hit, error)
	Explain(ctx context.Context, t registry.TypeConfig, req *request.Request, id string) (map[string]any, error)
	TermVectors(ctx context.Context, t registry.TypeConfig, id string, fields []string) (map[string]any, error)
	Scroll(ctx context.Context, t registry.TypeConfig, req *request.Request, pageSize int, onHits func([]result.Hit) error) error
}

// TypeResolver resolves type selectors against the registry.
type TypeResolver interface {
	Resolve(selector []string) ([]registry.TypeConfig, error)
	Get(id string) (registry.TypeConfig, bool)
}

// Merger combines per-type results into one grouped result.
type Merger interface {
	MergeGrouped(req *request.Request, types []registry.TypeConfig, results []result.Result) result.Grouped
}

// Sink receives operation events, fire and forget.
type Sink = eventsink.Sink

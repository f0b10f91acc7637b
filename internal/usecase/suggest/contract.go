package suggest

import (
	"context"

	"github.com/octoseek/searchdex/internal/domain/registry"
	"github.com/octoseek/searchdex/internal/domain/search/request"
	"github.com/octoseek/searchdex/internal/domain/search/result"
	"github.com/octoseek/searchdex/internal/eventsink"
)

// Repository defines the backend contract for suggestion queries.
type Repository interface {
	// SuggestBatch queries the suggestion index of every eligible type in
	// one round trip, returning the eligible types and their results in
	// matching order.
	SuggestBatch(ctx context.Context, types []registry.TypeConfig, req *request.Request) ([]registry.TypeConfig, []result.Result, error)
}

// TypeResolver resolves type selectors against the registry.
type TypeResolver interface {
	Resolve(selector []string) ([]registry.TypeConfig, error)
}

// Sink receives operation events, fire and forget.
type Sink = eventsink.Sink

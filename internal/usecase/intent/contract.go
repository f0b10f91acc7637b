package intent

import (
	"context"

	domintent "github.com/octoseek/searchdex/internal/domain/intent"
	"github.com/octoseek/searchdex/internal/domain/registry"
	"github.com/octoseek/searchdex/internal/domain/search/request"
	"github.com/octoseek/searchdex/internal/domain/search/result"
	"github.com/octoseek/searchdex/internal/eventsink"
)

// Prober issues the entity-recognition lookups.
type Prober interface {
	ProbeEntities(ctx context.Context, levels [3]domintent.Level, tokens []string) ([3]domintent.Probe, error)
}

// SectionSearcher executes the composed section queries as one batch.
// Results correlate positionally.
type SectionSearcher interface {
	SearchPairs(ctx context.Context, types []registry.TypeConfig, reqs []request.Request) ([]result.Result, error)
}

// TypeResolver resolves section type ids against the registry.
type TypeResolver interface {
	Get(id string) (registry.TypeConfig, bool)
}

// Strategy is the per-tenant cascade behavior, selected once at startup.
type Strategy interface {
	// Levels returns the three probe targets, coarse to specific.
	Levels() [3]domintent.Level
	// AdjustQueryText applies tenant-specific query text fixes.
	AdjustQueryText(text string) string
	// ComposeSections plans the state-specific section queries, in order.
	ComposeSections(state domintent.State, probes [3]domintent.Probe, req *request.Request) []domintent.SectionPlan
}

// Sink receives operation events, fire and forget.
type Sink = eventsink.Sink

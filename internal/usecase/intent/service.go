package intent

import (
	"context"
	"fmt"

	"github.com/octoseek/searchdex/internal/domain"
	domintent "github.com/octoseek/searchdex/internal/domain/intent"
	"github.com/octoseek/searchdex/internal/domain/registry"
	"github.com/octoseek/searchdex/internal/domain/search/request"
	"github.com/octoseek/searchdex/internal/domain/search/result"
	"github.com/octoseek/searchdex/internal/eventsink"
	intentrepo "github.com/octoseek/searchdex/internal/repository/intent"
)

// Service runs the intent cascade: probe entity-recognition signals,
// classify, and compose a state-specific section list instead of a generic
// multi-search. At most two batched round trips per request: the probe
// batch, then the compose batch.
type Service struct {
	prober   Prober
	sections SectionSearcher
	types    TypeResolver
	strategy Strategy
	sink     Sink
}

// New creates an intent cascade service.
func New(prober Prober, sections SectionSearcher, types TypeResolver, strategy Strategy, sink Sink) *Service {
	return &Service{prober: prober, sections: sections, types: types, strategy: strategy, sink: sink}
}

// Sections runs the cascade for a request and returns the composed section
// list. Sections with zero results are dropped; relative order is kept.
func (s *Service) Sections(ctx context.Context, headers map[string]string, req *request.Request) ([]result.Section, error) {
	sections, err := s.compose(ctx, req)

	ev := eventsink.NewEvent("intentSearch")
	ev.Headers = headers
	ev.Text = req.Text()
	for _, sec := range sections {
		ev.Total += sec.Result.Total()
		if sec.Result.Took() > ev.Took {
			ev.Took = sec.Result.Took()
		}
	}
	if err != nil {
		ev.Err = err.Error()
	}
	s.sink.Notify(ctx, ev)

	return sections, domain.WrapInternal(err)
}

func (s *Service) compose(ctx context.Context, req *request.Request) ([]result.Section, error) {
	text := s.strategy.AdjustQueryText(req.Text())
	tokens := intentrepo.Tokenize(text)

	probes, err := s.prober.ProbeEntities(ctx, s.strategy.Levels(), tokens)
	if err != nil {
		return nil, err
	}
	state := domintent.Classify(probes)

	adjusted := req.WithText(text)
	plans := s.strategy.ComposeSections(state, probes, &adjusted)
	if len(plans) == 0 {
		return nil, nil
	}

	types := make([]registry.TypeConfig, len(plans))
	reqs := make([]request.Request, len(plans))
	for i, plan := range plans {
		t, ok := s.types.Get(plan.TypeID)
		if !ok {
			return nil, fmt.Errorf("%w: section %q targets %q", domain.ErrConfiguration, plan.Name, plan.TypeID)
		}
		types[i] = t
		reqs[i] = plan.Request
	}

	results, err := s.sections.SearchPairs(ctx, types, reqs)
	if err != nil {
		return nil, err
	}

	sections := make([]result.Section, 0, len(plans))
	for i, plan := range plans {
		if len(results[i].Hits()) == 0 {
			continue
		}
		sections = append(sections, result.Section{
			Name:       plan.Name,
			Title:      plan.Title,
			ResultType: plan.ResultType,
			Result:     results[i],
		})
	}
	return sections, nil
}

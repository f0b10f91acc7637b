package suggest

import (
	"context"

	"github.com/octoseek/searchdex/internal/domain"
	"github.com/octoseek/searchdex/internal/domain/search/request"
	"github.com/octoseek/searchdex/internal/domain/search/result"
	"github.com/octoseek/searchdex/internal/eventsink"
)

// Service consolidates suggestion results across types and truncates them at
// the natural relevancy cutoff.
type Service struct {
	repo  Repository
	types TypeResolver
	sink  Sink
	ratio float64
}

// New creates a suggestion service. ratio tunes the deflection cutoff;
// 0 uses the default.
func New(repo Repository, types TypeResolver, sink Sink, ratio float64) *Service {
	if ratio <= 0 {
		ratio = DefaultDeflectionRatio
	}
	return &Service{repo: repo, types: types, sink: sink, ratio: ratio}
}

// Autocomplete merges suggestion hits from every matching type and keeps
// only those above the deflection point.
func (s *Service) Autocomplete(ctx context.Context, headers map[string]string, req *request.Request) (result.Result, error) {
	res, err := s.merged(ctx, req)
	s.notify(ctx, "autocomplete", headers, req, res, err)
	return res, domain.WrapInternal(err)
}

// SuggestedQueries returns ranked query suggestions for the request text,
// same consolidation as autocomplete but without fuzzy matching.
func (s *Service) SuggestedQueries(ctx context.Context, headers map[string]string, req *request.Request) (result.Result, error) {
	exact := req.WithFuzzyOff()
	res, err := s.merged(ctx, &exact)
	s.notify(ctx, "suggestedQueries", headers, req, res, err)
	return res, domain.WrapInternal(err)
}

func (s *Service) merged(ctx context.Context, req *request.Request) (result.Result, error) {
	types, err := s.types.Resolve(req.Types())
	if err != nil {
		return result.Result{}, err
	}
	_, results, err := s.repo.SuggestBatch(ctx, types, req)
	if err != nil {
		return result.Result{}, err
	}

	var hits []result.Hit
	var total int64
	var took int64
	for i := range results {
		hits = append(hits, results[i].Hits()...)
		total += results[i].Total()
		if results[i].Took() > took {
			took = results[i].Took()
		}
	}

	hits = deflect(hits, s.ratio)
	return result.New(hits, nil, nil, total, took, nil, nil), nil
}

func (s *Service) notify(ctx context.Context, op string, headers map[string]string, req *request.Request, res result.Result, err error) {
	ev := eventsink.NewEvent(op)
	ev.Headers = headers
	ev.Text = req.Text()
	ev.Types = req.Types()
	ev.Total = res.Total()
	ev.Took = res.Took()
	if err != nil {
		ev.Err = err.Error()
	}
	s.sink.Notify(ctx, ev)
}

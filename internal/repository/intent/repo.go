package intent

import (
	"context"
	"fmt"

	"github.com/octoseek/searchdex/internal/backend"
	domintent "github.com/octoseek/searchdex/internal/domain/intent"
)

// probeSize bounds how many candidate entities a probe fetches; only the
// total count and the top hit matter.
const probeSize = 3

// gateway is the consumer interface for probe execution (ISP).
type gateway interface {
	ExecuteBatch(ctx context.Context, reqs []*backend.SearchRequest) ([]*backend.SearchResponse, error)
}

// Repo issues entity-recognition probes against the intent sub-indices.
type Repo struct {
	gw gateway
}

// New creates an intent repository.
func New(gw gateway) *Repo {
	return &Repo{gw: gw}
}

// ProbeEntities runs the three level lookups as one batched round trip and
// reports per-level hit totals plus the best-matching entity name.
func (r *Repo) ProbeEntities(ctx context.Context, levels [3]domintent.Level, tokens []string) ([3]domintent.Probe, error) {
	var probes [3]domintent.Probe
	for i, lvl := range levels {
		probes[i] = domintent.Probe{Level: lvl}
	}
	if len(tokens) == 0 {
		return probes, nil
	}

	// Levels without an index are dormant and count as zero hits.
	var reqs []*backend.SearchRequest
	var slots []int
	for i, lvl := range levels {
		if lvl.Index == "" {
			continue
		}
		docType := lvl.DocType
		if docType == "" {
			docType = "_doc"
		}
		reqs = append(reqs, &backend.SearchRequest{
			Index:   lvl.Index,
			DocType: docType,
			Size:    probeSize,
			Query:   suggestionListQuery(lvl.Field, [][]string{tokens}, lvl.Weight),
		})
		slots = append(slots, i)
	}
	if len(reqs) == 0 {
		return probes, nil
	}

	resps, err := r.gw.ExecuteBatch(ctx, reqs)
	if err != nil {
		return probes, fmt.Errorf("intent probe: %w", err)
	}
	if len(resps) != len(reqs) {
		return probes, fmt.Errorf("intent probe: %d responses for %d requests", len(resps), len(reqs))
	}

	for n, resp := range resps {
		i := slots[n]
		probes[i].Total = resp.Hits.Total.Value
		if len(resp.Hits.Hits) > 0 {
			if name, ok := resp.Hits.Hits[0].Source[levels[i].Field].(string); ok {
				probes[i].TopEntity = name
			}
		}
	}
	return probes, nil
}

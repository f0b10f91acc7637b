package suggest

import (
	"sort"

	"github.com/octoseek/searchdex/internal/domain/search/result"
)

// DefaultDeflectionRatio is the score-drop share that marks the deflection
// point. Empirically chosen; override via configuration.
const DefaultDeflectionRatio = 0.50

// deflect truncates a merged suggestion result set at the first sharp score
// drop. Each hit's score is normalized by its importance weight, the
// normalized scores are scanned in descending order, and the first score
// falling to no more than ratio of its predecessor fixes the cutoff at the
// predecessor's value. Hits below the cutoff go; the survivors come back in
// raw-score order. Without a deflection point everything survives.
func deflect(hits []result.Hit, ratio float64) []result.Hit {
	if ratio <= 0 || len(hits) < 2 {
		return hits
	}

	relevancy := make([]float64, len(hits))
	for i := range hits {
		relevancy[i] = hits[i].Score() / hits[i].Weight()
	}

	sorted := append([]float64(nil), relevancy...)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	threshold, found := deflectionPoint(sorted, ratio)
	if !found {
		return hits
	}

	kept := make([]result.Hit, 0, len(hits))
	for i := range hits {
		if relevancy[i] >= threshold {
			kept = append(kept, hits[i])
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Score() > kept[j].Score()
	})
	return kept
}

// deflectionPoint walks descending scores and returns the value preceding
// the first drop to ≤ ratio of its predecessor.
func deflectionPoint(sorted []float64, ratio float64) (float64, bool) {
	prev := sorted[0]
	for _, score := range sorted[1:] {
		if prev > 0 && score/prev <= ratio {
			return prev, true
		}
		prev = score
	}
	return 0, false
}

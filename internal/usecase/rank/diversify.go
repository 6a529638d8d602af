package rank

import (
	"math"

	"github.com/kailas-cloud/pemrank/internal/domain/rank/result"
)

// featureSimilarity is 1 - mean |a_f - b_f| over the feature vector.
func featureSimilarity(a, b result.Features) float64 {
	av, bv := a.Values(), b.Values()
	var sum float64
	for i := range av {
		sum += math.Abs(av[i] - bv[i])
	}
	return clip01(1 - sum/float64(len(av)))
}

// selectMMR greedily picks up to k items by Maximal Marginal Relevance.
// The first pick is the highest score; every later pick maximises
// lambda*score - (1-lambda)*max sim(c, selected).
func selectMMR(items []scored, k int, lambda float64) []scored {
	if k <= 0 || len(items) == 0 {
		return nil
	}
	if k > len(items) {
		k = len(items)
	}

	taken := make([]bool, len(items))
	// maxSim[i] is the running max similarity of item i to anything selected.
	maxSim := make([]float64, len(items))
	picks := make([]scored, 0, k)

	for len(picks) < k {
		best := -1
		var bestVal float64
		for i := range items {
			if taken[i] {
				continue
			}
			val := items[i].score
			if len(picks) > 0 {
				val = lambda*items[i].score - (1-lambda)*maxSim[i]
			}
			if best < 0 || better(&items[i], &items[best], val, bestVal) {
				best, bestVal = i, val
			}
		}

		taken[best] = true
		picks = append(picks, items[best])
		for i := range items {
			if taken[i] {
				continue
			}
			if s := featureSimilarity(items[i].features, items[best].features); s > maxSim[i] {
				maxSim[i] = s
			}
		}
	}
	return picks
}

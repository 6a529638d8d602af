package rank

import (
	"sort"

	"github.com/kailas-cloud/pemrank/internal/domain"
)

// gate decides whether to abstain. It returns the abstain reason, or "" when
// picks[0] clears the confidence floor.
func gate(picks []scored, floor float64) string {
	if len(picks) == 0 {
		return domain.ReasonNoCandidates
	}
	if picks[0].score < floor {
		return domain.ReasonBelowConfidenceFloor
	}
	return ""
}

// sortByScore orders items score-descending with the MMR tie-break.
func sortByScore(items []scored) {
	sort.SliceStable(items, func(i, j int) bool {
		return better(&items[i], &items[j], items[i].score, items[j].score)
	})
}

// Package result holds the output of a ranking call.
package result

import (
	"math"

	"github.com/kailas-cloud/pemrank/internal/domain"
)

// Features is the per-candidate feature vector, every entry in [0,1].
type Features struct {
	Skeleton float64
	Vector   float64
	Recency  float64
	Project  float64
	File     float64
	Packages float64
	Pyver    float64
}

// FeatureCount is the number of entries in Features.
const FeatureCount = 7

// Values returns the features in fixed order:
// skeleton, vector, recency, project, file, packages, pyver.
func (f Features) Values() [FeatureCount]float64 {
	return [FeatureCount]float64{f.Skeleton, f.Vector, f.Recency, f.Project, f.File, f.Packages, f.Pyver}
}

// Item is one ranked recommendation.
type Item struct {
	id       string
	score    float64
	features Features
	reasons  []string
}

// NewItem creates a ranked item.
func NewItem(id string, score float64, features Features, reasons []string) Item {
	if reasons == nil {
		reasons = []string{}
	}
	return Item{id: id, score: score, features: features, reasons: reasons}
}

// ID returns the candidate id.
func (i Item) ID() string { return i.id }

// Score returns the final score in [0,1].
func (i Item) Score() float64 { return i.score }

// Features returns the feature breakdown.
func (i Item) Features() Features { return i.features }

// Reasons returns the human-readable match reasons.
func (i Item) Reasons() []string { return i.reasons }

// Response is either an abstention or a best pick with alternates.
type Response struct {
	abstain    bool
	reason     string
	best       *Item
	alternates []Item
}

// Abstain creates an abstention response.
func Abstain(reason string) Response {
	return Response{abstain: true, reason: reason, alternates: []Item{}}
}

// Recommend creates a response with a best pick and alternates.
func Recommend(best Item, alternates []Item) Response {
	if alternates == nil {
		alternates = []Item{}
	}
	return Response{best: &best, alternates: alternates}
}

// Abstained reports whether the engine declined to recommend.
func (r Response) Abstained() bool { return r.abstain }

// Reason returns the abstention reason, empty otherwise.
func (r Response) Reason() string { return r.reason }

// Best returns the top pick, nil when abstaining.
func (r Response) Best() *Item { return r.best }

// Alternates returns the remaining picks, score-descending.
func (r Response) Alternates() []Item { return r.alternates }

// Check verifies the response invariants against k.
func (r Response) Check(k int) error {
	if r.abstain {
		if r.best != nil || len(r.alternates) > 0 {
			return domain.NewInternalFault("abstaining response carries items")
		}
		if r.reason != domain.ReasonNoCandidates && r.reason != domain.ReasonBelowConfidenceFloor {
			return domain.NewInternalFault("unknown abstain reason %q", r.reason)
		}
		return nil
	}
	if r.best == nil {
		return domain.NewInternalFault("non-abstaining response without best")
	}
	if len(r.alternates)+1 > k {
		return domain.NewInternalFault("%d items returned for k=%d", len(r.alternates)+1, k)
	}
	seen := map[string]struct{}{r.best.id: {}}
	for _, it := range append([]Item{*r.best}, r.alternates...) {
		if it.score < 0 || it.score > 1 || math.IsNaN(it.score) {
			return domain.NewInternalFault("score %v out of range for %q", it.score, it.id)
		}
		for _, v := range it.features.Values() {
			if v < 0 || v > 1 || math.IsNaN(v) {
				return domain.NewInternalFault("feature %v out of range for %q", v, it.id)
			}
		}
	}
	for _, alt := range r.alternates {
		if _, dup := seen[alt.id]; dup {
			return domain.NewInternalFault("duplicate id %q in response", alt.id)
		}
		seen[alt.id] = struct{}{}
	}
	return nil
}

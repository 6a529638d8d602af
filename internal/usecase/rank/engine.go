package rank

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/pemrank/internal/domain"
	"github.com/kailas-cloud/pemrank/internal/domain/rank/calibration"
	"github.com/kailas-cloud/pemrank/internal/domain/rank/request"
	"github.com/kailas-cloud/pemrank/internal/domain/rank/result"
)

// Stats summarises one engine run for metrics and logs.
type Stats struct {
	Candidates int
	Filtered   map[FilterRule]int
	Survivors  int
	Collapsed  int
	Selected   int
	// TopScore is the score of the first MMR pick. Valid when Survivors > 0.
	TopScore float64
}

// Engine runs the ranking pipeline:
// features -> hard filter -> score -> (collapse) -> MMR -> gate -> compose.
// Immutable after New; safe for concurrent use. Reads no clock.
type Engine struct {
	cal calibration.Calibration
}

// NewEngine validates the calibration and builds an engine.
func NewEngine(cal calibration.Calibration) (*Engine, error) {
	if err := cal.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cal: cal}, nil
}

// Calibration returns a copy of the engine's calibration.
func (e *Engine) Calibration() calibration.Calibration { return e.cal }

// Rank runs the pipeline over a validated request. Empty input abstains with
// no_candidates; it is not an error. An error is only returned for a broken
// engine invariant and wraps domain.ErrInternalFault.
func (e *Engine) Rank(req request.Request) (result.Response, Stats, error) {
	p := req.Params()
	q := req.Query()
	cands := req.Candidates()

	stats := Stats{
		Candidates: len(cands),
		Filtered:   make(map[FilterRule]int, len(FilterRules)),
	}

	survivors := make([]scored, 0, len(cands))
	for _, c := range cands {
		f := extractFeatures(q, c, p, &e.cal)
		if rule := hardFilter(q, c, f, p); rule != "" {
			stats.Filtered[rule]++
			continue
		}
		s := scoreCandidate(c, f, p.SuccessBonusAlpha(), &e.cal)
		if math.IsNaN(s.score) {
			return result.Response{}, stats, domain.NewInternalFault("NaN score for candidate %q", c.ID())
		}
		s.dedupKey = normalizeSkeleton(c.Skeleton()) + "\x00" + c.FileHash()
		survivors = append(survivors, s)
	}
	stats.Survivors = len(survivors)

	if e.cal.CollapseDuplicates && len(survivors) > 1 {
		before := len(survivors)
		survivors = collapseDuplicates(survivors, p)
		stats.Collapsed = before - len(survivors)
	}

	picks := selectMMR(survivors, p.K(), p.MMRLambda())
	if len(picks) > 0 {
		stats.TopScore = picks[0].score
	}

	if reason := gate(picks, p.ConfidenceFloor()); reason != "" {
		return result.Abstain(reason), stats, nil
	}

	stats.Selected = len(picks)
	best := composeItem(&picks[0], e.cal.Reasons)
	rest := picks[1:]
	sortByScore(rest)
	alternates := make([]result.Item, 0, len(rest))
	for i := range rest {
		alternates = append(alternates, composeItem(&rest[i], e.cal.Reasons))
	}

	resp := result.Recommend(best, alternates)
	if err := resp.Check(p.K()); err != nil {
		return result.Response{}, stats, fmt.Errorf("rank: %w", err)
	}
	return resp, stats, nil
}

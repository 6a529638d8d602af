package rank

import (
	"time"

	"github.com/kailas-cloud/pemrank/internal/domain/rank/calibration"
	"github.com/kailas-cloud/pemrank/internal/domain/rank/candidate"
	"github.com/kailas-cloud/pemrank/internal/domain/rank/result"
)

// tieEpsilon is the score distance under which two values count as equal.
const tieEpsilon = 1e-12

// scored is a surviving candidate with its features and final score.
type scored struct {
	cand         candidate.Candidate
	features     result.Features
	score        float64
	bonusApplied bool
	dedupKey     string
}

func (s *scored) id() string           { return s.cand.ID() }
func (s *scored) timestamp() time.Time { return s.cand.Timestamp() }

// scoreCandidate computes clip(sum(w_f * f) + alpha * success).
func scoreCandidate(
	c candidate.Candidate, f result.Features, alpha float64, cal *calibration.Calibration,
) scored {
	w := cal.Weights
	base := clip01(w.Skeleton*f.Skeleton +
		w.Vector*f.Vector +
		w.Recency*f.Recency +
		w.Project*f.Project +
		w.File*f.File +
		w.Packages*f.Packages +
		w.Pyver*f.Pyver)

	bonus := alpha * successSignal(c, cal.SuccessSignal)
	return scored{
		cand:         c,
		features:     f,
		score:        clip01(base + bonus),
		bonusApplied: bonus > 0,
	}
}

// successSignal returns s in [0,1] for the configured source.
func successSignal(c candidate.Candidate, src calibration.SuccessSignal) float64 {
	switch src {
	case calibration.SuccessOutcome:
		if ok := c.PriorSuccess(); ok != nil && *ok {
			return 1
		}
		return 0
	case calibration.SuccessResolutionDepth:
		d := c.ResolutionDepth()
		switch {
		case d == nil || *d <= 0:
			return 0
		case *d == 1:
			return 0.5
		default:
			return 1
		}
	default:
		return 0
	}
}

// better reports whether a (with value va) ranks ahead of b (with value vb).
// Values within tieEpsilon fall back to earliest timestamp, then smallest id.
func better(a, b *scored, va, vb float64) bool {
	if d := va - vb; d > tieEpsilon || d < -tieEpsilon {
		return d > 0
	}
	if ta, tb := a.timestamp(), b.timestamp(); !ta.Equal(tb) {
		return ta.Before(tb)
	}
	return a.id() < b.id()
}

package rank

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/pemrank/internal/domain"
	"github.com/kailas-cloud/pemrank/internal/domain/rank/calibration"
	"github.com/kailas-cloud/pemrank/internal/domain/rank/candidate"
	"github.com/kailas-cloud/pemrank/internal/domain/rank/params"
	"github.com/kailas-cloud/pemrank/internal/domain/rank/query"
	"github.com/kailas-cloud/pemrank/internal/domain/rank/result"
)

func TestNewEngine_InvalidCalibration(t *testing.T) {
	cal := calibration.Default()
	cal.Weights.Vector = -1
	_, err := NewEngine(cal)
	require.ErrorIs(t, err, domain.ErrInvalidCalibration)
}

func TestRank_EmptyPool(t *testing.T) {
	e := newEngine(t, nil)
	resp, stats, err := e.Rank(newRequest(t, params.Overrides{}, newQuery(t, nil)))
	require.NoError(t, err)
	assert.True(t, resp.Abstained())
	assert.Equal(t, domain.ReasonNoCandidates, resp.Reason())
	assert.Nil(t, resp.Best())
	assert.Empty(t, resp.Alternates())
	assert.Equal(t, 0, stats.Candidates)
}

// One candidate with skeleton 1.0, vector 0.9, recency 1.0 and every context feature 0.
func TestRank_ScenarioA_SingleStrongCandidate(t *testing.T) {
	e := newEngine(t, nil)
	q := newQuery(t, func(in *query.Input) { in.Packages = []string{"numpy"} })
	c := newCandidate(t, "only", func(in *candidate.Input) {
		in.VectorSimilarity = 0.9
		in.Timestamp = now
		in.Packages = []string{"flask"}
	})
	req := newRequest(t, params.Overrides{
		ConfidenceFloor:     floatp(0.1),
		AllowRepeatMinHours: floatp(0),
	}, q, c)

	resp, _, err := e.Rank(req)
	require.NoError(t, err)
	require.False(t, resp.Abstained())
	require.NotNil(t, resp.Best())
	assert.Equal(t, "only", resp.Best().ID())

	f := resp.Best().Features()
	assert.Equal(t, 1.0, f.Skeleton)
	assert.Equal(t, 0.9, f.Vector)
	assert.Equal(t, 1.0, f.Recency)
	assert.Zero(t, f.Project+f.File+f.Packages+f.Pyver)
	assert.InDelta(t, 0.40+0.30*0.9+0.12, resp.Best().Score(), 1e-6)
	assert.Equal(t, []string{ReasonSameSignature, ReasonVerySimilarCode, ReasonSeenRecently}, resp.Best().Reasons())
}

// Every candidate sits at skeleton 0.1 against a 0.5 threshold.
func TestRank_ScenarioB_AllFiltered(t *testing.T) {
	e := newEngine(t, nil)
	q := newQuery(t, func(in *query.Input) {
		in.Skeleton = "alpha beta gamma delta epsilon zeta eta theta iota kappa"
	})
	var cands []candidate.Candidate
	for i := 0; i < 3; i++ {
		cands = append(cands, newCandidate(t, fmt.Sprintf("c%d", i), func(in *candidate.Input) {
			in.Skeleton = "alpha one two three four five six seven eight nine"
			in.VectorSimilarity = 1
		}))
	}
	req := newRequest(t, params.Overrides{SkeletonFilterThreshold: floatp(0.5)}, q, cands...)

	resp, stats, err := e.Rank(req)
	require.NoError(t, err)
	assert.True(t, resp.Abstained())
	assert.Equal(t, domain.ReasonNoCandidates, resp.Reason())
	assert.Nil(t, resp.Best())
	assert.Equal(t, 3, stats.Filtered[RuleSkeleton])
	assert.Equal(t, 0, stats.Survivors)
}

// Two candidates with identical scores and near-identical feature vectors:
// the second slot is still filled and the earlier timestamp wins the tie.
func TestRank_ScenarioC_TieBreakEarliestTimestamp(t *testing.T) {
	e := newEngine(t, func(cal *calibration.Calibration) {
		cal.Weights.Recency = 0
		cal.Weights.Vector = 0.42
	})
	q := newQuery(t, nil)
	older := newCandidate(t, "z-older", func(in *candidate.Input) {
		in.VectorSimilarity = 0.95
		in.Timestamp = daysAgo(5)
	})
	newer := newCandidate(t, "a-newer", func(in *candidate.Input) {
		in.VectorSimilarity = 0.95
		in.Timestamp = daysAgo(4)
	})
	req := newRequest(t, params.Overrides{K: intp(2), MMRLambda: floatp(0.3)}, q, newer, older)

	resp, _, err := e.Rank(req)
	require.NoError(t, err)
	require.False(t, resp.Abstained())
	assert.Equal(t, "z-older", resp.Best().ID())
	require.Len(t, resp.Alternates(), 1)
	assert.Equal(t, "a-newer", resp.Alternates()[0].ID())
	assert.Equal(t, resp.Best().Score(), resp.Alternates()[0].Score())
}

func TestRank_TieBreakSmallestID(t *testing.T) {
	e := newEngine(t, nil)
	q := newQuery(t, nil)
	b := newCandidate(t, "b", func(in *candidate.Input) { in.VectorSimilarity = 0.9 })
	a := newCandidate(t, "a", func(in *candidate.Input) { in.VectorSimilarity = 0.9 })

	resp, _, err := e.Rank(newRequest(t, params.Overrides{K: intp(2)}, q, b, a))
	require.NoError(t, err)
	assert.Equal(t, "a", resp.Best().ID())
	assert.Equal(t, "b", resp.Alternates()[0].ID())
}

// A candidate shown an hour ago is excluded by the repeat window even when it
// would otherwise score highest.
func TestRank_ScenarioD_RepeatWindow(t *testing.T) {
	e := newEngine(t, nil)
	q := newQuery(t, nil)
	recent := newCandidate(t, "recent", func(in *candidate.Input) {
		in.VectorSimilarity = 1
		in.Timestamp = now.Add(-time.Hour)
	})
	older := newCandidate(t, "older", func(in *candidate.Input) {
		in.VectorSimilarity = 0.6
		in.Timestamp = daysAgo(10)
	})
	req := newRequest(t, params.Overrides{AllowRepeatMinHours: floatp(24)}, q, recent, older)

	resp, stats, err := e.Rank(req)
	require.NoError(t, err)
	require.False(t, resp.Abstained())
	assert.Equal(t, "older", resp.Best().ID())
	assert.Empty(t, resp.Alternates())
	assert.Equal(t, 1, stats.Filtered[RuleRepeatWindow])

	resp, _, err = e.Rank(newRequest(t, params.Overrides{AllowRepeatMinHours: floatp(24)}, q, recent))
	require.NoError(t, err)
	assert.True(t, resp.Abstained())
	assert.Equal(t, domain.ReasonNoCandidates, resp.Reason())
}

func TestRank_FutureCandidateInsideRepeatWindow(t *testing.T) {
	e := newEngine(t, nil)
	future := newCandidate(t, "future", func(in *candidate.Input) { in.Timestamp = now.Add(time.Hour) })
	_, stats, err := e.Rank(newRequest(t, params.Overrides{}, newQuery(t, nil), future))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Filtered[RuleRepeatWindow])
}

func TestRank_RepeatDepthFilter(t *testing.T) {
	e := newEngine(t, nil)
	deep := newCandidate(t, "deep", func(in *candidate.Input) { in.ResolutionDepth = intp(3) })
	req := newRequest(t, params.Overrides{AllowRepeatDepth: intp(2)}, newQuery(t, nil), deep)

	resp, stats, err := e.Rank(req)
	require.NoError(t, err)
	assert.True(t, resp.Abstained())
	assert.Equal(t, 1, stats.Filtered[RuleRepeatDepth])
}

func TestRank_BelowConfidenceFloor(t *testing.T) {
	e := newEngine(t, nil)
	weak := newCandidate(t, "weak", func(in *candidate.Input) {
		in.VectorSimilarity = 0
		in.Timestamp = daysAgo(200)
	})
	resp, stats, err := e.Rank(newRequest(t, params.Overrides{ConfidenceFloor: floatp(0.9)}, newQuery(t, nil), weak))
	require.NoError(t, err)
	assert.True(t, resp.Abstained())
	assert.Equal(t, domain.ReasonBelowConfidenceFloor, resp.Reason())
	assert.Nil(t, resp.Best())
	assert.Empty(t, resp.Alternates())
	assert.Equal(t, 1, stats.Survivors)
	assert.Less(t, stats.TopScore, 0.9)
}

func TestRank_AlternatesInvariants(t *testing.T) {
	e := newEngine(t, nil)
	q := newQuery(t, func(in *query.Input) { in.ProjectHash = "proj" })
	var cands []candidate.Candidate
	for i := 0; i < 12; i++ {
		cands = append(cands, newCandidate(t, fmt.Sprintf("c%02d", i), func(in *candidate.Input) {
			in.VectorSimilarity = float64(i%5) / 4
			in.Timestamp = daysAgo(float64(2 + i))
			if i%2 == 0 {
				in.ProjectHash = "proj"
			}
		}))
	}

	for k := 1; k <= 10; k++ {
		resp, _, err := e.Rank(newRequest(t, params.Overrides{K: intp(k), ConfidenceFloor: floatp(0)}, q, cands...))
		require.NoError(t, err)
		require.False(t, resp.Abstained())
		best := resp.Best()
		require.NotNil(t, best)

		assert.LessOrEqual(t, len(resp.Alternates())+1, k)
		assert.Equal(t, min(k, len(cands))-1, len(resp.Alternates()))
		seen := map[string]bool{best.ID(): true}
		prev := best.Score()
		for _, alt := range resp.Alternates() {
			assert.NotEqual(t, best.ID(), alt.ID())
			assert.False(t, seen[alt.ID()], "duplicate id %s", alt.ID())
			seen[alt.ID()] = true
			assert.LessOrEqual(t, alt.Score(), prev, "alternates must be score-descending")
			prev = alt.Score()
		}
		assert.NoError(t, resp.Check(k))
	}
}

func TestRank_BestIsHighestScore(t *testing.T) {
	e := newEngine(t, nil)
	var cands []candidate.Candidate
	for i, v := range []float64{0.2, 0.9, 0.7} {
		cands = append(cands, newCandidate(t, fmt.Sprintf("c%d", i), func(in *candidate.Input) {
			in.VectorSimilarity = v
		}))
	}
	resp, _, err := e.Rank(newRequest(t, params.Overrides{}, newQuery(t, nil), cands...))
	require.NoError(t, err)
	assert.Equal(t, "c1", resp.Best().ID())
}

func TestRank_Deterministic(t *testing.T) {
	e := newEngine(t, nil)
	q := newQuery(t, func(in *query.Input) { in.Packages = []string{"numpy", "pandas"} })
	var cands []candidate.Candidate
	for i := 0; i < 20; i++ {
		cands = append(cands, newCandidate(t, fmt.Sprintf("c%d", i), func(in *candidate.Input) {
			in.VectorSimilarity = float64(i%7) / 7
			in.Timestamp = daysAgo(float64(1 + i%4))
			in.Packages = []string{"numpy"}
		}))
	}
	req := newRequest(t, params.Overrides{K: intp(5), ConfidenceFloor: floatp(0.2)}, q, cands...)

	first, _, err := e.Rank(req)
	require.NoError(t, err)
	want := snapshot(t, first)
	for i := 0; i < 5; i++ {
		again, _, err := e.Rank(req)
		require.NoError(t, err)
		assert.Equal(t, want, snapshot(t, again))
	}
}

func snapshot(t *testing.T, r result.Response) string {
	t.Helper()
	type item struct {
		ID       string
		Score    float64
		Features result.Features
		Reasons  []string
	}
	conv := func(i result.Item) item { return item{i.ID(), i.Score(), i.Features(), i.Reasons()} }
	out := struct {
		Abstain    bool
		Reason     string
		Best       *item
		Alternates []item
	}{Abstain: r.Abstained(), Reason: r.Reason()}
	if b := r.Best(); b != nil {
		bi := conv(*b)
		out.Best = &bi
	}
	for _, a := range r.Alternates() {
		out.Alternates = append(out.Alternates, conv(a))
	}
	data, err := json.Marshal(out)
	require.NoError(t, err)
	return string(data)
}

func TestRank_ScoresRoundedToSixDecimals(t *testing.T) {
	e := newEngine(t, nil)
	c := newCandidate(t, "c", func(in *candidate.Input) {
		in.VectorSimilarity = 0.123456789
		in.Timestamp = daysAgo(3.3333)
	})
	resp, _, err := e.Rank(newRequest(t, params.Overrides{ConfidenceFloor: floatp(0)}, newQuery(t, nil), c))
	require.NoError(t, err)
	best := resp.Best()
	vals := best.Features().Values()
	for _, v := range append(vals[:], best.Score()) {
		assert.Equal(t, round6(v), v)
	}
	assert.Equal(t, 0.123457, best.Features().Vector)
}

func TestRank_MMRPrefersDiverseAlternate(t *testing.T) {
	e := newEngine(t, nil)
	q := newQuery(t, func(in *query.Input) {
		in.ProjectHash = "proj"
		in.FileHash = "file"
	})
	top := newCandidate(t, "top", func(in *candidate.Input) {
		in.VectorSimilarity = 0.95
		in.ProjectHash, in.FileHash = "proj", "file"
	})
	twin := newCandidate(t, "twin", func(in *candidate.Input) {
		in.VectorSimilarity = 0.94
		in.ProjectHash, in.FileHash = "proj", "file"
	})
	other := newCandidate(t, "other", func(in *candidate.Input) {
		in.VectorSimilarity = 0.7
		in.Timestamp = daysAgo(20)
	})

	relevance, _, err := e.Rank(newRequest(t, params.Overrides{K: intp(2), MMRLambda: floatp(1)}, q, top, twin, other))
	require.NoError(t, err)
	assert.Equal(t, "twin", relevance.Alternates()[0].ID())

	diverse, _, err := e.Rank(newRequest(t, params.Overrides{K: intp(2), MMRLambda: floatp(0.2)}, q, top, twin, other))
	require.NoError(t, err)
	assert.Equal(t, "top", diverse.Best().ID())
	assert.Equal(t, "other", diverse.Alternates()[0].ID())
}

func TestRank_SuccessBonusModes(t *testing.T) {
	helped := func(t *testing.T) candidate.Candidate {
		return newCandidate(t, "c", func(in *candidate.Input) {
			in.PriorSuccess = boolp(true)
			in.ResolutionDepth = intp(1)
		})
	}
	plain := newCandidate(t, "c", nil)

	rankOne := func(t *testing.T, signal calibration.SuccessSignal, c candidate.Candidate) result.Item {
		e := newEngine(t, func(cal *calibration.Calibration) { cal.SuccessSignal = signal })
		resp, _, err := e.Rank(newRequest(t, params.Overrides{
			ConfidenceFloor:   floatp(0),
			SuccessBonusAlpha: floatp(0.1),
		}, newQuery(t, nil), c))
		require.NoError(t, err)
		require.NotNil(t, resp.Best())
		return *resp.Best()
	}

	base := rankOne(t, calibration.SuccessOutcome, plain)
	assert.NotContains(t, base.Reasons(), ReasonHelpedBefore)

	outcome := rankOne(t, calibration.SuccessOutcome, helped(t))
	assert.InDelta(t, base.Score()+0.1, outcome.Score(), 1e-6)
	assert.Contains(t, outcome.Reasons(), ReasonHelpedBefore)

	depth := rankOne(t, calibration.SuccessResolutionDepth, helped(t))
	assert.InDelta(t, base.Score()+0.05, depth.Score(), 1e-6)

	none := rankOne(t, calibration.SuccessNone, helped(t))
	assert.InDelta(t, base.Score(), none.Score(), 1e-9)
	assert.NotContains(t, none.Reasons(), ReasonHelpedBefore)
}

func TestSuccessSignal_DepthMapping(t *testing.T) {
	for depth, want := range map[int]float64{0: 0, 1: 0.5, 2: 1, 3: 1} {
		c := newCandidate(t, "c", func(in *candidate.Input) { in.ResolutionDepth = intp(depth) })
		assert.Equal(t, want, successSignal(c, calibration.SuccessResolutionDepth), "depth %d", depth)
	}
	assert.Equal(t, 0.0, successSignal(newCandidate(t, "c", nil), calibration.SuccessResolutionDepth))
}

func TestRank_ScoreClipped(t *testing.T) {
	e := newEngine(t, func(cal *calibration.Calibration) {
		cal.Weights = calibration.Weights{Skeleton: 1, Vector: 1, Recency: 1, Project: 1, File: 1, Packages: 1, Pyver: 1}
	})
	c := newCandidate(t, "c", func(in *candidate.Input) {
		in.VectorSimilarity = 1
		in.PriorSuccess = boolp(true)
	})
	resp, _, err := e.Rank(newRequest(t, params.Overrides{}, newQuery(t, nil), c))
	require.NoError(t, err)
	assert.Equal(t, 1.0, resp.Best().Score())
}

func TestRank_ReasonThresholds(t *testing.T) {
	e := newEngine(t, nil)
	q := newQuery(t, func(in *query.Input) {
		in.FileHash, in.FileExt = "f1", "py"
		in.PythonVersion = "3.11.2"
		in.Packages = []string{"numpy", "pandas"}
	})
	c := newCandidate(t, "c", func(in *candidate.Input) {
		in.VectorSimilarity = 0.6
		in.Timestamp = daysAgo(10)
		in.FileHash, in.FileExt = "f2", ".py"
		in.PythonVersion = "3.11.7"
		in.Packages = []string{"numpy"}
	})
	resp, _, err := e.Rank(newRequest(t, params.Overrides{ConfidenceFloor: floatp(0)}, q, c))
	require.NoError(t, err)
	assert.Equal(t, []string{
		ReasonSameSignature,
		ReasonSimilarCode,
		ReasonSeenRecentWeeks,
		ReasonSameFileType,
		ReasonOverlappingDeps,
		ReasonSameRuntimeMinor,
	}, resp.Best().Reasons())
}

func TestRank_CollapseDuplicates(t *testing.T) {
	q := newQuery(t, nil)
	mk := func(id string, sim float64, age float64, depth int) candidate.Candidate {
		return newCandidate(t, id, func(in *candidate.Input) {
			in.VectorSimilarity = sim
			in.Timestamp = daysAgo(age)
			in.FileHash = "same-file"
			in.ResolutionDepth = intp(depth)
		})
	}
	cands := []candidate.Candidate{
		mk("primary", 0.9, 2, 0),
		mk("shallow", 0.85, 4, 0),
		mk("deep-old", 0.8, 6, 3),
		mk("deep-older", 0.7, 9, 3),
	}
	o := params.Overrides{K: intp(5), ConfidenceFloor: floatp(0)}

	off := newEngine(t, nil)
	resp, stats, err := off.Rank(newRequest(t, o, q, cands...))
	require.NoError(t, err)
	assert.Len(t, resp.Alternates(), 3)
	assert.Zero(t, stats.Collapsed)

	on := newEngine(t, func(cal *calibration.Calibration) { cal.CollapseDuplicates = true })
	resp, stats, err = on.Rank(newRequest(t, o, q, cands...))
	require.NoError(t, err)
	assert.Equal(t, "primary", resp.Best().ID())
	require.Len(t, resp.Alternates(), 1)
	assert.Equal(t, "deep-old", resp.Alternates()[0].ID())
	assert.Equal(t, 2, stats.Collapsed)
}

func TestRank_NeverReturnsInternalFaultForValidInput(t *testing.T) {
	e := newEngine(t, nil)
	for i := 0; i < 50; i++ {
		c := newCandidate(t, "c", func(in *candidate.Input) {
			in.VectorSimilarity = float64(i) / 49
			in.Timestamp = daysAgo(float64(i))
		})
		_, _, err := e.Rank(newRequest(t, params.Overrides{}, newQuery(t, nil), c))
		assert.False(t, errors.Is(err, domain.ErrInternalFault))
	}
}

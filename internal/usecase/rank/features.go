package rank

import (
	"math"
	"regexp"
	"strings"

	"github.com/kailas-cloud/pemrank/internal/domain/rank/calibration"
	"github.com/kailas-cloud/pemrank/internal/domain/rank/candidate"
	"github.com/kailas-cloud/pemrank/internal/domain/rank/params"
	"github.com/kailas-cloud/pemrank/internal/domain/rank/query"
	"github.com/kailas-cloud/pemrank/internal/domain/rank/result"
)

var pyverRe = regexp.MustCompile(`^\s*(\d+)\.(\d+)`)

// extractFeatures computes the per-candidate feature vector. Pure.
func extractFeatures(
	q query.Query, c candidate.Candidate, p params.Params, cal *calibration.Calibration,
) result.Features {
	return result.Features{
		Skeleton: skeletonSimilarity(q.Skeleton(), c.Skeleton()),
		Vector:   clip01(c.VectorSimilarity()),
		Recency:  recencyScore(q, c, p.RecencyHalfLifeDays()),
		Project:  sameNonEmpty(q.ProjectHash(), c.ProjectHash()),
		File:     fileAffinity(q, c, cal.FileExtensionCredit),
		Packages: packageOverlap(q.Packages(), c.Packages()),
		Pyver:    pyverProximity(q.PythonVersion(), c.PythonVersion(), cal.PyverMinorCredit),
	}
}

// elapsedHours is query.ts - cand.ts, floored at zero for future candidates.
func elapsedHours(q query.Query, c candidate.Candidate) float64 {
	return math.Max(0, q.Timestamp().Sub(c.Timestamp()).Hours())
}

// recencyScore decays with half-life: 2^(-days/halfLife). 1.0 at zero elapsed.
func recencyScore(q query.Query, c candidate.Candidate, halfLifeDays float64) float64 {
	days := elapsedHours(q, c) / 24
	return clip01(math.Exp2(-days / halfLifeDays))
}

func sameNonEmpty(a, b string) float64 {
	if a != "" && a == b {
		return 1
	}
	return 0
}

func fileAffinity(q query.Query, c candidate.Candidate, extCredit float64) float64 {
	if sameNonEmpty(q.FileHash(), c.FileHash()) == 1 {
		return 1
	}
	qe, ce := normalizeExt(q.FileExt()), normalizeExt(c.FileExt())
	if qe != "" && qe == ce {
		return extCredit
	}
	return 0
}

func normalizeExt(ext string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
}

// packageOverlap is the Jaccard index of two normalised package sets.
// Two empty sets agree fully; exactly one empty set shares nothing.
func packageOverlap(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, p := range a {
		set[p] = struct{}{}
	}
	inter := 0
	union := len(set)
	seen := make(map[string]struct{}, len(b))
	for _, p := range b {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		if _, ok := set[p]; ok {
			inter++
		} else {
			union++
		}
	}
	return float64(inter) / float64(union)
}

func pyverProximity(a, b string, minorCredit float64) float64 {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	ma, mb := pyverRe.FindStringSubmatch(a), pyverRe.FindStringSubmatch(b)
	if ma == nil || mb == nil {
		return 0
	}
	if ma[1] == mb[1] && ma[2] == mb[2] {
		return minorCredit
	}
	return 0
}

func clip01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Min(1, math.Max(0, v))
}

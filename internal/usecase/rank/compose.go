package rank

import (
	"math"

	"github.com/kailas-cloud/pemrank/internal/domain/rank/calibration"
	"github.com/kailas-cloud/pemrank/internal/domain/rank/result"
)

// Reason phrases.
const (
	ReasonSameSignature       = "same error signature"
	ReasonSimilarSignature    = "similar error signature"
	ReasonVerySimilarCode     = "very similar code context"
	ReasonSimilarCode         = "similar code context"
	ReasonSeenRecently        = "seen recently"
	ReasonSeenRecentWeeks     = "seen in recent weeks"
	ReasonSameProject         = "same project"
	ReasonSameFile            = "same file"
	ReasonSameFileType        = "same file type"
	ReasonSimilarDependencies = "similar dependency set"
	ReasonOverlappingDeps     = "overlapping dependencies"
	ReasonSameRuntime         = "same runtime version"
	ReasonSameRuntimeMinor    = "same runtime minor version"
	ReasonHelpedBefore        = "helped before"
)

type phrase struct {
	value    func(result.Features) float64
	strong   string
	moderate string
}

// phrases is in fixed feature order; an empty moderate phrase means the
// feature only earns a strong claim.
var phrases = []phrase{
	{func(f result.Features) float64 { return f.Skeleton }, ReasonSameSignature, ReasonSimilarSignature},
	{func(f result.Features) float64 { return f.Vector }, ReasonVerySimilarCode, ReasonSimilarCode},
	{func(f result.Features) float64 { return f.Recency }, ReasonSeenRecently, ReasonSeenRecentWeeks},
	{func(f result.Features) float64 { return f.Project }, ReasonSameProject, ""},
	{func(f result.Features) float64 { return f.File }, ReasonSameFile, ReasonSameFileType},
	{func(f result.Features) float64 { return f.Packages }, ReasonSimilarDependencies, ReasonOverlappingDeps},
	{func(f result.Features) float64 { return f.Pyver }, ReasonSameRuntime, ReasonSameRuntimeMinor},
}

func reasonsFor(s *scored, th calibration.ReasonThresholds) []string {
	out := make([]string, 0, len(phrases)+1)
	for _, p := range phrases {
		v := p.value(s.features)
		switch {
		case v >= th.Strong:
			out = append(out, p.strong)
		case v >= th.Moderate && p.moderate != "":
			out = append(out, p.moderate)
		}
	}
	if s.bonusApplied {
		out = append(out, ReasonHelpedBefore)
	}
	return out
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

func composeItem(s *scored, th calibration.ReasonThresholds) result.Item {
	f := s.features
	return result.NewItem(s.id(), round6(s.score), result.Features{
		Skeleton: round6(f.Skeleton),
		Vector:   round6(f.Vector),
		Recency:  round6(f.Recency),
		Project:  round6(f.Project),
		File:     round6(f.File),
		Packages: round6(f.Packages),
		Pyver:    round6(f.Pyver),
	}, reasonsFor(s, th))
}

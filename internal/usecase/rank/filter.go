package rank

import (
	"github.com/kailas-cloud/pemrank/internal/domain/rank/candidate"
	"github.com/kailas-cloud/pemrank/internal/domain/rank/params"
	"github.com/kailas-cloud/pemrank/internal/domain/rank/query"
	"github.com/kailas-cloud/pemrank/internal/domain/rank/result"
)

// FilterRule names the hard-filter rule that rejected a candidate.
type FilterRule string

// Hard filter rules, evaluated in this order.
const (
	RuleSkeleton     FilterRule = "skeleton"
	RuleRepeatDepth  FilterRule = "repeat_depth"
	RuleRepeatWindow FilterRule = "repeat_window"
)

// FilterRules lists every rule, for metrics pre-registration.
var FilterRules = []FilterRule{RuleSkeleton, RuleRepeatDepth, RuleRepeatWindow}

// hardFilter returns the first rule the candidate violates, or "" when it survives.
func hardFilter(q query.Query, c candidate.Candidate, f result.Features, p params.Params) FilterRule {
	if f.Skeleton < p.SkeletonFilterThreshold() {
		return RuleSkeleton
	}
	if d := c.ResolutionDepth(); d != nil && *d > p.AllowRepeatDepth() {
		return RuleRepeatDepth
	}
	if elapsedHours(q, c) < p.AllowRepeatMinHours() {
		return RuleRepeatWindow
	}
	return ""
}

package rank

import (
	"sort"

	"github.com/kailas-cloud/pemrank/internal/domain/rank/params"
)

// collapseDuplicates groups survivors by (normalised skeleton, file hash) and
// keeps each group's best member, plus at most one older repeat that went deep
// enough and is old enough relative to the kept member. Input order of groups
// is preserved.
func collapseDuplicates(items []scored, p params.Params) []scored {
	order := make([]string, 0, len(items))
	groups := make(map[string][]int, len(items))
	for i := range items {
		key := items[i].dedupKey
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}

	out := make([]scored, 0, len(items))
	for _, key := range order {
		idx := groups[key]
		sort.SliceStable(idx, func(a, b int) bool {
			x, y := &items[idx[a]], &items[idx[b]]
			if d := x.score - y.score; d > tieEpsilon || d < -tieEpsilon {
				return d > 0
			}
			return x.timestamp().After(y.timestamp())
		})

		primary := items[idx[0]]
		out = append(out, primary)
		for _, j := range idx[1:] {
			s := items[j]
			d := s.cand.ResolutionDepth()
			if d == nil || *d < p.AllowRepeatDepth() {
				continue
			}
			if primary.timestamp().Sub(s.timestamp()).Hours() < p.AllowRepeatMinHours() {
				continue
			}
			out = append(out, s)
			break
		}
	}
	return out
}

package rank

import (
	"regexp"
	"strings"
)

// maxSkeletonTokens caps the LCS table at 256x256.
const maxSkeletonTokens = 256

var (
	placeholderRe = regexp.MustCompile(`<[^>]{1,32}>`)
	numberRe      = regexp.MustCompile(`\b\d+(?:\.\d+)?\b`)
	pathRe        = regexp.MustCompile(`[A-Za-z]:\\[^\s]+|/(?:[^\s/]+/)+[^\s]+`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
	tokenRe       = regexp.MustCompile(`<[xnp]>|\w+|[^\w\s]`)
)

// normalizeSkeleton lower-cases a signature and collapses its volatile parts
// (placeholders, numbers, file paths, whitespace) so that two instances of
// the same error compare equal.
func normalizeSkeleton(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = placeholderRe.ReplaceAllString(s, "<x>")
	s = numberRe.ReplaceAllString(s, "<n>")
	s = pathRe.ReplaceAllString(s, "<p>")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return s
}

func skeletonTokens(normalized string) []string {
	return tokenRe.FindAllString(normalized, maxSkeletonTokens)
}

// skeletonSimilarity returns 1 for equal normalised signatures, otherwise the
// order-aware token overlap 2*LCS/(|a|+|b|).
func skeletonSimilarity(a, b string) float64 {
	na, nb := normalizeSkeleton(a), normalizeSkeleton(b)
	if na == nb {
		return 1
	}
	return tokenOverlap(skeletonTokens(na), skeletonTokens(nb))
}

func tokenOverlap(a, b []string) float64 {
	if len(a)+len(b) == 0 {
		return 0
	}
	lcs := lcsLength(a, b)
	return clip01(2 * float64(lcs) / float64(len(a)+len(b)))
}

// lcsLength uses two rolling rows.
func lcsLength(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				cur[j] = prev[j-1] + 1
			case prev[j] >= cur[j-1]:
				cur[j] = prev[j]
			default:
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

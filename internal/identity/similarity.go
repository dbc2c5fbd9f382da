package identity

import (
	"github.com/agnivade/levenshtein"
)

// Scorer computes a normalized similarity between two already-normalized
// names. Implementations must be symmetric, deterministic, return values in
// [0, 1], and score identical strings as exactly 1.0.
type Scorer interface {
	Score(a, b string) float64
	Name() string
}

// NewScorer returns the scorer for the given algorithm name. Unknown names
// fall back to the default LCS scorer.
func NewScorer(algorithm string) Scorer {
	switch algorithm {
	case "levenshtein":
		return LevenshteinScorer{}
	default:
		return LCSScorer{}
	}
}

// LCSScorer scores by longest-common-subsequence ratio:
// 2*LCS(a,b) / (len(a)+len(b)). This is the default algorithm.
type LCSScorer struct{}

func (LCSScorer) Name() string { return "lcs" }

func (LCSScorer) Score(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	ra := []rune(a)
	rb := []rune(b)

	// Standard DP over two rows.
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}

	lcs := prev[len(rb)]
	return 2.0 * float64(lcs) / float64(len(ra)+len(rb))
}

// LevenshteinScorer scores by edit-distance ratio:
// 1 - dist(a,b)/max(len(a),len(b)).
type LevenshteinScorer struct{}

func (LevenshteinScorer) Name() string { return "levenshtein" }

func (LevenshteinScorer) Score(a, b string) float64 {
	if a == b {
		return 1.0
	}
	la := len([]rune(a))
	lb := len([]rune(b))
	if la == 0 || lb == 0 {
		return 0.0
	}

	maxLen := la
	if lb > maxLen {
		maxLen = lb
	}

	dist := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(dist)/float64(maxLen)
}

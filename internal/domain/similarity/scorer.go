// Package similarity scores how alike two normalized strings are.
//
// The exact formula, stated here so results are reproducible across runs:
//
//	score(a, b) = max(tokenSetRatio(a, b), editRatio(a, b))
//
// where tokenSetRatio is the Jaccard ratio over unique whitespace tokens
// (order-independent, rewards shared significant words) and editRatio is
// 1 - levenshtein(a, b) / max(len(a), len(b)) over runes (character-level,
// tolerates misspellings).  Taking the maximum means a pair scoring well on
// either dimension is considered similar: word reordering and minor typos are
// both forgiven.  This is a fixed, hand-tuned choice — not learned.
package similarity

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Scorer computes bounded similarity scores between normalized strings.
// Stateless and safe for concurrent use.
type Scorer struct{}

// NewScorer returns a ready-to-use Scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score returns a similarity in [0, 1].  It is symmetric, returns 1.0 for two
// identical non-empty strings, and 0.0 when either input is empty — an absent
// value never matches anything.
func (s *Scorer) Score(a, b string) float64 {
	if a == "" || b == "" {
		return 0.0
	}
	if a == b {
		return 1.0
	}

	token := tokenSetRatio(a, b)
	edit := editRatio(a, b)
	if token > edit {
		return token
	}
	return edit
}

// tokenSetRatio is the Jaccard ratio of the unique-token sets of a and b.
func tokenSetRatio(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0.0
	}

	intersection := 0
	for tok := range setA {
		if setB[tok] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(s) {
		set[tok] = true
	}
	return set
}

// editRatio converts Levenshtein distance to a normalized similarity.
func editRatio(a, b string) float64 {
	la := utf8.RuneCountInString(a)
	lb := utf8.RuneCountInString(b)
	max := la
	if lb > max {
		max = lb
	}
	if max == 0 {
		return 0.0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(dist)/float64(max)
}

package similarity

import (
	"testing"

	"github.com/clearlens/resolve/internal/domain/normalize"
)

func TestScoreBounds(t *testing.T) {
	s := NewScorer()

	pairs := [][2]string{
		{"acme opt", "acme opt"},
		{"acme opt", "akme opt"},
		{"acme opt", "completely different"},
		{"a", "zzzzzzzzzz"},
	}
	for _, p := range pairs {
		got := s.Score(p[0], p[1])
		if got < 0 || got > 1 {
			t.Errorf("Score(%q, %q) = %v out of [0,1]", p[0], p[1], got)
		}
	}
}

func TestScoreReflexive(t *testing.T) {
	s := NewScorer()
	if got := s.Score("acme opt", "acme opt"); got != 1.0 {
		t.Errorf("identical non-empty strings must score 1.0, got %v", got)
	}
}

func TestScoreSymmetric(t *testing.T) {
	s := NewScorer()
	a, b := "lakeside vis ctr", "lakeside eye ctr"
	if s.Score(a, b) != s.Score(b, a) {
		t.Error("score must be symmetric")
	}
}

func TestScoreEmptyIsZero(t *testing.T) {
	s := NewScorer()
	if s.Score("", "anything") != 0.0 {
		t.Error("empty left operand must score 0.0")
	}
	if s.Score("anything", "") != 0.0 {
		t.Error("empty right operand must score 0.0")
	}
	if s.Score("", "") != 0.0 {
		t.Error("two empty strings must score 0.0, not 1.0")
	}
}

func TestScoreTokenReordering(t *testing.T) {
	s := NewScorer()
	// Same words, different order: token-set ratio is 1.0 even though the
	// edit distance is large.
	if got := s.Score("optical acme", "acme optical"); got != 1.0 {
		t.Errorf("reordered tokens must score 1.0, got %v", got)
	}
}

func TestScoreMinorMisspelling(t *testing.T) {
	s := NewScorer()
	// One substituted character in eight: edit ratio carries the score even
	// though no token matches exactly.
	if got := s.Score("lakeside", "lakeside"); got < 0.85 {
		t.Errorf("single-character typo must score high, got %v", got)
	}
}

func TestNormalizedVariantsScoreHigh(t *testing.T) {
	n := normalize.NewNormalizer()
	s := NewScorer()

	a := n.NormalizeName("Acme Inc")
	b := n.NormalizeName("ACME INC.")
	if got := s.Score(a, b); got < 0.95 {
		t.Errorf("Score(norm(Acme Inc), norm(ACME INC.)) = %v, want >= 0.95", got)
	}
}

func TestScoreUnrelatedNamesLow(t *testing.T) {
	s := NewScorer()
	if got := s.Score("acme opt", "harbor dental"); got > 0.5 {
		t.Errorf("unrelated names must score low, got %v", got)
	}
}

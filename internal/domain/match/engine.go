// Package match decides whether two records refer to the same business.
//
// The decision policy is a single declarative rule table rather than
// thresholds scattered through conditional logic: every signal has a name,
// every rule states the signals it needs, and the rules are evaluated in
// priority order by one generic loop.  This keeps the policy auditable — an
// operator can read the table top to bottom and know exactly why any pair
// matched — and lets tests exercise each rule in isolation.
package match

import (
	"strings"

	"github.com/clearlens/resolve/internal/domain/record"
	"github.com/clearlens/resolve/internal/domain/similarity"
	"github.com/clearlens/resolve/pkg/types/common"
)

// Signal names a piece of match evidence.  Signal names appear in decisions,
// reports, and logs; they are part of the audit surface.
type Signal string

const (
	// SignalSharedAccount fires on an exact account-number match.  An explicit
	// account link is stronger evidence than any fuzzy text comparison, so it
	// short-circuits to MATCH regardless of name similarity.
	SignalSharedAccount Signal = "shared_account_no"

	// SignalNameSimilarity carries the fuzzy name score.
	SignalNameSimilarity Signal = "name_similarity"

	// SignalEmailDomainEqual fires when both records carry the same
	// normalized email domain.
	SignalEmailDomainEqual Signal = "email_domain_equal"

	// SignalPhoneEqual fires when both records carry the same normalized
	// phone comparison suffix.
	SignalPhoneEqual Signal = "phone_equal"
)

// Policy carries the numeric thresholds the rule table consults.  The values
// are hand-tuned reconstructions; they must be revalidated against labelled
// data before being treated as final.
type Policy struct {
	// HighNameThreshold: a name score at or above this matches on its own.
	HighNameThreshold float64

	// MidNameThreshold: scores in [Mid, High) form the ambiguous band and
	// need a corroborating signal to match.
	MidNameThreshold float64
}

// DefaultPolicy returns the reconstructed production thresholds.
func DefaultPolicy() Policy {
	return Policy{HighNameThreshold: 0.90, MidNameThreshold: 0.60}
}

// Evidence is the evaluated signal set for one candidate pair.
type Evidence struct {
	NameScore        float64
	SharedAccount    bool
	EmailDomainEqual bool
	PhoneEqual       bool
}

// Corroborated reports whether any non-name signal supports the pair.
func (e Evidence) Corroborated() bool {
	return e.EmailDomainEqual || e.PhoneEqual
}

// Decision is the verdict for one candidate pair.
type Decision struct {
	A       common.RecordID `json:"a"`
	B       common.RecordID `json:"b"`
	Verdict common.Verdict  `json:"verdict"`
	Score   float64         `json:"score"`
	Signals []Signal        `json:"signals,omitempty"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Rule table
// ─────────────────────────────────────────────────────────────────────────────

// rule is one row of the decision table.  Rules are evaluated top to bottom;
// the first rule whose condition holds determines the verdict.
type rule struct {
	name    string
	applies func(e Evidence, p Policy) bool
	verdict common.Verdict
}

// ruleTable is the complete decision policy, in priority order.  Pairs matched
// by no rule are NO_MATCH.
var ruleTable = []rule{
	{
		name:    "shared account number",
		applies: func(e Evidence, _ Policy) bool { return e.SharedAccount },
		verdict: common.VerdictMatch,
	},
	{
		name:    "high name similarity",
		applies: func(e Evidence, p Policy) bool { return e.NameScore >= p.HighNameThreshold },
		verdict: common.VerdictMatch,
	},
	{
		name: "mid name similarity with corroboration",
		applies: func(e Evidence, p Policy) bool {
			return e.NameScore >= p.MidNameThreshold && e.Corroborated()
		},
		verdict: common.VerdictMatch,
	},
	{
		name: "mid name similarity alone",
		applies: func(e Evidence, p Policy) bool {
			return e.NameScore >= p.MidNameThreshold
		},
		verdict: common.VerdictAmbiguous,
	},
}

// ─────────────────────────────────────────────────────────────────────────────
// Engine
// ─────────────────────────────────────────────────────────────────────────────

// Engine evaluates the rule table for candidate pairs.  Stateless apart from
// its fixed policy; safe for concurrent use across decision workers.
type Engine struct {
	scorer *similarity.Scorer
	policy Policy
}

// NewEngine constructs an Engine with the given scorer and policy.
func NewEngine(scorer *similarity.Scorer, policy Policy) *Engine {
	return &Engine{scorer: scorer, policy: policy}
}

// Policy returns the engine's active thresholds, for reporting.
func (e *Engine) Policy() Policy { return e.policy }

// Decide evaluates the pair (a, b) and returns its Decision.  Symmetric in
// its arguments: Decide(a, b) and Decide(b, a) yield the same verdict and
// score.  Absent fields never satisfy a signal.
func (e *Engine) Decide(a, b record.RawIdentityRecord, ka, kb record.NormalizedKey) Decision {
	ev := e.evaluate(a, b, ka, kb)

	d := Decision{
		A:       a.ID,
		B:       b.ID,
		Verdict: common.VerdictNoMatch,
		Score:   ev.NameScore,
		Signals: firedSignals(ev),
	}
	for _, r := range ruleTable {
		if r.applies(ev, e.policy) {
			d.Verdict = r.verdict
			break
		}
	}
	return d
}

// evaluate computes every named signal for the pair.
func (e *Engine) evaluate(a, b record.RawIdentityRecord, ka, kb record.NormalizedKey) Evidence {
	return Evidence{
		NameScore:        e.scorer.Score(ka.Name, kb.Name),
		SharedAccount:    equalNonEmpty(strings.TrimSpace(a.AccountNo), strings.TrimSpace(b.AccountNo)),
		EmailDomainEqual: equalNonEmpty(ka.EmailDomain, kb.EmailDomain),
		PhoneEqual:       equalNonEmpty(ka.PhoneDigits, kb.PhoneDigits),
	}
}

// firedSignals lists the signals that contributed evidence, for the audit
// trail carried on each decision.
func firedSignals(ev Evidence) []Signal {
	var s []Signal
	if ev.SharedAccount {
		s = append(s, SignalSharedAccount)
	}
	if ev.NameScore > 0 {
		s = append(s, SignalNameSimilarity)
	}
	if ev.EmailDomainEqual {
		s = append(s, SignalEmailDomainEqual)
	}
	if ev.PhoneEqual {
		s = append(s, SignalPhoneEqual)
	}
	return s
}

// equalNonEmpty reports whether two values are equal and both present.
// A null never satisfies a match signal.
func equalNonEmpty(a, b string) bool {
	return a != "" && a == b
}

package match

import (
	"testing"

	"github.com/clearlens/resolve/internal/domain/normalize"
	"github.com/clearlens/resolve/internal/domain/record"
	"github.com/clearlens/resolve/internal/domain/similarity"
	"github.com/clearlens/resolve/pkg/types/common"
)

func newEngine() *Engine {
	return NewEngine(similarity.NewScorer(), DefaultPolicy())
}

func decide(t *testing.T, e *Engine, a, b record.RawIdentityRecord) Decision {
	t.Helper()
	n := normalize.NewNormalizer()
	return e.Decide(a, b, n.Normalize(a), n.Normalize(b))
}

func rec(src common.SourceDataset, row int64, name, email, phone, account string) record.RawIdentityRecord {
	return record.RawIdentityRecord{
		ID:        common.RecordID{Source: src, Row: row},
		RawName:   name,
		RawEmail:  email,
		RawPhone:  phone,
		AccountNo: account,
	}
}

func hasSignal(d Decision, s Signal) bool {
	for _, got := range d.Signals {
		if got == s {
			return true
		}
	}
	return false
}

func TestSharedAccountShortCircuits(t *testing.T) {
	e := newEngine()
	a := rec(common.SourceCustomer, 1, "Acme Optical", "", "", "1341")
	b := rec(common.SourceSales, 1, "Entirely Unrelated Name", "", "", "1341")

	d := decide(t, e, a, b)
	if d.Verdict != common.VerdictMatch {
		t.Errorf("shared account must force MATCH, got %s", d.Verdict)
	}
	if !hasSignal(d, SignalSharedAccount) {
		t.Error("decision must record the shared-account signal")
	}
}

func TestHighNameSimilarityMatches(t *testing.T) {
	e := newEngine()
	a := rec(common.SourceCustomer, 1, "Acme Optical LLC", "", "", "")
	b := rec(common.SourceSales, 1, "ACME OPTICAL", "", "", "")

	d := decide(t, e, a, b)
	if d.Verdict != common.VerdictMatch {
		t.Errorf("expected MATCH on name alone, got %s (score %v)", d.Verdict, d.Score)
	}
}

func TestMidBandWithDomainCorroborationMatches(t *testing.T) {
	e := newEngine()
	// "lakeside vis" vs "lakeside eye vis": mid-band name score, same domain.
	a := rec(common.SourceCustomer, 1, "Lakeside Vision", "billing@lakeside.com", "", "")
	b := rec(common.SourceEmail, 1, "Lakeside Eye Vision", "jane@lakeside.com", "", "")

	d := decide(t, e, a, b)
	if d.Score >= e.Policy().HighNameThreshold || d.Score < e.Policy().MidNameThreshold {
		t.Fatalf("test premise broken: score %v not in the mid band", d.Score)
	}
	if d.Verdict != common.VerdictMatch {
		t.Errorf("mid band + domain equality must MATCH, got %s", d.Verdict)
	}
	if !hasSignal(d, SignalEmailDomainEqual) {
		t.Error("decision must record the domain signal")
	}
}

func TestMidBandWithPhoneCorroborationMatches(t *testing.T) {
	e := newEngine()
	a := rec(common.SourceCustomer, 1, "Lakeside Vision", "", "555-867-5309", "")
	b := rec(common.SourceSales, 1, "Lakeside Eye Vision", "", "+1 (555) 867-5309", "")

	d := decide(t, e, a, b)
	if d.Verdict != common.VerdictMatch {
		t.Errorf("mid band + phone equality must MATCH, got %s", d.Verdict)
	}
	if !hasSignal(d, SignalPhoneEqual) {
		t.Error("decision must record the phone signal")
	}
}

func TestMidBandAloneIsAmbiguous(t *testing.T) {
	e := newEngine()
	a := rec(common.SourceCustomer, 1, "Lakeside Vision", "a@one.com", "555-0100", "")
	b := rec(common.SourceSales, 1, "Lakeside Eye Vision", "b@two.net", "555-0199", "")

	d := decide(t, e, a, b)
	if d.Score >= e.Policy().HighNameThreshold || d.Score < e.Policy().MidNameThreshold {
		t.Fatalf("test premise broken: score %v not in the mid band", d.Score)
	}
	if d.Verdict != common.VerdictAmbiguous {
		t.Errorf("mid band without corroboration must be AMBIGUOUS, got %s", d.Verdict)
	}
}

func TestLowSimilarityNoMatch(t *testing.T) {
	e := newEngine()
	a := rec(common.SourceCustomer, 1, "Acme Optical", "", "", "")
	b := rec(common.SourceSales, 1, "Harbor Dental Group", "", "", "")

	d := decide(t, e, a, b)
	if d.Verdict != common.VerdictNoMatch {
		t.Errorf("unrelated records must be NO_MATCH, got %s", d.Verdict)
	}
}

func TestNullFieldsNeverSatisfySignals(t *testing.T) {
	e := newEngine()
	// Both records have empty names, emails, phones, accounts: nothing to
	// compare, so nothing may match.
	a := rec(common.SourceCustomer, 1, "", "", "", "")
	b := rec(common.SourceSales, 1, "", "", "", "")

	d := decide(t, e, a, b)
	if d.Verdict != common.VerdictNoMatch {
		t.Errorf("all-null pair must be NO_MATCH, got %s", d.Verdict)
	}
	if d.Score != 0 {
		t.Errorf("all-null pair must score 0, got %v", d.Score)
	}
	if hasSignal(d, SignalEmailDomainEqual) || hasSignal(d, SignalPhoneEqual) || hasSignal(d, SignalSharedAccount) {
		t.Error("no signal may fire on empty fields")
	}
}

func TestDecideIsSymmetric(t *testing.T) {
	e := newEngine()
	a := rec(common.SourceCustomer, 1, "Lakeside Vision", "x@lakeside.com", "", "")
	b := rec(common.SourceEmail, 1, "Lakeside Eye Vision", "y@lakeside.com", "", "")

	ab := decide(t, e, a, b)
	ba := decide(t, e, b, a)
	if ab.Verdict != ba.Verdict || ab.Score != ba.Score {
		t.Errorf("Decide must be symmetric: (%s, %v) vs (%s, %v)",
			ab.Verdict, ab.Score, ba.Verdict, ba.Score)
	}
}

package candidate

import (
	"testing"

	"github.com/clearlens/resolve/internal/domain/normalize"
	"github.com/clearlens/resolve/internal/domain/record"
	"github.com/clearlens/resolve/pkg/types/common"
)

func rid(src common.SourceDataset, row int64) common.RecordID {
	return common.RecordID{Source: src, Row: row}
}

func buildIndex(t *testing.T, policy Policy, recs []record.RawIdentityRecord) *Index {
	t.Helper()
	n := normalize.NewNormalizer()
	ix := NewIndex(policy)
	for _, r := range recs {
		ix.Add(r, n.Normalize(r))
	}
	return ix
}

func TestCandidatesByFirstNameToken(t *testing.T) {
	recs := []record.RawIdentityRecord{
		{ID: rid(common.SourceCustomer, 1), RawName: "Acme Optical"},
		{ID: rid(common.SourceSales, 1), RawName: "ACME OPTICAL #1341"},
		{ID: rid(common.SourceSales, 2), RawName: "Harbor Dental"},
	}
	ix := buildIndex(t, DefaultPolicy(), recs)

	n := normalize.NewNormalizer()
	got := ix.Candidates(recs[0], n.Normalize(recs[0]))
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}
	if got[0] != recs[1].ID {
		t.Errorf("expected the shared-token record, got %v", got[0])
	}
}

func TestCandidatesByEmailDomain(t *testing.T) {
	recs := []record.RawIdentityRecord{
		{ID: rid(common.SourceCustomer, 1), RawName: "Acme Optical", RawEmail: "billing@acme.com"},
		{ID: rid(common.SourceEmail, 1), RawEmail: "jane@acme.com"},
		{ID: rid(common.SourceEmail, 2), RawEmail: "bob@other.net"},
	}
	ix := buildIndex(t, DefaultPolicy(), recs)

	n := normalize.NewNormalizer()
	got := ix.Candidates(recs[0], n.Normalize(recs[0]))
	if len(got) != 1 || got[0] != recs[1].ID {
		t.Errorf("expected only the shared-domain record, got %v", got)
	}
}

func TestCandidatesByAccountPrefix(t *testing.T) {
	recs := []record.RawIdentityRecord{
		{ID: rid(common.SourceCustomer, 1), RawName: "Acme Optical", AccountNo: "1341"},
		{ID: rid(common.SourceCustomer, 2), RawName: "Totally Different", AccountNo: "1341A"},
		{ID: rid(common.SourceCustomer, 3), RawName: "Another Shop", AccountNo: "9999"},
	}
	ix := buildIndex(t, DefaultPolicy(), recs)

	n := normalize.NewNormalizer()
	got := ix.Candidates(recs[0], n.Normalize(recs[0]))
	if len(got) != 1 || got[0] != recs[1].ID {
		t.Errorf("expected only the shared-prefix record, got %v", got)
	}
}

func TestCandidatesNeverYieldTarget(t *testing.T) {
	recs := []record.RawIdentityRecord{
		{ID: rid(common.SourceCustomer, 1), RawName: "Acme Optical"},
		{ID: rid(common.SourceSales, 1), RawName: "Acme Optical"},
	}
	ix := buildIndex(t, DefaultPolicy(), recs)

	n := normalize.NewNormalizer()
	for _, r := range recs {
		for _, id := range ix.Candidates(r, n.Normalize(r)) {
			if id == r.ID {
				t.Errorf("candidate set for %v must not contain the target", r.ID)
			}
		}
	}
}

func TestCandidatesDeduplicatedAcrossKeys(t *testing.T) {
	// These two share the name token AND the email domain AND the account
	// prefix; the candidate must still appear exactly once.
	recs := []record.RawIdentityRecord{
		{ID: rid(common.SourceCustomer, 1), RawName: "Acme Optical", RawEmail: "a@acme.com", AccountNo: "1341"},
		{ID: rid(common.SourceSales, 1), RawName: "Acme Optical", RawEmail: "b@acme.com", AccountNo: "1341F"},
	}
	ix := buildIndex(t, DefaultPolicy(), recs)

	n := normalize.NewNormalizer()
	got := ix.Candidates(recs[0], n.Normalize(recs[0]))
	if len(got) != 1 {
		t.Errorf("expected exactly 1 de-duplicated candidate, got %d", len(got))
	}
}

func TestCandidatesDeterministicOrder(t *testing.T) {
	recs := []record.RawIdentityRecord{
		{ID: rid(common.SourceCustomer, 1), RawName: "Acme Optical"},
		{ID: rid(common.SourceSales, 5), RawName: "Acme Frames"},
		{ID: rid(common.SourceSales, 2), RawName: "Acme Lenses"},
		{ID: rid(common.SourceEmail, 9), RawName: "Acme Vision"},
	}
	ix := buildIndex(t, DefaultPolicy(), recs)

	n := normalize.NewNormalizer()
	key := n.Normalize(recs[0])
	first := ix.Candidates(recs[0], key)
	second := ix.Candidates(recs[0], key)

	if len(first) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(first))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatal("repeated calls must yield identical order")
		}
	}
	for i := 1; i < len(first); i++ {
		if !first[i-1].Less(first[i]) {
			t.Fatal("candidates must be sorted by RecordID")
		}
	}
}

func TestDisabledKeysProduceNoCandidates(t *testing.T) {
	policy := Policy{ByEmailDomain: true}
	recs := []record.RawIdentityRecord{
		{ID: rid(common.SourceCustomer, 1), RawName: "Acme Optical", AccountNo: "1341"},
		{ID: rid(common.SourceSales, 1), RawName: "Acme Optical", AccountNo: "1341A"},
	}
	ix := buildIndex(t, policy, recs)

	n := normalize.NewNormalizer()
	if got := ix.Candidates(recs[0], n.Normalize(recs[0])); len(got) != 0 {
		t.Errorf("name/account blocking disabled: expected no candidates, got %v", got)
	}
}

func TestAccountPrefix(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"134157", 4, "1341"},
		{"1341A", 4, "1341"},
		{"13", 4, "13"},
		{"A1341", 4, ""},
		{"", 4, ""},
	}
	for _, tt := range tests {
		if got := accountPrefix(tt.in, tt.n); got != tt.want {
			t.Errorf("accountPrefix(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

package normalize

import (
	"testing"

	"github.com/clearlens/resolve/internal/domain/record"
)

func TestNormalizeName(t *testing.T) {
	n := NewNormalizer()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"case and punctuation", "ACME, Optical!", "acme opt"},
		{"trailing legal suffix", "Acme Optical LLC", "acme opt"},
		{"stacked legal suffixes", "Acme Optical Co Inc", "acme opt"},
		{"account tag", "1001 OPTICAL #1341", "1001 opt"},
		{"account tag with suffix letter", "Lakeside Vision #204A", "lakeside vis"},
		{"honorific", "Dr. Jane Smith", "jane smith"},
		{"vocabulary abbreviation", "True Eye Care Optometry", "true eye care opt"},
		{"number words", "Twenty Twenty Vision", "20 20 vis"},
		{"ampersand sons", "Miller & Sons", "miller"},
		{"whitespace collapse", "  Acme    Optical  ", "acme opt"},
		{"empty", "", ""},
		{"whitespace only", "   \t ", ""},
		{"punctuation only", "###", ""},
		{"designator-only name survives", "Inc", "inc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := n.NormalizeName(tt.in); got != tt.want {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeNameDeterministicAndIdempotent(t *testing.T) {
	n := NewNormalizer()
	in := "ACME Optical Co. #1341"

	first := n.NormalizeName(in)
	second := n.NormalizeName(in)
	if first != second {
		t.Fatalf("normalization must be deterministic: %q vs %q", first, second)
	}
	// Idempotence: normalizing an already-normalized name is a fixed point.
	if again := n.NormalizeName(first); again != first {
		t.Errorf("normalization must be idempotent: %q -> %q", first, again)
	}
}

func TestNormalizeEmail(t *testing.T) {
	n := NewNormalizer()

	tests := []struct {
		in         string
		wantLocal  string
		wantDomain string
	}{
		{"Billing@Acme.COM", "billing", "acme.com"},
		{"  jane@acme.com  ", "jane", "acme.com"},
		{"not-an-email", "", ""},
		{"@acme.com", "", ""},
		{"jane@", "", ""},
		{"", "", ""},
	}

	for _, tt := range tests {
		local, domain := n.NormalizeEmail(tt.in)
		if local != tt.wantLocal || domain != tt.wantDomain {
			t.Errorf("NormalizeEmail(%q) = (%q, %q), want (%q, %q)",
				tt.in, local, domain, tt.wantLocal, tt.wantDomain)
		}
	}
}

func TestNormalizePhone(t *testing.T) {
	n := NewNormalizer()

	tests := []struct {
		in   string
		want string
	}{
		{"(555) 867-5309", "5558675309"},
		{"+1 555 867 5309", "5558675309"},
		{"555-0100", "5550100"},
		{"ext. 42", "42"},
		{"", ""},
		{"no digits", ""},
	}

	for _, tt := range tests {
		if got := n.NormalizePhone(tt.in); got != tt.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCountryCodeTolerance(t *testing.T) {
	n := NewNormalizer()
	domestic := n.NormalizePhone("555-867-5309")
	international := n.NormalizePhone("+1 (555) 867-5309")
	if domestic != international {
		t.Errorf("country-code prefix must not change the comparison suffix: %q vs %q",
			domestic, international)
	}
}

func TestNormalizeRecordIsTotal(t *testing.T) {
	n := NewNormalizer()
	key := n.Normalize(record.RawIdentityRecord{})
	if key.HasName() || key.EmailDomain != "" || key.PhoneDigits != "" {
		t.Error("empty record must normalize to an all-empty key")
	}
}

// Package normalize canonicalises free-text names, email addresses, and phone
// numbers into the comparable keys the matching pipeline operates on.
//
// Normalization is total and pure: it never fails (missing fields become empty
// strings, not errors) and identical input always yields an identical key.
// Reproducibility of the whole resolution run rests on this property, so the
// pipeline caches one NormalizedKey per record and never re-derives ad hoc.
package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/clearlens/resolve/internal/domain/record"
)

// phoneSuffixLen is the number of trailing digits compared between phone
// numbers.  Comparing a fixed-length suffix tolerates country-code and trunk
// prefixes ("+1 555 867 5309" vs "555-867-5309").
const phoneSuffixLen = 10

var (
	// accountTagPattern matches trailing "#1341" / "#1341A" account tags that
	// point-of-sale exports append to customer names.
	accountTagPattern = regexp.MustCompile(`\s*#\d+[A-Za-z]*$`)

	// punctPattern matches every character that is not a letter, digit, or
	// space after lower-casing; each run is collapsed to a single space.
	punctPattern = regexp.MustCompile(`[^a-z0-9 ]+`)

	// spacePattern collapses repeated whitespace.
	spacePattern = regexp.MustCompile(`\s+`)

	// nonDigitPattern strips everything but digits from phone numbers.
	nonDigitPattern = regexp.MustCompile(`\D`)
)

// Normalizer derives NormalizedKeys from raw records.  It is stateless and
// safe for concurrent use; the pipeline shares one instance across workers.
type Normalizer struct{}

// NewNormalizer returns a ready-to-use Normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize derives the comparable key for rec.  It is total: a record with
// no usable fields yields a zero-value key whose empty fields never satisfy
// any match signal.
func (n *Normalizer) Normalize(rec record.RawIdentityRecord) record.NormalizedKey {
	local, domain := n.NormalizeEmail(rec.RawEmail)
	return record.NormalizedKey{
		Name:        n.NormalizeName(rec.RawName),
		EmailLocal:  local,
		EmailDomain: domain,
		PhoneDigits: n.NormalizePhone(rec.RawPhone),
	}
}

// NormalizeName canonicalises a business or personal name:
//
//  1. NFKC unicode fold, trailing "#1234A" account tag stripped, lower-cased.
//  2. Punctuation collapsed to spaces, whitespace collapsed.
//  3. Leading honorifics dropped; vocabulary and number-word tokens rewritten
//     via the abbreviation tables.
//  4. Trailing legal designators (inc, llc, ltd, ...) dropped, repeatedly, so
//     "Acme Optical Co Inc" and "ACME OPTICAL" normalize identically.
//
// An empty or unusable name returns "", which never matches anything.
func (n *Normalizer) NormalizeName(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	s = norm.NFKC.String(s)
	s = accountTagPattern.ReplaceAllString(s, "")
	s = strings.ToLower(s)
	s = punctPattern.ReplaceAllString(s, " ")
	s = spacePattern.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	tokens := strings.Split(s, " ")

	// Drop leading honorifics ("dr jane smith" → "jane smith").
	for len(tokens) > 0 && honorifics[tokens[0]] {
		tokens = tokens[1:]
	}

	// Rewrite vocabulary and number words token by token.
	for i, tok := range tokens {
		if abbr, ok := abbreviations[tok]; ok {
			tokens[i] = abbr
			continue
		}
		if digit, ok := numberWords[tok]; ok {
			tokens[i] = digit
		}
	}

	// Strip trailing legal designators, repeatedly, but never strip the name
	// down to nothing: a name consisting only of designators stays as-is
	// rather than collapsing to an empty (unmatchable) key.
	for len(tokens) > 1 && legalSuffixes[tokens[len(tokens)-1]] {
		tokens = tokens[:len(tokens)-1]
	}

	return strings.Join(tokens, " ")
}

// NormalizeEmail splits an address into lower-cased local part and domain.
// Addresses without exactly one usable "@" boundary yield ("", "").
func (n *Normalizer) NormalizeEmail(raw string) (local, domain string) {
	s := strings.ToLower(norm.NFKC.String(strings.TrimSpace(raw)))
	if s == "" {
		return "", ""
	}
	at := strings.LastIndexByte(s, '@')
	if at <= 0 || at == len(s)-1 {
		return "", ""
	}
	return s[:at], s[at+1:]
}

// NormalizePhone reduces a phone number to its digit-only comparison suffix:
// the last phoneSuffixLen digits, or every digit when fewer are present.
func (n *Normalizer) NormalizePhone(raw string) string {
	digits := nonDigitPattern.ReplaceAllString(raw, "")
	if len(digits) > phoneSuffixLen {
		digits = digits[len(digits)-phoneSuffixLen:]
	}
	return digits
}

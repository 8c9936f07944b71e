// Package record defines the immutable raw-record and derived-key types that
// flow through the resolution pipeline.
package record

import (
	"regexp"
	"strings"

	"github.com/clearlens/resolve/pkg/types/common"
)

// RawIdentityRecord is one row from a source dataset, exactly as the upstream
// ingestion collaborator delivered it.  Immutable once ingested; every derived
// value lives in NormalizedKey instead.
type RawIdentityRecord struct {
	ID        common.RecordID `json:"id"`
	RawName   string          `json:"raw_name"`
	RawEmail  string          `json:"raw_email"`
	RawPhone  string          `json:"raw_phone"`
	AccountNo string          `json:"account_no,omitempty"`
}

// Usable reports whether the record carries at least one field the normalizer
// can work with.  Records failing this check are skipped and counted as
// malformed, never silently dropped.
func (r RawIdentityRecord) Usable() bool {
	return strings.TrimSpace(r.RawName) != "" ||
		strings.TrimSpace(r.RawEmail) != "" ||
		strings.TrimSpace(r.RawPhone) != "" ||
		strings.TrimSpace(r.AccountNo) != ""
}

// NormalizedKey is the cached, comparable form of a record's identifying
// fields.  Derivation is a pure function of the raw fields: re-running on
// identical input always yields an identical key.  An empty field means the
// raw value was absent or unusable; empty fields never satisfy a match signal.
type NormalizedKey struct {
	Name        string `json:"name"`
	EmailLocal  string `json:"email_local"`
	EmailDomain string `json:"email_domain"`
	PhoneDigits string `json:"phone_digits"`
}

// HasName reports whether the key carries a comparable name.
func (k NormalizedKey) HasName() bool { return k.Name != "" }

// FirstNameToken returns the first whitespace-separated token of the
// normalized name, used as a blocking key.  Empty when the name is empty.
func (k NormalizedKey) FirstNameToken() string {
	if k.Name == "" {
		return ""
	}
	if i := strings.IndexByte(k.Name, ' '); i > 0 {
		return k.Name[:i]
	}
	return k.Name
}

// ─────────────────────────────────────────────────────────────────────────────
// Email-subject business-name extraction
// ─────────────────────────────────────────────────────────────────────────────

// businessNamePattern recognises optical-industry business names embedded in
// free text: a run of upper-case words ending in an industry keyword, e.g.
// "LAKESIDE OPTICAL" or "TRUE EYE CARE & VISION".
var businessNamePattern = regexp.MustCompile(`([A-Z][A-Z\s&]+(?:OPTICAL|OPTOMETRY|EYE|VISION|LENS))`)

// ExtractBusinessName scans free text (an email subject, sender display name,
// or summary line) for an embedded business name and returns the first hit.
// Used when an EMAIL-source record has no usable raw name of its own.
func ExtractBusinessName(text string) string {
	m := businessNamePattern.FindString(text)
	return strings.TrimSpace(m)
}

// Package entity merges pairwise match decisions into disjoint business
// entities and assigns each one a stable Business ID.
package entity

import (
	"regexp"
	"strings"

	"github.com/clearlens/resolve/pkg/types/common"
)

// BusinessEntity is one resolved cluster: the set of records that refer to a
// single real-world business.  Entities partition the record universe — every
// record belongs to exactly one entity and entities are pairwise disjoint.
type BusinessEntity struct {
	BusinessID    common.BusinessID `json:"business_id"`
	Members       []common.RecordID `json:"members"`
	CanonicalName string            `json:"canonical_name"`
	AccountType   AccountType       `json:"account_type"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Account-number parsing and classification
// ─────────────────────────────────────────────────────────────────────────────

// AccountType is the business-line classification derived from account-number
// suffixes.  The suffix conventions come from the optical-industry account
// scheme used by the source systems.
type AccountType string

const (
	AccountLens      AccountType = "Lens"
	AccountFrame     AccountType = "Frame"
	AccountAccessory AccountType = "Accessory"
	AccountSurface   AccountType = "Surface"
	AccountBrandLens AccountType = "Brand Lens"
	AccountEdging    AccountType = "Edging"
	AccountMixed     AccountType = "Mixed"
	AccountOther     AccountType = "Other"
	AccountUnknown   AccountType = "Unknown"
)

// suffixTypes maps account-number suffix letters to business lines.  An
// account with no suffix is the main (prescription lens) account.
var suffixTypes = map[string]AccountType{
	"A": AccountAccessory,
	"F": AccountFrame,
	"K": AccountSurface,
	"S": AccountBrandLens,
	"E": AccountEdging,
	"":  AccountLens,
}

// AccountInfo is the parsed form of a raw account number such as "1341A":
// a numeric base identifying the business and an optional letter suffix
// identifying the business line.
type AccountInfo struct {
	Base   string
	Suffix string
	Type   AccountType
}

var accountPattern = regexp.MustCompile(`^(\d+)([A-Za-z]*)$`)

// ParseAccount splits an account number into base, suffix, and type.
// Unparseable but non-empty values classify as Unknown with the raw string as
// base; empty input returns a zero AccountInfo.
func ParseAccount(accountNo string) AccountInfo {
	s := strings.TrimSpace(accountNo)
	if s == "" {
		return AccountInfo{}
	}
	m := accountPattern.FindStringSubmatch(s)
	if m == nil {
		return AccountInfo{Base: s, Type: AccountUnknown}
	}
	suffix := strings.ToUpper(m[2])
	typ, ok := suffixTypes[suffix]
	if !ok {
		typ = AccountOther
	}
	return AccountInfo{Base: m[1], Suffix: suffix, Type: typ}
}

// categoryKeywords backs the fallback classification for entities with no
// parseable account number: the canonical name is scanned for business-line
// vocabulary instead.
var categoryKeywords = []struct {
	word string
	typ  AccountType
}{
	{"len", AccountLens},
	{"frame", AccountFrame},
	{"accessory", AccountAccessory},
	{"accessories", AccountAccessory},
}

// ClassifyAccountType derives an entity's business line deterministically:
// the distinct types of its members' accounts if it has any (more than one
// distinct type is Mixed), otherwise a keyword scan of the canonical name,
// otherwise Unknown.  No learning, just tables.
func ClassifyAccountType(accountNos []string, canonicalName string) AccountType {
	types := make(map[AccountType]bool)
	for _, no := range accountNos {
		info := ParseAccount(no)
		if info.Type != "" && info.Type != AccountUnknown {
			types[info.Type] = true
		}
	}
	switch len(types) {
	case 0:
		// Fall through to keyword classification.
	case 1:
		for t := range types {
			return t
		}
	default:
		return AccountMixed
	}

	name := strings.ToLower(canonicalName)
	for _, kw := range categoryKeywords {
		if strings.Contains(name, kw.word) {
			return kw.typ
		}
	}
	return AccountUnknown
}

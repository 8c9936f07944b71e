// Package common defines the primitive identifier and enumeration types shared
// by every layer of the resolve platform.  Only plain data types live here —
// no I/O, no business logic — so that pkg/errors, the domain packages, and the
// infrastructure adapters can all depend on it without import cycles.
package common

import (
	"fmt"

	"github.com/google/uuid"
)

// BusinessID is the stable identifier assigned to a resolved business entity.
// Once assigned it is never reused and never changes across runs for the same
// member set.
type BusinessID string

// NewBusinessID mints a fresh BusinessID.  IDs are opaque UUIDs rather than
// sequential counters so that an exported ID reveals nothing about how many
// entities exist or in which order they were resolved.
func NewBusinessID() BusinessID {
	return BusinessID(uuid.NewString())
}

// IsZero reports whether the BusinessID is unset.
func (id BusinessID) IsZero() bool { return id == "" }

func (id BusinessID) String() string { return string(id) }

// ─────────────────────────────────────────────────────────────────────────────
// SourceDataset
// ─────────────────────────────────────────────────────────────────────────────

// SourceDataset identifies which upstream extract a raw record came from.
type SourceDataset string

const (
	SourceCustomer SourceDataset = "customer"
	SourceSales    SourceDataset = "sales"
	SourceEmail    SourceDataset = "email"
)

// Valid reports whether s is one of the three known source datasets.
func (s SourceDataset) Valid() bool {
	switch s {
	case SourceCustomer, SourceSales, SourceEmail:
		return true
	}
	return false
}

func (s SourceDataset) String() string { return string(s) }

// ─────────────────────────────────────────────────────────────────────────────
// RecordID — composite record key
// ─────────────────────────────────────────────────────────────────────────────

// RecordID is the composite key (source dataset, origin row id) minted at
// ingestion.  Row numbers from independently loaded extracts are meaningless
// on their own, so a record is only ever addressed together with its source.
type RecordID struct {
	Source SourceDataset `json:"source"`
	Row    int64         `json:"row"`
}

func (r RecordID) String() string {
	return fmt.Sprintf("%s/%d", r.Source, r.Row)
}

// Less imposes a total order over RecordIDs: source name first, then row.
// Deterministic iteration over records depends on this order.
func (r RecordID) Less(other RecordID) bool {
	if r.Source != other.Source {
		return r.Source < other.Source
	}
	return r.Row < other.Row
}

// ─────────────────────────────────────────────────────────────────────────────
// FieldKind
// ─────────────────────────────────────────────────────────────────────────────

// FieldKind names an identifying field subject to pseudonymisation.
type FieldKind string

const (
	FieldName  FieldKind = "name"
	FieldEmail FieldKind = "email"
	FieldPhone FieldKind = "phone"
)

// Valid reports whether k is a known pseudonymisable field kind.
func (k FieldKind) Valid() bool {
	switch k {
	case FieldName, FieldEmail, FieldPhone:
		return true
	}
	return false
}

func (k FieldKind) String() string { return string(k) }

// ─────────────────────────────────────────────────────────────────────────────
// Verdict
// ─────────────────────────────────────────────────────────────────────────────

// Verdict is the outcome of a pairwise match decision.
type Verdict string

const (
	VerdictMatch   Verdict = "match"
	VerdictNoMatch Verdict = "no_match"
	// VerdictAmbiguous marks a pair whose evidence is insufficient for an
	// automatic decision.  Ambiguous pairs are surfaced for review and are
	// never used as clustering edges.
	VerdictAmbiguous Verdict = "ambiguous"
)

func (v Verdict) String() string { return string(v) }

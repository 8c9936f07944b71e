// Package quality aggregates per-run resolution statistics into a report for
// operators and downstream reporting collaborators.  Reports carry counts,
// rates, and distribution buckets only — never record contents.
package quality

import (
	"time"

	"github.com/clearlens/resolve/internal/domain/entity"
	"github.com/clearlens/resolve/internal/domain/match"
	"github.com/clearlens/resolve/pkg/types/common"
)

// Assessment is the coarse quality tier derived from the resolution rate.
type Assessment string

const (
	AssessmentExcellent Assessment = "Excellent"
	AssessmentGood      Assessment = "Good"
	AssessmentModerate  Assessment = "Moderate"
	AssessmentPoor      Assessment = "Poor"
)

// SizeBuckets is the cluster-size distribution: how many entities hold one
// record, a handful, or many.  A heavy Single bucket on data known to repeat
// suggests under-merging; a fat Large bucket suggests chaining gone wide.
type SizeBuckets struct {
	Single int `json:"single"`  // exactly 1 member
	Small  int `json:"small"`   // 2–5 members
	Medium int `json:"medium"`  // 6–10 members
	Large  int `json:"large"`   // more than 10 members
	Max    int `json:"largest"` // members in the largest entity
}

func (b *SizeBuckets) observe(size int) {
	switch {
	case size <= 1:
		b.Single++
	case size <= 5:
		b.Small++
	case size <= 10:
		b.Medium++
	default:
		b.Large++
	}
	if size > b.Max {
		b.Max = size
	}
}

// Report summarizes one resolution run.
type Report struct {
	RunAt          time.Time `json:"run_at"`
	RecordsIn      int       `json:"records_in"`
	RecordsSkipped int       `json:"records_skipped"`
	PairsCompared  int       `json:"pairs_compared"`
	Matches        int       `json:"matches"`
	Ambiguous      int       `json:"ambiguous"`
	NoMatches      int       `json:"no_matches"`
	Entities       int       `json:"entities"`
	Collisions     int       `json:"collisions"`

	// ResolutionRate is the share of usable records that ended up in a
	// multi-record entity, in percent.  Singletons count as unresolved: a
	// record nothing matched tells us nothing about linkage quality.
	ResolutionRate float64 `json:"resolution_rate"`
	// AmbiguityRate is ambiguous decisions over all compared pairs, in
	// percent.
	AmbiguityRate float64 `json:"ambiguity_rate"`

	Sizes      SizeBuckets `json:"sizes"`
	Assessment Assessment  `json:"assessment"`
}

// Build assembles the report for a finished run.
func Build(runAt time.Time, recordsIn, skipped int, decisions []match.Decision, entities []entity.BusinessEntity, collisions []entity.CollisionEvent) Report {
	r := Report{
		RunAt:          runAt,
		RecordsIn:      recordsIn,
		RecordsSkipped: skipped,
		PairsCompared:  len(decisions),
		Entities:       len(entities),
		Collisions:     len(collisions),
	}

	for _, d := range decisions {
		switch d.Verdict {
		case common.VerdictMatch:
			r.Matches++
		case common.VerdictAmbiguous:
			r.Ambiguous++
		default:
			r.NoMatches++
		}
	}

	resolved := 0
	usable := 0
	for _, e := range entities {
		n := len(e.Members)
		usable += n
		r.Sizes.observe(n)
		if n > 1 {
			resolved += n
		}
	}
	if usable > 0 {
		r.ResolutionRate = 100 * float64(resolved) / float64(usable)
	}
	if r.PairsCompared > 0 {
		r.AmbiguityRate = 100 * float64(r.Ambiguous) / float64(r.PairsCompared)
	}
	r.Assessment = assess(r.ResolutionRate)
	return r
}

// assess maps a resolution rate (percent) to its tier.
func assess(rate float64) Assessment {
	switch {
	case rate > 90:
		return AssessmentExcellent
	case rate > 80:
		return AssessmentGood
	case rate > 60:
		return AssessmentModerate
	default:
		return AssessmentPoor
	}
}

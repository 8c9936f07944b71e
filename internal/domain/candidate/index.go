// Package candidate restricts the pairwise comparison space through blocking.
//
// Comparing every record against every other record across three datasets is
// O(n²) and dominates runtime long before datasets reach interesting sizes.
// Instead, records are bucketed under cheap keys — first normalized name
// token, email domain, account-number prefix — and a pair is only ever scored
// when it shares at least one bucket.
//
// This is an explicit, tunable recall trade-off, not a hidden limitation:
// near-duplicate pairs that share none of the enabled blocking keys are never
// compared and therefore can never match.  The Policy struct makes the choice
// visible and configurable per run.
package candidate

import (
	"sort"
	"strings"

	"github.com/clearlens/resolve/internal/domain/record"
	"github.com/clearlens/resolve/pkg/types/common"
)

// Policy selects which blocking keys are active.  At least one must be
// enabled; config validation enforces this upstream.
type Policy struct {
	ByFirstNameToken bool
	ByEmailDomain    bool
	ByAccountPrefix  bool
	AccountPrefixLen int
}

// DefaultPolicy enables every blocking key with a 4-digit account prefix.
func DefaultPolicy() Policy {
	return Policy{
		ByFirstNameToken: true,
		ByEmailDomain:    true,
		ByAccountPrefix:  true,
		AccountPrefixLen: 4,
	}
}

// entry pairs a record with its cached normalized key so candidate lookups
// return everything the decision engine needs.
type entry struct {
	Record record.RawIdentityRecord
	Key    record.NormalizedKey
}

// Index is the blocking index over a record pool.  Build it once with Add,
// then share it read-only across parallel scoring workers: Add is not safe
// for concurrent use, Candidates is.
type Index struct {
	policy  Policy
	entries map[common.RecordID]entry
	buckets map[string][]common.RecordID
}

// NewIndex returns an empty Index with the given blocking policy.
func NewIndex(policy Policy) *Index {
	return &Index{
		policy:  policy,
		entries: make(map[common.RecordID]entry),
		buckets: make(map[string][]common.RecordID),
	}
}

// Add registers a record and its normalized key under every enabled blocking
// key the record provides.  Records with no usable blocking key are stored but
// land in no bucket; they yield no candidates and surface as unmatched.
func (ix *Index) Add(rec record.RawIdentityRecord, key record.NormalizedKey) {
	ix.entries[rec.ID] = entry{Record: rec, Key: key}
	for _, bk := range ix.bucketKeys(rec, key) {
		ix.buckets[bk] = append(ix.buckets[bk], rec.ID)
	}
}

// Len returns the number of indexed records.
func (ix *Index) Len() int { return len(ix.entries) }

// Get returns the stored record and key for id.
func (ix *Index) Get(id common.RecordID) (record.RawIdentityRecord, record.NormalizedKey, bool) {
	e, ok := ix.entries[id]
	return e.Record, e.Key, ok
}

// Candidates returns the records sharing at least one blocking bucket with
// the target, excluding the target itself, de-duplicated and sorted by
// RecordID for deterministic iteration.  The result is bounded by the pool
// size and independent of previous calls.
func (ix *Index) Candidates(target record.RawIdentityRecord, key record.NormalizedKey) []common.RecordID {
	seen := make(map[common.RecordID]bool)
	var out []common.RecordID
	for _, bk := range ix.bucketKeys(target, key) {
		for _, id := range ix.buckets[bk] {
			if id == target.ID || seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// bucketKeys derives the blocking keys for a record under the active policy.
// Each key is namespaced so a name token can never collide with a domain.
func (ix *Index) bucketKeys(rec record.RawIdentityRecord, key record.NormalizedKey) []string {
	var keys []string
	if ix.policy.ByFirstNameToken {
		if tok := key.FirstNameToken(); tok != "" {
			keys = append(keys, "n:"+tok)
		}
	}
	if ix.policy.ByEmailDomain && key.EmailDomain != "" {
		keys = append(keys, "d:"+key.EmailDomain)
	}
	if ix.policy.ByAccountPrefix {
		if prefix := accountPrefix(rec.AccountNo, ix.policy.AccountPrefixLen); prefix != "" {
			keys = append(keys, "a:"+prefix)
		}
	}
	return keys
}

// accountPrefix returns the first n digits of the account number's numeric
// base, or every digit when the base is shorter.  Empty when the account
// number carries no leading digits.
func accountPrefix(accountNo string, n int) string {
	s := strings.TrimSpace(accountNo)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return ""
	}
	if end > n {
		end = n
	}
	return s[:end]
}

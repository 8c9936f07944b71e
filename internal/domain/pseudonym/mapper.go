// Package pseudonym maps resolved business identities to stable opaque
// tokens for de-identified exports.
//
// A pseudonym is keyed by (BusinessID, FieldKind) and minted exactly once:
// every later request for the same key returns the same token, within a run
// and across runs.  Tokens are random UUIDs — they are never derived from the
// raw value, so possession of a pseudonym reveals nothing about the value it
// replaced.  The mapping store is the only inverse.
package pseudonym

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/clearlens/resolve/pkg/errors"
	"github.com/clearlens/resolve/pkg/types/common"
)

// Key identifies one pseudonym: which entity and which field class it stands
// in for.  Two fields of the same entity get independent tokens.
type Key struct {
	BusinessID common.BusinessID `json:"business_id"`
	FieldKind  common.FieldKind  `json:"field_kind"`
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s", k.BusinessID, k.FieldKind)
}

// Store persists pseudonym mappings.  Implementations must guarantee
// at-most-one token per key under concurrent callers: Upsert either inserts
// the proposed token and returns it, or returns the token that already won.
type Store interface {
	// Get returns the token for key, or a CodeMappingNotFound error.
	Get(ctx context.Context, key Key) (string, error)
	// Upsert atomically installs token for key if absent and returns the
	// stored token, which may differ from the proposal when another writer
	// got there first.
	Upsert(ctx context.Context, key Key, token string) (string, error)
}

// Mapper synthesizes pseudonyms on demand, delegating uniqueness to the
// Store.
type Mapper struct {
	store Store
}

func NewMapper(store Store) *Mapper {
	return &Mapper{store: store}
}

// Pseudonym returns the stable token for (businessID, kind), minting one if
// the key has never been seen.  The returned token is identical for every
// caller asking about the same key, regardless of interleaving.
func (m *Mapper) Pseudonym(ctx context.Context, businessID common.BusinessID, kind common.FieldKind) (string, error) {
	if businessID.IsZero() {
		return "", errors.InvalidParam("business id must not be empty")
	}
	if !kind.Valid() {
		return "", errors.InvalidParam(fmt.Sprintf("unknown field kind %q", kind))
	}
	key := Key{BusinessID: businessID, FieldKind: kind}

	token, err := m.store.Get(ctx, key)
	if err == nil {
		return token, nil
	}
	if !errors.IsCode(err, errors.CodeMappingNotFound) {
		return "", errors.Wrap(err, errors.CodeMappingStoreUnavailable, "pseudonym lookup failed")
	}

	// Miss: propose a fresh token.  The store arbitrates races — whichever
	// proposal lands first wins, and everyone reads that winner back.
	proposed := uuid.NewString()
	stored, err := m.store.Upsert(ctx, key, proposed)
	if err != nil {
		return "", errors.Wrap(err, errors.CodePseudonymFailed, "pseudonym creation failed")
	}
	return stored, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// in-memory store
// ─────────────────────────────────────────────────────────────────────────────

// MemoryStore is a process-local Store used by tests and single-node runs.
// A single mutex guards the map; contention is negligible at batch scale.
type MemoryStore struct {
	mu     sync.Mutex
	tokens map[Key]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tokens: make(map[Key]string)}
}

func (s *MemoryStore) Get(_ context.Context, key Key) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.tokens[key]
	if !ok {
		return "", errors.New(errors.CodeMappingNotFound, fmt.Sprintf("no pseudonym for %s", key))
	}
	return token, nil
}

func (s *MemoryStore) Upsert(_ context.Context, key Key, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.tokens[key]; ok {
		return existing, nil
	}
	s.tokens[key] = token
	return token, nil
}

// Len reports the number of stored mappings.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}

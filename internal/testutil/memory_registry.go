package testutil

import (
	"context"
	"sync"

	"github.com/clearlens/resolve/internal/domain/entity"
	"github.com/clearlens/resolve/pkg/types/common"
)

// MemoryRegistry implements entity.Registry in memory.  Saved assignments
// become the prior set for the next run, so multi-run ID-stability scenarios
// can be exercised without a database.
type MemoryRegistry struct {
	mu   sync.Mutex
	rows map[common.RecordID]entity.PriorAssignment

	// PriorErr and SaveErr, when set, are returned by the corresponding
	// method to simulate storage failures.
	PriorErr error
	SaveErr  error
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{rows: make(map[common.RecordID]entity.PriorAssignment)}
}

func (r *MemoryRegistry) Prior(_ context.Context) (map[common.RecordID]entity.PriorAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.PriorErr != nil {
		return nil, r.PriorErr
	}
	out := make(map[common.RecordID]entity.PriorAssignment, len(r.rows))
	for id, pa := range r.rows {
		out[id] = pa
	}
	return out, nil
}

func (r *MemoryRegistry) Save(_ context.Context, assignments map[common.RecordID]entity.PriorAssignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.SaveErr != nil {
		return r.SaveErr
	}
	for id, pa := range assignments {
		r.rows[id] = pa
	}
	return nil
}

// Len reports the number of stored assignments.
func (r *MemoryRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

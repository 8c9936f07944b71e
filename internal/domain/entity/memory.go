package entity

import (
	"context"
	"sync"

	"github.com/clearlens/resolve/pkg/types/common"
)

// MemoryRegistry is a process-local Registry used by single-node and dry
// runs.  Assignments live only as long as the process, so Business IDs are
// stable within one invocation but not across invocations.
type MemoryRegistry struct {
	mu   sync.Mutex
	rows map[common.RecordID]PriorAssignment
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{rows: make(map[common.RecordID]PriorAssignment)}
}

func (r *MemoryRegistry) Prior(_ context.Context) (map[common.RecordID]PriorAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[common.RecordID]PriorAssignment, len(r.rows))
	for id, pa := range r.rows {
		out[id] = pa
	}
	return out, nil
}

func (r *MemoryRegistry) Save(_ context.Context, assignments map[common.RecordID]PriorAssignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, pa := range assignments {
		r.rows[id] = pa
	}
	return nil
}

var _ Registry = (*MemoryRegistry)(nil)

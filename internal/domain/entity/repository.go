package entity

import (
	"context"

	"github.com/clearlens/resolve/pkg/types/common"
)

// Registry is the persistence port for business-ID assignments across runs.
// ID stability depends on it: a run must load every prior assignment before
// assigning IDs, and persist the full new assignment set afterwards.
type Registry interface {
	// Prior returns every record→ID assignment from earlier runs.
	Prior(ctx context.Context) (map[common.RecordID]PriorAssignment, error)

	// Save persists the complete assignment set for a finished run.
	// Implementations replace existing rows for the same record IDs; mint
	// times of reused Business IDs are preserved by the caller.
	Save(ctx context.Context, assignments map[common.RecordID]PriorAssignment) error
}

package entity

import (
	"sort"
	"time"

	"github.com/clearlens/resolve/pkg/types/common"
)

// PriorAssignment is one row of the business-ID registry: the ID a record was
// resolved to in an earlier run and when that ID was first minted.  Mint time
// defines which ID survives a collapse — the oldest one.
type PriorAssignment struct {
	BusinessID common.BusinessID
	AssignedAt time.Time
}

// CollisionEvent records two or more previously distinct Business IDs
// collapsing into one because a new run connected their members.  Collisions
// are reportable, never silent: downstream consumers hold references to the
// absorbed IDs and must be told where they went.
type CollisionEvent struct {
	Survivor common.BusinessID   `json:"survivor"`
	Absorbed []common.BusinessID `json:"absorbed"`
	Members  []common.RecordID   `json:"members"`
}

// AssignIDs gives every entity a stable Business ID, consulting the prior-run
// registry:
//
//   - a component containing no previously assigned record gets a freshly
//     minted ID;
//   - a component intersecting exactly one prior ID reuses it;
//   - a component intersecting several prior IDs reuses the oldest and emits
//     a CollisionEvent naming the absorbed IDs.
//
// Entities are modified in place.  Given identical input (including the
// registry), assignment is deterministic — except for the UUIDs of genuinely
// new entities, which are minted fresh but then stable once persisted.
func AssignIDs(entities []BusinessEntity, prior map[common.RecordID]PriorAssignment, now time.Time) []CollisionEvent {
	var collisions []CollisionEvent

	for i := range entities {
		ent := &entities[i]

		// Collect the distinct prior IDs intersecting this component.
		seen := make(map[common.BusinessID]time.Time)
		for _, id := range ent.Members {
			if pa, ok := prior[id]; ok {
				if t, dup := seen[pa.BusinessID]; !dup || pa.AssignedAt.Before(t) {
					seen[pa.BusinessID] = pa.AssignedAt
				}
			}
		}

		switch len(seen) {
		case 0:
			ent.BusinessID = common.NewBusinessID()
		case 1:
			for id := range seen {
				ent.BusinessID = id
			}
		default:
			survivor, absorbed := splitOldest(seen)
			ent.BusinessID = survivor
			collisions = append(collisions, CollisionEvent{
				Survivor: survivor,
				Absorbed: absorbed,
				Members:  ent.Members,
			})
		}
	}
	return collisions
}

// splitOldest returns the oldest ID (ties broken by ID string order, so the
// choice is deterministic) and the remaining IDs sorted.
func splitOldest(ids map[common.BusinessID]time.Time) (common.BusinessID, []common.BusinessID) {
	all := make([]common.BusinessID, 0, len(ids))
	for id := range ids {
		all = append(all, id)
	}
	sort.Slice(all, func(i, j int) bool {
		ti, tj := ids[all[i]], ids[all[j]]
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return all[i] < all[j]
	})
	return all[0], all[1:]
}

// Assignments flattens resolved entities back into registry rows for
// persistence.  New entities carry now as their mint time; reused IDs keep
// their original mint time from the registry.
func Assignments(entities []BusinessEntity, prior map[common.RecordID]PriorAssignment, now time.Time) map[common.RecordID]PriorAssignment {
	mintTimes := make(map[common.BusinessID]time.Time)
	for _, pa := range prior {
		if t, ok := mintTimes[pa.BusinessID]; !ok || pa.AssignedAt.Before(t) {
			mintTimes[pa.BusinessID] = pa.AssignedAt
		}
	}

	out := make(map[common.RecordID]PriorAssignment)
	for _, ent := range entities {
		minted, ok := mintTimes[ent.BusinessID]
		if !ok {
			minted = now
		}
		for _, id := range ent.Members {
			out[id] = PriorAssignment{BusinessID: ent.BusinessID, AssignedAt: minted}
		}
	}
	return out
}

package entity

import (
	"sort"

	"github.com/clearlens/resolve/pkg/types/common"
)

// Member is one record entering clustering, reduced to the fields the
// clusterer needs: its identity, its normalized name (for canonical-name
// election), and its account number (for classification).
type Member struct {
	ID             common.RecordID
	NormalizedName string
	AccountNo      string
}

// Edge is an undirected MATCH edge between two records.  Only MATCH verdicts
// become edges; AMBIGUOUS and NO_MATCH pairs never connect anything.
type Edge struct {
	A common.RecordID
	B common.RecordID
}

// Cluster computes the connected components of the match graph and returns
// one BusinessEntity per component, Business IDs unassigned.  Every input
// member lands in exactly one entity; records with no edges become singleton
// entities.
//
// MATCH is not transitive in general: if A matches B and B matches C, A and C
// land in the same entity even when A–C was never compared or scored low.
// Chaining can therefore over-merge.  This is a deliberate trade-off:
// downstream reporting tolerates an occasional over-broad entity far better
// than the same business fragmented across several IDs.
//
// Determinism: members are processed in RecordID order and edges in input
// order; identical input always yields identical components, member order,
// and canonical names.
func Cluster(members []Member, edges []Edge) []BusinessEntity {
	sorted := make([]Member, len(members))
	copy(sorted, members)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID.Less(sorted[j].ID) })

	uf := newUnionFind()
	byID := make(map[common.RecordID]Member, len(sorted))
	for _, m := range sorted {
		uf.add(m.ID)
		byID[m.ID] = m
	}
	for _, e := range edges {
		// Edges referencing unknown records are ignored rather than invented.
		if _, okA := byID[e.A]; !okA {
			continue
		}
		if _, okB := byID[e.B]; !okB {
			continue
		}
		uf.union(e.A, e.B)
	}

	// Group members by component root, preserving RecordID order.
	groups := make(map[common.RecordID][]Member)
	var roots []common.RecordID
	for _, m := range sorted {
		root := uf.find(m.ID)
		if _, seen := groups[root]; !seen {
			roots = append(roots, root)
		}
		groups[root] = append(groups[root], m)
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i].Less(roots[j]) })

	entities := make([]BusinessEntity, 0, len(roots))
	for _, root := range roots {
		group := groups[root]
		ids := make([]common.RecordID, len(group))
		accounts := make([]string, 0, len(group))
		for i, m := range group {
			ids[i] = m.ID
			if m.AccountNo != "" {
				accounts = append(accounts, m.AccountNo)
			}
		}
		name := electCanonicalName(group)
		entities = append(entities, BusinessEntity{
			Members:       ids,
			CanonicalName: name,
			AccountType:   ClassifyAccountType(accounts, name),
		})
	}
	return entities
}

// electCanonicalName picks the non-empty normalized name held by the
// plurality of members.  Ties break by preferring a name witnessed by a
// CUSTOMER-source record, then by the lowest witnessing RecordID — a total
// order, so the election is fully deterministic.
func electCanonicalName(group []Member) string {
	type candidate struct {
		votes   int
		witness common.RecordID
	}
	tally := make(map[string]*candidate)
	for _, m := range group {
		if m.NormalizedName == "" {
			continue
		}
		c, ok := tally[m.NormalizedName]
		if !ok {
			tally[m.NormalizedName] = &candidate{votes: 1, witness: m.ID}
			continue
		}
		c.votes++
		if witnessPreferred(m.ID, c.witness) {
			c.witness = m.ID
		}
	}

	var best string
	var bestC *candidate
	for name, c := range tally {
		if bestC == nil ||
			c.votes > bestC.votes ||
			(c.votes == bestC.votes && witnessPreferred(c.witness, bestC.witness)) {
			best = name
			bestC = c
		}
	}
	return best
}

// witnessPreferred reports whether witness a outranks b: CUSTOMER source
// first, then RecordID order.
func witnessPreferred(a, b common.RecordID) bool {
	aCust := a.Source == common.SourceCustomer
	bCust := b.Source == common.SourceCustomer
	if aCust != bCust {
		return aCust
	}
	return a.Less(b)
}

// ─────────────────────────────────────────────────────────────────────────────
// union-find
// ─────────────────────────────────────────────────────────────────────────────

// unionFind is a standard disjoint-set forest with path compression and
// union by size.
type unionFind struct {
	parent map[common.RecordID]common.RecordID
	size   map[common.RecordID]int
}

func newUnionFind() *unionFind {
	return &unionFind{
		parent: make(map[common.RecordID]common.RecordID),
		size:   make(map[common.RecordID]int),
	}
}

func (u *unionFind) add(id common.RecordID) {
	if _, ok := u.parent[id]; !ok {
		u.parent[id] = id
		u.size[id] = 1
	}
}

func (u *unionFind) find(id common.RecordID) common.RecordID {
	root := id
	for u.parent[root] != root {
		root = u.parent[root]
	}
	for u.parent[id] != root {
		id, u.parent[id] = u.parent[id], root
	}
	return root
}

func (u *unionFind) union(a, b common.RecordID) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if u.size[ra] < u.size[rb] {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
	u.size[ra] += u.size[rb]
}

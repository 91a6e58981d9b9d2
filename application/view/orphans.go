package view

import (
	"strings"

	"nexusboard/domain/node"
)

// DefaultOrphanLimit caps the recovery view so it stays responsive even when
// thousands of nodes are orphaned.
const DefaultOrphanLimit = 200

// Partition splits a temporally-filtered node set into nodes whose declared
// parent resolves within the set and orphans whose parent is absent.
type Partition struct {
	Connected []node.Node
	Orphans   []node.Node
}

// PartitionOrphans classifies every node with a parent reference that is
// absent from the set as an orphan. A dangling parentId is a first-class,
// expected state, not an error: parents get deleted, or were never created.
// Children of an orphan still resolve their own parent and stay connected.
func PartitionOrphans(nodes []node.Node) Partition {
	ids := make(map[string]struct{}, len(nodes))
	for i := range nodes {
		ids[nodes[i].ID] = struct{}{}
	}

	p := Partition{
		Connected: make([]node.Node, 0, len(nodes)),
		Orphans:   make([]node.Node, 0),
	}
	for i := range nodes {
		n := nodes[i]
		if n.HasParent() {
			if _, ok := ids[n.ParentID]; !ok {
				p.Orphans = append(p.Orphans, n)
				continue
			}
		}
		p.Connected = append(p.Connected, n)
	}
	return p
}

// OrphanQuery filters the recovery view by free-text title match and status.
// A zero Limit falls back to DefaultOrphanLimit.
type OrphanQuery struct {
	Title  string
	Status node.Status
	Limit  int
}

// Apply filters orphans by the query, bounded to the display cap.
func (q OrphanQuery) Apply(orphans []node.Node) []node.Node {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultOrphanLimit
	}
	needle := strings.ToLower(strings.TrimSpace(q.Title))

	out := make([]node.Node, 0, min(limit, len(orphans)))
	for i := range orphans {
		if len(out) == limit {
			break
		}
		n := orphans[i]
		if q.Status != "" && n.Status != q.Status {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(n.Title), needle) {
			continue
		}
		out = append(out, n)
	}
	return out
}

// StatusCounts tallies orphans per status for the recovery view header.
func StatusCounts(orphans []node.Node) map[node.Status]int {
	counts := make(map[node.Status]int, 4)
	for i := range orphans {
		counts[orphans[i].Status]++
	}
	return counts
}

package board

import (
	"nexusboard/domain/node"
)

// supersedes reports whether an event with the declared timestamp ts may
// replace the current state of n. Last-write-wins: an event older than the
// node's lastModified is considered stale and discarded. Equal timestamps
// apply, which makes redelivery of the winning event idempotent.
func supersedes(n *node.Node, ts int64) bool {
	return ts >= n.LastModified
}

// applyMutation overwrites the mutated fields of n in place. Whole-mutation
// overwrite semantics: no field-level merge is attempted, matching the wire
// contract (concurrent edits to the same node converge to the highest stamp).
func applyMutation(n *node.Node, m node.Mutation) {
	switch m.Type {
	case node.MutationMove:
		n.X = m.X
		n.Y = m.Y
	case node.MutationRename:
		n.Title = m.Title
	case node.MutationDelete:
		n.Deleted = true
	}
	if m.Timestamp > n.LastModified {
		n.LastModified = m.Timestamp
	}
}

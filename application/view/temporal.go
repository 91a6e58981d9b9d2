package view

import (
	"nexusboard/domain/node"
)

// Epsilon is the forward slack in milliseconds added to the time-travel
// cursor, absorbing clock skew between a mutation's stamped time and the
// moment the slider is read.
const Epsilon int64 = 2000

// FilterByTime returns the nodes whose lastModified is at or before
// cursor+Epsilon, plus the pinned node if set. The pinned node is the one
// currently mid-drag; it must never vanish under the cursor even when its
// pending stamp has not arrived yet.
func FilterByTime(nodes []node.Node, cursor int64, pinnedID string) []node.Node {
	out := make([]node.Node, 0, len(nodes))
	limit := cursor + Epsilon
	for i := range nodes {
		if nodes[i].LastModified <= limit || nodes[i].ID == pinnedID {
			out = append(out, nodes[i])
		}
	}
	return out
}

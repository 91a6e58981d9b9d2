package node

// MutationType enumerates the graph mutations carried over the wire.
// Values double as the envelope type strings.
type MutationType string

const (
	MutationCreate MutationType = "node:create"
	MutationMove   MutationType = "node:move"
	MutationRename MutationType = "node:rename"
	MutationDelete MutationType = "node:delete"
)

// Mutation is a single edit to the graph, authored locally or received from
// a peer session. Timestamp is the author's declared epoch-millis stamp and
// is the sole input to last-write-wins conflict resolution; arrival order
// carries no meaning.
type Mutation struct {
	Type      MutationType
	NodeID    string
	Timestamp int64

	// Create carries the full node payload.
	Node *Node

	// Move carries the new position.
	X float64
	Y float64

	// Rename carries the new title.
	Title string
}

// NewCreate builds a create mutation from a fully formed node.
func NewCreate(n Node) Mutation {
	return Mutation{Type: MutationCreate, NodeID: n.ID, Timestamp: n.LastModified, Node: &n}
}

// NewMove builds a move mutation.
func NewMove(nodeID string, x, y float64, ts int64) Mutation {
	return Mutation{Type: MutationMove, NodeID: nodeID, X: x, Y: y, Timestamp: ts}
}

// NewRename builds a rename mutation.
func NewRename(nodeID, title string, ts int64) Mutation {
	return Mutation{Type: MutationRename, NodeID: nodeID, Title: title, Timestamp: ts}
}

// NewDelete builds a tombstone mutation.
func NewDelete(nodeID string, ts int64) Mutation {
	return Mutation{Type: MutationDelete, NodeID: nodeID, Timestamp: ts}
}

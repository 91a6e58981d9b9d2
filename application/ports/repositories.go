// Package ports defines the interfaces the application layer depends on,
// implemented by the infrastructure layer.
package ports

import (
	"context"

	"nexusboard/domain/node"
)

// NodeUpdate carries the mutable fields of a node update. Nil pointers leave
// the stored value untouched; LastModified is always written.
type NodeUpdate struct {
	Title        *string
	X            *float64
	Y            *float64
	Status       *node.Status
	LastModified int64
}

// NodeRepository is the persistence collaborator for board nodes. It is the
// single source of truth across processes; the in-memory state store is a
// best-effort cache of it.
type NodeRepository interface {
	// FetchByProject returns every non-tombstoned node of a project.
	FetchByProject(ctx context.Context, projectID string) ([]node.Node, error)

	// Create stores a full node payload and returns the stored node with its
	// server-assigned lastModified stamp.
	Create(ctx context.Context, n node.Node) (node.Node, error)

	// Update applies partial field updates to the latest record with the
	// given node id.
	Update(ctx context.Context, nodeID string, update NodeUpdate) (node.Node, error)

	// Tombstone marks every record with the given node id as deleted. The id
	// stays behind so in-flight references resolve to "missing parent"
	// instead of silently reviving.
	Tombstone(ctx context.Context, nodeID string) error
}

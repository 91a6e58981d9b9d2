// Package memory provides an in-memory node repository for development and
// tests.
package memory

import (
	"context"
	"sync"

	"nexusboard/application/ports"
	"nexusboard/domain/node"
	pkgerrors "nexusboard/pkg/errors"
)

// NodeRepository is a mutex-guarded map standing in for the document store.
type NodeRepository struct {
	mu    sync.RWMutex
	nodes map[string]node.Node
}

// NewNodeRepository creates an empty in-memory repository.
func NewNodeRepository() *NodeRepository {
	return &NodeRepository{nodes: make(map[string]node.Node)}
}

// FetchByProject returns every non-tombstoned node of a project.
func (r *NodeRepository) FetchByProject(ctx context.Context, projectID string) ([]node.Node, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]node.Node, 0)
	for _, n := range r.nodes {
		if n.ProjectID == projectID && !n.Deleted {
			out = append(out, n)
		}
	}
	return out, nil
}

// Create stores a full node payload.
func (r *NodeRepository) Create(ctx context.Context, n node.Node) (node.Node, error) {
	if n.ID == "" {
		return node.Node{}, pkgerrors.NewValidation("node id cannot be empty")
	}
	if n.LastModified == 0 {
		n.LastModified = node.NowMillis()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes[n.ID] = n
	return n, nil
}

// Update applies partial field updates to the stored node.
func (r *NodeRepository) Update(ctx context.Context, nodeID string, update ports.NodeUpdate) (node.Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.nodes[nodeID]
	if !ok {
		return node.Node{}, pkgerrors.NewNotFound("node not found: " + nodeID)
	}

	if update.Title != nil {
		n.Title = *update.Title
	}
	if update.X != nil {
		n.X = *update.X
	}
	if update.Y != nil {
		n.Y = *update.Y
	}
	if update.Status != nil {
		n.Status = *update.Status
	}
	if update.LastModified != 0 {
		n.LastModified = update.LastModified
	} else {
		n.LastModified = node.NowMillis()
	}

	r.nodes[nodeID] = n
	return n, nil
}

// Tombstone marks the node as deleted while retaining its id.
func (r *NodeRepository) Tombstone(ctx context.Context, nodeID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.nodes[nodeID]
	if !ok {
		return nil
	}
	n.Deleted = true
	r.nodes[nodeID] = n
	return nil
}

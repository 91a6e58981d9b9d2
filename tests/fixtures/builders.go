// Package fixtures provides test data builders shared across packages.
package fixtures

import (
	"fmt"

	"nexusboard/domain/node"
)

// NodeBuilder helps create test nodes with default values
type NodeBuilder struct {
	n node.Node
}

func NewNodeBuilder() *NodeBuilder {
	return &NodeBuilder{
		n: node.Node{
			ID:           node.NewID(),
			Title:        "Test Node",
			Kind:         node.KindNode,
			ProjectID:    "test-project",
			X:            100,
			Y:            100,
			Width:        node.DefaultWidth,
			Height:       node.DefaultHeight,
			Status:       node.StatusActive,
			CreatedAt:    1000,
			LastModified: 1000,
		},
	}
}

func (b *NodeBuilder) WithID(id string) *NodeBuilder {
	b.n.ID = id
	return b
}

func (b *NodeBuilder) WithTitle(title string) *NodeBuilder {
	b.n.Title = title
	return b
}

func (b *NodeBuilder) WithKind(kind node.Kind) *NodeBuilder {
	b.n.Kind = kind
	return b
}

func (b *NodeBuilder) WithParent(parentID string) *NodeBuilder {
	b.n.ParentID = parentID
	return b
}

func (b *NodeBuilder) WithProject(projectID string) *NodeBuilder {
	b.n.ProjectID = projectID
	return b
}

func (b *NodeBuilder) WithPosition(x, y float64) *NodeBuilder {
	b.n.X, b.n.Y = x, y
	return b
}

func (b *NodeBuilder) WithExtent(w, h float64) *NodeBuilder {
	b.n.Width, b.n.Height = w, h
	return b
}

func (b *NodeBuilder) WithStatus(status node.Status) *NodeBuilder {
	b.n.Status = status
	return b
}

func (b *NodeBuilder) WithLastModified(ts int64) *NodeBuilder {
	b.n.LastModified = ts
	return b
}

func (b *NodeBuilder) Deleted() *NodeBuilder {
	b.n.Deleted = true
	return b
}

func (b *NodeBuilder) Build() node.Node {
	return b.n
}

// BuildMany creates count sequentially numbered copies of the builder's node.
func (b *NodeBuilder) BuildMany(count int) []node.Node {
	out := make([]node.Node, count)
	for i := 0; i < count; i++ {
		n := b.n
		n.ID = fmt.Sprintf("%s-%d", b.n.ID, i)
		n.Title = fmt.Sprintf("%s %d", b.n.Title, i)
		out[i] = n
	}
	return out
}

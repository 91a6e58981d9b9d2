package node

import (
	"time"

	"github.com/google/uuid"

	pkgerrors "nexusboard/pkg/errors"
)

// Kind distinguishes grouping nodes from leaves. A folder may semantically
// contain children; a plain node cannot.
type Kind string

const (
	KindFolder Kind = "folder"
	KindNode   Kind = "node"
)

// Status represents the operational state of a node.
type Status string

const (
	StatusActive  Status = "active"
	StatusIdle    Status = "idle"
	StatusError   Status = "error"
	StatusOffline Status = "offline"
)

// Valid reports whether s is one of the recognized statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusIdle, StatusError, StatusOffline:
		return true
	}
	return false
}

// Default extent of a node on the canvas, in canvas units.
const (
	DefaultWidth  float64 = 180
	DefaultHeight float64 = 48
)

// Node is the unit of the board graph. Field tags follow the wire and
// document format: epoch-millis timestamps, tombstone via isDeleted.
//
// ParentID is a declared reference only. It is never validated against
// existence or cycles at write time; a parent that is missing from the
// current view makes the node an orphan, which is an expected state.
type Node struct {
	ID           string  `json:"nodeId" bson:"nodeId"`
	Title        string  `json:"name" bson:"name"`
	Kind         Kind    `json:"type" bson:"type"`
	ParentID     string  `json:"parentId,omitempty" bson:"parentId,omitempty"`
	ProjectID    string  `json:"projectId" bson:"projectId"`
	X            float64 `json:"x" bson:"x"`
	Y            float64 `json:"y" bson:"y"`
	Width        float64 `json:"width" bson:"width"`
	Height       float64 `json:"height" bson:"height"`
	Status       Status  `json:"status" bson:"status"`
	CreatedAt    int64   `json:"timestamp" bson:"timestamp"`
	LastModified int64   `json:"lastModified" bson:"lastModified"`
	Deleted      bool    `json:"isDeleted,omitempty" bson:"isDeleted"`
}

// New creates a node with defaults applied and creation time stamped.
func New(projectID, title string, kind Kind, x, y float64) (Node, error) {
	if projectID == "" {
		return Node{}, pkgerrors.NewValidation("projectId cannot be empty")
	}
	if title == "" {
		return Node{}, pkgerrors.NewValidation("name cannot be empty")
	}
	if kind != KindFolder && kind != KindNode {
		kind = KindNode
	}

	now := NowMillis()
	return Node{
		ID:           NewID(),
		Title:        title,
		Kind:         kind,
		ProjectID:    projectID,
		X:            x,
		Y:            y,
		Width:        DefaultWidth,
		Height:       DefaultHeight,
		Status:       StatusActive,
		CreatedAt:    now,
		LastModified: now,
	}, nil
}

// Normalize fills zero-valued extent and status so nodes loaded from older
// records render consistently.
func (n *Node) Normalize() {
	if n.Width == 0 {
		n.Width = DefaultWidth
	}
	if n.Height == 0 {
		n.Height = DefaultHeight
	}
	if !n.Status.Valid() {
		n.Status = StatusIdle
	}
	if n.Kind != KindFolder {
		n.Kind = KindNode
	}
}

// HasParent reports whether the node declares a parent reference.
func (n *Node) HasParent() bool {
	return n.ParentID != ""
}

// NewID mints a globally unique node id.
func NewID() string {
	return "n-" + uuid.New().String()
}

// NowMillis returns the current wall clock as epoch milliseconds, the
// timestamp unit used across the wire format and the document store.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}

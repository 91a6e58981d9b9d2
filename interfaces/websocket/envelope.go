package websocket

import (
	"bytes"
	"encoding/json"

	"nexusboard/domain/node"
	pkgerrors "nexusboard/pkg/errors"
)

// Envelope type strings recognized by the relay. Anything else is forwarded
// opaquely to same-project peers; an envelope must never crash the relay.
const (
	TypePresenceCursor = "presence:cursor"
	// The first-generation client sends presence under this type; both are
	// accepted and relayed unchanged.
	TypePresenceMouse = "presence:mouse"
	TypePresenceLeave = "presence:leave"
	TypeError         = "error"
)

// envelopeHeader peeks at the type discriminator without decoding the body.
type envelopeHeader struct {
	Type string `json:"type"`
}

// presencePayload is the wire form of a live cursor update.
type presencePayload struct {
	Type     string  `json:"type"`
	UserID   string  `json:"userId"`
	Username string  `json:"userName"`
	Color    string  `json:"color"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// presenceLeavePayload announces that a session dropped and its cursor is
// gone. Emitted by the relay itself on disconnect, never by clients.
type presenceLeavePayload struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
}

// mutationPayload is the wire form of the four graph mutations. Fields are
// flat; only the ones relevant to the type are populated.
type mutationPayload struct {
	Type         string     `json:"type"`
	NodeID       string     `json:"nodeId,omitempty"`
	Node         *node.Node `json:"node,omitempty"`
	X            float64    `json:"x,omitempty"`
	Y            float64    `json:"y,omitempty"`
	Title        string     `json:"title,omitempty"`
	LastModified int64      `json:"lastModified,omitempty"`
}

// errorPayload is sent back to the origin session only, when a mutation
// failed to reach the document store.
type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	NodeID  string `json:"nodeId,omitempty"`
}

// envelopeType extracts the type discriminator from a raw message.
func envelopeType(raw []byte) (string, error) {
	var header envelopeHeader
	if err := json.Unmarshal(bytes.TrimSpace(raw), &header); err != nil {
		return "", pkgerrors.NewValidation("malformed envelope")
	}
	return header.Type, nil
}

// isPresenceType reports whether t is a presence envelope under either name.
func isPresenceType(t string) bool {
	return t == TypePresenceCursor || t == TypePresenceMouse
}

// isMutationType reports whether t is one of the graph mutation envelopes.
func isMutationType(t string) bool {
	switch node.MutationType(t) {
	case node.MutationCreate, node.MutationMove, node.MutationRename, node.MutationDelete:
		return true
	}
	return false
}

// decodeMutation parses a mutation envelope into a domain mutation. A zero
// declared timestamp is stamped with the relay's clock so last-write-wins
// always has something to order by.
func decodeMutation(raw []byte) (node.Mutation, error) {
	var payload mutationPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return node.Mutation{}, pkgerrors.NewValidation("malformed mutation envelope")
	}

	ts := payload.LastModified
	if ts == 0 {
		ts = node.NowMillis()
	}

	m := node.Mutation{
		Type:      node.MutationType(payload.Type),
		NodeID:    payload.NodeID,
		Timestamp: ts,
		X:         payload.X,
		Y:         payload.Y,
		Title:     payload.Title,
	}

	switch m.Type {
	case node.MutationCreate:
		if payload.Node == nil {
			return node.Mutation{}, pkgerrors.NewValidation("node:create without node payload")
		}
		m.Node = payload.Node
		m.NodeID = payload.Node.ID
		if payload.Node.LastModified > 0 {
			m.Timestamp = payload.Node.LastModified
		}
	case node.MutationMove, node.MutationRename, node.MutationDelete:
		if m.NodeID == "" {
			return node.Mutation{}, pkgerrors.NewValidation(payload.Type + " without nodeId")
		}
	}

	return m, nil
}

// encodeMutation renders a domain mutation back into its wire form.
func encodeMutation(m node.Mutation) ([]byte, error) {
	payload := mutationPayload{
		Type:         string(m.Type),
		NodeID:       m.NodeID,
		Node:         m.Node,
		X:            m.X,
		Y:            m.Y,
		Title:        m.Title,
		LastModified: m.Timestamp,
	}
	return json.Marshal(payload)
}

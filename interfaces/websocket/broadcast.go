package websocket

import (
	"go.uber.org/zap"

	"nexusboard/domain/node"
)

// Broadcaster fans mutations authored outside a session (the REST surface)
// out to a project room. With no origin session to exclude, every session in
// the room receives the event.
type Broadcaster struct {
	hub    *Hub
	logger *zap.Logger
}

// NewBroadcaster creates a broadcaster on top of the hub.
func NewBroadcaster(hub *Hub, logger *zap.Logger) *Broadcaster {
	return &Broadcaster{hub: hub, logger: logger}
}

// BroadcastMutation relays a persisted mutation to every session of the
// project. Callers must only pass mutations that reached the document store;
// an unpersisted mutation broadcast here would fan divergence out to peers.
func (b *Broadcaster) BroadcastMutation(projectID string, m node.Mutation) {
	payload, err := encodeMutation(m)
	if err != nil {
		b.logger.Error("Failed to encode mutation for broadcast",
			zap.String("type", string(m.Type)),
			zap.Error(err),
		)
		return
	}

	if err := b.hub.Relay(projectID, nil, string(m.Type), payload); err != nil {
		b.logger.Warn("Mutation broadcast dropped",
			zap.String("type", string(m.Type)),
			zap.String("nodeID", m.NodeID),
			zap.Error(err),
		)
	}
}

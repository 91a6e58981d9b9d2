package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"nexusboard/application/presence"
	"nexusboard/pkg/observability"
)

// Hub maintains the active sessions of every project and fans events out to
// same-project peers. Fanout never blocks on a slow peer: each client owns a
// buffered send channel and saturating it closes that client, not the hub.
type Hub struct {
	// Project rooms - sessions grouped by the project they joined
	rooms map[string]map[*Client]bool
	mu    sync.RWMutex

	// Channels for client management
	register   chan *Client
	unregister chan *Client

	// Event fanout
	relay chan *frame

	// Peer cursor table, evicted the moment a session drops
	tracker *presence.Tracker

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger

	metrics *observability.Metrics
}

// frame is one outbound message addressed to a project room. A nil origin
// delivers to every session in the room; otherwise the origin is excluded.
type frame struct {
	projectID string
	origin    *Client
	kind      string
	payload   []byte
}

// NewHub creates a new session hub
func NewHub(tracker *presence.Tracker, metrics *observability.Metrics, logger *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client, 100),
		unregister: make(chan *Client, 100),
		relay:      make(chan *frame, 1000),
		tracker:    tracker,
		ctx:        ctx,
		cancel:     cancel,
		logger:     logger,
		metrics:    metrics,
	}
}

// Run starts the hub's main event loop
func (h *Hub) Run() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			h.logger.Info("Hub shutting down")
			h.closeAllSessions()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case f := <-h.relay:
			h.fanout(f)

		case <-ticker.C:
			h.performHealthCheck()
		}
	}
}

// Stop gracefully shuts down the hub
func (h *Hub) Stop() {
	h.logger.Info("Stopping WebSocket hub")
	h.cancel()
}

// Tracker exposes the peer cursor table for the query surface.
func (h *Hub) Tracker() *presence.Tracker {
	return h.tracker
}

// Relay queues a message for every session of a project except the origin.
// Within one sender the hub preserves send order to any one receiver; across
// senders no order is guaranteed.
func (h *Hub) Relay(projectID string, origin *Client, kind string, payload []byte) error {
	f := &frame{projectID: projectID, origin: origin, kind: kind, payload: payload}

	select {
	case h.relay <- f:
		return nil
	case <-time.After(5 * time.Second):
		return fmt.Errorf("relay channel full, message dropped")
	}
}

// SessionCount returns the number of sessions in a project room.
func (h *Hub) SessionCount(projectID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[projectID])
}

// registerClient adds a new session to its project room
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[client.projectID] == nil {
		h.rooms[client.projectID] = make(map[*Client]bool)
	}
	h.rooms[client.projectID][client] = true

	h.metrics.ActiveSessions.Inc()

	h.logger.Info("Session registered",
		zap.String("userID", client.userID),
		zap.String("connectionID", client.id),
		zap.String("projectID", client.projectID),
		zap.Int("roomSessions", len(h.rooms[client.projectID])),
	)
}

// unregisterClient removes a session. The drop doubles as an implicit
// presence-removal event: once the user's last session in the room is gone,
// the cursor entry is evicted and peers are told to do the same. A second
// tab of the same user keeps the cursor alive.
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.projectID]
	if !ok || !room[client] {
		h.mu.Unlock()
		return
	}
	delete(room, client)
	lastSession := true
	for peer := range room {
		if peer.userID == client.userID {
			lastSession = false
			break
		}
	}
	if len(room) == 0 {
		delete(h.rooms, client.projectID)
	}
	remaining := len(room)
	h.mu.Unlock()

	client.closeSend()
	h.metrics.ActiveSessions.Dec()

	if lastSession {
		h.tracker.Remove(client.projectID, client.userID)
		if leave, err := json.Marshal(presenceLeavePayload{Type: TypePresenceLeave, UserID: client.userID}); err == nil {
			h.fanout(&frame{projectID: client.projectID, origin: client, kind: TypePresenceLeave, payload: leave})
		}
	}

	h.logger.Info("Session unregistered",
		zap.String("userID", client.userID),
		zap.String("connectionID", client.id),
		zap.String("projectID", client.projectID),
		zap.Int("remainingSessions", remaining),
	)
}

// fanout delivers a frame to every session in the project room except the
// origin. Sends are non-blocking; a session whose buffer is saturated gets
// closed rather than letting it stall delivery to the rest of the room.
func (h *Hub) fanout(f *frame) {
	h.mu.RLock()
	room := h.rooms[f.projectID]
	clients := make([]*Client, 0, len(room))
	for client := range room {
		if client != f.origin {
			clients = append(clients, client)
		}
	}
	h.mu.RUnlock()

	if len(clients) == 0 {
		return
	}

	delivered := 0
	for _, client := range clients {
		if client.enqueue(f.payload) {
			delivered++
			continue
		}

		h.metrics.SlowClientsClosed.Inc()
		h.logger.Warn("Closing slow session",
			zap.String("userID", client.userID),
			zap.String("connectionID", client.id),
		)

		go func(c *Client) {
			c.hub.unregister <- c
			if c.conn != nil {
				c.conn.Close()
			}
		}(client)
	}

	h.metrics.MessagesRelayed.WithLabelValues(f.kind).Add(float64(delivered))
}

// performHealthCheck pings all sessions to check they are alive
func (h *Hub) performHealthCheck() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for projectID, room := range h.rooms {
		total += len(room)
		for client := range room {
			if !client.enqueue([]byte(`{"type":"ping"}`)) {
				h.logger.Warn("Failed to ping session",
					zap.String("projectID", projectID),
					zap.String("connectionID", client.id),
				)
			}
		}
	}

	h.logger.Debug("Health check performed",
		zap.Int("totalSessions", total),
		zap.Int("totalRooms", len(h.rooms)),
	)
}

// closeAllSessions closes all active sessions during shutdown
func (h *Hub) closeAllSessions() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for projectID, room := range h.rooms {
		for client := range room {
			client.closeSend()
			if client.conn != nil {
				client.conn.Close()
			}
		}
		delete(h.rooms, projectID)
	}
}

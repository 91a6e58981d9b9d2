package websocket

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"nexusboard/application/board"
	"nexusboard/application/presence"
	"nexusboard/pkg/auth"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512 * 1024 // 512KB

	// Send buffer size
	sendBufferSize = 256
)

// Client represents one board session. Everything it sends passes through a
// single buffered channel, so any one receiver sees this sender's events in
// the order they were sent.
type Client struct {
	id        string // Unique connection ID
	userID    string
	username  string
	color     string
	projectID string

	hub      *Hub
	conn     *websocket.Conn
	registry *board.Registry
	logger   *zap.Logger

	// send is closed by the hub on unregister while the read pump may still
	// be producing error frames; sendMu makes close-versus-send safe.
	send       chan []byte
	sendMu     sync.Mutex
	sendClosed bool
}

// NewClient creates a session bound to a project room.
func NewClient(user *auth.UserContext, projectID string, hub *Hub, conn *websocket.Conn, registry *board.Registry, logger *zap.Logger) *Client {
	id := uuid.New().String()
	return &Client{
		id:        id,
		userID:    user.UserID,
		username:  user.Username,
		color:     user.Color,
		projectID: projectID,
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, sendBufferSize),
		registry:  registry,
		logger: logger.With(
			zap.String("userID", user.UserID),
			zap.String("connectionID", id),
			zap.String("projectID", projectID),
		),
	}
}

// Start begins the client's read and write pumps
func (c *Client) Start() {
	c.hub.register <- c

	go c.writePump()
	go c.readPump()

	c.sendConnectionEstablished()
}

// readPump pumps messages from the WebSocket connection into the hub
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
		c.logger.Info("Read pump stopped")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket read error", zap.Error(err))
			}
			break
		}

		switch messageType {
		case websocket.TextMessage:
			c.handleTextMessage(message)
		case websocket.BinaryMessage:
			c.logger.Warn("Binary messages not supported")
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.logger.Info("Write pump stopped")
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Error("Failed to write message", zap.Error(err))
				return
			}

			// Add queued messages to the current message batch
			n := len(c.send)
			for i := 0; i < n; i++ {
				if err := c.conn.WriteMessage(websocket.TextMessage, <-c.send); err != nil {
					c.logger.Error("Failed to write batched message", zap.Error(err))
					return
				}
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Error("Failed to send ping", zap.Error(err))
				return
			}
		}
	}
}

// handleTextMessage dispatches one inbound envelope. A malformed or unknown
// envelope is logged or relayed opaquely; it never ends the session.
func (c *Client) handleTextMessage(message []byte) {
	message = bytes.TrimSpace(message)

	if string(message) == `{"type":"pong"}` {
		c.logger.Debug("Received pong")
		return
	}

	kind, err := envelopeType(message)
	if err != nil {
		c.logger.Warn("Dropping malformed envelope", zap.Error(err))
		return
	}

	switch {
	case isPresenceType(kind):
		c.handlePresence(kind, message)
	case isMutationType(kind):
		c.handleMutation(kind, message)
	default:
		// Forward-compatibility: unknown envelope types pass through
		// untouched so old relays never strand new clients.
		c.logger.Debug("Relaying unknown envelope type", zap.String("type", kind))
		c.relay(kind, message)
	}
}

// handlePresence records the cursor in the peer table and relays the raw
// envelope. Identity fields come from the session token, not the payload.
func (c *Client) handlePresence(kind string, message []byte) {
	var payload presencePayload
	if err := json.Unmarshal(message, &payload); err != nil {
		c.logger.Warn("Dropping malformed presence envelope", zap.Error(err))
		return
	}

	identity := presence.Identity{UserID: c.userID, Username: c.username, Color: c.color}
	c.hub.tracker.Upsert(c.projectID, identity, payload.X, payload.Y)

	payload.UserID = c.userID
	payload.Username = c.username
	payload.Color = c.color
	out, err := json.Marshal(payload)
	if err != nil {
		return
	}
	c.relay(kind, out)
}

// handleMutation applies a peer mutation to the project mirror under
// last-write-wins and relays the surviving events. Stale events stop here.
func (c *Client) handleMutation(kind string, message []byte) {
	m, err := decodeMutation(message)
	if err != nil {
		c.logger.Warn("Dropping malformed mutation envelope",
			zap.String("type", kind),
			zap.Error(err),
		)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store, err := c.registry.Get(ctx, c.projectID)
	if err != nil {
		c.logger.Error("Project mirror unavailable", zap.Error(err))
		c.sendError("project unavailable", m.NodeID)
		return
	}

	applied, persistErr := store.ApplyPeer(ctx, m)
	if !applied {
		return
	}
	if persistErr != nil {
		// Local state moved on; only the origin learns the write failed.
		c.sendError("mutation not persisted", m.NodeID)
	}

	c.relay(kind, message)
}

// enqueue queues a payload for the write pump without blocking. It is the
// only path onto the send channel: a send on a channel the hub has already
// closed would panic the goroutine. Reports whether the payload was queued.
func (c *Client) enqueue(payload []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.sendClosed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// closeSend closes the send channel exactly once. Called by the hub only.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.sendClosed {
		return
	}
	c.sendClosed = true
	close(c.send)
}

// relay hands a message to the hub for fanout to same-project peers.
func (c *Client) relay(kind string, message []byte) {
	if err := c.hub.Relay(c.projectID, c, kind, message); err != nil {
		c.logger.Warn("Relay failed", zap.String("type", kind), zap.Error(err))
	}
}

// sendError delivers an error frame to this session only.
func (c *Client) sendError(message, nodeID string) {
	out, err := json.Marshal(errorPayload{Type: TypeError, Message: message, NodeID: nodeID})
	if err != nil {
		return
	}
	if !c.enqueue(out) {
		c.logger.Warn("Error frame dropped", zap.String("nodeID", nodeID))
	}
}

// sendConnectionEstablished sends an initial connection message
func (c *Client) sendConnectionEstablished() {
	out, err := json.Marshal(map[string]interface{}{
		"type":         "connection:established",
		"connectionId": c.id,
		"userId":       c.userID,
		"projectId":    c.projectID,
		"timestamp":    time.Now().UnixMilli(),
	})
	if err != nil {
		return
	}

	if c.enqueue(out) {
		c.logger.Info("Sent connection established message")
	} else {
		c.logger.Error("Failed to send connection established message")
	}
}

// GetID returns the client's connection ID
func (c *Client) GetID() string {
	return c.id
}

// GetUserID returns the client's user ID
func (c *Client) GetUserID() string {
	return c.userID
}

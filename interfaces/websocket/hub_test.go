package websocket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"nexusboard/application/presence"
	"nexusboard/pkg/observability"
)

func newTestHub() *Hub {
	return NewHub(presence.NewTracker(), observability.NewNopMetrics(), zap.NewNop())
}

func newTestClient(hub *Hub, userID, projectID string, buffer int) *Client {
	return &Client{
		id:        "conn-" + userID,
		userID:    userID,
		projectID: projectID,
		hub:       hub,
		send:      make(chan []byte, buffer),
		logger:    zap.NewNop(),
	}
}

func TestHub_FanoutExcludesOrigin(t *testing.T) {
	// Arrange
	hub := newTestHub()
	origin := newTestClient(hub, "u1", "p1", 8)
	peer := newTestClient(hub, "u2", "p1", 8)
	hub.registerClient(origin)
	hub.registerClient(peer)

	// Act
	hub.fanout(&frame{projectID: "p1", origin: origin, kind: "node:move", payload: []byte(`{"type":"node:move"}`)})

	// Assert
	require.Len(t, peer.send, 1)
	assert.Empty(t, origin.send)
}

func TestHub_FanoutScopedToProjectRoom(t *testing.T) {
	// Arrange
	hub := newTestHub()
	sameRoom := newTestClient(hub, "u1", "p1", 8)
	otherRoom := newTestClient(hub, "u2", "p2", 8)
	hub.registerClient(sameRoom)
	hub.registerClient(otherRoom)

	// Act
	hub.fanout(&frame{projectID: "p1", kind: "presence:cursor", payload: []byte(`{}`)})

	// Assert
	assert.Len(t, sameRoom.send, 1)
	assert.Empty(t, otherRoom.send)
}

func TestHub_NilOriginReachesEverySession(t *testing.T) {
	// REST-authored mutations have no session to exclude.
	hub := newTestHub()
	a := newTestClient(hub, "u1", "p1", 8)
	b := newTestClient(hub, "u2", "p1", 8)
	hub.registerClient(a)
	hub.registerClient(b)

	hub.fanout(&frame{projectID: "p1", kind: "node:create", payload: []byte(`{}`)})

	assert.Len(t, a.send, 1)
	assert.Len(t, b.send, 1)
}

func TestHub_SlowClientScheduledForClose(t *testing.T) {
	// Arrange: a peer whose send buffer is already full.
	hub := newTestHub()
	origin := newTestClient(hub, "u1", "p1", 8)
	slow := newTestClient(hub, "u2", "p1", 1)
	healthy := newTestClient(hub, "u3", "p1", 8)
	hub.registerClient(origin)
	hub.registerClient(slow)
	hub.registerClient(healthy)
	slow.send <- []byte("backlog")

	// Act
	hub.fanout(&frame{projectID: "p1", origin: origin, kind: "node:move", payload: []byte(`{}`)})

	// Assert: the healthy peer got the message and the slow one is queued
	// for unregistration instead of stalling the room.
	assert.Len(t, healthy.send, 1)
	require.Eventually(t, func() bool {
		return len(hub.unregister) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestHub_UnregisterEvictsPresenceAndAnnouncesLeave(t *testing.T) {
	// Arrange
	hub := newTestHub()
	leaving := newTestClient(hub, "u1", "p1", 8)
	peer := newTestClient(hub, "u2", "p1", 8)
	hub.registerClient(leaving)
	hub.registerClient(peer)
	hub.tracker.Upsert("p1", presence.Identity{UserID: "u1"}, 5, 5)

	// Act
	hub.unregisterClient(leaving)

	// Assert: cursor gone, peer told, room shrunk.
	_, ok := hub.tracker.Get("p1", "u1")
	assert.False(t, ok)
	require.Len(t, peer.send, 1)
	assert.Contains(t, string(<-peer.send), "presence:leave")
	assert.Equal(t, 1, hub.SessionCount("p1"))
}

func TestHub_UnregisterKeepsPresenceWhilePeerSessionRemains(t *testing.T) {
	// Arrange: the same user holds two sessions in the room, plus an observer.
	hub := newTestHub()
	first := newTestClient(hub, "u1", "p1", 8)
	second := newTestClient(hub, "u1", "p1", 8)
	second.id = "conn-u1-b"
	observer := newTestClient(hub, "u2", "p1", 8)
	hub.registerClient(first)
	hub.registerClient(second)
	hub.registerClient(observer)
	hub.tracker.Upsert("p1", presence.Identity{UserID: "u1"}, 5, 5)

	// Act: one tab closes while the other stays connected.
	hub.unregisterClient(first)

	// Assert: the cursor survives and no leave is announced yet.
	_, ok := hub.tracker.Get("p1", "u1")
	assert.True(t, ok)
	assert.Empty(t, observer.send)

	// The final session closing evicts the cursor and tells the room.
	hub.unregisterClient(second)
	_, ok = hub.tracker.Get("p1", "u1")
	assert.False(t, ok)
	require.Len(t, observer.send, 1)
	assert.Contains(t, string(<-observer.send), "presence:leave")
}

func TestHub_ErrorFrameAfterUnregisterIsDropped(t *testing.T) {
	// Arrange: the read pump can still produce an error frame after the hub
	// closed the session's send channel.
	hub := newTestHub()
	client := newTestClient(hub, "u1", "p1", 8)
	hub.registerClient(client)
	hub.unregisterClient(client)

	// Act: must not panic on the closed channel.
	client.sendError("mutation not persisted", "n1")

	// Assert: nothing was queued; the channel is closed and drained.
	_, open := <-client.send
	assert.False(t, open)
}

func TestHub_UnregisterUnknownClientIsNoop(t *testing.T) {
	hub := newTestHub()
	ghost := newTestClient(hub, "u1", "p1", 8)

	hub.unregisterClient(ghost)

	assert.Equal(t, 0, hub.SessionCount("p1"))
}

func TestHub_RelayQueuesFrame(t *testing.T) {
	hub := newTestHub()

	err := hub.Relay("p1", nil, "node:move", []byte(`{}`))

	require.NoError(t, err)
	assert.Len(t, hub.relay, 1)
}

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"nexusboard/application/board"
	"nexusboard/application/presence"
	"nexusboard/domain/node"
	"nexusboard/infrastructure/config"
	"nexusboard/infrastructure/persistence/memory"
	"nexusboard/pkg/common"
	"nexusboard/pkg/observability"
	"nexusboard/tests/fixtures"
)

func newViewTestServer(t *testing.T, seed ...node.Node) (*chi.Mux, *presence.Tracker) {
	t.Helper()

	repo := memory.NewNodeRepository()
	for _, n := range seed {
		_, err := repo.Create(context.Background(), n)
		require.NoError(t, err)
	}

	tracker := presence.NewTracker()
	registry := board.NewRegistry(repo, zap.NewNop())
	handler := NewViewHandler(registry, tracker, config.NewTunables(), observability.NewNopMetrics(), zap.NewNop())

	router := chi.NewRouter()
	router.Get("/api/view/{projectID}", handler.GetView)
	router.Get("/api/orphans/{projectID}", handler.GetOrphans)
	router.Get("/api/presence/{projectID}", handler.GetPresence)
	return router, tracker
}

func getJSON(t *testing.T, router http.Handler, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp common.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	data, _ := resp.Data.(map[string]interface{})
	return rec, data
}

func TestViewHandler_GetView_SpatialAndTemporalPipeline(t *testing.T) {
	// Arrange: one node in view, one far outside it, one newer than the
	// requested time cursor.
	seed := []node.Node{
		fixtures.NewNodeBuilder().WithID("in-view").WithProject("p1").
			WithPosition(100, 100).WithLastModified(1000).Build(),
		fixtures.NewNodeBuilder().WithID("far-away").WithProject("p1").
			WithPosition(7000, 5000).WithLastModified(1000).Build(),
		fixtures.NewNodeBuilder().WithID("future").WithProject("p1").
			WithPosition(120, 120).WithLastModified(900000).Build(),
	}
	router, _ := newViewTestServer(t, seed...)

	// Act
	rec, data := getJSON(t, router,
		"/api/view/p1?scrollLeft=0&scrollTop=0&windowWidth=800&windowHeight=600&zoom=1&cursor=5000")

	// Assert
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3.0, data["total"])
	assert.Equal(t, 2.0, data["current"])
	visible, _ := data["visible"].([]interface{})
	require.Len(t, visible, 1)
	first, _ := visible[0].(map[string]interface{})
	assert.Equal(t, "in-view", first["nodeId"])
}

func TestViewHandler_GetView_PinnedNodeSurvivesCursor(t *testing.T) {
	seed := []node.Node{
		fixtures.NewNodeBuilder().WithID("dragged").WithProject("p1").
			WithPosition(50, 50).WithLastModified(900000).Build(),
	}
	router, _ := newViewTestServer(t, seed...)

	_, data := getJSON(t, router, "/api/view/p1?cursor=5000&pinned=dragged")

	assert.Equal(t, 1.0, data["current"])
}

func TestViewHandler_GetView_CountsOrphans(t *testing.T) {
	seed := []node.Node{
		fixtures.NewNodeBuilder().WithID("root").WithProject("p1").WithLastModified(1000).Build(),
		fixtures.NewNodeBuilder().WithID("lost").WithProject("p1").
			WithParent("gone").WithLastModified(1000).Build(),
	}
	router, _ := newViewTestServer(t, seed...)

	_, data := getJSON(t, router, "/api/view/p1")

	assert.Equal(t, 1.0, data["orphanCount"])
}

func TestViewHandler_GetOrphans_FiltersByNameAndStatus(t *testing.T) {
	// Arrange: three orphans, one connected node.
	seed := []node.Node{
		fixtures.NewNodeBuilder().WithID("ok").WithProject("p1").Build(),
		fixtures.NewNodeBuilder().WithID("o1").WithProject("p1").
			WithParent("gone").WithTitle("Ventilator 3").Build(),
		fixtures.NewNodeBuilder().WithID("o2").WithProject("p1").
			WithParent("gone").WithTitle("Monitor 7").WithStatus(node.StatusError).Build(),
		fixtures.NewNodeBuilder().WithID("o3").WithProject("p1").
			WithParent("gone").WithTitle("ventilator 9").Build(),
	}
	router, _ := newViewTestServer(t, seed...)

	// Act
	rec, data := getJSON(t, router, "/api/orphans/p1?name=ventilator")

	// Assert: case-insensitive title match, counts over all orphans.
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3.0, data["total"])
	assert.Equal(t, 2.0, data["shown"])
	counts, _ := data["counts"].(map[string]interface{})
	assert.Equal(t, 1.0, counts["error"])
}

func TestViewHandler_GetOrphans_RejectsUnknownStatus(t *testing.T) {
	router, _ := newViewTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/orphans/p1?status=exploded", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestViewHandler_GetPresence_ListsProjectPeers(t *testing.T) {
	// Arrange
	router, tracker := newViewTestServer(t)
	tracker.Upsert("p1", presence.Identity{UserID: "u1", Username: "Ada", Color: "#ff0000"}, 10, 20)
	tracker.Upsert("p2", presence.Identity{UserID: "u2", Username: "Grace", Color: "#00ff00"}, 30, 40)

	// Act
	rec, data := getJSON(t, router, "/api/presence/p1")

	// Assert: scoped to the requested project.
	require.Equal(t, http.StatusOK, rec.Code)
	peers, _ := data["peers"].([]interface{})
	require.Len(t, peers, 1)
	peer, _ := peers[0].(map[string]interface{})
	assert.Equal(t, "u1", peer["userId"])
}

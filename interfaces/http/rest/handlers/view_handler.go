package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"nexusboard/application/board"
	"nexusboard/application/presence"
	"nexusboard/application/view"
	"nexusboard/domain/node"
	"nexusboard/infrastructure/config"
	"nexusboard/pkg/common"
	"nexusboard/pkg/observability"
)

// ViewHandler serves the read-side pipeline: what is visible in a viewport,
// at a point on the time slider, and which nodes fell out of the graph.
type ViewHandler struct {
	registry *board.Registry
	tracker  *presence.Tracker
	tunables *config.Tunables
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewViewHandler creates a new view handler
func NewViewHandler(
	registry *board.Registry,
	tracker *presence.Tracker,
	tunables *config.Tunables,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *ViewHandler {
	return &ViewHandler{
		registry: registry,
		tracker:  tracker,
		tunables: tunables,
		metrics:  metrics,
		logger:   logger,
	}
}

// GetView handles GET /api/view/{projectID}. It runs the full pipeline:
// temporal filter at the cursor, orphan partition on the filtered set, then
// spatial visibility of the connected nodes against the viewport.
func (h *ViewHandler) GetView(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	if projectID == "" {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Project ID is required")
		return
	}

	store, err := h.registry.Get(r.Context(), projectID)
	if err != nil {
		h.logger.Error("Failed to load project", zap.String("projectID", projectID), zap.Error(err))
		common.RespondError(w, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "Failed to load project")
		return
	}

	q := r.URL.Query()
	zoom := view.ClampZoom(queryFloat(q.Get("zoom"), 1))
	vp := view.ViewportFromScreen(
		queryFloat(q.Get("scrollLeft"), 0),
		queryFloat(q.Get("scrollTop"), 0),
		queryFloat(q.Get("windowWidth"), view.CanvasWidth),
		queryFloat(q.Get("windowHeight"), view.CanvasHeight),
		zoom,
	)
	cursor := queryInt64(q.Get("cursor"), node.NowMillis())
	pinnedID := q.Get("pinned")

	snapshot := store.Snapshot()
	current := view.FilterByTime(snapshot, cursor, pinnedID)
	partition := view.PartitionOrphans(current)
	visible := view.VisibleNodes(partition.Connected, vp, h.tunables.VisibilityBuffer())

	h.metrics.VisibleNodes.Set(float64(len(visible)))

	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"projectId":   projectID,
		"cursor":      cursor,
		"zoom":        zoom,
		"total":       len(snapshot),
		"current":     len(current),
		"visible":     visible,
		"orphanCount": len(partition.Orphans),
	})
}

// GetOrphans handles GET /api/orphans/{projectID}, the recovery view.
func (h *ViewHandler) GetOrphans(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	if projectID == "" {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Project ID is required")
		return
	}

	store, err := h.registry.Get(r.Context(), projectID)
	if err != nil {
		h.logger.Error("Failed to load project", zap.String("projectID", projectID), zap.Error(err))
		common.RespondError(w, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "Failed to load project")
		return
	}

	q := r.URL.Query()
	status := node.Status(q.Get("status"))
	if status != "" && !status.Valid() {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown status: "+string(status))
		return
	}

	cursor := queryInt64(q.Get("cursor"), node.NowMillis())
	current := view.FilterByTime(store.Snapshot(), cursor, "")
	partition := view.PartitionOrphans(current)

	query := view.OrphanQuery{
		Title:  q.Get("name"),
		Status: status,
		Limit:  int(queryInt64(q.Get("limit"), int64(h.tunables.OrphanViewLimit()))),
	}
	matches := query.Apply(partition.Orphans)

	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"projectId": projectID,
		"total":     len(partition.Orphans),
		"shown":     len(matches),
		"counts":    view.StatusCounts(partition.Orphans),
		"orphans":   matches,
	})
}

// GetPresence handles GET /api/presence/{projectID}, listing live cursors.
func (h *ViewHandler) GetPresence(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	if projectID == "" {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Project ID is required")
		return
	}

	peers := h.tracker.List(projectID)
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"projectId": projectID,
		"peers":     peers,
	})
}

func queryFloat(raw string, fallback float64) float64 {
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}

func queryInt64(raw string, fallback int64) int64 {
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}
	return v
}

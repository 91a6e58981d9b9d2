package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"nexusboard/application/board"
	"nexusboard/application/view"
	"nexusboard/domain/node"
	"nexusboard/pkg/common"
	pkgerrors "nexusboard/pkg/errors"
	"nexusboard/pkg/observability"
)

// MutationBroadcaster fans a persisted mutation out to the project's live
// sessions.
type MutationBroadcaster interface {
	BroadcastMutation(projectID string, m node.Mutation)
}

// NodeHandler handles node-related HTTP requests
type NodeHandler struct {
	registry    *board.Registry
	broadcaster MutationBroadcaster
	metrics     *observability.Metrics
	validate    *validator.Validate
	logger      *zap.Logger
}

// NewNodeHandler creates a new node handler
func NewNodeHandler(
	registry *board.Registry,
	broadcaster MutationBroadcaster,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *NodeHandler {
	return &NodeHandler{
		registry:    registry,
		broadcaster: broadcaster,
		metrics:     metrics,
		validate:    validator.New(),
		logger:      logger,
	}
}

// ViewportRequest is the client viewport in screen space.
type ViewportRequest struct {
	ScrollLeft   float64 `json:"scrollLeft"`
	ScrollTop    float64 `json:"scrollTop"`
	WindowWidth  float64 `json:"windowWidth" validate:"gte=0"`
	WindowHeight float64 `json:"windowHeight" validate:"gte=0"`
	Zoom         float64 `json:"zoom"`
}

func (v ViewportRequest) toCanvas() view.Viewport {
	zoom := view.ClampZoom(v.Zoom)
	if v.Zoom == 0 {
		zoom = 1
	}
	return view.ViewportFromScreen(v.ScrollLeft, v.ScrollTop, v.WindowWidth, v.WindowHeight, zoom)
}

// CreateNodeRequest represents the request body for creating a node. With
// explicit placement the node is stored as given; without it the placement
// policy decides from the selected node and viewport.
type CreateNodeRequest struct {
	ProjectID string   `json:"projectId" validate:"required,max=100"`
	Title     string   `json:"name,omitempty" validate:"omitempty,max=200"`
	Kind      string   `json:"type,omitempty" validate:"omitempty,oneof=folder node"`
	ParentID  string   `json:"parentId,omitempty"`
	X         *float64 `json:"x,omitempty"`
	Y         *float64 `json:"y,omitempty"`
	Status    string   `json:"status,omitempty" validate:"omitempty,oneof=active idle error offline"`

	SelectedID string           `json:"selectedId,omitempty"`
	Viewport   *ViewportRequest `json:"viewport,omitempty"`
}

// UpdateNodeRequest represents the request body for updating a node. Title
// and position map to distinct mutations; both may ride in one request.
type UpdateNodeRequest struct {
	ProjectID string   `json:"projectId" validate:"required,max=100"`
	Title     *string  `json:"name,omitempty" validate:"omitempty,max=200"`
	X         *float64 `json:"x,omitempty"`
	Y         *float64 `json:"y,omitempty"`
}

// ListNodes handles GET /api/nodes/{projectID}
func (h *NodeHandler) ListNodes(w http.ResponseWriter, r *http.Request) {
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

	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"projectId": projectID,
		"nodes":     store.Snapshot(),
	})
}

// CreateNode handles POST /api/nodes
func (h *NodeHandler) CreateNode(w http.ResponseWriter, r *http.Request) {
	var req CreateNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body: "+err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Validation error: "+err.Error())
		return
	}

	store, err := h.registry.Get(r.Context(), req.ProjectID)
	if err != nil {
		h.logger.Error("Failed to load project", zap.String("projectID", req.ProjectID), zap.Error(err))
		common.RespondError(w, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "Failed to load project")
		return
	}

	var result board.MutationResult
	if req.Title != "" && req.Kind != "" && req.X != nil && req.Y != nil {
		n, err := node.New(req.ProjectID, req.Title, node.Kind(req.Kind), *req.X, *req.Y)
		if err != nil {
			common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			return
		}
		// Parent references are stored as declared, resolvable or not.
		n.ParentID = req.ParentID
		if req.Status != "" {
			n.Status = node.Status(req.Status)
		}
		result = store.ApplyLocal(r.Context(), node.NewCreate(n))
	} else {
		var vp view.Viewport
		if req.Viewport != nil {
			vp = req.Viewport.toCanvas()
		}
		result = store.CreateNode(r.Context(), req.SelectedID, vp)
	}

	h.respondMutation(w, req.ProjectID, result, http.StatusCreated)
}

// UpdateNode handles PATCH /api/nodes/{nodeID}
func (h *NodeHandler) UpdateNode(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "nodeID")
	if nodeID == "" {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Node ID is required")
		return
	}

	var req UpdateNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body: "+err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Validation error: "+err.Error())
		return
	}
	if req.Title == nil && (req.X == nil || req.Y == nil) {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Nothing to update")
		return
	}

	store, err := h.registry.Get(r.Context(), req.ProjectID)
	if err != nil {
		h.logger.Error("Failed to load project", zap.String("projectID", req.ProjectID), zap.Error(err))
		common.RespondError(w, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "Failed to load project")
		return
	}

	var result board.MutationResult
	if req.X != nil && req.Y != nil {
		result = store.ApplyLocal(r.Context(), node.NewMove(nodeID, *req.X, *req.Y, 0))
		if result.Err != nil || !result.Persisted {
			h.respondMutation(w, req.ProjectID, result, http.StatusOK)
			return
		}
		h.broadcastResult(req.ProjectID, result)
	}
	if req.Title != nil {
		result = store.ApplyLocal(r.Context(), node.NewRename(nodeID, *req.Title, 0))
		if result.Err != nil || !result.Persisted {
			h.respondMutation(w, req.ProjectID, result, http.StatusOK)
			return
		}
		h.broadcastResult(req.ProjectID, result)
	}

	h.metrics.MutationsApplied.WithLabelValues("persisted").Inc()
	common.RespondJSON(w, http.StatusOK, result.Node)
}

// DeleteNode handles DELETE /api/nodes/{nodeID}
func (h *NodeHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "nodeID")
	if nodeID == "" {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Node ID is required")
		return
	}
	projectID := r.URL.Query().Get("project")
	if projectID == "" {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "project query parameter is required")
		return
	}

	store, err := h.registry.Get(r.Context(), projectID)
	if err != nil {
		h.logger.Error("Failed to load project", zap.String("projectID", projectID), zap.Error(err))
		common.RespondError(w, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "Failed to load project")
		return
	}

	result := store.ApplyLocal(r.Context(), node.NewDelete(nodeID, 0))
	if result.Err != nil && result.Node.ID == "" {
		h.respondAppError(w, result.Err)
		return
	}
	if !result.Persisted {
		h.metrics.PersistFailures.Inc()
		h.metrics.MutationsApplied.WithLabelValues("local_only").Inc()
		common.RespondError(w, http.StatusServiceUnavailable, "NOT_PERSISTED", "Delete applied locally but not persisted")
		return
	}

	h.metrics.MutationsApplied.WithLabelValues("persisted").Inc()
	h.broadcastResult(projectID, result)
	w.WriteHeader(http.StatusNoContent)
}

// respondMutation translates a mutation result into the HTTP response, and
// broadcasts it only when the write reached the document store.
func (h *NodeHandler) respondMutation(w http.ResponseWriter, projectID string, result board.MutationResult, okStatus int) {
	if result.Err != nil && result.Node.ID == "" {
		h.respondAppError(w, result.Err)
		return
	}
	if !result.Persisted {
		h.metrics.PersistFailures.Inc()
		h.metrics.MutationsApplied.WithLabelValues("local_only").Inc()
		// The local mirror moved on; peers must not hear about it.
		common.RespondError(w, http.StatusServiceUnavailable, "NOT_PERSISTED", "Mutation applied locally but not persisted")
		return
	}

	h.metrics.MutationsApplied.WithLabelValues("persisted").Inc()
	h.broadcastResult(projectID, result)
	common.RespondJSON(w, okStatus, result.Node)
}

func (h *NodeHandler) broadcastResult(projectID string, result board.MutationResult) {
	if h.broadcaster != nil {
		h.broadcaster.BroadcastMutation(projectID, result.Mutation)
	}
}

func (h *NodeHandler) respondAppError(w http.ResponseWriter, err error) {
	switch {
	case pkgerrors.IsNotFound(err):
		common.RespondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case pkgerrors.IsValidation(err):
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case pkgerrors.IsUnavailable(err):
		common.RespondError(w, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", err.Error())
	default:
		common.RespondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal error")
	}
}

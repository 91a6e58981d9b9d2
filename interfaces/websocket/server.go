package websocket

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"nexusboard/application/board"
	"nexusboard/pkg/auth"
)

// Server upgrades board sessions onto the hub. It is mounted on the main
// router rather than listening on its own.
type Server struct {
	hub            *Hub
	registry       *board.Registry
	upgrader       websocket.Upgrader
	logger         *zap.Logger
	jwtService     *auth.JWTService
	defaultProject string
}

// ServerConfig holds WebSocket server configuration
type ServerConfig struct {
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
	DefaultProject  string
}

// DefaultServerConfig returns default WebSocket server configuration
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// In production, implement proper origin checking
			return true
		},
	}
}

// NewServer creates a new WebSocket server
func NewServer(hub *Hub, registry *board.Registry, jwtService *auth.JWTService, config *ServerConfig, logger *zap.Logger) *Server {
	if config == nil {
		config = DefaultServerConfig()
	}

	return &Server{
		hub:      hub,
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		logger:         logger,
		jwtService:     jwtService,
		defaultProject: config.DefaultProject,
	}
}

// HandleWebSocket handles WebSocket upgrade requests. The project room comes
// from the `project` query parameter; sessions without one land on the
// default project.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	user, err := s.authenticateRequest(r)
	if err != nil {
		s.logger.Error("WebSocket authentication failed",
			zap.Error(err),
			zap.String("remoteAddr", r.RemoteAddr),
		)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	projectID := r.URL.Query().Get("project")
	if projectID == "" {
		projectID = s.defaultProject
	}
	if projectID == "" {
		http.Error(w, "Missing project", http.StatusBadRequest)
		return
	}

	// Hydrate the project mirror before the session joins the room, so the
	// first peer event it relays has state to land on.
	if _, err := s.registry.Get(r.Context(), projectID); err != nil {
		s.logger.Error("Failed to hydrate project for session",
			zap.String("projectID", projectID),
			zap.Error(err),
		)
		http.Error(w, "Project unavailable", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection",
			zap.Error(err),
			zap.String("remoteAddr", r.RemoteAddr),
		)
		return
	}

	client := NewClient(user, projectID, s.hub, conn, s.registry, s.logger)
	client.Start()

	s.logger.Info("New WebSocket connection established",
		zap.String("userID", user.UserID),
		zap.String("connectionID", client.GetID()),
		zap.String("projectID", projectID),
		zap.String("remoteAddr", r.RemoteAddr),
	)
}

// authenticateRequest validates the JWT token from the request
func (s *Server) authenticateRequest(r *http.Request) (*auth.UserContext, error) {
	// Browsers cannot set headers on WebSocket upgrades, so the query
	// parameter is the primary carrier.
	token := r.URL.Query().Get("token")

	if token == "" {
		authHeader := r.Header.Get("Authorization")
		if authHeader != "" {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}

	if token == "" {
		cookie, err := r.Cookie("auth_token")
		if err == nil {
			token = cookie.Value
		}
	}

	if token == "" {
		return nil, errors.New("no authentication token provided")
	}

	claims, err := s.jwtService.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	return &auth.UserContext{
		UserID:   claims.UserID,
		Email:    claims.Email,
		Username: claims.Username,
		Color:    claims.Color,
	}, nil
}

// GetHub returns the WebSocket hub
func (s *Server) GetHub() *Hub {
	return s.hub
}

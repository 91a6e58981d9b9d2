// Package rest wires the HTTP surface: node CRUD, the read-side view
// pipeline, and the WebSocket upgrade endpoint.
package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"nexusboard/infrastructure/config"
	"nexusboard/interfaces/http/rest/handlers"
	"nexusboard/interfaces/http/rest/middleware"
	"nexusboard/pkg/auth"
)

// Router creates and configures the HTTP router
type Router struct {
	cfg         *config.Config
	nodeHandler *handlers.NodeHandler
	viewHandler *handlers.ViewHandler
	wsHandler   http.HandlerFunc
	jwtService  *auth.JWTService
	gatherer    prometheus.Gatherer
	logger      *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	cfg *config.Config,
	nodeHandler *handlers.NodeHandler,
	viewHandler *handlers.ViewHandler,
	wsHandler http.HandlerFunc,
	jwtService *auth.JWTService,
	gatherer prometheus.Gatherer,
	logger *zap.Logger,
) *Router {
	return &Router{
		cfg:         cfg,
		nodeHandler: nodeHandler,
		viewHandler: viewHandler,
		wsHandler:   wsHandler,
		jwtService:  jwtService,
		gatherer:    gatherer,
		logger:      logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	if rt.cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	if rt.cfg.EnableMetrics {
		router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(rt.gatherer, promhttp.HandlerOpts{}))
	}

	// WebSocket upgrade authenticates inside the handler; browsers cannot
	// set headers on upgrade requests.
	router.Get("/ws", rt.wsHandler)

	// API routes
	router.Route("/api", func(r chi.Router) {
		r.Use(middleware.Authenticate(rt.jwtService, rt.logger))

		r.Route("/nodes", func(r chi.Router) {
			r.Get("/{projectID}", rt.nodeHandler.ListNodes)
			r.Post("/", rt.nodeHandler.CreateNode)
			r.Patch("/{nodeID}", rt.nodeHandler.UpdateNode)
			r.Delete("/{nodeID}", rt.nodeHandler.DeleteNode)
		})

		r.Get("/view/{projectID}", rt.viewHandler.GetView)
		r.Get("/orphans/{projectID}", rt.viewHandler.GetOrphans)
		r.Get("/presence/{projectID}", rt.viewHandler.GetPresence)
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

// Package di hand-wires the dependency graph. The container owns everything
// with a lifecycle and tears it down in reverse order on shutdown.
package di

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"nexusboard/application/board"
	"nexusboard/application/ports"
	"nexusboard/application/presence"
	"nexusboard/infrastructure/config"
	"nexusboard/infrastructure/persistence/memory"
	"nexusboard/infrastructure/persistence/mongodb"
	"nexusboard/interfaces/http/rest/handlers"
	"nexusboard/interfaces/websocket"
	"nexusboard/pkg/auth"
	"nexusboard/pkg/observability"

	mongo "go.mongodb.org/mongo-driver/v2/mongo"
)

// Container holds all initialized dependencies
type Container struct {
	Config   *config.Config
	Logger   *zap.Logger
	Registry *board.Registry
	Tracker  *presence.Tracker

	Hub         *websocket.Hub
	WSServer    *websocket.Server
	Broadcaster *websocket.Broadcaster

	NodeHandler *handlers.NodeHandler
	ViewHandler *handlers.ViewHandler

	JWTService *auth.JWTService
	Metrics    *observability.Metrics
	Prometheus *prometheus.Registry

	mongoClient *mongo.Client
	watcher     *config.Watcher
}

// InitializeContainer builds the dependency graph. Without a reachable
// document store in development the container falls back to the in-memory
// repository so the board still runs locally.
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	logger, err := ProvideLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	c := &Container{
		Config:     cfg,
		Logger:     logger,
		Tracker:    presence.NewTracker(),
		JWTService: auth.NewJWTService(cfg.JWTSecret, cfg.JWTIssuer, 24*time.Hour),
		Prometheus: prometheus.NewRegistry(),
	}
	c.Metrics = observability.NewMetrics(c.Prometheus)

	repo, client, err := ProvideNodeRepository(ctx, cfg, logger)
	if err != nil {
		if cfg.IsProduction() {
			return nil, err
		}
		logger.Warn("Document store unreachable, using in-memory repository", zap.Error(err))
		repo = memory.NewNodeRepository()
	}
	c.mongoClient = client

	c.Registry = board.NewRegistry(repo, logger)

	c.Hub = websocket.NewHub(c.Tracker, c.Metrics, logger)
	c.Broadcaster = websocket.NewBroadcaster(c.Hub, logger)
	c.WSServer = websocket.NewServer(c.Hub, c.Registry, c.JWTService, &websocket.ServerConfig{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
		DefaultProject:  cfg.DefaultProject,
	}, logger)

	c.NodeHandler = handlers.NewNodeHandler(c.Registry, c.Broadcaster, c.Metrics, logger)
	c.ViewHandler = handlers.NewViewHandler(c.Registry, c.Tracker, cfg.Tunables, c.Metrics, logger)

	if cfg.DynamicConfigPath != "" {
		watcher, err := config.NewWatcher(cfg.DynamicConfigPath, cfg.Tunables, logger)
		if err != nil {
			logger.Warn("Dynamic config watcher disabled", zap.Error(err))
		} else {
			watcher.Start()
			c.watcher = watcher
		}
	}

	return c, nil
}

// Shutdown releases held resources.
func (c *Container) Shutdown(ctx context.Context) {
	if c.watcher != nil {
		c.watcher.Stop()
	}
	c.Hub.Stop()
	if c.mongoClient != nil {
		if err := c.mongoClient.Disconnect(ctx); err != nil {
			c.Logger.Error("Failed to disconnect document store", zap.Error(err))
		}
	}
}

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideNodeRepository connects to the document store and builds the
// durable repository over it.
func ProvideNodeRepository(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.NodeRepository, *mongo.Client, error) {
	client, err := mongodb.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to document store: %w", err)
	}

	repo := mongodb.NewNodeRepository(client.Database(cfg.MongoDatabase), logger)
	if err := repo.EnsureIndexes(ctx); err != nil {
		logger.Warn("Failed to ensure indexes", zap.Error(err))
	}

	return repo, client, nil
}

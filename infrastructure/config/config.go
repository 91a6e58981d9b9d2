package config

import (
	"fmt"
	"os"
	"strconv"
	"sync/atomic"

	"nexusboard/application/view"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// Document store configuration
	MongoURI      string
	MongoDatabase string

	// Board defaults
	DefaultProject string

	// Logging
	LogLevel string

	// Authentication
	JWTSecret string
	JWTIssuer string

	// Feature flags
	EnableMetrics bool
	EnableCORS    bool

	// Dynamic configuration file, watched for changes when set
	DynamicConfigPath string

	// Runtime-tunable board limits
	Tunables *Tunables
}

// Tunables are the board limits that may be re-applied at runtime by the
// config watcher while sessions are live.
type Tunables struct {
	visibilityBuffer atomic.Int64 // canvas units
	orphanViewLimit  atomic.Int64
}

// NewTunables returns tunables at their defaults.
func NewTunables() *Tunables {
	t := &Tunables{}
	t.visibilityBuffer.Store(int64(view.DefaultBuffer))
	t.orphanViewLimit.Store(int64(view.DefaultOrphanLimit))
	return t
}

// VisibilityBuffer returns the viewport margin in canvas units.
func (t *Tunables) VisibilityBuffer() float64 {
	return float64(t.visibilityBuffer.Load())
}

// SetVisibilityBuffer updates the viewport margin.
func (t *Tunables) SetVisibilityBuffer(units float64) {
	if units >= 0 {
		t.visibilityBuffer.Store(int64(units))
	}
}

// OrphanViewLimit returns the recovery view display cap.
func (t *Tunables) OrphanViewLimit() int {
	return int(t.orphanViewLimit.Load())
}

// SetOrphanViewLimit updates the recovery view display cap.
func (t *Tunables) SetOrphanViewLimit(limit int) {
	if limit > 0 {
		t.orphanViewLimit.Store(int64(limit))
	}
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":5000"),
		Environment:   getEnv("ENVIRONMENT", "development"),

		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGO_DATABASE", "nexusboard"),

		DefaultProject: getEnv("DEFAULT_PROJECT", "medhub-core"),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTIssuer: getEnv("JWT_ISSUER", "nexusboard"),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		EnableMetrics: getEnvBool("ENABLE_METRICS", true),
		EnableCORS:    getEnvBool("ENABLE_CORS", true),

		DynamicConfigPath: getEnv("DYNAMIC_CONFIG_PATH", ""),

		Tunables: NewTunables(),
	}

	cfg.Tunables.SetVisibilityBuffer(getEnvFloat("VISIBILITY_BUFFER", view.DefaultBuffer))
	cfg.Tunables.SetOrphanViewLimit(getEnvInt("ORPHAN_VIEW_LIMIT", view.DefaultOrphanLimit))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.Environment == "production" {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required")
		}
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat gets a float environment variable with a default value
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexusboard/application/view"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, ":5000", cfg.ServerAddress)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "nexusboard", cfg.MongoDatabase)
	assert.Equal(t, "medhub-core", cfg.DefaultProject)
	assert.Equal(t, float64(view.DefaultBuffer), cfg.Tunables.VisibilityBuffer())
	assert.Equal(t, view.DefaultOrphanLimit, cfg.Tunables.OrphanViewLimit())
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_ADDRESS", ":9999")
	t.Setenv("VISIBILITY_BUFFER", "250")
	t.Setenv("ORPHAN_VIEW_LIMIT", "50")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.ServerAddress)
	assert.Equal(t, 250.0, cfg.Tunables.VisibilityBuffer())
	assert.Equal(t, 50, cfg.Tunables.OrphanViewLimit())
}

func TestValidate_ProductionRequiresSecrets(t *testing.T) {
	cfg := &Config{Environment: "production", MongoURI: "mongodb://localhost:27017"}

	err := cfg.Validate()

	assert.Error(t, err)

	cfg.JWTSecret = "secret"
	assert.NoError(t, cfg.Validate())
}

func TestTunables_IgnoreInvalidValues(t *testing.T) {
	tunables := NewTunables()

	tunables.SetVisibilityBuffer(-5)
	tunables.SetOrphanViewLimit(0)

	assert.Equal(t, float64(view.DefaultBuffer), tunables.VisibilityBuffer())
	assert.Equal(t, view.DefaultOrphanLimit, tunables.OrphanViewLimit())
}

func TestTunables_ApplyUpdates(t *testing.T) {
	tunables := NewTunables()

	tunables.SetVisibilityBuffer(0)
	tunables.SetOrphanViewLimit(25)

	assert.Equal(t, 0.0, tunables.VisibilityBuffer())
	assert.Equal(t, 25, tunables.OrphanViewLimit())
}

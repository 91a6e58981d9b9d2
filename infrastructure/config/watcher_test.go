package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeConfigFile(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestWatcher_AppliesInitialConfig(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "limits.json")
	writeConfigFile(t, path, `{"limits":{"visibilityBuffer":300,"orphanViewLimit":75}}`)
	tunables := NewTunables()

	// Act
	w, err := NewWatcher(path, tunables, zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	// Assert
	assert.Equal(t, 300.0, tunables.VisibilityBuffer())
	assert.Equal(t, 75, tunables.OrphanViewLimit())
	assert.Equal(t, 300.0, w.Current().Limits.VisibilityBuffer)
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "limits.json")
	writeConfigFile(t, path, `{"limits":{"visibilityBuffer":100,"orphanViewLimit":200}}`)
	tunables := NewTunables()

	w, err := NewWatcher(path, tunables, zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	reloaded := make(chan *DynamicConfig, 1)
	w.OnChange(func(cfg *DynamicConfig) {
		select {
		case reloaded <- cfg:
		default:
		}
	})
	w.Start()

	// Act
	writeConfigFile(t, path, `{"limits":{"visibilityBuffer":500,"orphanViewLimit":20}}`)

	// Assert
	select {
	case cfg := <-reloaded:
		assert.Equal(t, 500.0, cfg.Limits.VisibilityBuffer)
	case <-time.After(3 * time.Second):
		t.Fatal("config reload not observed")
	}
	assert.Equal(t, 500.0, tunables.VisibilityBuffer())
	assert.Equal(t, 20, tunables.OrphanViewLimit())
}

func TestWatcher_KeepsPreviousConfigOnBadReload(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "limits.json")
	writeConfigFile(t, path, `{"limits":{"visibilityBuffer":100,"orphanViewLimit":200}}`)
	tunables := NewTunables()

	w, err := NewWatcher(path, tunables, zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()
	w.Start()

	// Act: corrupt the file, give the debounce time to fire.
	writeConfigFile(t, path, `{not json`)
	time.Sleep(500 * time.Millisecond)

	// Assert: previous limits still in force.
	assert.Equal(t, 100.0, tunables.VisibilityBuffer())
	assert.Equal(t, 100.0, w.Current().Limits.VisibilityBuffer)
}

func TestNewWatcher_MissingFile(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "absent.json"), NewTunables(), zap.NewNop())

	assert.Error(t, err)
}

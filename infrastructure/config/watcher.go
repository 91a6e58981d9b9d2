package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher watches a JSON file of runtime-tunable limits and re-applies it
// while sessions stay connected.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	tunables *Tunables
	logger   *zap.Logger

	mu       sync.RWMutex
	current  *DynamicConfig
	onChange []func(*DynamicConfig)
	stopCh   chan struct{}
}

// DynamicConfig represents runtime-changeable configuration
type DynamicConfig struct {
	Limits Limits `json:"limits"`
}

// Limits holds the tunable board limits
type Limits struct {
	VisibilityBuffer float64 `json:"visibilityBuffer"`
	OrphanViewLimit  int     `json:"orphanViewLimit"`
}

// NewWatcher creates a watcher for the given file and applies its initial
// contents to the tunables.
func NewWatcher(path string, tunables *Tunables, logger *zap.Logger) (*Watcher, error) {
	current, err := loadDynamicConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load initial config: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	if err := fw.Add(path); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch config file: %w", err)
	}
	// Watch the directory too: editors and deploy tooling replace the file
	// atomically via rename.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		logger.Warn("Failed to watch config directory", zap.Error(err))
	}

	w := &Watcher{
		path:     path,
		watcher:  fw,
		tunables: tunables,
		logger:   logger,
		current:  current,
		stopCh:   make(chan struct{}),
	}
	w.apply(current)

	return w, nil
}

// Start begins watching for configuration changes
func (w *Watcher) Start() {
	go w.watchLoop()
	w.logger.Info("Configuration watcher started", zap.String("path", w.path))
}

// Stop stops watching for configuration changes
func (w *Watcher) Stop() {
	close(w.stopCh)
	w.watcher.Close()
	w.logger.Info("Configuration watcher stopped")
}

// Current returns the most recently loaded configuration.
func (w *Watcher) Current() *DynamicConfig {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// OnChange registers a callback invoked after each successful reload.
func (w *Watcher) OnChange(fn func(*DynamicConfig)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, fn)
}

func (w *Watcher) watchLoop() {
	var debounce *time.Timer
	const debounceDelay = 100 * time.Millisecond

	for {
		select {
		case <-w.stopCh:
			if debounce != nil {
				debounce.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, w.reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Config watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload() {
	loaded, err := loadDynamicConfig(w.path)
	if err != nil {
		// Keep running on the previous configuration.
		w.logger.Error("Failed to reload config", zap.String("path", w.path), zap.Error(err))
		return
	}

	w.mu.Lock()
	w.current = loaded
	callbacks := append([]func(*DynamicConfig){}, w.onChange...)
	w.mu.Unlock()

	w.apply(loaded)
	for _, fn := range callbacks {
		fn(loaded)
	}

	w.logger.Info("Configuration reloaded",
		zap.Float64("visibilityBuffer", loaded.Limits.VisibilityBuffer),
		zap.Int("orphanViewLimit", loaded.Limits.OrphanViewLimit),
	)
}

func (w *Watcher) apply(cfg *DynamicConfig) {
	w.tunables.SetVisibilityBuffer(cfg.Limits.VisibilityBuffer)
	w.tunables.SetOrphanViewLimit(cfg.Limits.OrphanViewLimit)
}

func loadDynamicConfig(path string) (*DynamicConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg DynamicConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config JSON: %w", err)
	}
	return &cfg, nil
}

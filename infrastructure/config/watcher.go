package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DynamicConfig is the runtime-changeable subset of configuration, loaded
// from a JSON file and re-read whenever the file changes
type DynamicConfig struct {
	Loader struct {
		BatchWindowMs int `json:"batchWindowMs"`
		MaxBatchSize  int `json:"maxBatchSize"`
	} `json:"loader"`
	Resolution struct {
		CacheTTLSeconds int `json:"cacheTtlSeconds"`
	} `json:"resolution"`
}

// Watcher watches the dynamic configuration file for changes
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	logger  *zap.Logger

	mu       sync.RWMutex
	current  *DynamicConfig
	onChange []func(*DynamicConfig)

	stopCh chan struct{}
}

// NewWatcher creates a watcher and performs the initial load
func NewWatcher(path string, logger *zap.Logger) (*Watcher, error) {
	w := &Watcher{
		path:   path,
		logger: logger,
		stopCh: make(chan struct{}),
	}

	if err := w.load(); err != nil {
		return nil, fmt.Errorf("initial dynamic config load: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fs watcher: %w", err)
	}
	// Watch the directory: editors and config mounts replace the file,
	// which drops a watch registered on the file itself.
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch config dir: %w", err)
	}
	w.watcher = fsw

	return w, nil
}

// Current returns the most recently loaded configuration
func (w *Watcher) Current() *DynamicConfig {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// OnChange registers a callback invoked after each successful reload
func (w *Watcher) OnChange(fn func(*DynamicConfig)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, fn)
}

// Start begins watching for file changes
func (w *Watcher) Start() {
	go func() {
		for {
			select {
			case <-w.stopCh:
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(w.path) {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if err := w.load(); err != nil {
					w.logger.Warn("dynamic config reload failed, keeping previous",
						zap.String("path", w.path),
						zap.Error(err),
					)
					continue
				}
				w.notify()
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn("config watcher error", zap.Error(err))
			}
		}
	}()
}

// Stop stops watching
func (w *Watcher) Stop() {
	close(w.stopCh)
	if w.watcher != nil {
		w.watcher.Close()
	}
}

func (w *Watcher) load() error {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return err
	}

	var cfg DynamicConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse %s: %w", w.path, err)
	}

	w.mu.Lock()
	w.current = &cfg
	w.mu.Unlock()

	w.logger.Info("dynamic config loaded", zap.String("path", w.path))
	return nil
}

func (w *Watcher) notify() {
	w.mu.RLock()
	cfg := w.current
	callbacks := make([]func(*DynamicConfig), len(w.onChange))
	copy(callbacks, w.onChange)
	w.mu.RUnlock()

	for _, fn := range callbacks {
		fn(cfg)
	}
}

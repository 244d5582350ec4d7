package config

import (
	"context"
	"fmt"
	"path/filepath"
	"reflect"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const debounceDelay = 500 * time.Millisecond

// Watcher re-reads the config file when it changes and hands the
// hot-reloadable subset to registered callbacks. Invalid files are logged
// and ignored; the previous settings stay in force.
type Watcher struct {
	path      string
	current   Reloadable
	callbacks []func(Reloadable)
	load      func(path string) (*Config, error)
	mu        sync.Mutex
	logger    *zap.Logger
}

// NewWatcher creates a watcher for cfg.ConfigFile
func NewWatcher(cfg *Config, logger *zap.Logger) *Watcher {
	return &Watcher{
		path:    cfg.ConfigFile,
		current: cfg.Reloadable(),
		load:    LoadFile,
		logger:  logger.Named("config"),
	}
}

// OnChange registers a callback to be called when configuration changes
func (w *Watcher) OnChange(callback func(Reloadable)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

// Run watches the file until ctx is done. Without a config file it returns
// immediately.
func (w *Watcher) Run(ctx context.Context) error {
	if w.path == "" {
		return nil
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fsWatcher.Close()

	// Watch the directory: editors often replace the file rather than write it.
	dir := filepath.Dir(w.path)
	if err := fsWatcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.logger.Info("Configuration hot reloading enabled", zap.String("file", w.path))

	target := filepath.Clean(w.path)
	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsWatcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, w.Reload)

		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("File watcher error", zap.Error(err))
		}
	}
}

// Reload re-reads the file and notifies callbacks if the reloadable
// settings changed
func (w *Watcher) Reload() {
	cfg, err := w.load(w.path)
	if err != nil {
		w.logger.Error("Invalid configuration after reload, keeping previous settings", zap.Error(err))
		return
	}
	next := cfg.Reloadable()

	w.mu.Lock()
	if reflect.DeepEqual(w.current, next) {
		w.mu.Unlock()
		w.logger.Debug("Configuration unchanged after reload")
		return
	}
	w.current = next
	callbacks := append(([]func(Reloadable))(nil), w.callbacks...)
	w.mu.Unlock()

	w.logger.Info("Configuration reloaded",
		zap.String("logLevel", next.LogLevel),
		zap.Strings("allowedOrigins", next.AllowedOrigins),
		zap.Float64("rateLimitRPS", next.RateLimit.RPS),
		zap.Int("rateLimitBurst", next.RateLimit.Burst),
	)
	for _, cb := range callbacks {
		cb(next)
	}
}

// Current returns the reloadable settings in force
func (w *Watcher) Current() Reloadable {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

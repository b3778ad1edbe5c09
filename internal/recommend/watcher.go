package recommend

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"booking-intelligence/internal/logger"
	"booking-intelligence/internal/metrics"
)

// CacheInvalidator drops recommendation responses scored by an older model.
type CacheInvalidator interface {
	InvalidateRecommendations(ctx context.Context) error
}

// Watcher reloads the engine's model whenever the model file changes on
// disk. It watches the parent directory so atomic rename-into-place writes
// are seen.
type Watcher struct {
	engine   *Engine
	path     string
	debounce time.Duration
	log      *logger.Logger
	cache    CacheInvalidator
	watcher  *fsnotify.Watcher
	reloaded chan error
}

// NewWatcher accepts a nil cache.
func NewWatcher(engine *Engine, path string, cache CacheInvalidator, log *logger.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve model path: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	return &Watcher{
		engine:   engine,
		path:     abs,
		debounce: 200 * time.Millisecond,
		log:      log,
		cache:    cache,
		watcher:  fw,
		reloaded: make(chan error, 8),
	}, nil
}

// Reloaded delivers the result of every reload attempt. Sends are dropped
// when the buffer is full.
func (w *Watcher) Reloaded() <-chan error {
	return w.reloaded
}

// Run blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()
	w.log.LogProcess("MODEL", "Watching "+w.path+" for changes")

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			err := w.engine.Reload(w.path)
			metrics.RecordModelReload("watch", err)
			if err != nil {
				w.log.Error("MODEL", fmt.Sprintf("Hot reload failed: %v", err))
			} else if w.cache != nil {
				if cerr := w.cache.InvalidateRecommendations(ctx); cerr != nil {
					w.log.Warn("MODEL", fmt.Sprintf("Failed to invalidate recommendation cache after reload: %v", cerr))
				}
			}
			select {
			case w.reloaded <- err:
			default:
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Error("MODEL", fmt.Sprintf("Watcher error: %v", err))
		}
	}
}

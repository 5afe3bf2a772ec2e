// Package watch rebuilds stylesheets when their sources change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/stylebuilder/internal/build"
	"git.home.luguber.info/inful/stylebuilder/internal/logfields"
	"git.home.luguber.info/inful/stylebuilder/internal/metrics"
)

// DefaultDebounce is used when no debounce interval is configured.
const DefaultDebounce = 300 * time.Millisecond

// RebuildFunc runs one build. Errors are logged and the watcher keeps going.
type RebuildFunc func(ctx context.Context) error

// ReloadFunc re-reads the configuration file and reports whether anything
// affecting the output changed.
type ReloadFunc func(ctx context.Context) (changed bool, err error)

// Watcher monitors stylesheet directories and triggers debounced rebuilds.
type Watcher struct {
	roots      []string
	configPath string
	reload     ReloadFunc
	rebuild    RebuildFunc
	debounce   time.Duration
	recorder   metrics.Recorder

	watcher *fsnotify.Watcher
	ready   chan struct{}

	pendingSources bool
	pendingConfig  bool
}

// Option customizes a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a rebuild. Non-positive values are ignored.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithConfigFile also watches the configuration file and calls reload when it changes.
func WithConfigFile(path string, reload ReloadFunc) Option {
	return func(w *Watcher) {
		if path == "" || reload == nil {
			return
		}
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		w.configPath = path
		w.reload = reload
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(w *Watcher) {
		if r != nil {
			w.recorder = r
		}
	}
}

// New creates a watcher over roots. Directories below each root are watched
// recursively; hidden directories are skipped.
func New(roots []string, rebuild RebuildFunc, opts ...Option) (*Watcher, error) {
	if rebuild == nil {
		return nil, fmt.Errorf("rebuild function is required")
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		rebuild:  rebuild,
		debounce: DefaultDebounce,
		recorder: metrics.NoopRecorder{},
		watcher:  fw,
		ready:    make(chan struct{}),
	}
	for _, o := range opts {
		o(w)
	}
	for _, r := range roots {
		abs, err := filepath.Abs(r)
		if err != nil {
			_ = fw.Close()
			return nil, fmt.Errorf("failed to resolve watch path %s: %w", r, err)
		}
		w.roots = append(w.roots, abs)
	}
	return w, nil
}

// Ready is closed once every root has been added to the watch set.
func (w *Watcher) Ready() <-chan struct{} { return w.ready }

// Run watches until ctx is canceled. It closes the underlying watcher on return.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		if err := w.watcher.Close(); err != nil {
			slog.Error("Error closing file watcher", logfields.Error(err))
		}
	}()

	for _, root := range w.roots {
		if err := w.addTree(root); err != nil {
			return err
		}
	}
	if w.configPath != "" {
		// The directory is more reliable than the file across editor save strategies.
		dir := filepath.Dir(w.configPath)
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch config directory %s: %w", dir, err)
		}
	}
	close(w.ready)

	slog.Info("Watching for changes",
		logfields.Count(len(w.watcher.WatchList())),
		slog.Duration("debounce", w.debounce))

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if w.handle(event) {
				timer.Reset(w.debounce)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("File watcher error", logfields.Error(err))
		case <-timer.C:
			w.flush(ctx)
		}
	}
}

// handle classifies an event and reports whether it should schedule a rebuild.
func (w *Watcher) handle(event fsnotify.Event) bool {
	if event.Name == w.configPath && w.configPath != "" {
		if event.Has(fsnotify.Remove) {
			slog.Warn("Config file removed", logfields.Path(event.Name))
			return false
		}
		slog.Debug("Config file change detected", logfields.Path(event.Name), slog.String("op", event.Op.String()))
		w.pendingConfig = true
		return true
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if w.underRoot(event.Name) && !strings.HasPrefix(filepath.Base(event.Name), ".") {
				if err := w.addTree(event.Name); err != nil {
					slog.Warn("Failed to watch new directory", logfields.Path(event.Name), logfields.Error(err))
				}
			}
			return false
		}
	}

	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return false
	}
	if !build.IsStylesheet(event.Name) {
		return false
	}
	slog.Debug("Stylesheet change detected", logfields.Path(event.Name), slog.String("op", event.Op.String()))
	w.pendingSources = true
	return true
}

func (w *Watcher) flush(ctx context.Context) {
	rebuild := w.pendingSources
	if w.pendingConfig {
		changed, err := w.reload(ctx)
		switch {
		case err != nil:
			slog.Error("Failed to reload configuration", logfields.Error(err))
		case changed:
			slog.Info("Configuration changed", logfields.Path(w.configPath))
			rebuild = true
		default:
			slog.Debug("Configuration change does not affect output")
		}
	}
	w.pendingSources, w.pendingConfig = false, false
	if !rebuild || ctx.Err() != nil {
		return
	}

	w.recorder.IncWatchRebuild()
	slog.Info("Rebuilding")
	if err := w.rebuild(ctx); err != nil {
		slog.Error("Rebuild failed", logfields.Error(err))
	}
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		slog.Debug("Watching directory", logfields.Path(path))
		return nil
	})
}

func (w *Watcher) underRoot(path string) bool {
	for _, root := range w.roots {
		if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
			return true
		}
	}
	return false
}

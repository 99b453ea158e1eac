// Package watch monitors the metadata artifact and config file and triggers
// a regeneration when either changes.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce batches the bursts of events most build tools emit while
// rewriting an artifact.
const DefaultDebounce = 2 * time.Second

// RegenerateFunc runs one regeneration pass.
type RegenerateFunc func(ctx context.Context) error

// Watcher watches a set of files and calls Regenerate, debounced, whenever
// one of them is written, created, or renamed.
type Watcher struct {
	paths      []string // absolute paths of the watched files
	watcher    *fsnotify.Watcher
	regenerate RegenerateFunc
	debounce   time.Duration
	trigger    chan struct{}
}

// New creates a watcher over the given files.
func New(regenerate RegenerateFunc, paths ...string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	abs := make([]string, 0, len(paths))
	for _, p := range paths {
		a, err := filepath.Abs(p)
		if err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("resolve watch path %s: %w", p, err)
		}
		abs = append(abs, a)
	}

	return &Watcher{
		paths:      abs,
		watcher:    fsw,
		regenerate: regenerate,
		debounce:   DefaultDebounce,
		trigger:    make(chan struct{}, 1),
	}, nil
}

// Run watches until ctx is canceled. It blocks.
//
// The containing directories are watched rather than the files themselves;
// editors and build tools commonly replace files via rename, which drops a
// direct file watch.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.watcher.Close() }()

	dirs := map[string]struct{}{}
	for _, p := range w.paths {
		dirs[filepath.Dir(p)] = struct{}{}
	}
	for dir := range dirs {
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("watch directory %s: %w", dir, err)
		}
	}
	slog.Info("watching for changes", "paths", w.paths)

	go w.regenerateLoop(ctx)

	watched := map[string]struct{}{}
	for _, p := range w.paths {
		watched[p] = struct{}{}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			name, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			if _, ours := watched[name]; !ours {
				continue
			}
			switch {
			case event.Op&fsnotify.Write == fsnotify.Write,
				event.Op&fsnotify.Create == fsnotify.Create,
				event.Op&fsnotify.Rename == fsnotify.Rename:
				slog.Debug("change detected", "file", event.Name, "op", event.Op.String())
				w.fire()
			case event.Op&fsnotify.Remove == fsnotify.Remove:
				slog.Warn("watched file removed", "file", event.Name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("watcher error", "error", err)
		}
	}
}

// fire requests a regeneration; a pending request absorbs further fires.
func (w *Watcher) fire() {
	select {
	case w.trigger <- struct{}{}:
	default:
	}
}

func (w *Watcher) regenerateLoop(ctx context.Context) {
	var timer *time.Timer
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-w.trigger:
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				slog.Info("regenerating after change")
				if err := w.regenerate(ctx); err != nil {
					slog.Error("regeneration failed", "error", err)
				}
			})
		}
	}
}

// Package watch bridges filesystem notifications into overlay observations:
// every create/write event in an autostart directory is mapped to a
// (path, directory-position) pair and fed to the entry registry.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/rbuj/mate-session-manager/internal/metrics"
	"github.com/rbuj/mate-session-manager/internal/platform/correlation"
)

// Observer is the part of the entry registry the watcher feeds.
type Observer interface {
	Observe(ctx context.Context, path string, position int)
}

// Watcher monitors the directory precedence table.
type Watcher struct {
	observer  Observer
	fs        *fsnotify.Watcher
	positions map[string]int
}

// New creates a watcher over the precedence table and registers every
// existing directory. Missing system directories are skipped; the user
// directory must exist before calling New.
func New(dirs []string, observer Observer) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fs watcher: %w", err)
	}

	w := &Watcher{
		observer:  observer,
		fs:        fs,
		positions: make(map[string]int, len(dirs)),
	}

	for position, dir := range dirs {
		clean := filepath.Clean(dir)
		w.positions[clean] = position

		if err := fs.Add(clean); err != nil {
			if position == 0 {
				_ = fs.Close()
				return nil, fmt.Errorf("watch user autostart dir %s: %w", clean, err)
			}
			slog.Debug("Not watching unavailable system dir", "dir", clean, "error", err)
		}
	}

	return w, nil
}

// Run dispatches watch events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(ctx, event)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			slog.Warn("Watcher error", "error", err)
		}
	}
}

// Close releases the underlying watcher.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
		return
	}
	if !strings.HasSuffix(event.Name, ".desktop") {
		return
	}

	position, ok := w.positions[filepath.Dir(filepath.Clean(event.Name))]
	if !ok {
		return
	}

	eventCtx := correlation.WithID(ctx, correlation.NewID())
	metrics.WatchEventsTotal.WithLabelValues(strconv.Itoa(position)).Inc()

	slog.DebugContext(eventCtx, "Autostart file event",
		"op", event.Op.String(), "path", event.Name, "position", position)

	w.observer.Observe(eventCtx, event.Name, position)
}

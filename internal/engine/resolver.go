package engine

import (
	"context"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/rbuj/mate-session-manager/internal/keyfile"
	"github.com/rbuj/mate-session-manager/internal/metrics"
)

// Observe feeds one (path, directory-position) sighting through the overlay
// resolver: directory scans call it for every file, and the watcher calls it
// for every create/change event.
func (m *Manager) Observe(ctx context.Context, path string, position int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e := m.observeLocked(path, position); e != nil {
		slog.DebugContext(ctx, "Resolved autostart observation",
			"basename", e.basename,
			"position", position,
			"path", path)
	}
}

// observeLocked decides whether the sighting replaces the in-memory entry,
// is ignored, or merely updates shadow bookkeeping. Returns the loaded entry
// when a (re)load happened, nil otherwise.
func (m *Manager) observeLocked(path string, position int) *Entry {
	basename := filepath.Base(path)
	e := m.entries[basename]

	if e != nil {
		if position == e.xdgPosition && e.suppressNextChange {
			// our own just-written file
			e.suppressNextChange = false
			metrics.SuppressedEventsTotal.Inc()
			return nil
		}

		if e.xdgPosition < position || e.saveTimer != nil {
			// We already serve a higher-priority copy, or we are about
			// to write the user copy anyway. Only track the shadow;
			// position >= 1 here means a system directory.
			if position >= 1 {
				e.xdgSystemPosition = min(e.xdgSystemPosition, position)
			}
			return nil
		}
	}

	kf, err := keyfile.Load(path)
	if err != nil {
		slog.Debug("Ignoring unparseable desktop entry", "path", path, "error", err)
		return nil
	}
	if !m.eligible(kf) {
		slog.Debug("Ignoring entry not applicable to this desktop",
			"path", path, "desktop", m.desktopEnv)
		return nil
	}

	isNew := e == nil
	if isNew {
		e = newEntry(basename)
		m.entries[basename] = e
		metrics.RegisteredEntries.Inc()
	}

	e.loadFrom(kf, path)

	if position > 0 {
		// A sighting at a system position always has priority >= any
		// previously tracked shadow, otherwise we would have bailed above.
		e.xdgSystemPosition = position
	}
	e.xdgPosition = position

	e.pendingOriginPath = ""
	e.suppressNextChange = false

	if isNew {
		m.notifyAddedLocked(basename)
	} else {
		m.notifyChangedLocked(basename)
	}
	return e
}

// eligible applies the OnlyShowIn/NotShowIn filter against the configured
// desktop identifier.
func (m *Manager) eligible(kf *keyfile.File) bool {
	if only := kf.StringList(keyfile.KeyOnlyShowIn); only != nil {
		if !slices.Contains(only, m.desktopEnv) {
			return false
		}
	}
	if not := kf.StringList(keyfile.KeyNotShowIn); slices.Contains(not, m.desktopEnv) {
		return false
	}
	return true
}

package engine

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rbuj/mate-session-manager/internal/domain"
	"github.com/rbuj/mate-session-manager/internal/keyfile"
	"github.com/rbuj/mate-session-manager/internal/metrics"
	"github.com/rbuj/mate-session-manager/internal/xdg"
)

// saveLocked is the reconciliation writer, fired on timer expiry or flush.
func (m *Manager) saveLocked(e *Entry) {
	// First check whether dropping the user copy and serving the system
	// copy is enough. This keeps the user config dir free of files that
	// say nothing new.
	if systemPath, ok := m.userEqualSystemLocked(e); ok {
		if _, err := os.Stat(e.path); err == nil {
			if err := os.Remove(e.path); err != nil {
				slog.Warn("Could not remove redundant user entry",
					"path", e.path, "error", err)
			}
		}

		e.path = systemPath
		e.xdgPosition = e.xdgSystemPosition
		e.dirty = 0
		e.pendingOriginPath = ""
		// Nothing was written, so no self-generated event is coming.
		e.suppressNextChange = false

		metrics.RedundantCollapsesTotal.Inc()
		slog.Debug("Collapsed redundant user override",
			"basename", e.basename, "path", systemPath)
		return
	}

	basePath := e.path
	if e.pendingOriginPath != "" {
		basePath = e.pendingOriginPath
	}

	kf, err := keyfile.Load(basePath)
	if err != nil {
		kf = keyfile.New()
	}

	if e.dirty.Has(domain.FieldHidden) {
		kf.SetBool(keyfile.KeyHidden, e.hidden)
	}
	if e.dirty.Has(domain.FieldName) {
		kf.SetLocaleString(keyfile.KeyName, e.name)
		kf.EnsureDefaultLocale(keyfile.KeyName)
	}
	if e.dirty.Has(domain.FieldComment) {
		kf.SetLocaleString(keyfile.KeyComment, e.comment)
		kf.EnsureDefaultLocale(keyfile.KeyComment)
	}
	if e.dirty.Has(domain.FieldExec) {
		kf.SetString(keyfile.KeyExec, e.exec)
	}
	if e.dirty.Has(domain.FieldDelay) {
		kf.SetDelay(e.delay)
	}

	if err := xdg.EnsureDir(m.userDir()); err != nil {
		slog.Warn("Could not create user autostart dir", "error", err)
		metrics.EntryWriteFailuresTotal.Inc()
		return
	}

	if err := kf.Save(e.path); err != nil {
		// Dirty mask and origin stay put: the next mutation or an
		// explicit flush retries against the true origin.
		slog.Warn("Could not save desktop entry", "path", e.path, "error", err)
		metrics.EntryWriteFailuresTotal.Inc()
		return
	}

	e.suppressNextChange = true
	e.dirty = 0
	e.pendingOriginPath = ""

	metrics.EntryWritesTotal.Inc()
	slog.Debug("Saved desktop entry", "basename", e.basename, "path", e.path)
}

// userEqualSystemLocked reports whether the entry's pending values are
// field-for-field identical to the shadowed system copy. NoDisplay does not
// participate in the comparison. A present-but-empty value equals an absent
// one because both read back as "".
func (m *Manager) userEqualSystemLocked(e *Entry) (string, bool) {
	position := e.xdgSystemPosition
	if position == domain.PositionNone || position >= len(m.dirs) {
		return "", false
	}

	path := filepath.Join(m.dirs[position], e.basename)
	kf, err := keyfile.Load(path)
	if err != nil {
		return "", false
	}

	if kf.Bool(keyfile.KeyHidden, false) != e.hidden {
		return "", false
	}
	if kf.LocaleString(keyfile.KeyName) != e.name {
		return "", false
	}
	if kf.LocaleString(keyfile.KeyComment) != e.comment {
		return "", false
	}
	if kf.String(keyfile.KeyExec) != e.exec {
		return "", false
	}
	if kf.LocaleString(keyfile.KeyIcon) != e.icon {
		return "", false
	}
	if kf.Delay() != e.delay {
		return "", false
	}

	return path, true
}

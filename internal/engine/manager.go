package engine

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/shlex"
	"github.com/jonboulle/clockwork"
	"github.com/rbuj/mate-session-manager/internal/domain"
	"github.com/rbuj/mate-session-manager/internal/metrics"
	"github.com/rbuj/mate-session-manager/internal/xdg"
)

const defaultSaveDelay = 2 * time.Second

// Manager is the registry of autostart entries. It owns the directory
// precedence table (dirs[0] is the sole writable user directory), guarantees
// a single in-memory entry per basename, and serializes all mutation,
// scheduling and file I/O under one lock.
type Manager struct {
	mu sync.Mutex

	dirs       []string
	desktopEnv string
	saveDelay  time.Duration
	clock      clockwork.Clock

	entries   map[string]*Entry
	notifiers []domain.Notifier
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces the wall clock, used by tests to drive the debounce
// timer deterministically.
func WithClock(clock clockwork.Clock) Option {
	return func(m *Manager) { m.clock = clock }
}

// WithSaveDelay overrides the debounce window.
func WithSaveDelay(d time.Duration) Option {
	return func(m *Manager) { m.saveDelay = d }
}

// NewManager creates a registry over the given precedence table. dirs must
// contain at least the user directory at position 0.
func NewManager(dirs []string, desktopEnv string, opts ...Option) *Manager {
	if len(dirs) == 0 {
		panic("engine: precedence table needs at least the user directory")
	}

	m := &Manager{
		dirs:       dirs,
		desktopEnv: desktopEnv,
		saveDelay:  defaultSaveDelay,
		clock:      clockwork.NewRealClock(),
		entries:    make(map[string]*Entry),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Dirs returns the precedence table.
func (m *Manager) Dirs() []string {
	return m.dirs
}

func (m *Manager) userDir() string {
	return m.dirs[0]
}

// Subscribe registers a notifier for entry lifecycle events.
func (m *Manager) Subscribe(n domain.Notifier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifiers = append(m.notifiers, n)
}

func (m *Manager) notifyAddedLocked(basename string) {
	for _, n := range m.notifiers {
		n.EntryAdded(basename)
	}
}

func (m *Manager) notifyChangedLocked(basename string) {
	for _, n := range m.notifiers {
		n.EntryChanged(basename)
	}
}

func (m *Manager) notifyRemovedLocked(basename string) {
	for _, n := range m.notifiers {
		n.EntryRemoved(basename)
	}
}

// Snapshot returns a read-only copy of the entry with the given basename.
func (m *Manager) Snapshot(basename string) (domain.EntrySnapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[basename]
	if !ok {
		return domain.EntrySnapshot{}, false
	}
	return e.snapshot(), true
}

// Snapshots returns read-only copies of all entries, sorted by basename.
func (m *Manager) Snapshots() []domain.EntrySnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.EntrySnapshot, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e.snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Basename < out[j].Basename })
	return out
}

// SetHidden changes the hidden flag, scheduling a deferred save when the
// value actually changed.
func (m *Manager) SetHidden(basename string, hidden bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[basename]
	if !ok {
		return domain.ErrEntryNotFound
	}
	if e.hidden == hidden {
		return nil
	}

	e.hidden = hidden
	e.dirty |= domain.FieldHidden
	m.queueSaveLocked(e)
	m.notifyChangedLocked(basename)
	return nil
}

// Update sets name, comment, exec and delay in one call, marking only the
// fields that actually changed. A single save is scheduled when anything did.
func (m *Manager) Update(basename, name, comment, exec string, delay int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[basename]
	if !ok {
		return domain.ErrEntryNotFound
	}

	changed := false

	if name != e.name {
		changed = true
		e.name = name
		e.dirty |= domain.FieldName
	}
	if comment != e.comment {
		changed = true
		e.comment = comment
		e.dirty |= domain.FieldComment
	}
	if changed {
		e.updateDescription()
	}

	if exec != e.exec {
		changed = true
		e.exec = exec
		e.dirty |= domain.FieldExec
	}
	if delay != e.delay {
		changed = true
		e.delay = delay
		e.dirty |= domain.FieldDelay
	}

	if changed {
		m.queueSaveLocked(e)
		m.notifyChangedLocked(basename)
	}
	return nil
}

// Create registers a brand-new user-directory entry. The basename is derived
// from the first token of the exec command line. Returns the allocated
// basename.
func (m *Manager) Create(name, comment, exec string, delay int) (string, error) {
	if isBlank(exec) {
		return "", domain.ErrBlankExec
	}

	argv, err := shlex.Split(exec)
	if err != nil || len(argv) == 0 {
		return "", fmt.Errorf("parse exec command %q: %w", exec, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	basename, err := m.freeBasenameLocked(argv[0])
	if err != nil {
		return "", err
	}

	e := newEntry(basename)
	e.path = filepath.Join(m.userDir(), basename)
	if isBlank(name) {
		e.name = exec
	} else {
		e.name = name
	}
	e.exec = exec
	e.comment = comment
	e.delay = delay
	e.updateDescription()

	// The user directory backs this entry by definition.
	e.xdgPosition = 0
	e.dirty = domain.FieldAll

	m.entries[basename] = e
	metrics.RegisteredEntries.Inc()

	m.queueSaveLocked(e)
	m.notifyAddedLocked(basename)
	return basename, nil
}

// CopyDesktopFile imports an external desktop file into the user directory
// under a freshly allocated basename. A hidden source is un-hidden so the
// imported entry is active. Returns the allocated basename.
func (m *Manager) CopyDesktopFile(src string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	basename, err := m.freeBasenameLocked(filepath.Base(src))
	if err != nil {
		return "", err
	}

	raw, err := os.ReadFile(src)
	if err != nil {
		return "", fmt.Errorf("read desktop file %s: %w", src, err)
	}

	if err := xdg.EnsureDir(m.userDir()); err != nil {
		return "", err
	}

	dst := filepath.Join(m.userDir(), basename)
	if err := os.WriteFile(dst, raw, 0o644); err != nil {
		return "", fmt.Errorf("copy desktop file to %s: %w", dst, err)
	}

	e := m.observeLocked(dst, 0)
	if e == nil {
		_ = os.Remove(dst)
		return "", domain.ErrEntryNotRegistered
	}

	if e.hidden {
		e.hidden = false
		e.dirty |= domain.FieldHidden
		m.queueSaveLocked(e)
	}
	return basename, nil
}

// Delete removes an entry. With a system shadow the identity must persist,
// so the entry is hidden and a user override is scheduled; without one the
// user file is removed and the entry leaves the registry.
func (m *Manager) Delete(basename string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[basename]
	if !ok {
		return domain.ErrEntryNotFound
	}

	if e.xdgPosition == 0 && e.xdgSystemPosition == domain.PositionNone {
		// exists in the user directory only
		if e.saveTimer != nil {
			e.saveTimer.Stop()
			e.saveTimer = nil
		}
		e.saveGen++

		if _, err := os.Stat(e.path); err == nil {
			if err := os.Remove(e.path); err != nil {
				slog.Warn("Could not remove user entry", "path", e.path, "error", err)
			}
		}

		// for extra safety, in case the removal failed
		e.hidden = true
		e.dirty |= domain.FieldHidden

		delete(m.entries, basename)
		metrics.RegisteredEntries.Dec()
		m.notifyRemovedLocked(basename)
		return nil
	}

	// also exists in a system directory, so a user override must keep
	// suppressing it
	e.hidden = true
	e.dirty |= domain.FieldHidden
	m.queueSaveLocked(e)
	m.notifyChangedLocked(basename)
	return nil
}

// Scan walks the precedence table from lowest to highest priority, feeding
// every desktop file through the overlay resolver.
func (m *Manager) Scan() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for position := len(m.dirs) - 1; position >= 0; position-- {
		dir := m.dirs[position]
		files, err := os.ReadDir(dir)
		if err != nil {
			slog.Debug("Skipping unreadable autostart dir", "dir", dir, "error", err)
			continue
		}
		for _, f := range files {
			if f.IsDir() || !strings.HasSuffix(f.Name(), desktopSuffix) {
				continue
			}
			m.observeLocked(filepath.Join(dir, f.Name()), position)
		}
	}
}

// Close flushes all pending saves synchronously. Edits made within the
// debounce window are never lost on teardown.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.entries {
		if e.saveTimer == nil {
			continue
		}
		e.saveTimer.Stop()
		e.saveTimer = nil
		e.saveGen++
		m.saveLocked(e)
	}
}

// queueSaveLocked (re)arms the debounce timer for e, collapsing mutation
// bursts into one write of the final state. The first mutation away from a
// system directory forks the entry into the user directory: xdgPosition
// flips to 0 immediately, the on-disk move happens at timer fire.
func (m *Manager) queueSaveLocked(e *Entry) {
	if e.saveTimer != nil {
		e.saveTimer.Stop()
		e.saveTimer = nil
		metrics.SaveReschedulesTotal.Inc()
	}

	if e.xdgPosition != 0 {
		e.xdgPosition = 0

		if e.pendingOriginPath == "" {
			// If an origin is already recorded, a previous save
			// failed; keep the true origin as the base for the retry.
			e.pendingOriginPath = e.path
		}

		e.path = filepath.Join(m.userDir(), e.basename)
	}

	e.saveGen++
	gen := e.saveGen
	e.saveTimer = m.clock.AfterFunc(m.saveDelay, func() {
		m.onSaveTimer(e, gen)
	})
}

func (m *Manager) onSaveTimer(e *Entry, gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e.saveGen != gen {
		// re-armed or cancelled after this timer fired
		return
	}
	e.saveTimer = nil
	m.saveLocked(e)
}

package engine

import (
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/rbuj/mate-session-manager/internal/domain"
	"github.com/rbuj/mate-session-manager/internal/keyfile"
)

const (
	defaultName        = "No name"
	defaultDescription = "No description"
)

// Entry is one logical autostart program, identified by its file basename.
// All fields are guarded by the owning Manager's lock.
type Entry struct {
	basename string
	path     string

	hidden    bool
	nodisplay bool

	name    string
	exec    string
	comment string
	icon    string
	delay   int

	description domain.Description

	// xdgPosition is the index of the directory backing path.
	xdgPosition int
	// xdgSystemPosition is the lowest system directory (>= 1) also seen to
	// contain this basename, tracked even while the user copy is
	// authoritative. PositionNone when no shadow exists.
	xdgSystemPosition int

	dirty domain.FieldMask
	// pendingOriginPath remembers the system file a user override was
	// forked from, so a failed save can retry against the true origin.
	pendingOriginPath string
	// suppressNextChange swallows the watcher notification generated by
	// our own write.
	suppressNextChange bool

	saveTimer clockwork.Timer
	// saveGen invalidates stale timer callbacks after a re-arm or cancel.
	saveGen uint64
}

func newEntry(basename string) *Entry {
	return &Entry{
		basename:          basename,
		xdgPosition:       domain.PositionNone,
		xdgSystemPosition: domain.PositionNone,
	}
}

// loadFrom replaces the entry's fields with the contents of kf.
func (e *Entry) loadFrom(kf *keyfile.File, path string) {
	e.path = path
	e.hidden = kf.Bool(keyfile.KeyHidden, false)
	e.nodisplay = kf.Bool(keyfile.KeyNoDisplay, false)
	e.name = kf.LocaleString(keyfile.KeyName)
	e.exec = kf.String(keyfile.KeyExec)
	e.comment = kf.LocaleString(keyfile.KeyComment)
	e.icon = kf.LocaleString(keyfile.KeyIcon)
	e.delay = kf.Delay()

	if isBlank(e.name) {
		e.name = e.exec
	}

	e.updateDescription()
}

func (e *Entry) updateDescription() {
	primary := e.name
	if isBlank(primary) {
		primary = e.exec
	}
	if isBlank(primary) {
		primary = defaultName
	}

	secondary := e.comment
	if isBlank(secondary) {
		secondary = defaultDescription
	}

	e.description = domain.Description{Primary: primary, Secondary: secondary}
}

func (e *Entry) snapshot() domain.EntrySnapshot {
	position := -1
	if e.xdgPosition != domain.PositionNone {
		position = e.xdgPosition
	}
	systemPosition := -1
	if e.xdgSystemPosition != domain.PositionNone {
		systemPosition = e.xdgSystemPosition
	}

	return domain.EntrySnapshot{
		Basename:       e.basename,
		Path:           e.path,
		Hidden:         e.hidden,
		NoDisplay:      e.nodisplay,
		Name:           e.name,
		Exec:           e.exec,
		Comment:        e.comment,
		Icon:           e.icon,
		Delay:          e.delay,
		Primary:        e.description.Primary,
		Secondary:      e.description.Secondary,
		Position:       position,
		SystemPosition: systemPosition,
		SavePending:    e.dirty != 0,
	}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

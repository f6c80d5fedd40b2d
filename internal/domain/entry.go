package domain

import (
	"math"
	"path/filepath"
)

// PositionNone marks an entry that is not backed by any directory (before the
// first load) or, for the system position, an entry with no system shadow.
// MaxInt so that min() against a real position always picks the real one.
const PositionNone = math.MaxInt

// FieldMask is a bit set of entry fields changed since the last successful
// write. Icon has no setter and therefore no bit: it participates in the
// redundancy comparison only.
type FieldMask uint

const (
	FieldHidden FieldMask = 1 << iota
	FieldName
	FieldExec
	FieldComment
	FieldDelay

	FieldAll FieldMask = 1<<iota - 1
)

// Has reports whether all bits of f are set in m.
func (m FieldMask) Has(f FieldMask) bool { return m&f == f }

// IconKind distinguishes how Icon.Value should be resolved for display.
type IconKind int

const (
	IconNone IconKind = iota
	// IconFile means Value is an absolute path to an image file.
	IconFile
	// IconThemed means Value is an icon name to look up in the icon theme.
	IconThemed
)

// Icon is the display-icon handle derived from an entry's Icon key.
type Icon struct {
	Kind  IconKind
	Value string
}

// Description is the derived display string pair for an entry.
type Description struct {
	Primary   string
	Secondary string
}

// EntrySnapshot is a read-only copy of an autostart entry's state, as exposed
// by the registry to callers outside the engine.
type EntrySnapshot struct {
	Basename  string      `json:"basename"`
	Path      string      `json:"path"`
	Hidden    bool        `json:"hidden"`
	NoDisplay bool        `json:"nodisplay"`
	Name      string      `json:"name"`
	Exec      string      `json:"exec"`
	Comment   string      `json:"comment,omitempty"`
	Icon      string      `json:"icon,omitempty"`
	Delay     int         `json:"delay"`
	Primary   string      `json:"description"`
	Secondary string      `json:"secondary_description"`
	Position  int         `json:"position"`
	// SystemPosition is -1 in snapshots when no system shadow exists.
	SystemPosition int  `json:"system_position"`
	SavePending    bool `json:"save_pending"`
}

// ResolvedIcon returns the display-icon handle for the snapshot.
func (s EntrySnapshot) ResolvedIcon() Icon {
	return ResolveIcon(s.Icon)
}

// ResolveIcon derives a display-icon handle from an Icon key value.
func ResolveIcon(icon string) Icon {
	switch {
	case icon == "":
		return Icon{Kind: IconNone}
	case filepath.IsAbs(icon):
		return Icon{Kind: IconFile, Value: icon}
	default:
		return Icon{Kind: IconThemed, Value: icon}
	}
}

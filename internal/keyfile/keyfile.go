// Package keyfile reads and writes desktop-entry key-value files.
//
// A desktop entry is an INI-shaped file with a single primary group,
// optional per-locale string variants (Name[de_DE]=...) and semicolon
// separated lists. Loading preserves unrelated keys and comments so that
// a partial update does not destroy translations shipped by the vendor.
package keyfile

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"
)

// Desktop-entry group and key names.
const (
	GroupDesktopEntry = "Desktop Entry"

	KeyType       = "Type"
	KeyName       = "Name"
	KeyComment    = "Comment"
	KeyExec       = "Exec"
	KeyIcon       = "Icon"
	KeyHidden     = "Hidden"
	KeyNoDisplay  = "NoDisplay"
	KeyOnlyShowIn = "OnlyShowIn"
	KeyNotShowIn  = "NotShowIn"

	// KeyAutostartDelay is the vendor extension carrying the launch delay
	// in seconds.
	KeyAutostartDelay = "X-MATE-Autostart-Delay"

	typeApplication = "Application"
)

func loadOptions() ini.LoadOptions {
	return ini.LoadOptions{
		// Values like OnlyShowIn=MATE;GNOME; must keep everything after
		// the first semicolon.
		IgnoreInlineComment: true,
		KeyValueDelimiters:  "=",
	}
}

func init() {
	// Desktop entries use Key=Value without padding.
	ini.PrettyFormat = false
}

// File is one parsed desktop-entry file.
type File struct {
	ini     *ini.File
	locales []string
}

// New returns an empty but structurally valid desktop entry
// (Type=Application in the primary group).
func New() *File {
	f := &File{ini: ini.Empty(loadOptions()), locales: currentLocales()}
	f.SetString(KeyType, typeApplication)
	return f
}

// Load parses the desktop entry at path.
func Load(path string) (*File, error) {
	raw, err := ini.LoadSources(loadOptions(), path)
	if err != nil {
		return nil, fmt.Errorf("load desktop entry %s: %w", path, err)
	}
	return &File{ini: raw, locales: currentLocales()}, nil
}

// Save writes the desktop entry to path, mode 0644.
func (f *File) Save(path string) error {
	if err := f.ini.SaveTo(path); err != nil {
		return fmt.Errorf("save desktop entry %s: %w", path, err)
	}
	return nil
}

func (f *File) group() *ini.Section {
	sec, err := f.ini.GetSection(GroupDesktopEntry)
	if err != nil {
		sec, _ = f.ini.NewSection(GroupDesktopEntry)
	}
	return sec
}

// String returns the raw value for key, or "" if absent.
func (f *File) String(key string) string {
	sec := f.group()
	if !sec.HasKey(key) {
		return ""
	}
	return sec.Key(key).String()
}

// LocaleString returns the best locale variant for key, falling back to the
// unlocalized value.
func (f *File) LocaleString(key string) string {
	sec := f.group()
	for _, loc := range f.locales {
		localized := key + "[" + loc + "]"
		if sec.HasKey(localized) {
			return sec.Key(localized).String()
		}
	}
	return f.String(key)
}

// Bool returns the boolean value for key, or def if absent or malformed.
func (f *File) Bool(key string, def bool) bool {
	sec := f.group()
	if !sec.HasKey(key) {
		return def
	}
	b, err := sec.Key(key).Bool()
	if err != nil {
		return def
	}
	return b
}

// Delay returns the autostart delay in seconds. Absent, malformed or
// negative values read as 0.
func (f *File) Delay() int {
	sec := f.group()
	if !sec.HasKey(KeyAutostartDelay) {
		return 0
	}
	d, err := sec.Key(KeyAutostartDelay).Int()
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// StringList returns the semicolon separated list for key. A trailing
// semicolon does not produce an empty element. Returns nil if the key is
// absent.
func (f *File) StringList(key string) []string {
	sec := f.group()
	if !sec.HasKey(key) {
		return nil
	}
	var out []string
	for _, item := range strings.Split(sec.Key(key).String(), ";") {
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

// SetString sets the raw value for key.
func (f *File) SetString(key, value string) {
	f.group().Key(key).SetValue(value)
}

// SetLocaleString sets the value for key under the current locale, or the
// unlocalized key when no locale is active.
func (f *File) SetLocaleString(key, value string) {
	if len(f.locales) > 0 {
		f.SetString(key+"["+f.locales[0]+"]", value)
		return
	}
	f.SetString(key, value)
}

// EnsureDefaultLocale makes sure the unlocalized key carries a value when a
// locale variant does, so non-localized readers still see one.
func (f *File) EnsureDefaultLocale(key string) {
	sec := f.group()
	if sec.HasKey(key) {
		return
	}
	for _, loc := range f.locales {
		localized := key + "[" + loc + "]"
		if sec.HasKey(localized) {
			f.SetString(key, sec.Key(localized).String())
			return
		}
	}
}

// SetBool sets the boolean value for key.
func (f *File) SetBool(key string, value bool) {
	f.SetString(key, strconv.FormatBool(value))
}

// SetDelay sets the autostart delay in seconds.
func (f *File) SetDelay(seconds int) {
	f.SetString(KeyAutostartDelay, strconv.Itoa(seconds))
}

// currentLocales derives the locale lookup chain from the environment:
// "de_DE.UTF-8" yields ["de_DE", "de"]. The "C" and "POSIX" locales yield
// no chain.
func currentLocales() []string {
	loc := ""
	for _, name := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := os.Getenv(name); v != "" {
			loc = v
			break
		}
	}
	if i := strings.IndexAny(loc, ".@"); i >= 0 {
		loc = loc[:i]
	}
	if loc == "" || loc == "C" || loc == "POSIX" {
		return nil
	}
	chain := []string{loc}
	if i := strings.IndexByte(loc, '_'); i >= 0 {
		chain = append(chain, loc[:i])
	}
	return chain
}

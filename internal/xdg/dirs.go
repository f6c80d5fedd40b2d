// Package xdg builds the ordered autostart directory precedence table from
// the XDG base directory environment.
package xdg

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const autostartSubdir = "autostart"

// UserDir returns the sole writable autostart directory,
// $XDG_CONFIG_HOME/autostart (falling back to ~/.config/autostart).
func UserDir() string {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, autostartSubdir)
	}
	cfg, err := os.UserConfigDir()
	if err != nil {
		// Last resort, mirrors the ~/.config default.
		home, _ := os.UserHomeDir()
		cfg = filepath.Join(home, ".config")
	}
	return filepath.Join(cfg, autostartSubdir)
}

// SystemDirs returns the read-only autostart directories from
// $XDG_CONFIG_DIRS in declaration order (highest priority first),
// defaulting to /etc/xdg/autostart.
func SystemDirs() []string {
	raw := os.Getenv("XDG_CONFIG_DIRS")
	if raw == "" {
		raw = "/etc/xdg"
	}
	var dirs []string
	for _, d := range strings.Split(raw, ":") {
		if d == "" {
			continue
		}
		dirs = append(dirs, filepath.Join(d, autostartSubdir))
	}
	return dirs
}

// Dirs returns the full precedence table: position 0 is the user directory,
// positions 1..N the system directories in descending priority.
func Dirs() []string {
	return append([]string{UserDir()}, SystemDirs()...)
}

// EnsureDir creates dir with owner-only permissions if it is missing.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create autostart dir %s: %w", dir, err)
	}
	return nil
}

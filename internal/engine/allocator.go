package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rbuj/mate-session-manager/internal/domain"
)

const (
	desktopSuffix = ".desktop"

	// maxBasenameProbes bounds the collision scan so a pathological
	// registry cannot loop forever.
	maxBasenameProbes = 10000
)

// freeBasenameLocked allocates a collision-free basename from a suggestion,
// probing base.desktop, base-1.desktop, base-2.desktop, ... against both the
// registry and the user directory.
func (m *Manager) freeBasenameLocked(suggested string) (string, error) {
	stem := strings.TrimSuffix(filepath.Base(suggested), desktopSuffix)

	for i := 0; i < maxBasenameProbes; i++ {
		candidate := stem + desktopSuffix
		if i > 0 {
			candidate = fmt.Sprintf("%s-%d%s", stem, i, desktopSuffix)
		}

		if _, taken := m.entries[candidate]; taken {
			continue
		}
		if _, err := os.Stat(filepath.Join(m.userDir(), candidate)); err == nil {
			continue
		}

		return candidate, nil
	}

	return "", domain.ErrNoFreeBasename
}

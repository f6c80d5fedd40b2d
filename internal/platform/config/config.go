package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	// StatusAddr is the listen address of the status/admin server.
	// Empty disables the server entirely.
	StatusAddr string `env:"STATUS_ADDR" default:"127.0.0.1:8484"`

	// DesktopEnv is the desktop identifier matched against the
	// OnlyShowIn/NotShowIn lists of desktop entries. When unset, the
	// first entry of XDG_CURRENT_DESKTOP is used, then "MATE".
	DesktopEnv string `env:"DESKTOP_ENV"`

	// SaveDelay is the quiet period before pending entry mutations are
	// flushed to disk.
	SaveDelay time.Duration `env:"SAVE_DELAY" default:"2s"`

	// UserDir overrides the writable autostart directory.
	UserDir string `env:"AUTOSTART_USER_DIR"`
	// SystemDirs overrides the read-only autostart directories,
	// colon separated, highest priority first.
	SystemDirs string `env:"AUTOSTART_SYSTEM_DIRS"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if cfg.DesktopEnv == "" {
		cfg.DesktopEnv = detectDesktopEnv()
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// SystemDirList splits the SystemDirs override, returning nil when unset.
func (c *Config) SystemDirList() []string {
	if c.SystemDirs == "" {
		return nil
	}
	var dirs []string
	for _, d := range strings.Split(c.SystemDirs, ":") {
		if d != "" {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

func detectDesktopEnv() string {
	if cur := os.Getenv("XDG_CURRENT_DESKTOP"); cur != "" {
		return strings.Split(cur, ":")[0]
	}
	return "MATE"
}

func validate(cfg *Config) error {
	if cfg.SaveDelay <= 0 {
		return fmt.Errorf("SAVE_DELAY must be positive, got %s", cfg.SaveDelay)
	}
	return nil
}

package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rbuj/mate-session-manager/internal/engine"
	"github.com/rbuj/mate-session-manager/internal/platform/config"
	"github.com/rbuj/mate-session-manager/internal/platform/logging"
	"github.com/rbuj/mate-session-manager/internal/platform/retry"
	"github.com/rbuj/mate-session-manager/internal/server"
	"github.com/rbuj/mate-session-manager/internal/watch"
	"github.com/rbuj/mate-session-manager/internal/xdg"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

// autostartDirs resolves the ordered directory list, env overrides first,
// then the XDG defaults. Position 0 is always the writable user directory.
func autostartDirs(cfg *config.Config) []string {
	userDir := cfg.UserDir
	if userDir == "" {
		userDir = xdg.UserDir()
	}
	systemDirs := cfg.SystemDirList()
	if systemDirs == nil {
		systemDirs = xdg.SystemDirs()
	}
	return append([]string{userDir}, systemDirs...)
}

// transientWatchError reports whether a watcher setup failure is worth
// retrying. Exhausted inotify instance or descriptor budgets clear up as
// other processes release theirs.
func transientWatchError(err error) retry.Action {
	switch {
	case errors.Is(err, syscall.ENOSPC), errors.Is(err, syscall.EMFILE), errors.Is(err, syscall.ENFILE):
		return retry.Retry
	default:
		return retry.Stop
	}
}

func setupWatcher(dirs []string, mgr *engine.Manager) *watch.Watcher {
	policy := retry.Policy{
		MaxAttempts:    5,
		InitialBackoff: 200 * time.Millisecond,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			slog.Warn("Retrying watcher setup", "attempt", attempt, "backoff", backoff, "error", err)
		},
	}

	watcher, err := retry.Do(context.Background(), policy, transientWatchError, func() (*watch.Watcher, error) {
		return watch.New(dirs, mgr)
	})
	if err != nil {
		slog.Error("Failed to set up directory watcher", "error", err)
		os.Exit(1)
	}
	return watcher
}

func runGracefulShutdown(srv *server.Server, watcher *watch.Watcher, cancel context.CancelFunc, mgr *engine.Manager) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		if srv != nil {
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancelShutdown()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Error("Server shutdown error", "error", err)
			}
		}

		if err := watcher.Close(); err != nil {
			slog.Error("Watcher close error", "error", err)
		}
		cancel()

		// Flushes any debounced writes before exit.
		mgr.Close()

		close(done)
	}()

	return done
}

func main() {
	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)

	dirs := autostartDirs(cfg)
	slog.Info("Application starting", "desktop_env", cfg.DesktopEnv, "dirs", dirs)

	if err := xdg.EnsureDir(dirs[0]); err != nil {
		slog.Error("Failed to create user autostart directory", "dir", dirs[0], "error", err)
		os.Exit(1)
	}

	mgr := engine.NewManager(dirs, cfg.DesktopEnv, engine.WithSaveDelay(cfg.SaveDelay))
	mgr.Scan()

	watcher := setupWatcher(dirs, mgr)
	ctx, cancel := context.WithCancel(context.Background())
	go watcher.Run(ctx)

	var srv *server.Server
	if cfg.StatusAddr != "" {
		srv = server.NewServer(cfg.StatusAddr, dirs[0], mgr)
	}

	done := runGracefulShutdown(srv, watcher, cancel, mgr)

	if srv != nil {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}

	<-done
}

// Package server exposes the status/admin HTTP surface: health probes,
// prometheus metrics, build info and a small JSON API over the entry
// registry. Every mutation goes through the registry, so HTTP edits obey
// the same debounce and reconciliation discipline as any other caller.
package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/rbuj/mate-session-manager/internal/domain"
	apperrors "github.com/rbuj/mate-session-manager/internal/errors"
)

// Registry is the part of the entry manager the server talks to.
type Registry interface {
	Snapshots() []domain.EntrySnapshot
	Snapshot(basename string) (domain.EntrySnapshot, bool)
	Create(name, comment, exec string, delay int) (string, error)
	Update(basename, name, comment, exec string, delay int) error
	SetHidden(basename string, hidden bool) error
	Delete(basename string) error
}

type Server struct {
	echo      *echo.Echo
	addr      string
	registry  Registry
	userDir   string
	startTime time.Time
}

func NewServer(addr, userDir string, registry Registry) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(apperrors.Middleware())

	srv := &Server{
		echo:      e,
		addr:      addr,
		registry:  registry,
		userDir:   userDir,
		startTime: time.Now(),
	}

	srv.registerRoutes()
	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting status server", "addr", s.addr)
	return s.echo.Start(s.addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

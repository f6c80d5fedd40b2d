package server

import (
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rbuj/mate-session-manager/internal/errors"
	"github.com/rbuj/mate-session-manager/internal/platform/version"
)

func (s *Server) handleLiveness(c echo.Context) error {
	uptime := time.Since(s.startTime).Seconds()
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": uptime,
	})
}

func (s *Server) handleReadiness(c echo.Context) error {
	// Ready once the user autostart directory is in place: everything else
	// degrades gracefully.
	if _, err := os.Stat(s.userDir); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]any{
			"status":       "unhealthy",
			"failed_check": "user_dir",
			"error":        err.Error(),
		})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleVersion(c echo.Context) error {
	return c.JSON(http.StatusOK, version.Get())
}

func (s *Server) handleListEntries(c echo.Context) error {
	return c.JSON(http.StatusOK, s.registry.Snapshots())
}

func (s *Server) handleGetEntry(c echo.Context) error {
	basename := c.Param("basename")
	snap, ok := s.registry.Snapshot(basename)
	if !ok {
		return errors.NotFoundError("entry not found").WithContext("basename", basename)
	}
	return c.JSON(http.StatusOK, snap)
}

type createEntryRequest struct {
	Name    string `json:"name"`
	Comment string `json:"comment"`
	Exec    string `json:"exec"`
	Delay   int    `json:"delay"`
}

func (s *Server) handleCreateEntry(c echo.Context) error {
	var req createEntryRequest
	if err := c.Bind(&req); err != nil {
		return errors.ValidationError("invalid request body")
	}
	if req.Delay < 0 {
		return errors.ValidationError("delay must be non-negative")
	}

	basename, err := s.registry.Create(req.Name, req.Comment, req.Exec, req.Delay)
	if err != nil {
		return err
	}

	snap, _ := s.registry.Snapshot(basename)
	return c.JSON(http.StatusCreated, snap)
}

type updateEntryRequest struct {
	Name    string `json:"name"`
	Comment string `json:"comment"`
	Exec    string `json:"exec"`
	Delay   int    `json:"delay"`
	Hidden  *bool  `json:"hidden,omitempty"`
}

func (s *Server) handleUpdateEntry(c echo.Context) error {
	basename := c.Param("basename")

	var req updateEntryRequest
	if err := c.Bind(&req); err != nil {
		return errors.ValidationError("invalid request body")
	}
	if req.Delay < 0 {
		return errors.ValidationError("delay must be non-negative")
	}

	if err := s.registry.Update(basename, req.Name, req.Comment, req.Exec, req.Delay); err != nil {
		return err
	}

	if req.Hidden != nil {
		if err := s.registry.SetHidden(basename, *req.Hidden); err != nil {
			return err
		}
	}

	snap, _ := s.registry.Snapshot(basename)
	return c.JSON(http.StatusOK, snap)
}

func (s *Server) handleDeleteEntry(c echo.Context) error {
	if err := s.registry.Delete(c.Param("basename")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

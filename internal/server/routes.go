package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	s.echo.GET("/version", s.handleVersion)

	// Entry registry API
	s.echo.GET("/entries", s.handleListEntries)
	s.echo.POST("/entries", s.handleCreateEntry)
	s.echo.GET("/entries/:basename", s.handleGetEntry)
	s.echo.PUT("/entries/:basename", s.handleUpdateEntry)
	s.echo.DELETE("/entries/:basename", s.handleDeleteEntry)
}

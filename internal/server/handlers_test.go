package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rbuj/mate-session-manager/internal/domain"
	"github.com/rbuj/mate-session-manager/internal/engine"
)

func newTestServer(t *testing.T) (*Server, *engine.Manager) {
	t.Helper()
	t.Setenv("LC_ALL", "C")

	userDir := filepath.Join(t.TempDir(), "autostart")
	require.NoError(t, os.MkdirAll(userDir, 0o700))

	m := engine.NewManager([]string{userDir}, "MATE",
		engine.WithClock(clockwork.NewFakeClock()))
	t.Cleanup(m.Close)

	return NewServer("127.0.0.1:0", userDir, m), m
}

func doRequest(srv *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	return rec
}

func TestLivenessEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/health/live", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Contains(t, rec.Body.String(), "uptime")
}

func TestReadinessEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, os.RemoveAll(srv.userDir))

	rec = doRequest(srv, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "user_dir")
}

func TestVersionEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/version", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version"`)
	assert.Contains(t, rec.Body.String(), `"go_version"`)
}

func TestCreateAndGetEntry(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodPost, "/entries",
		`{"name": "Music Player", "comment": "Plays music", "exec": "player --daemon", "delay": 5}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created domain.EntrySnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "player.desktop", created.Basename)
	assert.Equal(t, "Music Player", created.Name)
	assert.Equal(t, 5, created.Delay)
	assert.Equal(t, 0, created.Position)

	rec = doRequest(srv, http.MethodGet, "/entries/player.desktop", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var fetched domain.EntrySnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	assert.Equal(t, created.Basename, fetched.Basename)

	rec = doRequest(srv, http.MethodGet, "/entries", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var list []domain.EntrySnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)
}

func TestCreateEntryValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"blank exec", `{"name": "Foo", "exec": "   "}`},
		{"negative delay", `{"name": "Foo", "exec": "foo", "delay": -1}`},
		{"malformed json", `{"name": `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(srv, http.MethodPost, "/entries", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestUpdateEntry(t *testing.T) {
	srv, m := newTestServer(t)

	basename, err := m.Create("Foo", "", "foo", 0)
	require.NoError(t, err)

	rec := doRequest(srv, http.MethodPut, "/entries/"+basename,
		`{"name": "Bar", "comment": "updated", "exec": "foo --flag", "delay": 3, "hidden": true}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var snap domain.EntrySnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, "Bar", snap.Name)
	assert.Equal(t, "foo --flag", snap.Exec)
	assert.Equal(t, 3, snap.Delay)
	assert.True(t, snap.Hidden)
}

func TestDeleteEntry(t *testing.T) {
	srv, m := newTestServer(t)

	basename, err := m.Create("Foo", "", "foo", 0)
	require.NoError(t, err)

	rec := doRequest(srv, http.MethodDelete, "/entries/"+basename, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(srv, http.MethodGet, "/entries/"+basename, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMissingEntryReturnsNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/entries/ghost.desktop", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(srv, http.MethodPut, "/entries/ghost.desktop", `{"name": "x", "exec": "x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(srv, http.MethodDelete, "/entries/ghost.desktop", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

package http

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viewership/internal/config"
	apierrors "viewership/internal/errors"
	"viewership/internal/services"
)

type fixedClients int

func (f fixedClients) ClientCount() int { return int(f) }

func newHealthService(t *testing.T, hub services.ClientCounter) *services.HealthService {
	t.Helper()
	paths, err := config.NewPaths(config.PathsConfig{BaseDir: t.TempDir()})
	require.NoError(t, err)
	return services.NewHealthService("1.0.0", "", paths, nil, hub, nil)
}

func TestHealthHandler_Routes(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	tests := []struct {
		name           string
		hub            services.ClientCounter
		path           string
		expectedStatus int
		expectedState  string
	}{
		{"health", fixedClients(1), "/", http.StatusOK, "ok"},
		{"live", fixedClients(1), "/live", http.StatusOK, "alive"},
		{"ready", fixedClients(1), "/ready", http.StatusOK, "ready"},
		{"not ready without hub", nil, "/ready", http.StatusServiceUnavailable, "not_ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(newHealthService(t, tt.hub), logger)

			rec := httptest.NewRecorder()
			h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Equal(t, tt.expectedState, decodeBody(t, rec)["status"])
		})
	}
}

func TestMetricsHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	errorHandler := apierrors.NewErrorHandler(logger, false)
	health := newHealthService(t, fixedClients(4))

	t.Run("stats", func(t *testing.T) {
		h := NewMetricsHandler(nil, health, errorHandler, logger)
		rec := httptest.NewRecorder()
		h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		data := decodeBody(t, rec)["data"].(map[string]interface{})
		assert.Equal(t, float64(4), data["websocket_clients"])
		assert.Equal(t, float64(0), data["export_files"])
	})

	t.Run("prometheus disabled", func(t *testing.T) {
		h := NewMetricsHandler(nil, health, errorHandler, logger)
		rec := httptest.NewRecorder()
		h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("prometheus enabled", func(t *testing.T) {
		scrape := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("uploads_total 1\n"))
		})
		h := NewMetricsHandler(scrape, health, errorHandler, logger)
		rec := httptest.NewRecorder()
		h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "uploads_total")
	})
}

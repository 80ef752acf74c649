package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "viewership/internal/errors"
	"viewership/internal/services"
)

// MetricsHandler serves the Prometheus scrape endpoint and a JSON summary
// of runtime counters
type MetricsHandler struct {
	prometheus   http.Handler
	health       *services.HealthService
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewMetricsHandler creates a metrics handler. prometheus may be nil when
// metrics export is disabled.
func NewMetricsHandler(prometheus http.Handler, health *services.HealthService, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *MetricsHandler {
	return &MetricsHandler{
		prometheus:   prometheus,
		health:       health,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("handler", "metrics")),
	}
}

// Routes sets up the metrics routes
func (h *MetricsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Prometheus)
	r.Get("/stats", h.GetStats)
	return r
}

// Prometheus handles GET /metrics
func (h *MetricsHandler) Prometheus(w http.ResponseWriter, r *http.Request) {
	if h.prometheus == nil {
		h.errorHandler.HandleError(w, r, apierrors.New(http.StatusNotFound, "NOT_FOUND", "Metrics export is disabled"))
		return
	}
	h.prometheus.ServeHTTP(w, r)
}

// GetStats handles GET /metrics/stats
func (h *MetricsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.health.SystemStats(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   stats,
	})
}

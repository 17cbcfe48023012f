package handler

import (
	"net/http"
)

// MetricsHandler exposes the process metrics in Prometheus exposition format.
type MetricsHandler struct {
	exposition http.Handler
}

// NewMetricsHandler wraps the exposition handler built by the telemetry bootstrap.
func NewMetricsHandler(exposition http.Handler) *MetricsHandler {
	return &MetricsHandler{exposition: exposition}
}

// Metrics handles GET /metrics.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.exposition == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	h.exposition.ServeHTTP(w, r)
}

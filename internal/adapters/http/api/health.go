// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/miyabi-lab/encore/pkg/metrics"
)

// HealthHandler serves /healthz. The endpoint doubles as the liveness probe
// and the Prometheus scrape target: a 200 with the metric exposition means
// the process is up.
type HealthHandler struct {
	prom http.Handler
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{
		prom: promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
	}
}

// HandleHealth handles GET /healthz requests.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.prom.ServeHTTP(w, r)
}

package server

import (
	"net/http"

	"github.com/joshp123/findmy/internal/core"
	"github.com/prometheus/client_golang/prometheus"
)

// HealthHandler returns ok for liveness checks.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// NewMux wires the daemon's HTTP endpoints.
func NewMux(registry *core.RegistryService, metrics *prometheus.Registry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", HealthHandler)
	mux.Handle("/metrics", MetricsHandler(metrics))
	mux.Handle("/plugins", PluginsHandler(registry))
	mux.Handle("/plugins/", PluginsHandler(registry))
	return mux
}

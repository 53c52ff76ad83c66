package core

import (
	"sync"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// PluginSummary is the registry view of one plugin.
type PluginSummary struct {
	Manifest
	Status        string `json:"status"`
	HealthMessage string `json:"health_message,omitempty"`
}

// RegistryService provides plugin discovery to clients.
type RegistryService struct {
	plugins []Plugin
	mu      sync.RWMutex
}

func NewRegistryService(plugins []Plugin) *RegistryService {
	return &RegistryService{plugins: plugins}
}

func (r *RegistryService) ListPlugins() []PluginSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]PluginSummary, 0, len(r.plugins))
	for _, p := range r.plugins {
		out = append(out, summarize(p))
	}
	return out
}

func (r *RegistryService) DescribePlugin(id string) (PluginSummary, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Manifest().PluginID == id {
			return summarize(p), true
		}
	}
	return PluginSummary{}, false
}

// SyncHealth publishes each plugin's health as a gRPC health service named
// by its plugin ID. The overall status is SERVING only when every plugin is
// healthy.
func (r *RegistryService) SyncHealth(server *health.Server) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	overall := healthpb.HealthCheckResponse_SERVING
	for _, p := range r.plugins {
		status := servingStatus(p.Health())
		if status != healthpb.HealthCheckResponse_SERVING {
			overall = healthpb.HealthCheckResponse_NOT_SERVING
		}
		server.SetServingStatus(p.ID(), status)
	}
	server.SetServingStatus("", overall)
}

func summarize(p Plugin) PluginSummary {
	return PluginSummary{
		Manifest:      p.Manifest(),
		Status:        string(p.Health()),
		HealthMessage: p.HealthMessage(),
	}
}

func servingStatus(status HealthStatus) healthpb.HealthCheckResponse_ServingStatus {
	switch status {
	case HealthHealthy, HealthDegraded:
		return healthpb.HealthCheckResponse_SERVING
	default:
		return healthpb.HealthCheckResponse_NOT_SERVING
	}
}

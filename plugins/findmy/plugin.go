package findmy

import (
	"log/slog"

	"github.com/joshp123/findmy/internal/config"
	"github.com/joshp123/findmy/internal/core"
	"github.com/prometheus/client_golang/prometheus"
)

const pluginID = "findmy"

// Plugin implements the daemon plugin contract.
type Plugin struct {
	manager       *Manager
	logger        *slog.Logger
	health        core.HealthStatus
	healthMessage string
}

// NewPlugin constructs the Find My plugin. It reports false when the config
// section is absent.
func NewPlugin(cfg *config.FindMyConfig, logger *slog.Logger) (Plugin, bool) {
	if cfg == nil {
		return Plugin{}, false
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("plugin", pluginID)

	clientCfg, err := ConfigFromFile(cfg)
	if err != nil {
		return Plugin{logger: logger, health: core.HealthError, healthMessage: err.Error()}, true
	}
	conn, err := NewConnection(clientCfg)
	if err != nil {
		return Plugin{logger: logger, health: core.HealthError, healthMessage: err.Error()}, true
	}

	return Plugin{
		manager: NewManager(conn, clientCfg.WithFamily),
		logger:  logger,
		health:  core.HealthHealthy,
	}, true
}

func (p Plugin) ID() string {
	return pluginID
}

func (p Plugin) Manifest() core.Manifest {
	return core.Manifest{
		PluginID:    pluginID,
		DisplayName: "Find My",
		Version:     "0.1.0",
	}
}

func (p Plugin) Collectors() []prometheus.Collector {
	if p.manager == nil {
		return nil
	}
	return []prometheus.Collector{NewMetricsCollector(p.manager, p.logger)}
}

func (p Plugin) Health() core.HealthStatus {
	return p.health
}

func (p Plugin) HealthMessage() string {
	return p.healthMessage
}

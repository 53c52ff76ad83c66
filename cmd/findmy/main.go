package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/joshp123/findmy/internal/config"
	"github.com/joshp123/findmy/internal/core"
	"github.com/joshp123/findmy/internal/logging"
	"github.com/joshp123/findmy/internal/plugins"
	"github.com/joshp123/findmy/internal/server"
)

var version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", envOrDefault("FINDMY_CONFIG", config.DefaultPath), "path to config.yaml")
	flag.Parse()

	logger := logging.Default()
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("load config", "path", *configPath, "error", err)
		os.Exit(1)
	}
	logger = logging.New(cfg.Logging, version)

	compiled := plugins.Compiled(cfg, logger)
	enabled := config.EnabledPlugins(cfg)
	if err := core.ValidateEnabledPlugins(compiled, enabled, false); err != nil {
		logger.Error("validate plugins", "error", err)
		os.Exit(1)
	}
	active := core.FilterPlugins(compiled, enabled, false)
	if err := core.ValidatePlugins(active); err != nil {
		logger.Error("validate plugins", "error", err)
		os.Exit(1)
	}
	for _, plugin := range active {
		if plugin.Health() != core.HealthHealthy {
			logger.Warn("plugin unhealthy", "plugin", plugin.ID(), "status", plugin.Health(), "message", plugin.HealthMessage())
		}
	}

	registry := core.NewRegistryService(active)

	grpcServer, err := server.NewGRPCServer(cfg.Core.GRPCAddr)
	if err != nil {
		logger.Error("grpc listen", "addr", cfg.Core.GRPCAddr, "error", err)
		os.Exit(1)
	}
	registry.SyncHealth(grpcServer.Health)

	metricsRegistry := core.MetricsRegistry(active)
	metricsRegistry.MustRegister(core.RuntimeCollectors()...)
	metricsRegistry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name:        "findmy_build_info",
		Help:        "Build information",
		ConstLabels: prometheus.Labels{"version": version},
	}, func() float64 { return 1 }))

	httpServer := server.NewHTTPServer(cfg.Core.HTTPAddr, server.NewMux(registry, metricsRegistry))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errs := make(chan error, 2)
	go func() {
		logger.Info("http listening", "addr", cfg.Core.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()
	go func() {
		logger.Info("grpc listening", "addr", cfg.Core.GRPCAddr)
		if err := grpcServer.Serve(); err != nil {
			errs <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errs:
		logger.Error("server failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	grpcServer.Stop()
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

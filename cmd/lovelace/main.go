package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/msto63/ct4pwd/internal/lovelace/server"
	"github.com/msto63/ct4pwd/pkg/core/config"
	"github.com/msto63/ct4pwd/pkg/core/logging"
)

func main() {
	// Load configuration
	cfg, err := config.LoadOrDefault("")
	if err != nil {
		logging.New("lovelace").Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.Service("lovelace", cfg.General.LogLevel, cfg.General.LogFormat)
	logger.Info("Starting Lovelace compile service", "environment", cfg.General.Environment)

	srvCfg := server.ConfigFrom(cfg)
	srvCfg.Logger = logger

	// Override from environment
	if host := os.Getenv("LOVELACE_HOST"); host != "" {
		srvCfg.Host = host
	}

	svc, err := server.NewService(cfg, logger)
	if err != nil {
		logger.Error("Failed to create compile service", "error", err)
		os.Exit(1)
	}

	// Create server
	srv, err := server.New(srvCfg, svc)
	if err != nil {
		logger.Error("Failed to create server", "error", err)
		os.Exit(1)
	}

	// Start server
	if err := srv.StartAsync(); err != nil {
		logger.Error("Failed to start server", "error", err)
		os.Exit(1)
	}

	logger.Info("Lovelace started", "address", srv.Address(), "grpc", cfg.GRPCAddress())

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("Shutdown signal received, stopping server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Stop(ctx); err != nil {
		logger.Error("Error during shutdown", "error", err)
	}

	logger.Info("Lovelace stopped")
}

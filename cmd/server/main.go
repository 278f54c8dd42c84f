// Package main provides the API server entry point for the Lumina dashboard.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/lumina-dashboard/internal/api"
	"github.com/lumina-dashboard/internal/config"
	"github.com/lumina-dashboard/internal/dashboard"
	"github.com/lumina-dashboard/internal/logging"
	"github.com/lumina-dashboard/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize structured logging
	logLevel := logging.ParseLogLevel(cfg.Logging.Level)
	logFormat := logging.ParseLogFormat(cfg.Logging.Format)
	logging.InitGlobalLogger(logLevel, logFormat)

	logger := logging.GetGlobalLogger()
	logging.WithFields(map[string]interface{}{
		"level":  cfg.Logging.Level,
		"format": cfg.Logging.Format,
	}).Info("Structured logging initialized")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	session, err := dashboard.New(ctx, dashboard.Options{
		Config: cfg,
		Logger: logger,
	})
	if err != nil {
		logging.WithError(err).Fatal("Failed to build dashboard session")
	}
	if cfg.Advisor.APIKey == "" {
		logging.Warn("GEMINI_API_KEY not set, advisor will answer with the configuration hint")
	}

	// Optional Redis fan-out of ticks
	var publisher *storage.TickPublisher
	if cfg.Redis.Enabled {
		cache, err := storage.NewRedisCache(&cfg.Redis)
		if err != nil {
			logging.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer cache.Close()

		publisher = storage.NewTickPublisher(cache, cfg.Redis.TickChannel, logger)
		session.AddTickListener(publisher)
		logging.WithField("channel", cfg.Redis.TickChannel).Info("Publishing ticks to Redis")
	}

	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.Server.Host
	serverConfig.Port = cfg.Server.Port
	serverConfig.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
	serverConfig.Burst = cfg.RateLimit.Burst

	server := api.NewServer(serverConfig, session, logger)
	if publisher != nil {
		server.SetTickPublisher(publisher)
	}

	if err := session.Start(ctx); err != nil {
		logging.WithError(err).Fatal("Failed to start dashboard session")
	}

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			logging.WithError(err).Fatal("Server failed to start")
		}
	}()

	logging.WithFields(map[string]interface{}{
		"host":         cfg.Server.Host,
		"port":         cfg.Server.Port,
		"tickInterval": cfg.Simulator.TickInterval.String(),
	}).Info("Server started successfully")

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Infof("Shutting down server (timeout %s)", serverConfig.ShutdownTimeout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.WithError(err).Warn("Server forced to shutdown")
		logging.Error("Shutdown did not complete cleanly")
	}
	session.Stop()

	if publisher != nil {
		published, failed := publisher.Counts()
		logging.WithFields(map[string]interface{}{
			"published": published,
			"failed":    failed,
		}).Info("Tick publisher stopped")
	}
	logging.Info("Server exited")
}

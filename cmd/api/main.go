package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/volunteerhub/assistant/internal/api/router"
	"github.com/volunteerhub/assistant/internal/app/bootstrap"
	appconfig "github.com/volunteerhub/assistant/internal/config"
	"github.com/volunteerhub/assistant/internal/http/handlers"
	"github.com/volunteerhub/assistant/pkg/logging"
)

func main() {
	// .env is optional; real deployments configure the environment.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting volunteerhub assistant",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer redisClient.Close()
	}

	db, err := bootstrap.BuildDB(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to connect to archive database", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
	}

	retriever := bootstrap.BuildRetriever(cfg, registry, logger)
	webchatHandler := bootstrap.BuildWebchat(cfg, retriever, redisClient, db, registry, nil, logger)
	defer webchatHandler.Shutdown()

	r := router.New(&router.Config{
		Logger:             logger,
		Webchat:            webchatHandler,
		Search:             handlers.NewSearchHandler(retriever, logger),
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerSecond: cfg.RateLimitPerSecond,
		RateLimitBurst:     cfg.RateLimitBurst,
	})

	// Header-only read timeout; full read/write timeouts would kill
	// long-lived websocket sessions.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

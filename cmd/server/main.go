package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"oauth2-relay/internal/handlers"
	"oauth2-relay/internal/tracing"
	"oauth2-relay/internal/utils"
	"oauth2-relay/pkg/config"
)

// Set with -ldflags at build time
var (
	version   = "dev"
	gitCommit = "unknown"
	buildTime = "unknown"
)

// Create a logger instance
var log = logrus.New()

func main() {
	if err := run(); err != nil {
		log.Fatalf("❌ %v", err)
	}
}

func run() error {
	log.Println("🚀 Starting Sparebank 1 OAuth2 relay...")
	handlers.SetVersionInfo(version, gitCommit, buildTime)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configuration, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	configureLogger(log, configuration.Logging)
	log.Printf("✅ Configuration loaded successfully")
	log.Printf("🔧 Log Level: %s, Format: %s", configuration.Logging.Level, configuration.Logging.Format)
	log.Printf("🔧 Token endpoint: %s", configuration.OAuth.TokenURI)
	log.Printf("🔧 Accounts endpoint: %s", configuration.Banking.AccountsURI)
	if !configuration.Security.ValidateState {
		log.Warn("⚠️ State validation is disabled; callback state is passed through unchecked")
	}

	shutdownTracing, err := tracing.Setup(ctx, configuration.Tracing)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Errorf("❌ Failed to flush traces: %v", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	httpClient := utils.NewHTTPClient(time.Duration(configuration.Upstream.TimeoutSeconds) * time.Second)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", configuration.Server.Port),
		Handler:      newHandler(configuration, log, reg, httpClient),
		ReadTimeout:  time.Duration(configuration.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(configuration.Server.WriteTimeout) * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("🌐 Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Println("🛑 Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(configuration.Server.ShutdownTimeout)*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	log.Println("✅ Server stopped")
	return nil
}

func configureLogger(logger *logrus.Logger, cfg config.LoggingConfig) {
	switch cfg.Level {
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "warn":
		logger.SetLevel(logrus.WarnLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
}

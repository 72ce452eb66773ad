// Command server exposes the scenario engine over HTTP: scenario runs,
// health, and Prometheus metrics.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"liqrisk/internal/config"
	apperrors "liqrisk/internal/errors"
	"liqrisk/internal/infrastructure"
	"liqrisk/internal/narrative"
	transport "liqrisk/internal/transport/http"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return apperrors.NewConfigError("load configuration", err)
	}

	logger := infrastructure.MustInitializeLogger(cfg.Logging)
	defer infrastructure.CloseLogFile()

	providers, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
	if err != nil {
		return fmt.Errorf("initialize telemetry: %w", err)
	}

	var metrics *infrastructure.BusinessMetrics
	if providers.Meter != nil {
		metrics, err = infrastructure.CreateBusinessMetrics(providers.Meter)
		if err != nil {
			return fmt.Errorf("create metrics: %w", err)
		}
	}

	narrator, err := narrative.NewGenerator(narrative.Config{
		Enabled:           cfg.Narrative.Enabled,
		BaseURL:           cfg.Narrative.BaseURL,
		APIKey:            cfg.Narrative.APIKey,
		Model:             cfg.Narrative.Model,
		Timeout:           cfg.Narrative.Timeout,
		RequestsPerMinute: cfg.Narrative.RequestsPerMinute,
	}, logger)
	if err != nil {
		return fmt.Errorf("initialize narrative generator: %w", err)
	}

	router := transport.NewRouter(transport.RouterConfig{
		Logger:      logger,
		Narrator:    narrator,
		HorizonDays: cfg.Engine.HorizonDays,
		Targets:     cfg.Engine.Targets(),
		Metrics:     metrics,
		Prometheus:  providers.PrometheusHTTP,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server",
			"addr", srv.Addr,
			"narrative_enabled", cfg.Narrative.Enabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-stop:
		logger.Info("Shutdown signal received", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		logger.Error("Telemetry shutdown failed", "error", err)
	}

	logger.Info("Server stopped")
	return nil
}

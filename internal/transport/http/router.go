package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"liqrisk/internal/engine"
	apierrors "liqrisk/internal/errors"
	"liqrisk/internal/infrastructure"
	"liqrisk/internal/narrative"
	"liqrisk/internal/portfolio"
)

// RouterConfig wires the dependencies the HTTP surface needs.
type RouterConfig struct {
	Logger      *slog.Logger
	Narrator    narrative.Generator
	HorizonDays int
	Targets     engine.Targets
	Metrics     *infrastructure.BusinessMetrics
	Prometheus  http.Handler
}

// NewRouter builds the service router with the full middleware stack.
func NewRouter(cfg RouterConfig) chi.Router {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	narrator := cfg.Narrator
	if narrator == nil {
		narrator = narrative.Disabled{}
	}

	errorHandler := apierrors.NewErrorHandler(logger, false)
	loader := portfolio.NewLoader(logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apierrors.NewErrorMiddleware(errorHandler, logger).Handler)
	r.Use(metricsMiddleware(cfg.Metrics))
	r.Use(apierrors.RecoveryMiddleware(errorHandler))

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	scenarioHandler := NewScenarioHandler(loader, narrator, cfg.HorizonDays, cfg.Targets, logger, errorHandler)
	healthHandler := NewHealthHandler(cfg.HorizonDays, cfg.Targets)

	r.Mount("/api/scenarios", scenarioHandler.Routes())
	r.Mount("/api/health", healthHandler.Routes())

	if cfg.Prometheus != nil {
		r.Handle("/metrics", cfg.Prometheus)
	}

	return r
}

// metricsMiddleware records request counts and latency per route.
func metricsMiddleware(metrics *infrastructure.BusinessMetrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if metrics == nil {
				next.ServeHTTP(w, r)
				return
			}

			metrics.HTTPActiveRequests.Add(r.Context(), 1)
			defer metrics.HTTPActiveRequests.Add(r.Context(), -1)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			infrastructure.RecordHTTPRequest(r.Context(), metrics, r.Method, r.URL.Path, ww.Status(), time.Since(start))
		})
	}
}

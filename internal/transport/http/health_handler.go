package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"liqrisk/internal/engine"
	"liqrisk/internal/infrastructure"
)

// HealthHandler reports service liveness and the engine defaults in effect.
type HealthHandler struct {
	horizonDays int
	targets     engine.Targets
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(horizonDays int, targets engine.Targets) *HealthHandler {
	return &HealthHandler{horizonDays: horizonDays, targets: targets}
}

// Routes returns the health routes.
func (h *HealthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Get("/", h.Health)
	return r
}

// Health handles GET /api/health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"status":  "healthy",
		"service": infrastructure.ServiceName,
		"version": infrastructure.ServiceVersion,
		"engine": map[string]interface{}{
			"horizon_days":         h.horizonDays,
			"lcr_target":           h.targets.LCRTargetRatio,
			"survival_target_days": h.targets.SurvivalTargetDays,
		},
	})
}

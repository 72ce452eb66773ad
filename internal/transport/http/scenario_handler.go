// Package http exposes the scenario engine over a chi router with RFC 7807
// error responses.
package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"liqrisk/internal/engine"
	apierrors "liqrisk/internal/errors"
	"liqrisk/internal/narrative"
	"liqrisk/internal/portfolio"
	"liqrisk/internal/scenario"
)

// RunRequest is the body of POST /api/scenarios/run.
type RunRequest struct {
	AsOf      string                 `json:"as_of"`
	Portfolio json.RawMessage        `json:"portfolio"`
	MacroData scenario.MacroShockDoc `json:"macro_data"`
	Scenarios []scenario.Scenario    `json:"scenarios"`

	// Targets optionally overrides the configured management targets.
	Targets *engine.Targets `json:"targets,omitempty"`
}

// ScenarioHandler handles scenario run requests.
type ScenarioHandler struct {
	loader       *portfolio.Loader
	narrator     narrative.Generator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler

	horizonDays    int
	defaultTargets engine.Targets
}

// NewScenarioHandler creates a scenario handler.
func NewScenarioHandler(
	loader *portfolio.Loader,
	narrator narrative.Generator,
	horizonDays int,
	targets engine.Targets,
	logger *slog.Logger,
	errorHandler *apierrors.ErrorHandler,
) *ScenarioHandler {
	return &ScenarioHandler{
		loader:         loader,
		narrator:       narrator,
		logger:         logger.With(slog.String("component", "scenario_handler")),
		errorHandler:   errorHandler,
		horizonDays:    horizonDays,
		defaultTargets: targets,
	}
}

// Routes returns the scenario routes.
func (h *ScenarioHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Post("/run", h.Run)
	return r
}

// Run handles POST /api/scenarios/run.
func (h *ScenarioHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	asOf := time.Now().UTC()
	if req.AsOf != "" {
		parsed, err := portfolio.ParseDate(req.AsOf)
		if err != nil {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("as_of", err.Error()))
			return
		}
		asOf = parsed
	}

	if len(req.Portfolio) == 0 {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("portfolio", "portfolio document is required"))
		return
	}
	p, err := h.loader.Parse(req.Portfolio)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.PortfolioInvalidError(err))
		return
	}

	if len(req.Scenarios) == 0 {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("scenarios", "at least one scenario is required"))
		return
	}

	targets := h.defaultTargets
	if req.Targets != nil {
		targets = *req.Targets
	}

	runner := scenario.NewRunner(h.logger, h.narrator, h.horizonDays, targets)
	artifact, err := runner.Run(r.Context(), asOf, p, scenario.Document{
		Macro:     req.MacroData,
		Scenarios: req.Scenarios,
	})
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ScenarioRunError(err))
		return
	}

	render.JSON(w, r, artifact)
}

package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liqrisk/internal/infrastructure"
)

func TestAPIError(t *testing.T) {
	err := NewWithDetails(http.StatusBadRequest, "PORTFOLIO_INVALID", "bad portfolio", "missing reserve")

	assert.Equal(t, "bad portfolio", err.Error())
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, "missing reserve", err.Details)
}

func TestProblemDetailsMarshalJSON(t *testing.T) {
	pd := NewProblemDetails(http.StatusUnprocessableEntity, TypeScenarioFailed,
		"Unprocessable Entity", "no scenarios supplied", "/api/scenarios/run").
		WithExtension("trace_id", "abc-123")

	data, err := json.Marshal(pd)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, TypeScenarioFailed, decoded["type"])
	assert.Equal(t, float64(422), decoded["status"])
	assert.Equal(t, "no scenarios supplied", decoded["detail"])
	assert.Equal(t, "abc-123", decoded["trace_id"])
}

func newTestHandler() *ErrorHandler {
	return NewErrorHandler(slog.Default(), false)
}

func TestErrorHandlerAPIErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"portfolio invalid", PortfolioInvalidError(fmt.Errorf("bad json")), http.StatusBadRequest, TypePortfolioInvalid},
		{"scenario failed", ScenarioRunError(fmt.Errorf("no scenarios")), http.StatusUnprocessableEntity, TypeScenarioFailed},
		{"validation", ErrValidation("as_of", "must be a date"), http.StatusBadRequest, TypeValidation},
		{"not found", fmt.Errorf("artifact not found"), http.StatusNotFound, TypeNotFound},
		{"generic", fmt.Errorf("boom"), http.StatusInternalServerError, TypeInternal},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout, TypeTimeout},
	}

	h := newTestHandler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/api/scenarios/run", nil)
			problem := h.ErrorToProblem(tt.err, r)

			assert.Equal(t, tt.wantStatus, problem.Status)
			assert.Equal(t, tt.wantType, problem.Type)
			assert.Equal(t, "/api/scenarios/run", problem.Instance)
		})
	}
}

func TestErrorHandlerHandleError(t *testing.T) {
	h := newTestHandler()
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/scenarios/run", nil)

	h.HandleError(w, r, PortfolioInvalidError(fmt.Errorf("truncated document")))

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var problem map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
	assert.Equal(t, TypePortfolioInvalid, problem["type"])
	assert.Equal(t, "PORTFOLIO_INVALID", problem["error_code"])
	assert.Contains(t, problem, "trace_id")
}

func TestErrorHandlerNotFound(t *testing.T) {
	h := newTestHandler()
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/nope", nil)

	h.NotFound(w, r)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestErrorMiddlewareSeedsTraceID(t *testing.T) {
	h := newTestHandler()
	em := NewErrorMiddleware(h, slog.Default())

	var seen string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = infrastructure.GetTraceID(r.Context())
	})

	t.Run("follows chi request id", func(t *testing.T) {
		handler := middleware.RequestID(em.Handler(inner))
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/health", nil))

		require.NotEmpty(t, seen)
	})

	t.Run("generates one without chi", func(t *testing.T) {
		seen = ""
		em.Handler(inner).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/health", nil))

		require.NotEmpty(t, seen)
	})
}

func TestErrorHandlerUsesContextTraceID(t *testing.T) {
	h := newTestHandler()
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/scenarios/run", nil)
	r = r.WithContext(infrastructure.WithTraceID(r.Context(), "trace-42"))

	h.HandleError(w, r, ScenarioRunError(fmt.Errorf("no scenarios")))

	var problem map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
	assert.Equal(t, "trace-42", problem["trace_id"])
}

func TestRecoveryMiddleware(t *testing.T) {
	h := newTestHandler()
	handler := RecoveryMiddleware(h)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("engine exploded")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var problem map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
	assert.Equal(t, TypeInternal, problem["type"])
}

func TestAppError(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := NewNarrativeError("macro view failed", cause).WithContext("model", "gpt-4o-mini")

	assert.Equal(t, "[NARRATIVE] macro view failed: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "gpt-4o-mini", err.Context["model"])

	assert.Equal(t, "[STORAGE] write artifact", NewStorageError("write artifact", nil).Error())
}

func TestSanitizeRequestBody(t *testing.T) {
	out := sanitizeRequestBody(`{"api_key":"sk-secret","as_of":"2025-07-01"}`)

	assert.Contains(t, out, "[REDACTED]")
	assert.NotContains(t, out, "sk-secret")
	assert.Contains(t, out, "2025-07-01")

	assert.Equal(t, "plain text", sanitizeRequestBody("plain text"))
}

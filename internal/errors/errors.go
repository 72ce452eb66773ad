// Package errors defines the API error model: structured APIError values for
// handlers, RFC 7807 problem responses on the wire, and the internal AppError
// taxonomy for non-HTTP failures.
package errors

import (
	"net/http"

	"github.com/go-chi/render"
)

// APIError represents a structured API error response
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// Render implements the render.Renderer interface for chi/render
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// ValidationError represents validation errors
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// NewWithDetails creates a new APIError with additional details
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

// InvalidRequestWithError creates an invalid request error with details
func InvalidRequestWithError(err error) *APIError {
	return NewWithDetails(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format", err.Error())
}

// ErrValidation creates a validation error with field details
func ErrValidation(field, message string) *APIError {
	return NewWithDetails(http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed", ValidationError{
		Field:   field,
		Message: message,
	})
}

// PortfolioInvalidError flags a portfolio document that could not be parsed.
func PortfolioInvalidError(err error) *APIError {
	return NewWithDetails(http.StatusBadRequest, "PORTFOLIO_INVALID", "Portfolio document could not be parsed", err.Error())
}

// ScenarioRunError flags a scenario evaluation failure.
func ScenarioRunError(err error) *APIError {
	return NewWithDetails(http.StatusUnprocessableEntity, "SCENARIO_RUN_FAILED", "Scenario run could not be completed", err.Error())
}

// Package response provides standardized HTTP response structures and helpers
// for the zonewatch API server. All API responses follow a consistent format
// with a data field for successful responses and an error field for failures.
package response

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/agentstation/zonewatch/pkg/errors"
)

// Response represents the standardized API response structure.
// All endpoints return this format for consistency.
type Response struct {
	Data  any    `json:"data"`
	Error *Error `json:"error"`
}

// Error represents an API error with code, message, and optional details.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Success creates a successful response with data.
func Success(data any) Response {
	return Response{
		Data:  data,
		Error: nil,
	}
}

// Fail creates an error response.
func Fail(code, message, details string) Response {
	return Response{
		Data: nil,
		Error: &Error{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Encoding errors are ignored as headers are already sent (best effort)
	_ = json.NewEncoder(w).Encode(resp)
}

// OK writes a successful response with 200 status.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, Success(data))
}

// Accepted writes a successful response with 202 status.
func Accepted(w http.ResponseWriter, data any) {
	JSON(w, http.StatusAccepted, Success(data))
}

// BadRequest writes a 400 error response.
func BadRequest(w http.ResponseWriter, message, details string) {
	JSON(w, http.StatusBadRequest, Fail("BAD_REQUEST", message, details))
}

// NotFound writes a 404 error response.
func NotFound(w http.ResponseWriter, message, details string) {
	JSON(w, http.StatusNotFound, Fail("NOT_FOUND", message, details))
}

// MethodNotAllowed writes a 405 error response.
func MethodNotAllowed(w http.ResponseWriter, method string) {
	JSON(w, http.StatusMethodNotAllowed, Fail(
		"METHOD_NOT_ALLOWED",
		"Method not allowed",
		"Method "+method+" is not supported for this endpoint",
	))
}

// Conflict writes a 409 error response.
func Conflict(w http.ResponseWriter, message, details string) {
	JSON(w, http.StatusConflict, Fail("CONFLICT", message, details))
}

// InternalError writes a 500 error response.
func InternalError(w http.ResponseWriter, _ error) {
	// Details stay server side; the logging middleware records the request
	JSON(w, http.StatusInternalServerError, Fail(
		"INTERNAL_ERROR",
		"Internal server error",
		"An unexpected error occurred",
	))
}

// ServiceUnavailable writes a 503 error response.
func ServiceUnavailable(w http.ResponseWriter, message string) {
	JSON(w, http.StatusServiceUnavailable, Fail(
		"SERVICE_UNAVAILABLE",
		"Service unavailable",
		message,
	))
}

// GatewayTimeout writes a 504 error response.
func GatewayTimeout(w http.ResponseWriter, message string) {
	JSON(w, http.StatusGatewayTimeout, Fail(
		"TIMEOUT",
		"Timed out",
		message,
	))
}

// ErrorFromType maps typed errors to appropriate HTTP responses.
func ErrorFromType(w http.ResponseWriter, err error) {
	var apiErr *errors.APIError
	switch {
	case errors.IsUnknownZone(err):
		NotFound(w, err.Error(), "")
	case errors.IsNotFound(err):
		NotFound(w, err.Error(), "")
	case errors.IsInvalidWindow(err), errors.IsValidationError(err):
		BadRequest(w, err.Error(), "")
	case stderrors.Is(err, errors.ErrSuperseded):
		Conflict(w, err.Error(), "A newer filter was applied before this one completed")
	case stderrors.Is(err, context.DeadlineExceeded):
		GatewayTimeout(w, err.Error())
	case stderrors.As(err, &apiErr):
		if apiErr.StatusCode >= 500 {
			ServiceUnavailable(w, apiErr.Error())
		} else {
			BadRequest(w, apiErr.Error(), "")
		}
	default:
		InternalError(w, err)
	}
}

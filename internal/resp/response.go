// Package resp provides standardized JSON response helpers shared by all
// HTTP handlers.
package resp

import (
	"encoding/json"
	"net/http"
)

// Exception represents the response structure.
type Exception struct {
	Status  int    `json:"status,omitempty"`  // HTTP status
	Message string `json:"message,omitempty"` // Message
	Errors  any    `json:"errors,omitempty"`  // Error details
	Data    any    `json:"data,omitempty"`    // Response data
}

// Success writes a 200 response. A bare payload is written as-is so handlers
// keep full control over the wire shape the polling client expects.
func Success(w http.ResponseWriter, data any) {
	WithStatusCode(w, http.StatusOK, data)
}

// WithStatusCode writes a success response with a custom status code.
func WithStatusCode(w http.ResponseWriter, statusCode int, data any) {
	writeJSON(w, statusCode, data)
}

// Fail writes a failure response.
func Fail(w http.ResponseWriter, r *Exception) {
	if r == nil {
		r = InternalServer("internal server error")
	}
	status := r.Status
	if status == 0 {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]any{"error": r.Message})
}

// BadRequest builds a 400 exception.
func BadRequest(message string) *Exception {
	return &Exception{Status: http.StatusBadRequest, Message: message}
}

// NotFound builds a 404 exception.
func NotFound(message string) *Exception {
	return &Exception{Status: http.StatusNotFound, Message: message}
}

// InternalServer builds a 500 exception.
func InternalServer(message string) *Exception {
	return &Exception{Status: http.StatusInternalServerError, Message: message}
}

func writeJSON(w http.ResponseWriter, code int, res any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(res); err != nil {
		http.Error(w, "Failed to encode JSON response", http.StatusInternalServerError)
	}
}

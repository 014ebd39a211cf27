package api

import (
	"net/http"
)

// ErrorResponse is the body of every non-2xx answer. Exactly one of Message or
// Errors is normally set; Details carries the underlying cause where the caller
// decided it is safe to expose.
type ErrorResponse struct {
	Message   string   `json:"message,omitempty"`
	Errors    []string `json:"errors,omitempty"`
	Details   string   `json:"details,omitempty"`
	RequestID string   `json:"request_id,omitempty"`
}

func WriteError(w http.ResponseWriter, status int, message, requestID string) {
	WriteJSON(w, status, ErrorResponse{Message: message, RequestID: requestID})
}

// Convenience helpers
func BadRequest(w http.ResponseWriter, message, requestID string) {
	WriteError(w, http.StatusBadRequest, message, requestID)
}

// ValidationFailed reports every schema violation of a request at once.
func ValidationFailed(w http.ResponseWriter, errs []string, requestID string) {
	WriteJSON(w, http.StatusBadRequest, ErrorResponse{Errors: errs, RequestID: requestID})
}

func NotFound(w http.ResponseWriter, message, requestID string) {
	WriteError(w, http.StatusNotFound, message, requestID)
}

func RateLimited(w http.ResponseWriter, message, requestID string) {
	WriteError(w, http.StatusTooManyRequests, message, requestID)
}

func Unavailable(w http.ResponseWriter, message, requestID string) {
	WriteError(w, http.StatusServiceUnavailable, message, requestID)
}

// Internal answers 500 with a generic message. Pass a non-empty details to
// expose the underlying error text.
func Internal(w http.ResponseWriter, message, details, requestID string) {
	if message == "" {
		message = "Internal server error"
	}
	WriteJSON(w, http.StatusInternalServerError, ErrorResponse{Message: message, Details: details, RequestID: requestID})
}

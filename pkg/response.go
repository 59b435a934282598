package pkg

import (
	"encoding/json"
	"errors"
	"net/http"
)

// APIResponse is the envelope of every JSON response.
// Message carries the toast text the page shows after an action.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Kind    string `json:"kind,omitempty"` // toast style: success, info, warn
	Error   string `json:"error,omitempty"`
}

// JSON writes a success response.
func JSON(w http.ResponseWriter, status int, data any) {
	write(w, status, APIResponse{Success: true, Data: data})
}

// JSONWithMessage writes a success response with a toast message.
func JSONWithMessage(w http.ResponseWriter, status int, data any, message string) {
	write(w, status, APIResponse{Success: true, Data: data, Message: message})
}

// JSONWithToast writes a success response with a styled toast message.
func JSONWithToast(w http.ResponseWriter, status int, data any, message, kind string) {
	write(w, status, APIResponse{Success: true, Data: data, Message: message, Kind: kind})
}

// Error writes an error response. Domain errors pick their HTTP status.
func Error(w http.ResponseWriter, err error) {
	write(w, mapErrorToStatus(err), APIResponse{Success: false, Error: UserMessage(err)})
}

// ErrorWithMessage writes an error response with a custom message.
func ErrorWithMessage(w http.ResponseWriter, status int, message string) {
	write(w, status, APIResponse{Success: false, Error: message})
}

func write(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

// StatusOf returns the HTTP status a domain error maps to.
func StatusOf(err error) int {
	return mapErrorToStatus(err)
}

// mapErrorToStatus maps domain errors to HTTP status codes. errors.Is walks
// the wrap chain, so wrapped errors match too.
func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

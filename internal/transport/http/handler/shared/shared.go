// Package shared holds response helpers used by every handler group.
package shared

import (
	"encoding/json"
	"net/http"

	"github.com/mandalnilabja/grokway/internal/types"
)

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteJSONError writes an OpenAI-style error. The type is derived from status.
func WriteJSONError(w http.ResponseWriter, message string, status int) {
	types.WriteError(w, status, types.NewAPIError(message, ErrorType(status)))
}

// ErrorType maps an HTTP status to an OpenAI error type.
func ErrorType(status int) string {
	switch {
	case status == http.StatusUnauthorized:
		return types.ErrorTypeAuthentication
	case status == http.StatusNotFound:
		return types.ErrorTypeNotFound
	case status >= 400 && status < 500:
		return types.ErrorTypeInvalidRequest
	default:
		return types.ErrorTypeServer
	}
}

// IsValidAdminPassword validates the manager password format.
// Password must be at least 8 characters.
func IsValidAdminPassword(password string) bool {
	return len(password) >= 8
}

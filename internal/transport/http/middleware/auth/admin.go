// Package auth provides authentication middleware for HTTP routes.
package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mandalnilabja/grokway/internal/storage"
)

// ErrManagerNotConfigured is returned when no manager password hash is stored.
var ErrManagerNotConfigured = errors.New("manager password not configured")

// PasswordStore exposes the stored manager password hash.
type PasswordStore interface {
	GetAdminPasswordHash() (string, error)
}

// VerifyManagerPassword checks password against the stored argon2 hash.
func VerifyManagerPassword(store PasswordStore, password string) (bool, error) {
	hash, err := store.GetAdminPasswordHash()
	if err != nil {
		return false, err
	}
	if hash == "" {
		return false, ErrManagerNotConfigured
	}
	return storage.VerifyPassword(password, hash)
}

// writeUnauthorized writes a JSON 401 response.
func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"message": message,
			"type":    "authentication_error",
		},
	})
}

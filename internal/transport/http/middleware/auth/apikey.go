package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// APIKeyContextKey is the context key for the authenticated caller.
type APIKeyContextKey struct{}

// CachedAPIKey holds a verified caller for the cache window.
type CachedAPIKey struct {
	// ID is a fingerprint of the bearer token, safe to log and to key
	// rate limits by
	ID         string
	ValidUntil time.Time
}

const apiKeyCacheTTL = 5 * time.Minute

// Fingerprint returns a short stable identifier for a bearer token.
func Fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8])
}

// APIKeyAuth accepts requests carrying "Authorization: Bearer <apiKey>" or,
// when sessions is non-nil, a valid manager session cookie.
func APIKeyAuth(apiKey string, sessions *SessionStore, cache *ristretto.Cache[string, *CachedAPIKey]) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sessions != nil && sessions.FromRequest(r) != nil {
				ctx := context.WithValue(r.Context(), APIKeyContextKey{}, &CachedAPIKey{ID: "session"})
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			// 1. Extract key from Authorization header
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				writeUnauthorized(w, "API key required")
				return
			}
			token := strings.TrimPrefix(header, "Bearer ")
			id := Fingerprint(token)
			cacheKey := "apikey:" + id

			// 2. Check cache first
			if cache != nil {
				if cached, found := cache.Get(cacheKey); found && time.Now().Before(cached.ValidUntil) {
					ctx := context.WithValue(r.Context(), APIKeyContextKey{}, cached)
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}

			// 3. Constant-time compare against the configured key
			if apiKey == "" || subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
				writeUnauthorized(w, "invalid API key")
				return
			}

			key := &CachedAPIKey{ID: id, ValidUntil: time.Now().Add(apiKeyCacheTTL)}
			if cache != nil {
				cache.SetWithTTL(cacheKey, key, 1, apiKeyCacheTTL)
			}

			ctx := context.WithValue(r.Context(), APIKeyContextKey{}, key)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAPIKey retrieves the authenticated caller from context.
func GetAPIKey(ctx context.Context) *CachedAPIKey {
	if key, ok := ctx.Value(APIKeyContextKey{}).(*CachedAPIKey); ok {
		return key
	}
	return nil
}

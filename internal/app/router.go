package app

import (
	"log/slog"
	"net/http"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/mandalnilabja/grokway/internal/transport/http/handler"
	"github.com/mandalnilabja/grokway/internal/transport/http/middleware"
	"github.com/mandalnilabja/grokway/internal/transport/http/middleware/auth"
	"github.com/mandalnilabja/grokway/internal/transport/http/middleware/ratelimit"
)

// RouterOptions configures the HTTP router behavior.
type RouterOptions struct {
	APIKey         string
	ManagerEnabled bool

	// ClientRateLimit is requests per minute per API key; 0 disables it.
	ClientRateLimit int

	Logger       *slog.Logger
	APIKeyCache  *ristretto.Cache[string, *auth.CachedAPIKey]
	SessionStore *auth.SessionStore

	// Metrics serves the Prometheus exposition when set.
	Metrics http.Handler
}

// NewRouter creates and configures the HTTP router with all application routes.
// Returns an http.Handler with middleware applied.
func NewRouter(repo *handler.Repo, opts *RouterOptions) http.Handler {
	mux := http.NewServeMux()

	// Public routes (no auth)
	mux.HandleFunc("GET /api/health", repo.Infra.HealthCheck)
	mux.HandleFunc("GET /v1/models", repo.Proxy.ListModels)
	mux.HandleFunc("GET /v1/models/{model}", repo.Proxy.GetModel)
	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics)
	}

	var sessions *auth.SessionStore
	if opts.ManagerEnabled {
		sessions = opts.SessionStore
	}
	apiKeyAuth := auth.APIKeyAuth(opts.APIKey, sessions, opts.APIKeyCache)
	limit := ratelimit.Middleware(ratelimit.New(), opts.ClientRateLimit)
	protect := func(h http.HandlerFunc) http.Handler {
		return apiKeyAuth(limit(h))
	}

	// API key routes
	mux.Handle("POST /v1/chat/completions", protect(repo.Proxy.ChatCompletions))
	mux.Handle("GET /get/tokens", protect(repo.Admin.GetTokens))
	mux.Handle("POST /add/token", protect(repo.Admin.AddToken))
	mux.Handle("POST /delete/token", protect(repo.Admin.DeleteToken))
	mux.Handle("POST /set/cf_clearance", protect(repo.Admin.SetClearance))

	if opts.ManagerEnabled {
		registerManagerRoutes(mux, repo, opts)
	}

	mux.HandleFunc("GET /{$}", repo.Infra.RootStatus)

	// Apply middleware chain (order: outer to inner)
	var h http.Handler = mux

	if opts.Logger != nil {
		h = middleware.RequestLogger(opts.Logger)(h)
	}
	h = middleware.RequestID(h)
	h = middleware.CORS(h)

	return h
}

// registerManagerRoutes adds the session-protected manager routes.
func registerManagerRoutes(mux *http.ServeMux, repo *handler.Repo, opts *RouterOptions) {
	sessionAuth := auth.SessionAuth(opts.SessionStore)
	withSession := func(h http.HandlerFunc) http.Handler {
		return sessionAuth(h)
	}

	mux.HandleFunc("POST /manager/login", repo.Admin.Login)
	mux.Handle("POST /manager/logout", withSession(repo.Admin.Logout))

	mux.Handle("GET /manager/api/get", withSession(repo.Admin.GetTokens))
	mux.Handle("POST /manager/api/add", withSession(repo.Admin.AddToken))
	mux.Handle("POST /manager/api/delete", withSession(repo.Admin.DeleteToken))
	mux.Handle("POST /manager/api/cf_clearance", withSession(repo.Admin.SetClearance))

	mux.Handle("GET /manager/api/logs", withSession(repo.Admin.GetRequestLogs))
	mux.Handle("DELETE /manager/api/logs", withSession(repo.Admin.DeleteRequestLogs))
	mux.Handle("GET /manager/api/system", withSession(repo.Admin.System))
}

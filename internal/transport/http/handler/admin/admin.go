// Package admin serves the credential management and manager endpoints.
package admin

import (
	"log/slog"
	"time"

	"github.com/mandalnilabja/grokway/internal/catalog"
	"github.com/mandalnilabja/grokway/internal/provider"
	"github.com/mandalnilabja/grokway/internal/storage"
	"github.com/mandalnilabja/grokway/internal/storage/models"
	"github.com/mandalnilabja/grokway/internal/transport/http/middleware/auth"
)

// TokenPool is the part of the credential pool the admin surface drives.
type TokenPool interface {
	Add(credential string, excludeTiers ...catalog.Tier)
	Remove(credential string) bool
	Status() models.StatusMap
	DailyUsage() (models.UsageSnapshot, bool)
	Count(tier catalog.Tier) int
	ExpiredCount(tier catalog.Tier) int
	RemainingCapacity(tier catalog.Tier) int
}

// Handlers holds the dependencies for admin HTTP handlers.
type Handlers struct {
	Pool      TokenPool
	Catalog   *catalog.Catalog
	Clearance *provider.Clearance
	Proxies   *provider.ProxyRotator
	Storage   storage.Storage
	Sessions  *auth.SessionStore
	DataDir   string
	StartTime time.Time
	Logger    *slog.Logger
}

// New creates a new instance of admin handlers.
func New(h Handlers) *Handlers {
	if h.Logger == nil {
		h.Logger = slog.Default()
	}
	if h.StartTime.IsZero() {
		h.StartTime = time.Now()
	}
	h.Logger = h.Logger.With("component", "admin")
	return &h
}

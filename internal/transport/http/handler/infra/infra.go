// Package infra serves liveness and status endpoints.
package infra

import (
	"time"

	"github.com/mandalnilabja/grokway/internal/catalog"
)

// Counter reports the number of active credentials in a tier.
type Counter interface {
	Count(tier catalog.Tier) int
}

// Handlers holds the dependencies for infrastructure HTTP handlers.
type Handlers struct {
	Pool      Counter
	Catalog   *catalog.Catalog
	StartTime time.Time
}

// New creates a new instance of infrastructure handlers.
func New(pool Counter, cat *catalog.Catalog, startTime time.Time) *Handlers {
	return &Handlers{
		Pool:      pool,
		Catalog:   cat,
		StartTime: startTime,
	}
}

// Package handler composes the HTTP handlers of the gateway.
package handler

import (
	"github.com/mandalnilabja/grokway/internal/transport/http/handler/admin"
	"github.com/mandalnilabja/grokway/internal/transport/http/handler/infra"
	"github.com/mandalnilabja/grokway/internal/transport/http/handler/proxy"
)

// Repo composes all domain-specific handlers.
type Repo struct {
	Admin *admin.Handlers
	Proxy *proxy.Handlers
	Infra *infra.Handlers
}

// NewRepo creates a new instance of the composed handler repository.
func NewRepo(a *admin.Handlers, p *proxy.Handlers, i *infra.Handlers) *Repo {
	return &Repo{Admin: a, Proxy: p, Infra: i}
}

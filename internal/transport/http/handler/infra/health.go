package infra

import (
	"net/http"
	"time"

	"github.com/mandalnilabja/grokway/internal/transport/http/handler/shared"
)

// RootStatus returns JSON status information at /.
func (h *Handlers) RootStatus(w http.ResponseWriter, r *http.Request) {
	shared.WriteJSON(w, map[string]any{
		"name":   "grokway",
		"status": "running",
		"api":    "/v1",
		"uptime": time.Since(h.StartTime).Round(time.Second).String(),
	}, http.StatusOK)
}

// HealthCheck reports liveness and how many credentials each tier holds.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	tiers := make(map[string]int)
	total := 0
	for _, t := range h.Catalog.Tiers() {
		n := h.Pool.Count(t.Name)
		tiers[string(t.Name)] = n
		total += n
	}
	shared.WriteJSON(w, map[string]any{
		"status":      "ok",
		"credentials": total,
		"tiers":       tiers,
	}, http.StatusOK)
}

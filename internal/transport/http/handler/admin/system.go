package admin

import (
	"net/http"
	"runtime"
	"time"

	"github.com/mandalnilabja/grokway/internal/storage"
	"github.com/mandalnilabja/grokway/internal/transport/http/handler/shared"
)

// TierInfo is one tier's row in the system report.
type TierInfo struct {
	Name             string `json:"name"`
	RequestFrequency int    `json:"request_frequency"`
	ExpirationTime   string `json:"expiration_time"`
	Active           int    `json:"active"`
	Expired          int    `json:"expired"`
	Remaining        int    `json:"remaining"`
	Restricted       bool   `json:"restricted,omitempty"`
	DailyAllowance   int    `json:"daily_allowance,omitempty"`
}

// System handles GET /manager/api/system.
func (h *Handlers) System(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(h.StartTime)

	tiers := make([]TierInfo, 0)
	for _, t := range h.Catalog.Tiers() {
		tiers = append(tiers, TierInfo{
			Name:             string(t.Name),
			RequestFrequency: t.RequestFrequency,
			ExpirationTime:   t.ExpirationTime.String(),
			Active:           h.Pool.Count(t.Name),
			Expired:          h.Pool.ExpiredCount(t.Name),
			Remaining:        h.Pool.RemainingCapacity(t.Name),
			Restricted:       t.Restricted,
			DailyAllowance:   t.DailyAllowance,
		})
	}

	resp := map[string]any{
		"go_version":     runtime.Version(),
		"uptime":         uptime.Round(time.Second).String(),
		"uptime_secs":    int64(uptime.Seconds()),
		"data_dir":       h.DataDir,
		"tiers":          tiers,
		"egress_proxies": h.Proxies.Len(),
		"cf_clearance":   h.Clearance.Get() != "",
		"tracked_tokens": len(h.Pool.Status()),
	}
	if snap, ok := h.Pool.DailyUsage(); ok {
		resp["daily_usage"] = snap
	}
	if h.Storage != nil {
		if stats, err := h.Storage.GetUsageStats(storage.StatsFilter{}); err == nil {
			resp["stats"] = stats
		}
	}

	shared.WriteJSON(w, resp, http.StatusOK)
}

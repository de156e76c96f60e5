package admin

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/mandalnilabja/grokway/internal/pool"
	"github.com/mandalnilabja/grokway/internal/transport/http/handler/shared"
)

// DailyUsageKey holds the metered tier snapshot in the token listing.
const DailyUsageKey = "_daily_usage"

// TokenRequest is the body of the add and delete endpoints.
type TokenRequest struct {
	SSO string `json:"sso"`
}

// ClearanceRequest is the body of the cf_clearance endpoint.
type ClearanceRequest struct {
	CFClearance string `json:"cf_clearance"`
}

// GetTokens handles GET /get/tokens.
func (h *Handlers) GetTokens(w http.ResponseWriter, r *http.Request) {
	status := h.Pool.Status()
	out := make(map[string]any, len(status)+1)
	for identity, tiers := range status {
		out[identity] = tiers
	}
	if snap, ok := h.Pool.DailyUsage(); ok {
		out[DailyUsageKey] = snap
	}
	shared.WriteJSON(w, out, http.StatusOK)
}

// AddToken handles POST /add/token.
func (h *Handlers) AddToken(w http.ResponseWriter, r *http.Request) {
	sso, ok := decodeSSO(w, r)
	if !ok {
		return
	}
	cred := pool.BuildCredential(sso)
	h.Pool.Add(cred)
	h.Logger.Info("credential added", "credential", pool.MaskCredential(cred))
	shared.WriteJSON(w, map[string]string{"message": "token added"}, http.StatusOK)
}

// DeleteToken handles POST /delete/token.
func (h *Handlers) DeleteToken(w http.ResponseWriter, r *http.Request) {
	sso, ok := decodeSSO(w, r)
	if !ok {
		return
	}
	cred := pool.BuildCredential(sso)
	if !h.Pool.Remove(cred) {
		shared.WriteJSONError(w, "token not found", http.StatusNotFound)
		return
	}
	h.Logger.Info("credential deleted", "credential", pool.MaskCredential(cred))
	shared.WriteJSON(w, map[string]string{"message": "token deleted"}, http.StatusOK)
}

// SetClearance handles POST /set/cf_clearance.
func (h *Handlers) SetClearance(w http.ResponseWriter, r *http.Request) {
	var req ClearanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.CFClearance) == "" {
		shared.WriteJSONError(w, "cf_clearance is required", http.StatusBadRequest)
		return
	}
	h.Clearance.Set(req.CFClearance)
	h.Logger.Info("cf_clearance updated")
	shared.WriteJSON(w, map[string]string{"message": "cf_clearance updated"}, http.StatusOK)
}

func decodeSSO(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return "", false
	}
	sso := strings.TrimSpace(req.SSO)
	if sso == "" {
		shared.WriteJSONError(w, "sso is required", http.StatusBadRequest)
		return "", false
	}
	return sso, true
}

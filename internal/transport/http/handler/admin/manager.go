package admin

import (
	"errors"
	"net/http"

	"github.com/mandalnilabja/grokway/internal/transport/http/handler/shared"
	"github.com/mandalnilabja/grokway/internal/transport/http/middleware/auth"
)

// Login handles POST /manager/login with a form or query "password".
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	password := r.FormValue("password")
	if password == "" {
		shared.WriteJSONError(w, "password is required", http.StatusBadRequest)
		return
	}

	ok, err := auth.VerifyManagerPassword(h.Storage, password)
	switch {
	case errors.Is(err, auth.ErrManagerNotConfigured):
		shared.WriteJSONError(w, "manager is not configured", http.StatusServiceUnavailable)
		return
	case err != nil:
		h.Logger.Error("password verification failed", "error", err)
		shared.WriteJSONError(w, "password verification failed", http.StatusInternalServerError)
		return
	case !ok:
		shared.WriteJSONError(w, "invalid password", http.StatusUnauthorized)
		return
	}

	session := h.Sessions.Create()
	auth.SetSessionCookie(w, r, session)
	shared.WriteJSON(w, map[string]any{
		"message":    "logged in",
		"expires_at": session.ExpiresAt,
	}, http.StatusOK)
}

// Logout handles POST /manager/logout.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if session := h.Sessions.FromRequest(r); session != nil {
		h.Sessions.Delete(session.ID)
	}
	auth.ClearSessionCookie(w)
	shared.WriteJSON(w, map[string]string{"message": "logged out"}, http.StatusOK)
}

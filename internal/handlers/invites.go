package handlers

import (
	"net/http"
	"strconv"

	"github.com/pingquote/pingquote/internal/auth"
	"github.com/pingquote/pingquote/internal/httpx"
	"github.com/pingquote/pingquote/internal/services"
)

// InviteHandler exposes invite management plus the public code check
// used by the signup page.
type InviteHandler struct {
	Invites *services.InviteService
}

func NewInviteHandler(invites *services.InviteService) *InviteHandler {
	return &InviteHandler{Invites: invites}
}

// Manage: GET /invites (list), POST /invites (create),
// DELETE /invites?id=<id> (revoke).
func (h *InviteHandler) Manage(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	switch r.Method {
	case http.MethodGet:
		invites, err := h.Invites.List(r.Context(), uid)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"items": invites})
	case http.MethodPost:
		var in services.InviteInput
		if err := httpx.Decode(r, &in); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
			return
		}
		invite, err := h.Invites.Create(r.Context(), uid, in)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		httpx.JSON(w, http.StatusCreated, invite)
	case http.MethodDelete:
		id, err := strconv.Atoi(r.URL.Query().Get("id"))
		if err != nil || id <= 0 {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
			return
		}
		if err := h.Invites.Delete(r.Context(), uid, uint(id)); err != nil {
			writeServiceError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		methodNotAllowed(w, "GET,POST,DELETE")
	}
}

// Validate: GET /invites/validate?code=<code> — public, used by the
// signup page before the visitor has an account.
func (h *InviteHandler) Validate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		httpx.JSONError(w, http.StatusBadRequest, "missing_code", nil)
		return
	}
	preview, err := h.Invites.Validate(r.Context(), code)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, preview)
}

package handlers

import (
	"net/http"

	"github.com/pingquote/pingquote/internal/auth"
	"github.com/pingquote/pingquote/internal/httpx"
	"github.com/pingquote/pingquote/internal/services"
)

// ProfileHandler exposes the sender profile and logo upload, plus the
// team overview.
type ProfileHandler struct {
	Profiles *services.ProfileService
}

func NewProfileHandler(profiles *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{Profiles: profiles}
}

// Profile: GET /profile (read), POST /profile (update name/company).
func (h *ProfileHandler) Profile(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	switch r.Method {
	case http.MethodGet:
		user, err := h.Profiles.Get(r.Context(), uid)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, user)
	case http.MethodPost:
		var in services.ProfileInput
		if err := httpx.Decode(r, &in); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
			return
		}
		user, err := h.Profiles.Update(r.Context(), uid, in)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, user)
	default:
		methodNotAllowed(w, "GET,POST")
	}
}

// UploadLogo: POST /profile/logo — multipart upload, field "logo".
func (h *ProfileHandler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	uid, _ := auth.UserIDFromContext(r.Context())
	if err := r.ParseMultipartForm(services.MaxLogoBytes); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_multipart", nil)
		return
	}
	file, header, err := r.FormFile("logo")
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "missing_file", nil)
		return
	}
	defer file.Close()

	url, err := h.Profiles.SetLogo(r.Context(), uid, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"logoUrl": url})
}

// DeleteLogo: POST /profile/logo/delete
func (h *ProfileHandler) DeleteLogo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	uid, _ := auth.UserIDFromContext(r.Context())
	if err := h.Profiles.RemoveLogo(r.Context(), uid); err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Organizations: GET /organization — the caller's organizations with
// member rosters.
func (h *ProfileHandler) Organizations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	uid, _ := auth.UserIDFromContext(r.Context())
	orgs, err := h.Profiles.Organizations(r.Context(), uid)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": orgs})
}

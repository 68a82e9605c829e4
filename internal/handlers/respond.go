package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/pingquote/pingquote/internal/httpx"
	"github.com/pingquote/pingquote/internal/services"
)

// writeServiceError maps the services error taxonomy to HTTP. Anything
// unrecognized is logged and returned as an opaque 500.
func writeServiceError(w http.ResponseWriter, err error) {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{ve.Field: ve.Rule})
	case errors.Is(err, services.ErrNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
	case errors.Is(err, services.ErrUnauthorized):
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
	case errors.Is(err, services.ErrConflict):
		httpx.JSONError(w, http.StatusConflict, "conflict", nil)
	case errors.Is(err, services.ErrInviteExpired):
		httpx.JSONError(w, http.StatusBadRequest, "invite_expired", nil)
	case errors.Is(err, services.ErrInviteExhausted):
		httpx.JSONError(w, http.StatusBadRequest, "invite_exhausted", nil)
	case errors.Is(err, services.ErrInviteEmailMismatch):
		httpx.JSONError(w, http.StatusBadRequest, "invite_email_mismatch", nil)
	default:
		log.Printf("internal error: %v", err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
}

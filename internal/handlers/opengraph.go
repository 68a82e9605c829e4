package handlers

import (
	"net/http"

	"github.com/pingquote/pingquote/internal/httpx"
	"github.com/pingquote/pingquote/internal/opengraph"
)

// OpenGraphHandler serves link previews for the quote editor.
type OpenGraphHandler struct {
	Fetcher *opengraph.Fetcher
}

func NewOpenGraphHandler(f *opengraph.Fetcher) *OpenGraphHandler {
	return &OpenGraphHandler{Fetcher: f}
}

// Preview: GET /og/preview?url=<url>
func (h *OpenGraphHandler) Preview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	target := r.URL.Query().Get("url")
	if target == "" {
		httpx.JSONError(w, http.StatusBadRequest, "missing_url", nil)
		return
	}
	preview, err := h.Fetcher.Fetch(r.Context(), target)
	if err != nil {
		httpx.JSONError(w, http.StatusBadGateway, "preview_failed", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, preview)
}

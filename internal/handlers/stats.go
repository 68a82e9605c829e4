package handlers

import (
	"net/http"
	"time"

	"github.com/pingquote/pingquote/internal/auth"
	"github.com/pingquote/pingquote/internal/httpx"
	"github.com/pingquote/pingquote/internal/services"
)

// StatsHandler serves the per-currency dashboard aggregates.
type StatsHandler struct {
	Quotes *services.QuoteService
}

func NewStatsHandler(quotes *services.QuoteService) *StatsHandler {
	return &StatsHandler{Quotes: quotes}
}

// Stats: GET /dashboard/stats
func (h *StatsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	uid, _ := auth.UserIDFromContext(r.Context())
	quotes, err := h.Quotes.List(r.Context(), uid)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"byCurrency": services.QuoteStatsByCurrency(quotes, time.Now()),
	})
}

package handlers

import (
	"net/http"
	"time"

	"github.com/pingquote/pingquote/internal/auth"
	"github.com/pingquote/pingquote/internal/httpx"
	"github.com/pingquote/pingquote/internal/models"
	"github.com/pingquote/pingquote/internal/services"
)

// QuoteHandler exposes the authenticated quote lifecycle.
type QuoteHandler struct {
	Quotes *services.QuoteService
}

func NewQuoteHandler(quotes *services.QuoteService) *QuoteHandler {
	return &QuoteHandler{Quotes: quotes}
}

// quotePayload decorates a stored quote with its derived fields. Heat
// and totals are computed per response, never persisted.
type quotePayload struct {
	*models.Quote
	Totals       services.QuoteTotals `json:"totals"`
	Heat         services.HeatStatus  `json:"heat"`
	ViewCount    int                  `json:"viewCount"`
	LastViewedAt *time.Time           `json:"lastViewedAt,omitempty"`
	OwnerName    string               `json:"ownerName,omitempty"`
}

func toPayload(q *models.Quote, now time.Time) quotePayload {
	p := quotePayload{
		Quote:     q,
		Totals:    services.ComputeTotals(q.Items, q.DiscountType, q.Discount),
		Heat:      services.QuoteHeat(q.Views, now),
		ViewCount: len(q.Views),
		OwnerName: q.User.DisplayName(),
	}
	if len(q.Views) > 0 {
		// Views are preloaded newest first.
		p.LastViewedAt = &q.Views[0].ViewedAt
	}
	return p
}

// List: GET /quotes. Create: POST /quotes.
func (h *QuoteHandler) ListCreate(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		methodNotAllowed(w, "GET,POST")
	}
}

func (h *QuoteHandler) list(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	quotes, err := h.Quotes.List(r.Context(), uid)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	now := time.Now()
	items := make([]quotePayload, 0, len(quotes))
	for i := range quotes {
		items = append(items, toPayload(&quotes[i], now))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items, "total": len(items)})
}

func (h *QuoteHandler) create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	var in services.QuoteInput
	if err := httpx.Decode(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	quote, err := h.Quotes.Create(r.Context(), uid, in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toPayload(quote, time.Now()))
}

// Get: GET /quotes/get?id=<publicID>
func (h *QuoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id := r.URL.Query().Get("id")
	if id == "" {
		httpx.JSONError(w, http.StatusBadRequest, "missing_id", nil)
		return
	}
	quote, err := h.Quotes.Get(r.Context(), uid, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPayload(quote, time.Now()))
}

// Update: POST /quotes/update?id=<publicID>
func (h *QuoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	uid, _ := auth.UserIDFromContext(r.Context())
	id := r.URL.Query().Get("id")
	if id == "" {
		httpx.JSONError(w, http.StatusBadRequest, "missing_id", nil)
		return
	}
	var in services.QuoteInput
	if err := httpx.Decode(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	quote, err := h.Quotes.Update(r.Context(), uid, id, in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPayload(quote, time.Now()))
}

// Delete: POST /quotes/delete?id=<publicID>
func (h *QuoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	uid, _ := auth.UserIDFromContext(r.Context())
	id := r.URL.Query().Get("id")
	if id == "" {
		httpx.JSONError(w, http.StatusBadRequest, "missing_id", nil)
		return
	}
	if err := h.Quotes.SoftDelete(r.Context(), uid, id); err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Copy: POST /quotes/copy?id=<publicID> — records a share-link copy.
func (h *QuoteHandler) Copy(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	uid, _ := auth.UserIDFromContext(r.Context())
	id := r.URL.Query().Get("id")
	if id == "" {
		httpx.JSONError(w, http.StatusBadRequest, "missing_id", nil)
		return
	}
	if err := h.Quotes.TrackLinkCopy(r.Context(), uid, id); err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Send: POST /quotes/send?id=<publicID> — emails the quote link to the
// client.
func (h *QuoteHandler) Send(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	uid, _ := auth.UserIDFromContext(r.Context())
	id := r.URL.Query().Get("id")
	if id == "" {
		httpx.JSONError(w, http.StatusBadRequest, "missing_id", nil)
		return
	}
	sentTo, err := h.Quotes.SendToClient(r.Context(), uid, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "sent", "to": sentTo})
}

// Clients: GET /quotes/clients — autocomplete data.
func (h *QuoteHandler) Clients(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	clients, err := h.Quotes.UniqueClients(r.Context(), uid)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": clients})
}

// Items: GET /quotes/items — line-item autocomplete data.
func (h *QuoteHandler) Items(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	items, err := h.Quotes.UniqueLineItems(r.Context(), uid)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items})
}

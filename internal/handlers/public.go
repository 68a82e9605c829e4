package handlers

import (
	"net/http"

	"github.com/pingquote/pingquote/internal/auth"
	"github.com/pingquote/pingquote/internal/httpx"
	"github.com/pingquote/pingquote/internal/services"
)

// PublicHandler serves the unauthenticated share-link surface: the
// quote payload and the view beacon. Both work without a session; a
// session is only consulted to exclude owner views.
type PublicHandler struct {
	Quotes *services.QuoteService
	Views  *services.ViewService
}

func NewPublicHandler(quotes *services.QuoteService, views *services.ViewService) *PublicHandler {
	return &PublicHandler{Quotes: quotes, Views: views}
}

// Get: GET /q?id=<publicID> — quote, items, totals, and the owner's
// limited profile. No view log, counters, or heat leak here.
func (h *PublicHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		httpx.JSONError(w, http.StatusBadRequest, "missing_id", nil)
		return
	}
	quote, err := h.Quotes.GetPublic(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"publicId":     quote.PublicID,
		"clientName":   quote.ClientName,
		"currency":     quote.Currency,
		"discountType": quote.DiscountType,
		"discount":     quote.Discount,
		"notes":        quote.Notes,
		"paymentLink":  quote.PaymentLink,
		"createdAt":    quote.CreatedAt,
		"items":        quote.Items,
		"totals":       services.ComputeTotals(quote.Items, quote.DiscountType, quote.Discount),
		"owner":        quote.User.PublicProfile(),
	})
}

// TrackView: POST /q/view?id=<publicID> — the view beacon fired by the
// share page.
func (h *PublicHandler) TrackView(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		httpx.JSONError(w, http.StatusBadRequest, "missing_id", nil)
		return
	}
	viewerID, _ := auth.UserIDFromContext(r.Context())
	result, err := h.Views.Record(r.Context(), id, viewerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

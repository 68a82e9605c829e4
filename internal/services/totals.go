package services

import (
	"math"

	"github.com/pingquote/pingquote/internal/models"
)

// Discount types accepted on a quote. An empty type means no discount.
const (
	DiscountNone       = "none"
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

// QuoteTotals is the computed money breakdown of a quote.
type QuoteTotals struct {
	Subtotal       float64 `json:"subtotal"`
	DiscountAmount float64 `json:"discountAmount"`
	Total          float64 `json:"total"`
}

// ComputeTotals computes subtotal, effective discount, and total for a
// set of line items. It is the single source of truth for quote money:
// the public page and the dashboard aggregation both go through it so
// the two can never disagree.
//
// The discount is capped at the subtotal, so the total is never
// negative. All outputs are rounded half-up at the cent.
func ComputeTotals(items []models.QuoteItem, discountType string, discount float64) QuoteTotals {
	var subtotal float64
	for _, it := range items {
		subtotal += it.Quantity * it.Price
	}

	var discountAmount float64
	if discount > 0 {
		switch discountType {
		case DiscountPercentage:
			discountAmount = subtotal * discount / 100
		case DiscountFixed:
			discountAmount = discount
		}
	}
	discountAmount = math.Min(discountAmount, subtotal)

	return QuoteTotals{
		Subtotal:       roundCents(subtotal),
		DiscountAmount: roundCents(discountAmount),
		Total:          roundCents(subtotal - discountAmount),
	}
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

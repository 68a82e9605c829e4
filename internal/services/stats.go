package services

import (
	"time"

	"github.com/pingquote/pingquote/internal/models"
)

// QuoteStats is one dashboard block. Stats are bucketed per currency:
// a portfolio with USD and EUR quotes yields two independent blocks,
// never a sum across incompatible units.
type QuoteStats struct {
	TotalQuotes   int     `json:"totalQuotes"`
	TotalValue    float64 `json:"totalValue"`
	ViewedQuotes  int     `json:"viewedQuotes"`
	HotQuotes     int     `json:"hotQuotes"`
	WarmQuotes    int     `json:"warmQuotes"`
	ColdQuotes    int     `json:"coldQuotes"`
	AvgQuoteValue float64 `json:"avgQuoteValue"`
	CopiedCount   int     `json:"copiedCount"`
	EmailedCount  int     `json:"emailedCount"`
}

// QuoteStatsByCurrency composes the totals engine and the heat
// classifier over a quote collection. Currencies with no quotes are
// simply absent, so AvgQuoteValue never divides by zero.
func QuoteStatsByCurrency(quotes []models.Quote, now time.Time) map[string]QuoteStats {
	out := make(map[string]QuoteStats)
	for _, q := range quotes {
		s := out[q.Currency]

		s.TotalQuotes++
		s.TotalValue += ComputeTotals(q.Items, q.DiscountType, q.Discount).Total

		if len(q.Views) > 0 {
			s.ViewedQuotes++
		}
		switch QuoteHeat(q.Views, now) {
		case StatusHot:
			s.HotQuotes++
		case StatusWarm:
			s.WarmQuotes++
		case StatusCold:
			s.ColdQuotes++
		}

		s.CopiedCount += q.LinkCopied
		s.EmailedCount += q.EmailSent

		out[q.Currency] = s
	}
	for cur, s := range out {
		s.AvgQuoteValue = s.TotalValue / float64(s.TotalQuotes)
		out[cur] = s
	}
	return out
}

package services

import (
	"time"

	"github.com/pingquote/pingquote/internal/models"
)

// HeatStatus classifies a quote's engagement recency.
type HeatStatus string

const (
	StatusUnviewed HeatStatus = "unviewed"
	StatusHot      HeatStatus = "hot"
	StatusWarm     HeatStatus = "warm"
	StatusCold     HeatStatus = "cold"
)

const (
	hotWindow  = 48 * time.Hour
	warmWindow = 7 * 24 * time.Hour
)

// QuoteHeat derives a quote's heat from its view log, relative to now:
//
//   - no views             -> unviewed
//   - more than one view   -> hot (repeat engagement, regardless of age)
//   - single view < 48h    -> hot
//   - single view < 7d     -> warm
//   - otherwise            -> cold
//
// Boundaries are strict: a view exactly 48h old is warm, exactly 7d old
// is cold. The status is never persisted — it is recomputed on every
// read so it cannot go stale against the append-only view log.
func QuoteHeat(views []models.QuoteView, now time.Time) HeatStatus {
	if len(views) == 0 {
		return StatusUnviewed
	}
	if len(views) > 1 {
		return StatusHot
	}
	age := now.Sub(views[0].ViewedAt)
	switch {
	case age < hotWindow:
		return StatusHot
	case age < warmWindow:
		return StatusWarm
	default:
		return StatusCold
	}
}

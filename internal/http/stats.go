package http

import (
	"github.com/gofiber/fiber/v2"

	"linkdrop/internal/stats"
)

// GetStats reports aggregate distribution statistics plus a summary of the
// current period.
func (a *API) GetStats(c *fiber.Ctx) error {
	topDays, _ := a.stats.TopN(stats.CounterDay, 1)
	topHours, _ := a.stats.TopN(stats.CounterHour, 1)
	topLinks, _ := a.stats.TopN(stats.CounterLink, 5)
	topIdentities, _ := a.stats.TopN(stats.CounterIdentity, 5)

	body := fiber.Map{
		"total_links_sent": a.stats.Total(),
		"top_links":        topLinks,
		"top_identities":   topIdentities,
	}
	if len(topDays) > 0 {
		body["most_active_day"] = topDays[0]
	}
	if len(topHours) > 0 {
		body["most_active_hour"] = topHours[0]
	}

	// Current-period summary out of the ledger; stats and usage intentionally
	// diverge after resets, so both views are reported.
	snapshot := a.ledger.Snapshot()
	usedThisPeriod := 0
	for _, rec := range snapshot {
		usedThisPeriod += rec.ClaimsUsed
	}
	body["current_period"] = fiber.Map{
		"links_used":        usedThisPeriod,
		"active_identities": len(snapshot),
	}

	return c.Status(fiber.StatusOK).JSON(body)
}

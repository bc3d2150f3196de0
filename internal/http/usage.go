package http

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"linkdrop/internal/ledger"
)

type usageEntry struct {
	IdentityID   string `json:"identity_id"`
	ClaimsUsed   int    `json:"claims_used"`
	PeriodStart  string `json:"period_start"`
	LastClaimAt  string `json:"last_claim_at,omitempty"`
	DaysSinceUse *int   `json:"days_since_last_claim,omitempty"`
}

// GetUsage lists every identity's current-period usage.
func (a *API) GetUsage(c *fiber.Ctx) error {
	snapshot := a.ledger.Snapshot()
	now := time.Now().UTC()

	entries := make([]usageEntry, 0, len(snapshot))
	for _, rec := range snapshot {
		entry := usageEntry{
			IdentityID:  rec.Identity,
			ClaimsUsed:  rec.ClaimsUsed,
			PeriodStart: rec.PeriodStart,
			LastClaimAt: rec.LastClaimAt,
		}
		// Unparseable timestamps stay visible in the raw fields; the derived
		// day count is just omitted.
		if rec.LastClaimAt != "" {
			if last, err := time.Parse(ledger.TimeLayout, rec.LastClaimAt); err == nil {
				days := int(now.Sub(last).Hours() / 24)
				entry.DaysSinceUse = &days
			}
		}
		entries = append(entries, entry)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"identities": entries,
		"total":      len(entries),
	})
}

type resetRequest struct {
	IdentityID string `json:"identity_id"`
	Confirm    string `json:"confirm"`
}

// ResetUsage zeroes one identity's usage, or every identity's when no id is
// given. The full reset requires the explicit confirm token.
func (a *API) ResetUsage(c *fiber.Ctx) error {
	var req resetRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid JSON payload")
	}

	req.IdentityID = strings.TrimSpace(req.IdentityID)

	if req.IdentityID != "" {
		existed := a.ledger.ResetOne(req.IdentityID, time.Now().UTC())
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"identity_id": req.IdentityID,
			"reset":       existed,
		})
	}

	if req.Confirm != "confirm" {
		return jsonError(c, fiber.StatusBadRequest, `resetting all identities requires "confirm"`)
	}

	a.ledger.ResetAll()
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"reset_all": true,
	})
}

package http

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"linkdrop/internal/dispense"
)

type claimRequest struct {
	IdentityID string   `json:"identity_id"`
	RoleIDs    []string `json:"role_ids"`
	IsAdmin    bool     `json:"is_admin"`
}

// CreateClaim handles the inbound claim trigger: one identity asking for one
// random link. The caller (a chat-command layer or similar) supplies the
// identity's current roles; they are trusted as given.
func (a *API) CreateClaim(c *fiber.Ctx) error {
	var req claimRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid JSON payload")
	}

	req.IdentityID = strings.TrimSpace(req.IdentityID)
	if req.IdentityID == "" {
		return jsonError(c, fiber.StatusBadRequest, "identity_id is required")
	}

	result := a.dispenser.Claim(c.UserContext(), req.IdentityID, req.RoleIDs, req.IsAdmin, time.Now().UTC())

	status := fiber.StatusOK
	switch result.Outcome {
	case dispense.OutcomeNoRoleEligible:
		status = fiber.StatusForbidden
	case dispense.OutcomeQuotaExceeded:
		status = fiber.StatusTooManyRequests
	case dispense.OutcomeCatalogEmpty:
		status = fiber.StatusServiceUnavailable
	case dispense.OutcomeDeliveryFailed:
		status = fiber.StatusBadGateway
	}

	body := fiber.Map{
		"outcome":   result.Outcome,
		"remaining": result.Remaining.String(),
	}
	if result.ReceiptID != "" {
		body["receipt_id"] = result.ReceiptID
	}
	if result.Link != "" {
		body["link"] = result.Link
	}

	return c.Status(status).JSON(body)
}

// GetRemaining reports how many links an identity may still claim this period.
func (a *API) GetRemaining(c *fiber.Ctx) error {
	identity := strings.TrimSpace(c.Params("id"))
	if identity == "" {
		return jsonError(c, fiber.StatusBadRequest, "identity id is required")
	}

	var roles []string
	if raw := c.Query("role_ids"); raw != "" {
		for _, role := range strings.Split(raw, ",") {
			if role = strings.TrimSpace(role); role != "" {
				roles = append(roles, role)
			}
		}
	}
	isAdmin := c.QueryBool("is_admin")

	remaining := a.dispenser.Remaining(identity, roles, isAdmin)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"identity_id": identity,
		"remaining":   remaining.String(),
	})
}

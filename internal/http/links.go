package http

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"

	"linkdrop/internal/catalog"
)

type linksRequest struct {
	Links []string `json:"links"`
}

type rejectedLink struct {
	Link   string `json:"link"`
	Reason string `json:"reason"`
}

// AddLinks accepts a batch of candidate links. Each one is normalized,
// deduplicated, and probed for reachability before entering the catalog.
func (a *API) AddLinks(c *fiber.Ctx) error {
	var req linksRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid JSON payload")
	}
	if len(req.Links) == 0 {
		return jsonError(c, fiber.StatusBadRequest, "links is required")
	}

	added := make([]string, 0, len(req.Links))
	rejected := make([]rejectedLink, 0)

	for _, raw := range req.Links {
		link, err := a.catalog.Add(c.UserContext(), raw)
		if err != nil {
			rejected = append(rejected, rejectedLink{Link: link, Reason: rejectReason(err)})
			continue
		}
		added = append(added, link)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"added":    added,
		"rejected": rejected,
		"total":    a.catalog.Len(),
	})
}

// RemoveLinks deletes a batch of links after the same normalization as AddLinks.
func (a *API) RemoveLinks(c *fiber.Ctx) error {
	var req linksRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid JSON payload")
	}
	if len(req.Links) == 0 {
		return jsonError(c, fiber.StatusBadRequest, "links is required")
	}

	removed := make([]string, 0, len(req.Links))
	missing := make([]string, 0)

	for _, raw := range req.Links {
		link, ok := a.catalog.Remove(raw)
		if !ok {
			missing = append(missing, link)
			continue
		}
		removed = append(removed, link)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"removed": removed,
		"missing": missing,
		"total":   a.catalog.Len(),
	})
}

// ListLinks returns the catalog in insertion order.
func (a *API) ListLinks(c *fiber.Ctx) error {
	links := a.catalog.List()
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"links": links,
		"total": len(links),
	})
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, catalog.ErrDuplicate):
		return "duplicate"
	case errors.Is(err, catalog.ErrUnreachable):
		return "unreachable"
	case errors.Is(err, catalog.ErrInvalid):
		return "empty"
	default:
		return "rejected"
	}
}

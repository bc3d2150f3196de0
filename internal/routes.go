package internal

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"linkdrop/internal/auth"
	"linkdrop/internal/config"
	httphandlers "linkdrop/internal/http"
)

// MountRoutes registers all application routes.
func MountRoutes(app *fiber.App, api *httphandlers.API, cfg *config.Config) {
	// Health check - support both GET and HEAD requests
	healthHandler := func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	}
	app.Get("/_health", healthHandler)
	app.Head("/_health", healthHandler)

	// Rate limit claims per caller IP (disabled in test mode)
	claimRateLimiter := limiter.New(limiter.Config{
		Max:        cfg.ClaimRatePerMinute,
		Expiration: 60 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "rate limit exceeded",
			})
		},
		Next: func(c *fiber.Ctx) bool {
			return cfg.IsTest()
		},
	})

	v1 := app.Group("/v1")
	v1.Post("/claims", claimRateLimiter, api.CreateClaim)
	v1.Get("/identities/:id/remaining", api.GetRemaining)

	admin := v1.Group("/admin", auth.Middleware(cfg))
	admin.Get("/links", api.ListLinks)
	admin.Post("/links", api.AddLinks)
	admin.Delete("/links", api.RemoveLinks)
	admin.Get("/usage", api.GetUsage)
	admin.Post("/usage/reset", api.ResetUsage)
	admin.Get("/stats", api.GetStats)
}

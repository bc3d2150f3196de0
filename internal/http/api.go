// Package http contains the JSON API handlers.
package http

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"linkdrop/internal/catalog"
	"linkdrop/internal/config"
	"linkdrop/internal/dispense"
	"linkdrop/internal/ledger"
	"linkdrop/internal/stats"
)

// API holds the handlers' dependencies.
type API struct {
	cfg       *config.Config
	logger    *zap.Logger
	dispenser *dispense.Service
	catalog   *catalog.Catalog
	ledger    *ledger.Ledger
	stats     *stats.Stats
}

// NewAPI wires the handler set.
func NewAPI(cfg *config.Config, logger *zap.Logger, dispenser *dispense.Service, cat *catalog.Catalog, ldg *ledger.Ledger, st *stats.Stats) *API {
	return &API{
		cfg:       cfg,
		logger:    logger.Named("http"),
		dispenser: dispenser,
		catalog:   cat,
		ledger:    ldg,
		stats:     st,
	}
}

func jsonError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

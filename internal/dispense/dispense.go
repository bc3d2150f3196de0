// Package dispense orchestrates a single claim: policy, ledger, catalog,
// stats, delivery.
package dispense

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"linkdrop/internal/catalog"
	"linkdrop/internal/ledger"
	"linkdrop/internal/policy"
	"linkdrop/internal/stats"
)

// Outcome classifies a claim attempt.
type Outcome string

const (
	OutcomeDelivered      Outcome = "delivered"
	OutcomeQuotaExceeded  Outcome = "quota_exceeded"
	OutcomeNoRoleEligible Outcome = "no_role_eligible"
	OutcomeCatalogEmpty   Outcome = "catalog_empty"
	OutcomeDeliveryFailed Outcome = "delivery_failed"
)

// Delivery is the payload handed to the delivery collaborator.
type Delivery struct {
	ReceiptID string
	Identity  string
	Link      string
	Remaining policy.Limit
}

// Deliverer hands a claimed link to the identity through an external channel.
type Deliverer interface {
	Deliver(ctx context.Context, d Delivery) error
}

// Result reports what a claim attempt produced.
type Result struct {
	Outcome   Outcome
	ReceiptID string
	Link      string
	Remaining policy.Limit
}

// Service ties the quota engine together for the claim operation.
type Service struct {
	limits    *policy.Limits
	ledger    *ledger.Ledger
	catalog   *catalog.Catalog
	stats     *stats.Stats
	deliverer Deliverer
	logger    *zap.Logger
}

// New wires a dispense service from its collaborators.
func New(limits *policy.Limits, ldg *ledger.Ledger, cat *catalog.Catalog, st *stats.Stats, deliverer Deliverer, logger *zap.Logger) *Service {
	return &Service{
		limits:    limits,
		ledger:    ldg,
		catalog:   cat,
		stats:     st,
		deliverer: deliverer,
		logger:    logger.Named("dispense"),
	}
}

// Claim runs one distribution attempt for the identity. Roles are evaluated
// fresh on every call so a role change applies immediately.
//
// A claim that passes the ledger but then finds an empty catalog or a failed
// delivery keeps its ledger increment: the attempt is spent. See the usage
// reset operations for recovery.
func (s *Service) Claim(ctx context.Context, identity string, roles []string, unrestricted bool, now time.Time) Result {
	limit := s.limits.For(roles, unrestricted)

	if !unrestricted && limit == 0 {
		// Distinct from quota exhaustion; the ledger is never touched.
		return Result{Outcome: OutcomeNoRoleEligible, Remaining: limit}
	}

	if !s.ledger.TryClaim(identity, limit, now) {
		return Result{Outcome: OutcomeQuotaExceeded, Remaining: s.ledger.Remaining(identity, limit)}
	}

	remaining := s.ledger.Remaining(identity, limit)

	link, err := s.catalog.RandomPick()
	if err != nil {
		s.logger.Warn("claim against empty catalog", zap.String("identity", identity))
		return Result{Outcome: OutcomeCatalogEmpty, Remaining: remaining}
	}

	receipt := uuid.NewString()
	s.stats.RecordClaim(identity, link, now)

	if err := s.deliverer.Deliver(ctx, Delivery{
		ReceiptID: receipt,
		Identity:  identity,
		Link:      link,
		Remaining: remaining,
	}); err != nil {
		s.logger.Error("delivery failed",
			zap.String("receipt_id", receipt),
			zap.String("identity", identity),
			zap.Error(err),
		)
		return Result{Outcome: OutcomeDeliveryFailed, ReceiptID: receipt, Remaining: remaining}
	}

	return Result{Outcome: OutcomeDelivered, ReceiptID: receipt, Link: link, Remaining: remaining}
}

// Remaining reports how many claims the identity has left right now.
func (s *Service) Remaining(identity string, roles []string, unrestricted bool) policy.Limit {
	return s.ledger.Remaining(identity, s.limits.For(roles, unrestricted))
}

package ledger

import (
	"time"

	"go.uber.org/zap"

	"linkdrop/internal/pkg/jobs"
)

// Sweeper evicts expired usage records on each dispatcher tick. Exclusivity
// with in-flight claims comes from the ledger's own lock, so a sweep never
// observes a record mid-mutation.
type Sweeper struct {
	ledger *Ledger
	window time.Duration
}

// NewSweeper creates a sweeper over the given ledger and expiry window.
func NewSweeper(ledger *Ledger, window time.Duration) *Sweeper {
	return &Sweeper{ledger: ledger, window: window}
}

// ProcessBatch implements the jobs.Processor interface.
func (s *Sweeper) ProcessBatch(ctx *jobs.Context) error {
	evicted := s.ledger.Expire(time.Now().UTC(), s.window)
	if evicted > 0 {
		ctx.Logger.Info("expired usage records evicted",
			zap.Int("evicted", evicted),
			zap.Duration("window", s.window),
		)
	}
	return nil
}

// Package ledger is the quota-accounting core: per-identity usage records,
// the atomic check-and-increment claim path, and rolling-window expiry.
package ledger

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"linkdrop/internal/policy"
)

// TimeLayout is the wire format for persisted timestamps.
const TimeLayout = time.RFC3339Nano

// Record tracks one identity's usage within the current period.
// Timestamps are stored as strings; a malformed value in a persisted record is
// a data-integrity warning, never a fatal error.
type Record struct {
	ClaimsUsed  int    `json:"claims_used"`
	PeriodStart string `json:"period_start"`
	LastClaimAt string `json:"last_claim_at,omitempty"`
}

// Entry is one row of a point-in-time ledger snapshot.
type Entry struct {
	Identity    string
	ClaimsUsed  int
	PeriodStart string
	LastClaimAt string
}

// Storage persists the ledger blob between restarts.
type Storage interface {
	Load(key string, out any) (bool, error)
	Save(key string, value any) error
}

const storageKey = "usage"

// Ledger owns every usage record. A single mutex serializes the
// check-and-increment path against resets and expiry scans; the workload is
// human-triggered, so one coarse lock is enough.
type Ledger struct {
	mu      sync.Mutex
	records map[string]*Record
	store   Storage
	logger  *zap.Logger
}

// Load restores the ledger from storage, starting empty when no blob exists.
func Load(store Storage, logger *zap.Logger) (*Ledger, error) {
	records := make(map[string]*Record)
	if _, err := store.Load(storageKey, &records); err != nil {
		return nil, err
	}
	return &Ledger{
		records: records,
		store:   store,
		logger:  logger.Named("ledger"),
	}, nil
}

// Remaining computes how many claims the identity has left under limit.
// Never negative; identities without a record get their full limit.
func (l *Ledger) Remaining(identity string, limit policy.Limit) policy.Limit {
	if limit.IsUnlimited() {
		return policy.Unlimited
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[identity]
	if !ok {
		return limit
	}

	left := limit.Count() - rec.ClaimsUsed
	if left < 0 {
		left = 0
	}
	return policy.Limit(left)
}

// TryClaim atomically consumes one claim slot. Unlimited identities always
// succeed and never create or touch a record. For everyone else the record is
// created on the first attempt of a period, and the check and the increment
// happen under one lock so two concurrent claims cannot both take the last slot.
func (l *Ledger) TryClaim(identity string, limit policy.Limit, now time.Time) bool {
	if limit.IsUnlimited() {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[identity]
	if !ok {
		rec = &Record{ClaimsUsed: 0, PeriodStart: now.UTC().Format(TimeLayout)}
		l.records[identity] = rec
	}

	if rec.ClaimsUsed >= limit.Count() {
		if !ok {
			// First attempt of the period still starts the clock.
			l.persistLocked()
		}
		return false
	}

	rec.ClaimsUsed++
	rec.LastClaimAt = now.UTC().Format(TimeLayout)
	l.persistLocked()
	return true
}

// ResetOne zeroes an identity's usage and restarts its period. Reports whether
// a record existed.
func (l *Ledger) ResetOne(identity string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[identity]
	if !ok {
		return false
	}

	rec.ClaimsUsed = 0
	rec.PeriodStart = now.UTC().Format(TimeLayout)
	l.persistLocked()
	return true
}

// ResetAll clears every usage record.
func (l *Ledger) ResetAll() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = make(map[string]*Record)
	l.persistLocked()
}

// Snapshot returns a consistent point-in-time copy of all records, sorted by
// identity for deterministic reporting.
func (l *Ledger) Snapshot() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := make([]Entry, 0, len(l.records))
	for identity, rec := range l.records {
		entries = append(entries, Entry{
			Identity:    identity,
			ClaimsUsed:  rec.ClaimsUsed,
			PeriodStart: rec.PeriodStart,
			LastClaimAt: rec.LastClaimAt,
		})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Identity < entries[j].Identity })
	return entries
}

// Expire evicts records whose period started more than window ago. Records
// with an unparseable period start are skipped with a warning so one corrupt
// entry cannot abort the sweep. Returns the number of evicted records.
func (l *Ledger) Expire(now time.Time, window time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	evicted := 0
	for identity, rec := range l.records {
		start, err := time.Parse(TimeLayout, rec.PeriodStart)
		if err != nil {
			l.logger.Warn("skipping record with malformed period start",
				zap.String("identity", identity),
				zap.String("period_start", rec.PeriodStart),
				zap.Error(err),
			)
			continue
		}
		if now.Sub(start) > window {
			delete(l.records, identity)
			evicted++
		}
	}

	if evicted > 0 {
		l.persistLocked()
	}
	return evicted
}

// persistLocked writes the ledger blob through the storage collaborator.
// The in-memory ledger stays authoritative; a failed write is logged and the
// next mutation retries the full blob.
func (l *Ledger) persistLocked() {
	if err := l.store.Save(storageKey, l.records); err != nil {
		l.logger.Error("usage persistence failed", zap.Error(err))
	}
}

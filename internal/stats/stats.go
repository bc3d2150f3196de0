// Package stats keeps write-mostly aggregate counters for reporting.
// The counters are historical: resetting the usage ledger never touches them.
package stats

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Counter names accepted by TopN.
const (
	CounterDay      = "day"
	CounterHour     = "hour"
	CounterLink     = "link"
	CounterIdentity = "identity"
)

// Entry is one (key, count) pair of a TopN report.
type Entry struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Storage persists the stats blob between restarts.
type Storage interface {
	Load(key string, out any) (bool, error)
	Save(key string, value any) error
}

const storageKey = "stats"

// counter is a keyed tally that remembers first-seen order so TopN ties are
// deterministic.
type counter struct {
	Counts map[string]int `json:"counts"`
	Order  []string       `json:"order"`
}

func newCounter() *counter {
	return &counter{Counts: make(map[string]int)}
}

func (c *counter) inc(key string) {
	if _, seen := c.Counts[key]; !seen {
		c.Order = append(c.Order, key)
	}
	c.Counts[key]++
}

func (c *counter) top(n int) []Entry {
	entries := make([]Entry, 0, len(c.Order))
	for _, key := range c.Order {
		entries = append(entries, Entry{Key: key, Count: c.Counts[key]})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Count > entries[j].Count })
	if n >= 0 && n < len(entries) {
		entries = entries[:n]
	}
	return entries
}

// blob is the persisted shape of the aggregator.
type blob struct {
	Total      int      `json:"total_links_sent"`
	ByDay      *counter `json:"links_by_day"`
	ByHour     *counter `json:"links_by_hour"`
	ByLink     *counter `json:"popular_links"`
	ByIdentity *counter `json:"active_users"`
}

// Stats aggregates claim events by day, hour, link, and identity.
type Stats struct {
	mu     sync.Mutex
	data   blob
	store  Storage
	logger *zap.Logger
}

// Load restores the aggregator from storage, starting zeroed when no blob exists.
func Load(store Storage, logger *zap.Logger) (*Stats, error) {
	data := blob{
		ByDay:      newCounter(),
		ByHour:     newCounter(),
		ByLink:     newCounter(),
		ByIdentity: newCounter(),
	}
	if _, err := store.Load(storageKey, &data); err != nil {
		return nil, err
	}
	// A hand-edited blob may miss counters; re-zero whatever is absent.
	if data.ByDay == nil {
		data.ByDay = newCounter()
	}
	if data.ByHour == nil {
		data.ByHour = newCounter()
	}
	if data.ByLink == nil {
		data.ByLink = newCounter()
	}
	if data.ByIdentity == nil {
		data.ByIdentity = newCounter()
	}
	for _, c := range []*counter{data.ByDay, data.ByHour, data.ByLink, data.ByIdentity} {
		if c.Counts == nil {
			c.Counts = make(map[string]int)
		}
	}

	return &Stats{data: data, store: store, logger: logger.Named("stats")}, nil
}

// RecordClaim tallies one successful claim into all five counters.
func (s *Stats) RecordClaim(identity, link string, at time.Time) {
	at = at.UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Total++
	s.data.ByDay.inc(at.Format("2006-01-02"))
	s.data.ByHour.inc(at.Format("15"))
	s.data.ByLink.inc(link)
	s.data.ByIdentity.inc(identity)
	s.persistLocked()
}

// Total returns the all-time claim count.
func (s *Stats) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Total
}

// TopN reports the n highest counts for the named counter, sorted descending,
// ties broken by first-seen order. n < 0 returns everything.
func (s *Stats) TopN(name string, n int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch name {
	case CounterDay:
		return s.data.ByDay.top(n), nil
	case CounterHour:
		return s.data.ByHour.top(n), nil
	case CounterLink:
		return s.data.ByLink.top(n), nil
	case CounterIdentity:
		return s.data.ByIdentity.top(n), nil
	default:
		return nil, fmt.Errorf("stats: unknown counter %q", name)
	}
}

func (s *Stats) persistLocked() {
	if err := s.store.Save(storageKey, s.data); err != nil {
		s.logger.Error("stats persistence failed", zap.Error(err))
	}
}

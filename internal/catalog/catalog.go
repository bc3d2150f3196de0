// Package catalog holds the ordered collection of distributable links.
package catalog

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Sentinel outcomes for Add and RandomPick.
var (
	ErrInvalid     = errors.New("catalog: empty link")
	ErrDuplicate   = errors.New("catalog: link already present")
	ErrUnreachable = errors.New("catalog: link is not reachable")
	ErrEmpty       = errors.New("catalog: no links available")
)

// Checker probes whether a link is worth accepting into the catalog.
type Checker interface {
	Check(ctx context.Context, link string) bool
}

// Storage persists the catalog blob between restarts.
type Storage interface {
	Load(key string, out any) (bool, error)
	Save(key string, value any) error
}

const storageKey = "links"

// Catalog is the insertion-ordered link collection.
type Catalog struct {
	mu      sync.Mutex
	links   []string
	index   map[string]struct{}
	checker Checker
	store   Storage
	logger  *zap.Logger
}

// Load restores the catalog from storage, starting empty when no blob exists.
func Load(store Storage, checker Checker, logger *zap.Logger) (*Catalog, error) {
	var links []string
	if _, err := store.Load(storageKey, &links); err != nil {
		return nil, err
	}

	index := make(map[string]struct{}, len(links))
	for _, link := range links {
		index[link] = struct{}{}
	}

	return &Catalog{
		links:   links,
		index:   index,
		checker: checker,
		store:   store,
		logger:  logger.Named("catalog"),
	}, nil
}

// Normalize trims whitespace and prepends https:// when no scheme is present.
// Applying it twice is a no-op.
func Normalize(link string) string {
	link = strings.TrimSpace(link)
	if link == "" {
		return ""
	}
	if !strings.HasPrefix(link, "http://") && !strings.HasPrefix(link, "https://") {
		link = "https://" + link
	}
	return link
}

// Add normalizes raw and appends it to the catalog. Duplicates and links the
// checker rejects return an error; the normalized link is returned either way
// so callers can report what was evaluated.
func (c *Catalog) Add(ctx context.Context, raw string) (string, error) {
	link := Normalize(raw)
	if link == "" {
		return "", ErrInvalid
	}

	// The reachability probe runs outside the lock; it is an outbound HTTP
	// call bounded by the checker's timeout.
	if c.checker != nil && !c.checker.Check(ctx, link) {
		return link, ErrUnreachable
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.index[link]; exists {
		return link, ErrDuplicate
	}

	c.links = append(c.links, link)
	c.index[link] = struct{}{}
	c.persistLocked()
	return link, nil
}

// Remove deletes the link matching Normalize(raw). Reports whether it existed.
func (c *Catalog) Remove(raw string) (string, bool) {
	link := Normalize(raw)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.index[link]; !exists {
		return link, false
	}

	delete(c.index, link)
	for i, existing := range c.links {
		if existing == link {
			c.links = append(c.links[:i], c.links[i+1:]...)
			break
		}
	}
	c.persistLocked()
	return link, true
}

// RandomPick returns a uniformly chosen link, or ErrEmpty when the catalog has
// no entries.
func (c *Catalog) RandomPick() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.links) == 0 {
		return "", ErrEmpty
	}
	return c.links[rand.Intn(len(c.links))], nil
}

// List returns the catalog in insertion order.
func (c *Catalog) List() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]string, len(c.links))
	copy(out, c.links)
	return out
}

// Len returns the number of links in the catalog.
func (c *Catalog) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.links)
}

func (c *Catalog) persistLocked() {
	if err := c.store.Save(storageKey, c.links); err != nil {
		c.logger.Error("catalog persistence failed", zap.Error(err))
	}
}

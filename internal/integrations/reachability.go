// Package integrations holds the outbound HTTP collaborators: the link
// reachability probe and the delivery webhook.
package integrations

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// LinkChecker probes candidate links before they enter the catalog.
type LinkChecker struct {
	http   *http.Client
	logger *zap.Logger
}

// NewLinkChecker constructs a checker whose probes are bounded by timeout.
func NewLinkChecker(timeout time.Duration, logger *zap.Logger) *LinkChecker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &LinkChecker{
		http:   &http.Client{Timeout: timeout},
		logger: logger.Named("reachability"),
	}
}

// Check reports whether the link answers with a non-error status within the
// timeout. Timeouts and transport errors count as unreachable, never as hangs.
func (c *LinkChecker) Check(ctx context.Context, link string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", "Linkdrop/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("link probe failed", zap.String("link", link), zap.Error(err))
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode < 400
}

package integrations

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"linkdrop/internal/config"
	"linkdrop/internal/dispense"
)

// WebhookDeliverer posts claimed links to the configured delivery endpoint,
// typically a chat-bot gateway that DMs the identity. With no URL configured
// it degrades to a logged no-op so the service still works standalone.
type WebhookDeliverer struct {
	cfg    *config.Config
	http   *http.Client
	logger *zap.Logger
}

// NewWebhookDeliverer constructs a deliverer with the collaborator timeout.
func NewWebhookDeliverer(cfg *config.Config, logger *zap.Logger) *WebhookDeliverer {
	timeout := cfg.CollaboratorTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookDeliverer{
		cfg:    cfg,
		http:   &http.Client{Timeout: timeout},
		logger: logger.Named("delivery"),
	}
}

type deliveryPayload struct {
	ReceiptID  string `json:"receipt_id"`
	IdentityID string `json:"identity_id"`
	Link       string `json:"link"`
	Remaining  string `json:"remaining"`
	SentAt     string `json:"sent_at"`
}

// Deliver implements the dispense.Deliverer interface.
func (d *WebhookDeliverer) Deliver(ctx context.Context, del dispense.Delivery) error {
	if d.cfg.Delivery.URL == "" {
		d.logger.Info("delivery endpoint not configured, skipping handoff",
			zap.String("receipt_id", del.ReceiptID),
			zap.String("identity", del.Identity),
		)
		return nil
	}

	body, err := json.Marshal(deliveryPayload{
		ReceiptID:  del.ReceiptID,
		IdentityID: del.Identity,
		Link:       del.Link,
		Remaining:  del.Remaining.String(),
		SentAt:     time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("integrations: encode delivery payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.cfg.Delivery.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("integrations: build delivery request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Linkdrop/1.0")

	if d.cfg.Delivery.Secret != "" {
		req.Header.Set(d.cfg.Delivery.SignatureHeader, computeSignature(body, d.cfg.Delivery.Secret))
	}

	resp, err := d.http.Do(req)
	if err != nil {
		return fmt.Errorf("integrations: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("integrations: deliver: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func computeSignature(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

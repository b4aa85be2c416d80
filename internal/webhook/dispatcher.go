// Package webhook delivers signed event payloads to tenant-configured
// subscriber URLs. Delivery is at-most-once: failures are logged, never
// retried, and never propagate to the pipeline stage that emitted the event.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/zspirit/aihm-back/internal/config"
	"github.com/zspirit/aihm-back/internal/domain"
	"github.com/zspirit/aihm-back/internal/platform/logger"
	"github.com/zspirit/aihm-back/internal/store"
)

// Signature and event headers attached to every delivery.
const (
	HeaderSignature = "X-Signature"
	HeaderEvent     = "X-Event"
)

// Dispatcher fans an event out to the tenant's active subscriptions.
type Dispatcher interface {
	// Dispatch delivers the event to every active subscription of the
	// tenant that selected it. Returns the number of successful
	// deliveries; delivery failures are logged, not returned.
	Dispatch(ctx context.Context, tenantID uuid.UUID, event domain.WebhookEvent, data any) int
}

// envelope is the JSON body posted to subscribers.
type envelope struct {
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// HTTPDispatcher implements Dispatcher over plain HTTP POSTs.
type HTTPDispatcher struct {
	subscriptions store.WebhookSubscriptionStore
	httpClient    *http.Client
	logger        *slog.Logger
}

var _ Dispatcher = (*HTTPDispatcher)(nil)

// NewHTTPDispatcher creates a dispatcher with the configured per-delivery
// timeout.
func NewHTTPDispatcher(subscriptions store.WebhookSubscriptionStore, cfg config.WebhookConfig, log *slog.Logger) *HTTPDispatcher {
	if subscriptions == nil {
		panic("subscription store cannot be nil")
	}
	if log == nil {
		panic("logger cannot be nil")
	}

	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &HTTPDispatcher{
		subscriptions: subscriptions,
		httpClient:    &http.Client{Timeout: timeout},
		logger:        log.With(slog.String("component", "webhook_dispatcher")),
	}
}

// Dispatch implements Dispatcher.Dispatch.
func (d *HTTPDispatcher) Dispatch(ctx context.Context, tenantID uuid.UUID, event domain.WebhookEvent, data any) int {
	log := logger.FromContextOrDefault(ctx, d.logger)

	subs, err := d.subscriptions.ListActive(ctx)
	if err != nil {
		log.Error("failed to load webhook subscriptions",
			slog.String("event", string(event)),
			slog.String("error", err.Error()))
		return 0
	}

	var targets []*domain.WebhookSubscription
	for _, sub := range subs {
		if sub.TenantID == tenantID && sub.Wants(event) {
			targets = append(targets, sub)
		}
	}
	if len(targets) == 0 {
		return 0
	}

	body, err := json.Marshal(envelope{
		Event:     string(event),
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
	if err != nil {
		log.Error("failed to encode webhook payload",
			slog.String("event", string(event)),
			slog.String("error", err.Error()))
		return 0
	}

	delivered := 0
	for _, sub := range targets {
		if err := d.deliver(ctx, sub, event, body); err != nil {
			log.Warn("webhook delivery failed",
				slog.String("event", string(event)),
				slog.String("url", sub.URL),
				slog.String("error", err.Error()))
			continue
		}
		delivered++
	}

	log.Info("webhook dispatch finished",
		slog.String("event", string(event)),
		slog.Int("subscriptions", len(targets)),
		slog.Int("delivered", delivered))
	return delivered
}

func (d *HTTPDispatcher) deliver(ctx context.Context, sub *domain.WebhookSubscription, event domain.WebhookEvent, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sub.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating delivery request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderSignature, Sign(body, sub.Secret))
	req.Header.Set(HeaderEvent, string(event))

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("subscriber responded with status %d", resp.StatusCode)
	}
	return nil
}

// Sign computes the hex HMAC-SHA256 signature of the payload under the
// subscription secret. Subscribers recompute it to authenticate deliveries.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether signature matches the payload under the
// secret, in constant time.
func VerifySignature(payload []byte, secret, signature string) bool {
	return hmac.Equal([]byte(Sign(payload, secret)), []byte(signature))
}

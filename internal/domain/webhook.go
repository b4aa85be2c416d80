package domain

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
)

// WebhookEvent names a domain event tenants may subscribe to.
type WebhookEvent string

// Domain events published to webhook subscribers.
const (
	EventConsentGiven       WebhookEvent = "consent.given"
	EventInterviewCompleted WebhookEvent = "interview.completed"
	EventReportReady        WebhookEvent = "report.ready"
	EventCVScored           WebhookEvent = "cv.scored"
)

// WebhookEvents lists every event name a subscription may select.
var WebhookEvents = []WebhookEvent{
	EventConsentGiven,
	EventInterviewCompleted,
	EventReportReady,
	EventCVScored,
}

// Common validation errors for WebhookSubscription.
var (
	ErrEmptySubscriptionTenant = errors.New("subscription tenant ID cannot be empty")
	ErrEmptySubscriptionURL    = errors.New("subscription URL cannot be empty")
	ErrUnknownWebhookEvent     = errors.New("unknown webhook event")
)

// WebhookSubscription is a tenant-configured delivery target: a URL, a
// shared signing secret and the set of events it wants.
type WebhookSubscription struct {
	ID        uuid.UUID      `json:"id"`
	TenantID  uuid.UUID      `json:"tenant_id"`
	URL       string         `json:"url"`
	Secret    string         `json:"secret"`
	Events    []WebhookEvent `json:"events"`
	IsActive  bool           `json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewWebhookSubscription creates an active subscription with a fresh
// signing secret. Returns ErrUnknownWebhookEvent for unrecognized events.
func NewWebhookSubscription(tenantID uuid.UUID, url string, events []WebhookEvent) (*WebhookSubscription, error) {
	if tenantID == uuid.Nil {
		return nil, ErrEmptySubscriptionTenant
	}
	if url == "" {
		return nil, ErrEmptySubscriptionURL
	}
	for _, ev := range events {
		if !isKnownWebhookEvent(ev) {
			return nil, ErrUnknownWebhookEvent
		}
	}
	return &WebhookSubscription{
		ID:        uuid.New(),
		TenantID:  tenantID,
		URL:       url,
		Secret:    newWebhookSecret(),
		Events:    events,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Wants reports whether this subscription selected the given event.
func (s *WebhookSubscription) Wants(event WebhookEvent) bool {
	for _, ev := range s.Events {
		if ev == event {
			return true
		}
	}
	return false
}

func isKnownWebhookEvent(event WebhookEvent) bool {
	for _, ev := range WebhookEvents {
		if ev == event {
			return true
		}
	}
	return false
}

func newWebhookSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic("webhook secret generation: " + err.Error())
	}
	return hex.EncodeToString(b)
}

package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/zspirit/aihm-back/internal/domain"
)

// WebhookSubscriptionStore defines the interface for webhook subscription
// persistence.
type WebhookSubscriptionStore interface {
	// Create saves a new subscription.
	Create(ctx context.Context, sub *domain.WebhookSubscription) error

	// GetByID retrieves a subscription by ID.
	// Returns ErrSubscriptionNotFound if no row matches.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.WebhookSubscription, error)

	// List retrieves all subscriptions, active or not.
	List(ctx context.Context) ([]*domain.WebhookSubscription, error)

	// ListActive retrieves the subscriptions eligible for delivery.
	ListActive(ctx context.Context) ([]*domain.WebhookSubscription, error)

	// Update saves changes to an existing subscription.
	Update(ctx context.Context, sub *domain.WebhookSubscription) error

	// Delete removes a subscription.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a WebhookSubscriptionStore bound to the provided transaction.
	WithTx(tx *sql.Tx) WebhookSubscriptionStore
}

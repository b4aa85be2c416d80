package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/zspirit/aihm-back/internal/domain"
)

// NotificationStore defines the interface for in-app notification persistence.
type NotificationStore interface {
	// Create saves a new notification.
	Create(ctx context.Context, n *domain.Notification) error

	// ListForUser retrieves notifications addressed to the user or broadcast
	// to all recruiters, newest first, capped at limit.
	ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Notification, error)

	// MarkRead flags a notification as read.
	MarkRead(ctx context.Context, id uuid.UUID) error

	// WithTx returns a NotificationStore bound to the provided transaction.
	WithTx(tx *sql.Tx) NotificationStore
}

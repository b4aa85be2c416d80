package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/zspirit/aihm-back/internal/domain"
	"github.com/zspirit/aihm-back/internal/platform/logger"
	"github.com/zspirit/aihm-back/internal/store"
)

// PostgresWebhookStore implements the store.WebhookSubscriptionStore
// interface using a PostgreSQL database as the storage backend.
type PostgresWebhookStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresWebhookStore creates a new PostgreSQL implementation of the
// WebhookSubscriptionStore interface. If logger is nil, a default logger
// will be used.
func NewPostgresWebhookStore(db store.DBTX, logger *slog.Logger) *PostgresWebhookStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresWebhookStore{
		db:     db,
		logger: logger.With(slog.String("component", "webhook_store")),
	}
}

// Ensure PostgresWebhookStore implements store.WebhookSubscriptionStore interface
var _ store.WebhookSubscriptionStore = (*PostgresWebhookStore)(nil)

// WithTx implements store.WebhookSubscriptionStore.WithTx
func (s *PostgresWebhookStore) WithTx(tx *sql.Tx) store.WebhookSubscriptionStore {
	return &PostgresWebhookStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.WebhookSubscriptionStore.Create
func (s *PostgresWebhookStore) Create(ctx context.Context, sub *domain.WebhookSubscription) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	eventsJSON, err := json.Marshal(sub.Events)
	if err != nil {
		return fmt.Errorf("failed to marshal subscription events: %w", err)
	}

	query := `
		INSERT INTO webhook_subscriptions (id, tenant_id, url, secret,
			events, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		sub.ID,
		sub.TenantID,
		sub.URL,
		sub.Secret,
		eventsJSON,
		sub.IsActive,
		sub.CreatedAt,
	)

	if err != nil {
		log.Error("failed to create webhook subscription",
			slog.String("error", err.Error()),
			slog.String("subscription_id", sub.ID.String()))
		return MapError(err)
	}

	log.Info("webhook subscription created successfully",
		slog.String("subscription_id", sub.ID.String()),
		slog.String("url", sub.URL))
	return nil
}

// GetByID implements store.WebhookSubscriptionStore.GetByID
// Returns store.ErrSubscriptionNotFound if no row matches.
func (s *PostgresWebhookStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.WebhookSubscription, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, tenant_id, url, secret, events, is_active, created_at
		FROM webhook_subscriptions
		WHERE id = $1
	`

	sub, err := scanSubscription(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("webhook subscription not found",
				slog.String("subscription_id", id.String()))
			return nil, store.ErrSubscriptionNotFound
		}
		log.Error("failed to get webhook subscription",
			slog.String("error", err.Error()),
			slog.String("subscription_id", id.String()))
		return nil, MapError(err)
	}

	return sub, nil
}

// List implements store.WebhookSubscriptionStore.List
func (s *PostgresWebhookStore) List(ctx context.Context) ([]*domain.WebhookSubscription, error) {
	return s.list(ctx, false)
}

// ListActive implements store.WebhookSubscriptionStore.ListActive
func (s *PostgresWebhookStore) ListActive(ctx context.Context) ([]*domain.WebhookSubscription, error) {
	return s.list(ctx, true)
}

func (s *PostgresWebhookStore) list(ctx context.Context, activeOnly bool) ([]*domain.WebhookSubscription, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, tenant_id, url, secret, events, is_active, created_at
		FROM webhook_subscriptions
	`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		log.Error("failed to query webhook subscriptions",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var subs []*domain.WebhookSubscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			log.Error("failed to scan subscription row",
				slog.String("error", err.Error()))
			return nil, err
		}
		subs = append(subs, sub)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, err
	}

	if subs == nil {
		subs = []*domain.WebhookSubscription{}
	}
	return subs, nil
}

// Update implements store.WebhookSubscriptionStore.Update
// Returns store.ErrSubscriptionNotFound if the subscription does not exist.
func (s *PostgresWebhookStore) Update(ctx context.Context, sub *domain.WebhookSubscription) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	eventsJSON, err := json.Marshal(sub.Events)
	if err != nil {
		return fmt.Errorf("failed to marshal subscription events: %w", err)
	}

	query := `
		UPDATE webhook_subscriptions
		SET url = $1, events = $2, is_active = $3
		WHERE id = $4
	`

	result, err := s.db.ExecContext(ctx, query, sub.URL, eventsJSON, sub.IsActive, sub.ID)
	if err != nil {
		log.Error("failed to update webhook subscription",
			slog.String("error", err.Error()),
			slog.String("subscription_id", sub.ID.String()))
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return store.ErrSubscriptionNotFound
	}

	log.Info("webhook subscription updated successfully",
		slog.String("subscription_id", sub.ID.String()),
		slog.Bool("is_active", sub.IsActive))
	return nil
}

// Delete implements store.WebhookSubscriptionStore.Delete
// Returns store.ErrSubscriptionNotFound if the subscription does not exist.
func (s *PostgresWebhookStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `DELETE FROM webhook_subscriptions WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		log.Error("failed to delete webhook subscription",
			slog.String("error", err.Error()),
			slog.String("subscription_id", id.String()))
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return store.ErrSubscriptionNotFound
	}

	log.Info("webhook subscription deleted",
		slog.String("subscription_id", id.String()))
	return nil
}

func scanSubscription(row rowScanner) (*domain.WebhookSubscription, error) {
	var sub domain.WebhookSubscription
	var eventsJSON []byte

	err := row.Scan(
		&sub.ID,
		&sub.TenantID,
		&sub.URL,
		&sub.Secret,
		&eventsJSON,
		&sub.IsActive,
		&sub.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(eventsJSON) > 0 {
		if err := json.Unmarshal(eventsJSON, &sub.Events); err != nil {
			return nil, fmt.Errorf("failed to unmarshal subscription events: %w", err)
		}
	}
	return &sub, nil
}

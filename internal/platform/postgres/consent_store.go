package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/zspirit/aihm-back/internal/domain"
	"github.com/zspirit/aihm-back/internal/platform/logger"
	"github.com/zspirit/aihm-back/internal/store"
)

// PostgresConsentStore implements the store.ConsentStore interface
// using a PostgreSQL database as the storage backend.
type PostgresConsentStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresConsentStore creates a new PostgreSQL implementation of the
// ConsentStore interface. If logger is nil, a default logger will be used.
func NewPostgresConsentStore(db store.DBTX, logger *slog.Logger) *PostgresConsentStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresConsentStore{
		db:     db,
		logger: logger.With(slog.String("component", "consent_store")),
	}
}

// Ensure PostgresConsentStore implements store.ConsentStore interface
var _ store.ConsentStore = (*PostgresConsentStore)(nil)

// WithTx implements store.ConsentStore.WithTx
func (s *PostgresConsentStore) WithTx(tx *sql.Tx) store.ConsentStore {
	return &PostgresConsentStore{
		db:     tx,
		logger: s.logger,
	}
}

const consentColumns = `id, candidate_id, token, type, granted,
	granted_at, channel, ip_address, created_at`

// Create implements store.ConsentStore.Create
func (s *PostgresConsentStore) Create(ctx context.Context, consent *domain.Consent) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO consents (id, candidate_id, token, type, granted,
			granted_at, channel, ip_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		consent.ID,
		consent.CandidateID,
		consent.Token,
		consent.Type,
		consent.Granted,
		consent.GrantedAt,
		consent.Channel,
		consent.IPAddress,
		consent.CreatedAt,
	)

	if err != nil {
		log.Error("failed to create consent",
			slog.String("error", err.Error()),
			slog.String("consent_id", consent.ID.String()),
			slog.String("candidate_id", consent.CandidateID.String()))
		return MapError(err)
	}

	log.Info("consent created successfully",
		slog.String("consent_id", consent.ID.String()),
		slog.String("candidate_id", consent.CandidateID.String()),
		slog.String("type", string(consent.Type)))
	return nil
}

// GetByToken implements store.ConsentStore.GetByToken
// Returns store.ErrConsentNotFound if the token is unknown.
func (s *PostgresConsentStore) GetByToken(ctx context.Context, token string) (*domain.Consent, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + consentColumns + ` FROM consents WHERE token = $1`

	consent, err := s.scanOne(s.db.QueryRowContext(ctx, query, token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Token value stays out of the logs.
			log.Debug("consent token not found")
			return nil, store.ErrConsentNotFound
		}
		log.Error("failed to get consent by token",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	return consent, nil
}

// FindByCandidate implements store.ConsentStore.FindByCandidate
func (s *PostgresConsentStore) FindByCandidate(ctx context.Context, candidateID uuid.UUID) ([]*domain.Consent, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + consentColumns + `
		FROM consents
		WHERE candidate_id = $1
		ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, candidateID)
	if err != nil {
		log.Error("failed to query consents by candidate",
			slog.String("error", err.Error()),
			slog.String("candidate_id", candidateID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var consents []*domain.Consent
	for rows.Next() {
		consent, err := s.scanOne(rows)
		if err != nil {
			log.Error("failed to scan consent row",
				slog.String("error", err.Error()))
			return nil, err
		}
		consents = append(consents, consent)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, err
	}

	if consents == nil {
		consents = []*domain.Consent{}
	}
	return consents, nil
}

// HasGranted implements store.ConsentStore.HasGranted
func (s *PostgresConsentStore) HasGranted(
	ctx context.Context,
	candidateID uuid.UUID,
	consentType domain.ConsentType,
) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT EXISTS (
			SELECT 1 FROM consents
			WHERE candidate_id = $1 AND type = $2 AND granted = TRUE
		)
	`

	var granted bool
	if err := s.db.QueryRowContext(ctx, query, candidateID, consentType).Scan(&granted); err != nil {
		log.Error("failed to check consent grant",
			slog.String("error", err.Error()),
			slog.String("candidate_id", candidateID.String()),
			slog.String("type", string(consentType)))
		return false, MapError(err)
	}

	return granted, nil
}

// Update implements store.ConsentStore.Update
// Returns store.ErrConsentNotFound if the consent does not exist.
func (s *PostgresConsentStore) Update(ctx context.Context, consent *domain.Consent) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE consents
		SET granted = $1, granted_at = $2, channel = $3, ip_address = $4
		WHERE id = $5
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		consent.Granted,
		consent.GrantedAt,
		consent.Channel,
		consent.IPAddress,
		consent.ID,
	)

	if err != nil {
		log.Error("failed to update consent",
			slog.String("error", err.Error()),
			slog.String("consent_id", consent.ID.String()))
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		log.Debug("consent not found for update",
			slog.String("consent_id", consent.ID.String()))
		return store.ErrConsentNotFound
	}

	log.Info("consent updated successfully",
		slog.String("consent_id", consent.ID.String()),
		slog.String("candidate_id", consent.CandidateID.String()),
		slog.Bool("granted", consent.Granted))
	return nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scan logic.
type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PostgresConsentStore) scanOne(row rowScanner) (*domain.Consent, error) {
	var consent domain.Consent
	var consentType string

	err := row.Scan(
		&consent.ID,
		&consent.CandidateID,
		&consent.Token,
		&consentType,
		&consent.Granted,
		&consent.GrantedAt,
		&consent.Channel,
		&consent.IPAddress,
		&consent.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	consent.Type = domain.ConsentType(consentType)
	return &consent, nil
}

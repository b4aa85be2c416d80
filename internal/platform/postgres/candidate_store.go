package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/zspirit/aihm-back/internal/domain"
	"github.com/zspirit/aihm-back/internal/platform/logger"
	"github.com/zspirit/aihm-back/internal/store"
)

// PostgresCandidateStore implements the store.CandidateStore interface
// using a PostgreSQL database as the storage backend.
type PostgresCandidateStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCandidateStore creates a new PostgreSQL implementation of the
// CandidateStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresCandidateStore(db store.DBTX, logger *slog.Logger) *PostgresCandidateStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCandidateStore{
		db:     db,
		logger: logger.With(slog.String("component", "candidate_store")),
	}
}

// Ensure PostgresCandidateStore implements store.CandidateStore interface
var _ store.CandidateStore = (*PostgresCandidateStore)(nil)

// WithTx implements store.CandidateStore.WithTx
func (s *PostgresCandidateStore) WithTx(tx *sql.Tx) store.CandidateStore {
	return &PostgresCandidateStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.CandidateStore.Create
// It saves a new candidate to the database, handling domain validation.
// Returns store.ErrDuplicateEmail if a candidate with the same email
// already exists for the position.
func (s *PostgresCandidateStore) Create(ctx context.Context, candidate *domain.Candidate) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := candidate.Validate(); err != nil {
		log.Warn("candidate validation failed during create",
			slog.String("error", err.Error()),
			slog.String("candidate_id", candidate.ID.String()))
		return err
	}

	profileJSON, explanationJSON, err := marshalCandidateDocs(candidate)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO candidates (id, tenant_id, position_id, name, email, phone,
			cv_file_path, cv_profile, cv_score, cv_score_explanation,
			pipeline_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		candidate.ID,
		candidate.TenantID,
		candidate.PositionID,
		candidate.Name,
		candidate.Email,
		candidate.Phone,
		candidate.CVFilePath,
		profileJSON,
		candidate.CVScore,
		explanationJSON,
		candidate.PipelineStatus,
		candidate.CreatedAt,
		candidate.UpdatedAt,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("duplicate email during candidate creation",
				slog.String("candidate_id", candidate.ID.String()),
				slog.String("position_id", candidate.PositionID.String()))
			return MapUniqueViolation(err, store.ErrDuplicateEmail)
		}

		log.Error("failed to create candidate",
			slog.String("error", err.Error()),
			slog.String("candidate_id", candidate.ID.String()))
		return MapError(err)
	}

	log.Info("candidate created successfully",
		slog.String("candidate_id", candidate.ID.String()),
		slog.String("position_id", candidate.PositionID.String()),
		slog.String("status", string(candidate.PipelineStatus)))
	return nil
}

// GetByID implements store.CandidateStore.GetByID
// Returns store.ErrCandidateNotFound if the candidate does not exist.
func (s *PostgresCandidateStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Candidate, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, tenant_id, position_id, name, email, phone,
			cv_file_path, cv_profile, cv_score, cv_score_explanation,
			pipeline_status, created_at, updated_at
		FROM candidates
		WHERE id = $1
	`

	var candidate domain.Candidate
	var status string
	var profileJSON, explanationJSON []byte
	var cvScore sql.NullFloat64

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&candidate.ID,
		&candidate.TenantID,
		&candidate.PositionID,
		&candidate.Name,
		&candidate.Email,
		&candidate.Phone,
		&candidate.CVFilePath,
		&profileJSON,
		&cvScore,
		&explanationJSON,
		&status,
		&candidate.CreatedAt,
		&candidate.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("candidate not found", slog.String("candidate_id", id.String()))
			return nil, store.ErrCandidateNotFound
		}
		log.Error("failed to get candidate by ID",
			slog.String("error", err.Error()),
			slog.String("candidate_id", id.String()))
		return nil, MapError(err)
	}

	candidate.PipelineStatus = domain.PipelineStatus(status)
	if cvScore.Valid {
		candidate.CVScore = &cvScore.Float64
	}
	if err := unmarshalCandidateDocs(&candidate, profileJSON, explanationJSON); err != nil {
		return nil, err
	}

	return &candidate, nil
}

// Update implements store.CandidateStore.Update
// It saves the candidate's profile, score and pipeline status.
// Returns store.ErrCandidateNotFound if the candidate does not exist.
func (s *PostgresCandidateStore) Update(ctx context.Context, candidate *domain.Candidate) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := candidate.Validate(); err != nil {
		log.Warn("candidate validation failed during update",
			slog.String("error", err.Error()),
			slog.String("candidate_id", candidate.ID.String()))
		return err
	}

	profileJSON, explanationJSON, err := marshalCandidateDocs(candidate)
	if err != nil {
		return err
	}

	candidate.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE candidates
		SET name = $1, email = $2, phone = $3, cv_file_path = $4,
			cv_profile = $5, cv_score = $6, cv_score_explanation = $7,
			pipeline_status = $8, updated_at = $9
		WHERE id = $10
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		candidate.Name,
		candidate.Email,
		candidate.Phone,
		candidate.CVFilePath,
		profileJSON,
		candidate.CVScore,
		explanationJSON,
		candidate.PipelineStatus,
		candidate.UpdatedAt,
		candidate.ID,
	)

	if err != nil {
		log.Error("failed to update candidate",
			slog.String("error", err.Error()),
			slog.String("candidate_id", candidate.ID.String()))
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("candidate_id", candidate.ID.String()))
		return err
	}

	if rowsAffected == 0 {
		log.Debug("candidate not found for update",
			slog.String("candidate_id", candidate.ID.String()))
		return store.ErrCandidateNotFound
	}

	log.Info("candidate updated successfully",
		slog.String("candidate_id", candidate.ID.String()),
		slog.String("status", string(candidate.PipelineStatus)))
	return nil
}

// UpdatePipelineStatus implements store.CandidateStore.UpdatePipelineStatus
// Returns store.ErrCandidateNotFound if the candidate does not exist.
func (s *PostgresCandidateStore) UpdatePipelineStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.PipelineStatus,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("updating candidate pipeline status",
		slog.String("candidate_id", id.String()),
		slog.String("status", string(status)))

	query := `
		UPDATE candidates
		SET pipeline_status = $1, updated_at = $2
		WHERE id = $3
	`

	result, err := s.db.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to update candidate pipeline status",
			slog.String("error", err.Error()),
			slog.String("candidate_id", id.String()),
			slog.String("status", string(status)))
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		log.Debug("candidate not found for status update",
			slog.String("candidate_id", id.String()))
		return store.ErrCandidateNotFound
	}

	log.Info("candidate pipeline status updated",
		slog.String("candidate_id", id.String()),
		slog.String("status", string(status)))
	return nil
}

// ExistsByEmail implements store.CandidateStore.ExistsByEmail
// The comparison is case-insensitive, matching the unique index used for
// bulk import deduplication.
func (s *PostgresCandidateStore) ExistsByEmail(
	ctx context.Context,
	positionID uuid.UUID,
	email string,
) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT EXISTS (
			SELECT 1 FROM candidates
			WHERE position_id = $1 AND lower(email) = lower($2)
		)
	`

	var exists bool
	if err := s.db.QueryRowContext(ctx, query, positionID, email).Scan(&exists); err != nil {
		log.Error("failed to check candidate email existence",
			slog.String("error", err.Error()),
			slog.String("position_id", positionID.String()))
		return false, MapError(err)
	}

	return exists, nil
}

// marshalCandidateDocs serializes the candidate's JSONB document columns.
// Nil documents map to SQL NULL rather than the JSON literal "null".
func marshalCandidateDocs(candidate *domain.Candidate) ([]byte, []byte, error) {
	var profileJSON, explanationJSON []byte
	var err error

	if candidate.CVProfile != nil {
		profileJSON, err = json.Marshal(candidate.CVProfile)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal cv profile: %w", err)
		}
	}
	if candidate.CVScoreExplanation != nil {
		explanationJSON, err = json.Marshal(candidate.CVScoreExplanation)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal score explanation: %w", err)
		}
	}
	return profileJSON, explanationJSON, nil
}

// unmarshalCandidateDocs restores the candidate's JSONB document columns.
func unmarshalCandidateDocs(candidate *domain.Candidate, profileJSON, explanationJSON []byte) error {
	if len(profileJSON) > 0 {
		var profile domain.CVProfile
		if err := json.Unmarshal(profileJSON, &profile); err != nil {
			return fmt.Errorf("failed to unmarshal cv profile: %w", err)
		}
		candidate.CVProfile = &profile
	}
	if len(explanationJSON) > 0 {
		var explanation domain.ScoreBreakdown
		if err := json.Unmarshal(explanationJSON, &explanation); err != nil {
			return fmt.Errorf("failed to unmarshal score explanation: %w", err)
		}
		candidate.CVScoreExplanation = &explanation
	}
	return nil
}

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

// PostgresPositionStore implements the store.PositionStore interface
// using a PostgreSQL database as the storage backend. Pipeline stages only
// ever read positions, so the store is lookup-only.
type PostgresPositionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresPositionStore creates a new PostgreSQL implementation of the
// PositionStore interface. If logger is nil, a default logger will be used.
func NewPostgresPositionStore(db store.DBTX, logger *slog.Logger) *PostgresPositionStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresPositionStore{
		db:     db,
		logger: logger.With(slog.String("component", "position_store")),
	}
}

// Ensure PostgresPositionStore implements store.PositionStore interface
var _ store.PositionStore = (*PostgresPositionStore)(nil)

// GetByID implements store.PositionStore.GetByID
// Returns store.ErrPositionNotFound if the position does not exist.
func (s *PostgresPositionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Position, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, tenant_id, title, description, required_skills,
			seniority_level, custom_questions,
			auto_reject_threshold, auto_advance_threshold, created_at
		FROM positions
		WHERE id = $1
	`

	var position domain.Position
	var skillsJSON, questionsJSON []byte
	var rejectThreshold, advanceThreshold sql.NullFloat64

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&position.ID,
		&position.TenantID,
		&position.Title,
		&position.Description,
		&skillsJSON,
		&position.SeniorityLevel,
		&questionsJSON,
		&rejectThreshold,
		&advanceThreshold,
		&position.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("position not found", slog.String("position_id", id.String()))
			return nil, store.ErrPositionNotFound
		}
		log.Error("failed to get position by ID",
			slog.String("error", err.Error()),
			slog.String("position_id", id.String()))
		return nil, MapError(err)
	}

	if len(skillsJSON) > 0 {
		if err := json.Unmarshal(skillsJSON, &position.RequiredSkills); err != nil {
			return nil, fmt.Errorf("failed to unmarshal required skills: %w", err)
		}
	}
	if len(questionsJSON) > 0 {
		if err := json.Unmarshal(questionsJSON, &position.CustomQuestions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal custom questions: %w", err)
		}
	}
	if rejectThreshold.Valid {
		position.AutoRejectThreshold = &rejectThreshold.Float64
	}
	if advanceThreshold.Valid {
		position.AutoAdvanceThreshold = &advanceThreshold.Float64
	}

	return &position, nil
}

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

// PostgresInterviewStore implements the store.InterviewStore interface
// using a PostgreSQL database as the storage backend.
type PostgresInterviewStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresInterviewStore creates a new PostgreSQL implementation of the
// InterviewStore interface. If logger is nil, a default logger will be used.
func NewPostgresInterviewStore(db store.DBTX, logger *slog.Logger) *PostgresInterviewStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresInterviewStore{
		db:     db,
		logger: logger.With(slog.String("component", "interview_store")),
	}
}

// Ensure PostgresInterviewStore implements store.InterviewStore interface
var _ store.InterviewStore = (*PostgresInterviewStore)(nil)

// WithTx implements store.InterviewStore.WithTx
func (s *PostgresInterviewStore) WithTx(tx *sql.Tx) store.InterviewStore {
	return &PostgresInterviewStore{
		db:     tx,
		logger: s.logger,
	}
}

const interviewColumns = `id, candidate_id, position_id, tenant_id, status,
	scheduled_at, started_at, ended_at, duration_seconds,
	audio_file_path, call_provider_id, questions, attempt_number, created_at`

// Create implements store.InterviewStore.Create
// It saves a new interview row, handling domain validation.
func (s *PostgresInterviewStore) Create(ctx context.Context, interview *domain.Interview) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := interview.Validate(); err != nil {
		log.Warn("interview validation failed during create",
			slog.String("error", err.Error()),
			slog.String("interview_id", interview.ID.String()))
		return err
	}

	questionsJSON, err := marshalQuestions(interview.Questions)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO interviews (id, candidate_id, position_id, tenant_id, status,
			scheduled_at, started_at, ended_at, duration_seconds,
			audio_file_path, call_provider_id, questions, attempt_number, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		interview.ID,
		interview.CandidateID,
		interview.PositionID,
		interview.TenantID,
		interview.Status,
		interview.ScheduledAt,
		interview.StartedAt,
		interview.EndedAt,
		interview.DurationSeconds,
		interview.AudioFilePath,
		interview.CallProviderID,
		questionsJSON,
		interview.AttemptNumber,
		interview.CreatedAt,
	)

	if err != nil {
		log.Error("failed to create interview",
			slog.String("error", err.Error()),
			slog.String("interview_id", interview.ID.String()),
			slog.String("candidate_id", interview.CandidateID.String()))
		return MapError(err)
	}

	log.Info("interview created successfully",
		slog.String("interview_id", interview.ID.String()),
		slog.String("candidate_id", interview.CandidateID.String()),
		slog.Int("attempt_number", interview.AttemptNumber))
	return nil
}

// GetByID implements store.InterviewStore.GetByID
// Returns store.ErrInterviewNotFound if the interview does not exist.
func (s *PostgresInterviewStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Interview, error) {
	query := `SELECT ` + interviewColumns + ` FROM interviews WHERE id = $1`
	return s.getOne(ctx, query, id)
}

// GetByProviderCallID implements store.InterviewStore.GetByProviderCallID
// Returns store.ErrInterviewNotFound when no interview holds the call ID;
// telephony callback handlers treat that as a no-op.
func (s *PostgresInterviewStore) GetByProviderCallID(ctx context.Context, callID string) (*domain.Interview, error) {
	query := `SELECT ` + interviewColumns + ` FROM interviews WHERE call_provider_id = $1`
	return s.getOne(ctx, query, callID)
}

// LatestByCandidate implements store.InterviewStore.LatestByCandidate
func (s *PostgresInterviewStore) LatestByCandidate(ctx context.Context, candidateID uuid.UUID) (*domain.Interview, error) {
	query := `SELECT ` + interviewColumns + `
		FROM interviews
		WHERE candidate_id = $1
		ORDER BY created_at DESC
		LIMIT 1`
	return s.getOne(ctx, query, candidateID)
}

// ListStaleInProgress implements store.InterviewStore.ListStaleInProgress
func (s *PostgresInterviewStore) ListStaleInProgress(ctx context.Context, cutoff time.Time) ([]*domain.Interview, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + interviewColumns + `
		FROM interviews
		WHERE status = $1 AND started_at IS NOT NULL AND started_at < $2
		ORDER BY started_at ASC`

	rows, err := s.db.QueryContext(ctx, query, domain.InterviewStatusInProgress, cutoff)
	if err != nil {
		log.Error("failed to list stale interviews",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var interviews []*domain.Interview
	for rows.Next() {
		var interview domain.Interview
		var status string
		var questionsJSON []byte
		var duration sql.NullInt64

		if err := rows.Scan(
			&interview.ID,
			&interview.CandidateID,
			&interview.PositionID,
			&interview.TenantID,
			&status,
			&interview.ScheduledAt,
			&interview.StartedAt,
			&interview.EndedAt,
			&duration,
			&interview.AudioFilePath,
			&interview.CallProviderID,
			&questionsJSON,
			&interview.AttemptNumber,
			&interview.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan interview row: %w", err)
		}

		interview.Status = domain.InterviewStatus(status)
		if duration.Valid {
			d := int(duration.Int64)
			interview.DurationSeconds = &d
		}
		if len(questionsJSON) > 0 {
			if err := json.Unmarshal(questionsJSON, &interview.Questions); err != nil {
				return nil, fmt.Errorf("failed to unmarshal interview questions: %w", err)
			}
		}
		interviews = append(interviews, &interview)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return interviews, nil
}

// getOne runs a single-row interview query and maps sql.ErrNoRows to the
// interview-specific sentinel.
func (s *PostgresInterviewStore) getOne(ctx context.Context, query string, arg any) (*domain.Interview, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var interview domain.Interview
	var status string
	var questionsJSON []byte
	var duration sql.NullInt64

	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&interview.ID,
		&interview.CandidateID,
		&interview.PositionID,
		&interview.TenantID,
		&status,
		&interview.ScheduledAt,
		&interview.StartedAt,
		&interview.EndedAt,
		&duration,
		&interview.AudioFilePath,
		&interview.CallProviderID,
		&questionsJSON,
		&interview.AttemptNumber,
		&interview.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrInterviewNotFound
		}
		log.Error("failed to get interview",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	interview.Status = domain.InterviewStatus(status)
	if duration.Valid {
		d := int(duration.Int64)
		interview.DurationSeconds = &d
	}
	if len(questionsJSON) > 0 {
		if err := json.Unmarshal(questionsJSON, &interview.Questions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal interview questions: %w", err)
		}
	}

	return &interview, nil
}

// Update implements store.InterviewStore.Update
// Returns store.ErrInterviewNotFound if the interview does not exist.
func (s *PostgresInterviewStore) Update(ctx context.Context, interview *domain.Interview) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := interview.Validate(); err != nil {
		log.Warn("interview validation failed during update",
			slog.String("error", err.Error()),
			slog.String("interview_id", interview.ID.String()))
		return err
	}

	questionsJSON, err := marshalQuestions(interview.Questions)
	if err != nil {
		return err
	}

	query := `
		UPDATE interviews
		SET status = $1, scheduled_at = $2, started_at = $3, ended_at = $4,
			duration_seconds = $5, audio_file_path = $6, call_provider_id = $7,
			questions = $8
		WHERE id = $9
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		interview.Status,
		interview.ScheduledAt,
		interview.StartedAt,
		interview.EndedAt,
		interview.DurationSeconds,
		interview.AudioFilePath,
		interview.CallProviderID,
		questionsJSON,
		interview.ID,
	)

	if err != nil {
		log.Error("failed to update interview",
			slog.String("error", err.Error()),
			slog.String("interview_id", interview.ID.String()))
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		log.Debug("interview not found for update",
			slog.String("interview_id", interview.ID.String()))
		return store.ErrInterviewNotFound
	}

	log.Info("interview updated successfully",
		slog.String("interview_id", interview.ID.String()),
		slog.String("status", string(interview.Status)))
	return nil
}

// CountByCandidate implements store.InterviewStore.CountByCandidate
func (s *PostgresInterviewStore) CountByCandidate(ctx context.Context, candidateID uuid.UUID) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT COUNT(*) FROM interviews WHERE candidate_id = $1`

	var count int
	if err := s.db.QueryRowContext(ctx, query, candidateID).Scan(&count); err != nil {
		log.Error("failed to count interviews",
			slog.String("error", err.Error()),
			slog.String("candidate_id", candidateID.String()))
		return 0, MapError(err)
	}

	return count, nil
}

func marshalQuestions(questions []domain.Question) ([]byte, error) {
	if len(questions) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(questions)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal interview questions: %w", err)
	}
	return data, nil
}

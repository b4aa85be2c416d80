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

// PostgresArtifactStore implements the store.ArtifactStore interface using
// a PostgreSQL database as the storage backend. Each artifact table carries
// a unique constraint on interview_id; the resulting
// store.ErrDuplicateArtifact is how re-executed pipeline stages detect
// that their work already landed.
type PostgresArtifactStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresArtifactStore creates a new PostgreSQL implementation of the
// ArtifactStore interface. If logger is nil, a default logger will be used.
func NewPostgresArtifactStore(db store.DBTX, logger *slog.Logger) *PostgresArtifactStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresArtifactStore{
		db:     db,
		logger: logger.With(slog.String("component", "artifact_store")),
	}
}

// Ensure PostgresArtifactStore implements store.ArtifactStore interface
var _ store.ArtifactStore = (*PostgresArtifactStore)(nil)

// WithTx implements store.ArtifactStore.WithTx
func (s *PostgresArtifactStore) WithTx(tx *sql.Tx) store.ArtifactStore {
	return &PostgresArtifactStore{
		db:     tx,
		logger: s.logger,
	}
}

// CreateTranscription implements store.ArtifactStore.CreateTranscription
// Returns store.ErrDuplicateArtifact if the interview already has one.
func (s *PostgresArtifactStore) CreateTranscription(ctx context.Context, t *domain.Transcription) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	segmentsJSON, err := marshalArtifactDoc(t.Segments, "transcript segments")
	if err != nil {
		return err
	}

	query := `
		INSERT INTO transcriptions (id, interview_id, full_text, segments,
			language_detected, confidence_score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		t.ID,
		t.InterviewID,
		t.FullText,
		segmentsJSON,
		t.LanguageDetected,
		t.ConfidenceScore,
		t.CreatedAt,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("transcription already exists for interview",
				slog.String("interview_id", t.InterviewID.String()))
			return MapUniqueViolation(err, store.ErrDuplicateArtifact)
		}
		log.Error("failed to create transcription",
			slog.String("error", err.Error()),
			slog.String("interview_id", t.InterviewID.String()))
		return MapError(err)
	}

	log.Info("transcription created successfully",
		slog.String("transcription_id", t.ID.String()),
		slog.String("interview_id", t.InterviewID.String()))
	return nil
}

// GetTranscription implements store.ArtifactStore.GetTranscription
func (s *PostgresArtifactStore) GetTranscription(ctx context.Context, interviewID uuid.UUID) (*domain.Transcription, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, interview_id, full_text, segments,
			language_detected, confidence_score, created_at
		FROM transcriptions
		WHERE interview_id = $1
	`

	var t domain.Transcription
	var segmentsJSON []byte

	err := s.db.QueryRowContext(ctx, query, interviewID).Scan(
		&t.ID,
		&t.InterviewID,
		&t.FullText,
		&segmentsJSON,
		&t.LanguageDetected,
		&t.ConfidenceScore,
		&t.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: transcription for interview %s", store.ErrNotFound, interviewID)
		}
		log.Error("failed to get transcription",
			slog.String("error", err.Error()),
			slog.String("interview_id", interviewID.String()))
		return nil, MapError(err)
	}

	if len(segmentsJSON) > 0 {
		if err := json.Unmarshal(segmentsJSON, &t.Segments); err != nil {
			return nil, fmt.Errorf("failed to unmarshal transcript segments: %w", err)
		}
	}

	return &t, nil
}

// CreateAnalysis implements store.ArtifactStore.CreateAnalysis
// Returns store.ErrDuplicateArtifact if the interview already has one.
func (s *PostgresArtifactStore) CreateAnalysis(ctx context.Context, a *domain.Analysis) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	resultJSON, err := marshalArtifactDoc(a.Result, "analysis result")
	if err != nil {
		return err
	}

	query := `
		INSERT INTO analyses (id, interview_id, result, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err = s.db.ExecContext(ctx, query, a.ID, a.InterviewID, resultJSON, a.CreatedAt)

	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("analysis already exists for interview",
				slog.String("interview_id", a.InterviewID.String()))
			return MapUniqueViolation(err, store.ErrDuplicateArtifact)
		}
		log.Error("failed to create analysis",
			slog.String("error", err.Error()),
			slog.String("interview_id", a.InterviewID.String()))
		return MapError(err)
	}

	log.Info("analysis created successfully",
		slog.String("analysis_id", a.ID.String()),
		slog.String("interview_id", a.InterviewID.String()))
	return nil
}

// GetAnalysis implements store.ArtifactStore.GetAnalysis
func (s *PostgresArtifactStore) GetAnalysis(ctx context.Context, interviewID uuid.UUID) (*domain.Analysis, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, interview_id, result, created_at
		FROM analyses
		WHERE interview_id = $1
	`

	var a domain.Analysis
	var resultJSON []byte

	err := s.db.QueryRowContext(ctx, query, interviewID).Scan(
		&a.ID,
		&a.InterviewID,
		&resultJSON,
		&a.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: analysis for interview %s", store.ErrNotFound, interviewID)
		}
		log.Error("failed to get analysis",
			slog.String("error", err.Error()),
			slog.String("interview_id", interviewID.String()))
		return nil, MapError(err)
	}

	if err := json.Unmarshal(resultJSON, &a.Result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal analysis result: %w", err)
	}

	return &a, nil
}

// CreateReport implements store.ArtifactStore.CreateReport
// Returns store.ErrDuplicateArtifact if the interview already has one.
func (s *PostgresArtifactStore) CreateReport(ctx context.Context, r *domain.Report) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	contentJSON, err := marshalArtifactDoc(r.Content, "report content")
	if err != nil {
		return err
	}

	query := `
		INSERT INTO reports (id, candidate_id, interview_id, content,
			pdf_file_path, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		r.ID,
		r.CandidateID,
		r.InterviewID,
		contentJSON,
		r.PDFFilePath,
		r.GeneratedAt,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("report already exists for interview",
				slog.String("interview_id", r.InterviewID.String()))
			return MapUniqueViolation(err, store.ErrDuplicateArtifact)
		}
		log.Error("failed to create report",
			slog.String("error", err.Error()),
			slog.String("interview_id", r.InterviewID.String()))
		return MapError(err)
	}

	log.Info("report created successfully",
		slog.String("report_id", r.ID.String()),
		slog.String("interview_id", r.InterviewID.String()),
		slog.String("candidate_id", r.CandidateID.String()))
	return nil
}

// GetReport implements store.ArtifactStore.GetReport
func (s *PostgresArtifactStore) GetReport(ctx context.Context, interviewID uuid.UUID) (*domain.Report, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, candidate_id, interview_id, content, pdf_file_path, generated_at
		FROM reports
		WHERE interview_id = $1
	`

	var r domain.Report
	var contentJSON []byte

	err := s.db.QueryRowContext(ctx, query, interviewID).Scan(
		&r.ID,
		&r.CandidateID,
		&r.InterviewID,
		&contentJSON,
		&r.PDFFilePath,
		&r.GeneratedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: report for interview %s", store.ErrNotFound, interviewID)
		}
		log.Error("failed to get report",
			slog.String("error", err.Error()),
			slog.String("interview_id", interviewID.String()))
		return nil, MapError(err)
	}

	if err := json.Unmarshal(contentJSON, &r.Content); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report content: %w", err)
	}

	return &r, nil
}

func marshalArtifactDoc(v any, name string) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", name, err)
	}
	return data, nil
}

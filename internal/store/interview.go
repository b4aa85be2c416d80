package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/zspirit/aihm-back/internal/domain"
)

// InterviewStore defines the interface for interview persistence.
type InterviewStore interface {
	// Create saves a new interview row.
	Create(ctx context.Context, interview *domain.Interview) error

	// GetByID retrieves an interview by its unique ID.
	// Returns ErrInterviewNotFound if the interview does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Interview, error)

	// GetByProviderCallID retrieves the interview holding the given
	// provider-issued call ID. Returns ErrInterviewNotFound when no row
	// matches; telephony callbacks treat that as a no-op.
	GetByProviderCallID(ctx context.Context, callID string) (*domain.Interview, error)

	// Update saves changes to an existing interview.
	// Returns ErrInterviewNotFound if the interview does not exist.
	Update(ctx context.Context, interview *domain.Interview) error

	// CountByCandidate returns the number of interview rows a candidate
	// owns, used to enforce the attempt limit.
	CountByCandidate(ctx context.Context, candidateID uuid.UUID) (int, error)

	// LatestByCandidate returns the most recently created interview for a
	// candidate. Returns ErrInterviewNotFound when the candidate has none.
	LatestByCandidate(ctx context.Context, candidateID uuid.UUID) (*domain.Interview, error)

	// ListStaleInProgress returns in-progress interviews whose call started
	// before the cutoff, for provider-side reconciliation.
	ListStaleInProgress(ctx context.Context, cutoff time.Time) ([]*domain.Interview, error)

	// WithTx returns an InterviewStore bound to the provided transaction.
	WithTx(tx *sql.Tx) InterviewStore
}

// ArtifactStore persists the three interview artifacts. Each is unique per
// interview; Create returns ErrDuplicateArtifact when a row already exists,
// which re-run stage handlers treat as "already done".
type ArtifactStore interface {
	// CreateTranscription inserts the transcription for an interview.
	CreateTranscription(ctx context.Context, t *domain.Transcription) error

	// GetTranscription retrieves the transcription for an interview.
	// Returns ErrNotFound if none exists yet.
	GetTranscription(ctx context.Context, interviewID uuid.UUID) (*domain.Transcription, error)

	// CreateAnalysis inserts the analysis for an interview.
	CreateAnalysis(ctx context.Context, a *domain.Analysis) error

	// GetAnalysis retrieves the analysis for an interview.
	// Returns ErrNotFound if none exists yet.
	GetAnalysis(ctx context.Context, interviewID uuid.UUID) (*domain.Analysis, error)

	// CreateReport inserts the report for an interview.
	CreateReport(ctx context.Context, r *domain.Report) error

	// GetReport retrieves the report for an interview.
	// Returns ErrNotFound if none exists yet.
	GetReport(ctx context.Context, interviewID uuid.UUID) (*domain.Report, error)

	// WithTx returns an ArtifactStore bound to the provided transaction.
	WithTx(tx *sql.Tx) ArtifactStore
}

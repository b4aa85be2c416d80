package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/zspirit/aihm-back/internal/domain"
)

// CandidateStore defines the interface for candidate persistence.
type CandidateStore interface {
	// Create saves a new candidate. Returns ErrDuplicateEmail if a
	// candidate with the same email already exists for the position.
	Create(ctx context.Context, candidate *domain.Candidate) error

	// GetByID retrieves a candidate by its unique ID.
	// Returns ErrCandidateNotFound if the candidate does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Candidate, error)

	// Update saves changes to an existing candidate, including its profile,
	// score and pipeline status.
	// Returns ErrCandidateNotFound if the candidate does not exist.
	Update(ctx context.Context, candidate *domain.Candidate) error

	// UpdatePipelineStatus updates only the pipeline status.
	// Returns ErrCandidateNotFound if the candidate does not exist.
	UpdatePipelineStatus(ctx context.Context, id uuid.UUID, status domain.PipelineStatus) error

	// ExistsByEmail reports whether a candidate with the given email exists
	// for the position. Used by bulk import deduplication.
	ExistsByEmail(ctx context.Context, positionID uuid.UUID, email string) (bool, error)

	// WithTx returns a CandidateStore bound to the provided transaction.
	WithTx(tx *sql.Tx) CandidateStore
}

// PositionStore defines the interface for position lookups. Position CRUD
// is handled outside the pipeline; stages only read.
type PositionStore interface {
	// GetByID retrieves a position by its unique ID.
	// Returns ErrPositionNotFound if the position does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Position, error)
}

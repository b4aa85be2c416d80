package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/zspirit/aihm-back/internal/domain"
)

// BulkImportStore defines the interface for bulk import persistence.
type BulkImportStore interface {
	// Create saves a new bulk import record.
	Create(ctx context.Context, bi *domain.BulkImport) error

	// GetByID retrieves a bulk import by its unique ID.
	// Returns ErrBulkImportNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.BulkImport, error)

	// Update saves counters, status and error details. Called after every
	// processed row so progress polling sees fresh counts.
	Update(ctx context.Context, bi *domain.BulkImport) error

	// WithTx returns a BulkImportStore bound to the provided transaction.
	WithTx(tx *sql.Tx) BulkImportStore
}

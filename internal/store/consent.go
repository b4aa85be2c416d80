package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/zspirit/aihm-back/internal/domain"
)

// ConsentStore defines the interface for consent persistence.
type ConsentStore interface {
	// Create saves a new consent record.
	Create(ctx context.Context, consent *domain.Consent) error

	// GetByToken retrieves a consent by its URL token.
	// Returns ErrConsentNotFound if the token is unknown.
	GetByToken(ctx context.Context, token string) (*domain.Consent, error)

	// FindByCandidate retrieves all consent records for a candidate.
	FindByCandidate(ctx context.Context, candidateID uuid.UUID) ([]*domain.Consent, error)

	// HasGranted reports whether the candidate granted the given consent type.
	HasGranted(ctx context.Context, candidateID uuid.UUID, consentType domain.ConsentType) (bool, error)

	// Update saves changes to an existing consent record.
	Update(ctx context.Context, consent *domain.Consent) error

	// WithTx returns a ConsentStore bound to the provided transaction.
	WithTx(tx *sql.Tx) ConsentStore
}

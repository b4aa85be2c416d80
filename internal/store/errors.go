package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the
	// store. Entity-specific variants below wrap it.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate of
	// a unique entity (e.g. a second transcription for the same interview).
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation or a
	// referential constraint before being stored.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrUpdateFailed is returned when an update matches no rows.
	ErrUpdateFailed = errors.New("update failed")

	// ErrTransactionFailed is returned when a database transaction fails to
	// commit or an operation within it fails.
	ErrTransactionFailed = errors.New("transaction failed")

	// Entity-specific "not found" errors.

	ErrCandidateNotFound    = fmt.Errorf("%w: candidate", ErrNotFound)
	ErrPositionNotFound     = fmt.Errorf("%w: position", ErrNotFound)
	ErrInterviewNotFound    = fmt.Errorf("%w: interview", ErrNotFound)
	ErrBulkImportNotFound   = fmt.Errorf("%w: bulk import", ErrNotFound)
	ErrConsentNotFound      = fmt.Errorf("%w: consent", ErrNotFound)
	ErrSubscriptionNotFound = fmt.Errorf("%w: webhook subscription", ErrNotFound)

	// Entity-specific "duplicate" errors.

	// ErrDuplicateArtifact indicates a second transcription, analysis or
	// report for the same interview. Stages treat it as "already done".
	ErrDuplicateArtifact = fmt.Errorf("%w: interview artifact", ErrDuplicate)

	// ErrDuplicateEmail indicates a candidate with the same email already
	// exists for the position.
	ErrDuplicateEmail = fmt.Errorf("%w: email", ErrDuplicate)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError checks if the error is any kind of "duplicate" error.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

package service

import (
	"errors"
	"fmt"
)

// Common service errors - sentinel errors used across service implementations.
// Callers check for them with errors.Is(); the API layer maps them to HTTP
// status codes.
var (
	// ErrMissingPhone indicates an interview was requested for a candidate
	// without a phone number. Maps to HTTP 422.
	ErrMissingPhone = errors.New("candidate has no phone number")

	// ErrConsentRequired indicates the candidate has not granted call
	// recording consent. Maps to HTTP 422.
	ErrConsentRequired = errors.New("call recording consent not granted")

	// ErrAttemptLimit indicates the candidate already used every allowed
	// interview attempt. Maps to HTTP 422.
	ErrAttemptLimit = errors.New("interview attempt limit reached")

	// ErrInvalidConsentToken indicates the consent link token matches no
	// consent record. Maps to HTTP 404.
	ErrInvalidConsentToken = errors.New("invalid consent token")

	// ErrCVAlreadyProcessed indicates a CV upload for a candidate whose CV
	// was already analyzed. Maps to HTTP 409.
	ErrCVAlreadyProcessed = errors.New("candidate CV already processed")
)

// Error wraps unexpected failures from a service operation with context.
// Expected conditions use the sentinel errors above instead.
type Error struct {
	// Operation is the operation that failed (e.g. "create_candidate")
	Operation string
	// Message is a human-readable description of the failure
	Message string
	// Err is the underlying error
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

func wrapErr(operation, message string, err error) error {
	return &Error{Operation: operation, Message: message, Err: err}
}

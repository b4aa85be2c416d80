package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrStatusRegression is returned when a status update would move an
	// entity backwards along its pipeline. Status enums only flow forward.
	ErrStatusRegression = errors.New("status cannot move backwards")

	// ErrMissingPhone is returned when an interview is scheduled for a
	// candidate without a phone number.
	ErrMissingPhone = errors.New("candidate has no phone number")

	// ErrConsentRequired is returned when an interview is scheduled before
	// the candidate granted call-recording consent.
	ErrConsentRequired = errors.New("call recording consent not granted")

	// ErrAttemptLimit is returned when a candidate already has the maximum
	// number of interview attempts.
	ErrAttemptLimit = errors.New("interview attempt limit reached")

	// ErrConsentAlreadyGranted is returned when a consent token is used twice.
	ErrConsentAlreadyGranted = errors.New("consent already granted")
)

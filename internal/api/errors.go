package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/zspirit/aihm-back/internal/api/shared"
	"github.com/zspirit/aihm-back/internal/domain"
	"github.com/zspirit/aihm-back/internal/service"
	"github.com/zspirit/aihm-back/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Not found errors
	case store.IsNotFoundError(err),
		errors.Is(err, service.ErrInvalidConsentToken):
		return http.StatusNotFound

	// Conflict errors
	case store.IsDuplicateError(err),
		errors.Is(err, domain.ErrConsentAlreadyGranted),
		errors.Is(err, service.ErrCVAlreadyProcessed):
		return http.StatusConflict

	// Scheduling precondition failures
	case errors.Is(err, service.ErrMissingPhone),
		errors.Is(err, service.ErrConsentRequired),
		errors.Is(err, service.ErrAttemptLimit):
		return http.StatusUnprocessableEntity

	// Bad request errors
	case errors.Is(err, domain.ErrStatusRegression),
		errors.Is(err, domain.ErrUnknownWebhookEvent):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	// Not found errors
	case errors.Is(err, store.ErrCandidateNotFound):
		return "Candidate not found"

	case errors.Is(err, store.ErrPositionNotFound):
		return "Position not found"

	case errors.Is(err, store.ErrInterviewNotFound):
		return "Interview not found"

	case errors.Is(err, store.ErrBulkImportNotFound):
		return "Import not found"

	case errors.Is(err, store.ErrSubscriptionNotFound):
		return "Webhook subscription not found"

	case errors.Is(err, service.ErrInvalidConsentToken):
		return "Consent link is invalid"

	// Conflict errors
	case errors.Is(err, store.ErrDuplicateEmail):
		return "A candidate with this email already exists for this position"

	case errors.Is(err, domain.ErrConsentAlreadyGranted):
		return "Consent has already been given"

	case errors.Is(err, service.ErrCVAlreadyProcessed):
		return "The CV has already been processed"

	// Scheduling precondition failures
	case errors.Is(err, service.ErrMissingPhone):
		return "The candidate has no phone number"

	case errors.Is(err, service.ErrConsentRequired):
		return "The candidate has not consented to call recording"

	case errors.Is(err, service.ErrAttemptLimit):
		return "The interview attempt limit has been reached"

	// Bad request errors
	case errors.Is(err, domain.ErrUnknownWebhookEvent):
		return "Unknown webhook event"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError maps the error to a status code and writes the sanitized
// response. An empty userMessage falls back to the safe mapped message.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, userMessage string) {
	status := MapErrorToStatusCode(err)
	if userMessage == "" {
		userMessage = GetSafeErrorMessage(err)
	}
	shared.RespondWithErrorAndLog(w, r, status, userMessage, err)
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Example format: "Key: 'ScheduleInterviewRequest.ScheduledAt' Error:Field
	// validation for 'ScheduledAt' failed on the 'required' tag"
	if strings.Contains(errMsg, "Field validation") {
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}

				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	case "url":
		return "invalid URL"
	default:
		return "validation failed"
	}
}

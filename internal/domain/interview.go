package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// InterviewStatus represents the lifecycle state of a telephone interview.
type InterviewStatus string

// Possible interview status values.
const (
	InterviewStatusScheduled  InterviewStatus = "scheduled"
	InterviewStatusInProgress InterviewStatus = "in_progress"
	InterviewStatusCompleted  InterviewStatus = "completed"
	InterviewStatusFailed     InterviewStatus = "failed"
	InterviewStatusNoAnswer   InterviewStatus = "no_answer"
	InterviewStatusCancelled  InterviewStatus = "cancelled"
)

// MaxInterviewAttempts is the maximum number of interview rows one
// candidate may own.
const MaxInterviewAttempts = 3

// Common validation errors for Interview.
var (
	ErrEmptyInterviewID        = errors.New("interview ID cannot be empty")
	ErrEmptyInterviewCandidate = errors.New("interview candidate ID cannot be empty")
	ErrInvalidInterviewStatus  = errors.New("invalid interview status")
	ErrInvalidAttemptNumber    = errors.New("attempt number out of range")
)

// Interview is one telephone interview attempt for a candidate. The
// provider-issued CallProviderID correlates the two telephony callbacks
// back to this row; the external system never sees the internal UUID.
type Interview struct {
	ID              uuid.UUID       `json:"id"`
	CandidateID     uuid.UUID       `json:"candidate_id"`
	PositionID      uuid.UUID       `json:"position_id"`
	TenantID        uuid.UUID       `json:"tenant_id"`
	Status          InterviewStatus `json:"status"`
	ScheduledAt     *time.Time      `json:"scheduled_at,omitempty"`
	StartedAt       *time.Time      `json:"started_at,omitempty"`
	EndedAt         *time.Time      `json:"ended_at,omitempty"`
	DurationSeconds *int            `json:"duration_seconds,omitempty"`
	AudioFilePath   string          `json:"audio_file_path,omitempty"`
	CallProviderID  string          `json:"call_provider_id,omitempty"`
	Questions       []Question      `json:"questions,omitempty"`
	AttemptNumber   int             `json:"attempt_number"`
	CreatedAt       time.Time       `json:"created_at"`
}

// NewInterview creates a scheduled interview for the given candidate.
// attemptNumber is 1-based and must not exceed MaxInterviewAttempts.
func NewInterview(candidateID, positionID, tenantID uuid.UUID, scheduledAt *time.Time, attemptNumber int) (*Interview, error) {
	iv := &Interview{
		ID:            uuid.New(),
		CandidateID:   candidateID,
		PositionID:    positionID,
		TenantID:      tenantID,
		Status:        InterviewStatusScheduled,
		ScheduledAt:   scheduledAt,
		AttemptNumber: attemptNumber,
		CreatedAt:     time.Now().UTC(),
	}
	if err := iv.Validate(); err != nil {
		return nil, err
	}
	return iv, nil
}

// Validate checks if the Interview has valid data.
func (iv *Interview) Validate() error {
	if iv.ID == uuid.Nil {
		return ErrEmptyInterviewID
	}
	if iv.CandidateID == uuid.Nil {
		return ErrEmptyInterviewCandidate
	}
	if !isValidInterviewStatus(iv.Status) {
		return ErrInvalidInterviewStatus
	}
	if iv.AttemptNumber < 1 || iv.AttemptNumber > MaxInterviewAttempts {
		return ErrInvalidAttemptNumber
	}
	return nil
}

// IsTerminal reports whether the interview has reached a state after which
// no status callback should mutate it again.
func (iv *Interview) IsTerminal() bool {
	switch iv.Status {
	case InterviewStatusCompleted, InterviewStatusFailed,
		InterviewStatusNoAnswer, InterviewStatusCancelled:
		return true
	default:
		return false
	}
}

func isValidInterviewStatus(status InterviewStatus) bool {
	switch status {
	case InterviewStatusScheduled, InterviewStatusInProgress,
		InterviewStatusCompleted, InterviewStatusFailed,
		InterviewStatusNoAnswer, InterviewStatusCancelled:
		return true
	default:
		return false
	}
}

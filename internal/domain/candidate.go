package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// PipelineStatus represents a candidate's position in the evaluation pipeline.
type PipelineStatus string

// Pipeline statuses, in forward order. A candidate only ever moves to a
// status with a higher rank; Rejected and Failed are terminal.
const (
	PipelineStatusNew            PipelineStatus = "new"
	PipelineStatusCVUploaded     PipelineStatus = "cv_uploaded"
	PipelineStatusCVAnalyzed     PipelineStatus = "cv_analyzed"
	PipelineStatusRejected       PipelineStatus = "rejected"
	PipelineStatusInvited        PipelineStatus = "invited"
	PipelineStatusConsentGiven   PipelineStatus = "consent_given"
	PipelineStatusCallScheduled  PipelineStatus = "call_scheduled"
	PipelineStatusCallInProgress PipelineStatus = "call_in_progress"
	PipelineStatusCallDone       PipelineStatus = "call_done"
	PipelineStatusEvaluated      PipelineStatus = "evaluated"
	PipelineStatusFailed         PipelineStatus = "failed"
)

// pipelineRank orders statuses along the forward-only graph. Rejected and
// Failed sit past Evaluated so nothing can advance out of them.
var pipelineRank = map[PipelineStatus]int{
	PipelineStatusNew:            0,
	PipelineStatusCVUploaded:     1,
	PipelineStatusCVAnalyzed:     2,
	PipelineStatusInvited:        3,
	PipelineStatusConsentGiven:   4,
	PipelineStatusCallScheduled:  5,
	PipelineStatusCallInProgress: 6,
	PipelineStatusCallDone:       7,
	PipelineStatusEvaluated:      8,
	PipelineStatusRejected:       9,
	PipelineStatusFailed:         9,
}

// Common validation errors for Candidate.
var (
	ErrEmptyCandidateID       = errors.New("candidate ID cannot be empty")
	ErrEmptyCandidateTenantID = errors.New("candidate tenant ID cannot be empty")
	ErrEmptyCandidatePosition = errors.New("candidate position ID cannot be empty")
	ErrEmptyCandidateName     = errors.New("candidate name cannot be empty")
	ErrInvalidPipelineStatus  = errors.New("invalid pipeline status")
)

// Candidate represents a job candidate moving through the evaluation
// pipeline for a single position. The PipelineStatus field is mutated
// exclusively by pipeline stages and the consent/scheduling operations.
type Candidate struct {
	ID                 uuid.UUID       `json:"id"`
	TenantID           uuid.UUID       `json:"tenant_id"`
	PositionID         uuid.UUID       `json:"position_id"`
	Name               string          `json:"name"`
	Email              string          `json:"email,omitempty"`
	Phone              string          `json:"phone,omitempty"`
	CVFilePath         string          `json:"cv_file_path,omitempty"`
	CVProfile          *CVProfile      `json:"cv_profile,omitempty"`
	CVScore            *float64        `json:"cv_score,omitempty"`
	CVScoreExplanation *ScoreBreakdown `json:"cv_score_explanation,omitempty"`
	PipelineStatus     PipelineStatus  `json:"pipeline_status"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// NewCandidate creates a Candidate in status "new" for the given tenant and
// position. Returns an error if validation fails.
func NewCandidate(tenantID, positionID uuid.UUID, name, email, phone string) (*Candidate, error) {
	now := time.Now().UTC()
	c := &Candidate{
		ID:             uuid.New(),
		TenantID:       tenantID,
		PositionID:     positionID,
		Name:           name,
		Email:          email,
		Phone:          phone,
		PipelineStatus: PipelineStatusNew,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks if the Candidate has valid data.
func (c *Candidate) Validate() error {
	if c.ID == uuid.Nil {
		return ErrEmptyCandidateID
	}
	if c.TenantID == uuid.Nil {
		return ErrEmptyCandidateTenantID
	}
	if c.PositionID == uuid.Nil {
		return ErrEmptyCandidatePosition
	}
	if c.Name == "" {
		return ErrEmptyCandidateName
	}
	if !isValidPipelineStatus(c.PipelineStatus) {
		return ErrInvalidPipelineStatus
	}
	return nil
}

// AdvanceTo moves the candidate forward to the given status. Moving to the
// current status is a no-op; moving backwards returns ErrStatusRegression.
func (c *Candidate) AdvanceTo(status PipelineStatus) error {
	if !isValidPipelineStatus(status) {
		return ErrInvalidPipelineStatus
	}
	cur, next := pipelineRank[c.PipelineStatus], pipelineRank[status]
	if next < cur {
		return ErrStatusRegression
	}
	if next == cur && status != c.PipelineStatus {
		// Rejected and Failed share a rank but are distinct terminals.
		return ErrStatusRegression
	}
	c.PipelineStatus = status
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// IsTerminal reports whether no further pipeline stage is automatically
// triggered for this candidate.
func (c *Candidate) IsTerminal() bool {
	switch c.PipelineStatus {
	case PipelineStatusRejected, PipelineStatusEvaluated, PipelineStatusFailed:
		return true
	default:
		return false
	}
}

func isValidPipelineStatus(status PipelineStatus) bool {
	_, ok := pipelineRank[status]
	return ok
}

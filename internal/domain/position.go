package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for Position.
var (
	ErrEmptyPositionID    = errors.New("position ID cannot be empty")
	ErrEmptyPositionTitle = errors.New("position title cannot be empty")
	ErrInvalidThresholds  = errors.New("auto-advance threshold must be above auto-reject threshold")
)

// RequiredSkill describes one skill a position calls for, with the level
// (1-5), weight (1-3) and category used by scoring and analysis.
type RequiredSkill struct {
	Name          string `json:"name"`
	LevelRequired int    `json:"level_required"`
	Weight        int    `json:"weight"`
	Category      string `json:"category,omitempty"`
}

// Position is an open role candidates apply to. The two optional thresholds
// drive workflow automation after CV scoring: scores below the reject
// threshold end the pipeline, scores at or above the advance threshold skip
// manual review.
type Position struct {
	ID                   uuid.UUID       `json:"id"`
	TenantID             uuid.UUID       `json:"tenant_id"`
	Title                string          `json:"title"`
	Description          string          `json:"description,omitempty"`
	RequiredSkills       []RequiredSkill `json:"required_skills,omitempty"`
	SeniorityLevel       string          `json:"seniority_level,omitempty"`
	CustomQuestions      []Question      `json:"custom_questions,omitempty"`
	AutoRejectThreshold  *float64        `json:"auto_reject_threshold,omitempty"`
	AutoAdvanceThreshold *float64        `json:"auto_advance_threshold,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
}

// Validate checks if the Position has valid data.
func (p *Position) Validate() error {
	if p.ID == uuid.Nil {
		return ErrEmptyPositionID
	}
	if p.Title == "" {
		return ErrEmptyPositionTitle
	}
	if p.AutoRejectThreshold != nil && p.AutoAdvanceThreshold != nil &&
		*p.AutoAdvanceThreshold <= *p.AutoRejectThreshold {
		return ErrInvalidThresholds
	}
	return nil
}

// HasAutomation reports whether any workflow automation threshold is set.
func (p *Position) HasAutomation() bool {
	return p.AutoRejectThreshold != nil || p.AutoAdvanceThreshold != nil
}

package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/zspirit/aihm-back/internal/domain"
)

// Common request/response structures

// CandidateResponse is the public view of a candidate.
type CandidateResponse struct {
	ID             uuid.UUID `json:"id"`
	PositionID     uuid.UUID `json:"position_id"`
	Name           string    `json:"name"`
	Email          string    `json:"email,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	CVFilePath     string    `json:"cv_file_path,omitempty"`
	CVScore        *float64  `json:"cv_score,omitempty"`
	PipelineStatus string    `json:"pipeline_status"`
	CreatedAt      time.Time `json:"created_at"`
}

func candidateToResponse(c *domain.Candidate) CandidateResponse {
	return CandidateResponse{
		ID:             c.ID,
		PositionID:     c.PositionID,
		Name:           c.Name,
		Email:          c.Email,
		Phone:          c.Phone,
		CVFilePath:     c.CVFilePath,
		CVScore:        c.CVScore,
		PipelineStatus: string(c.PipelineStatus),
		CreatedAt:      c.CreatedAt,
	}
}

// ScheduleInterviewRequest defines the payload for scheduling an interview.
type ScheduleInterviewRequest struct {
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

// InterviewResponse is the public view of an interview.
type InterviewResponse struct {
	ID            uuid.UUID  `json:"id"`
	CandidateID   uuid.UUID  `json:"candidate_id"`
	PositionID    uuid.UUID  `json:"position_id"`
	Status        string     `json:"status"`
	ScheduledAt   *time.Time `json:"scheduled_at,omitempty"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	EndedAt       *time.Time `json:"ended_at,omitempty"`
	Duration      *int       `json:"duration_seconds,omitempty"`
	AttemptNumber int        `json:"attempt_number"`
	CreatedAt     time.Time  `json:"created_at"`
}

func interviewToResponse(iv *domain.Interview) InterviewResponse {
	return InterviewResponse{
		ID:            iv.ID,
		CandidateID:   iv.CandidateID,
		PositionID:    iv.PositionID,
		Status:        string(iv.Status),
		ScheduledAt:   iv.ScheduledAt,
		StartedAt:     iv.StartedAt,
		EndedAt:       iv.EndedAt,
		Duration:      iv.DurationSeconds,
		AttemptNumber: iv.AttemptNumber,
		CreatedAt:     iv.CreatedAt,
	}
}

// ConsentPageResponse describes what the consent page shows before granting.
type ConsentPageResponse struct {
	CandidateName string `json:"candidate_name"`
	PositionTitle string `json:"position_title"`
	Granted       bool   `json:"granted"`
}

// GrantConsentRequest defines the payload for the public consent endpoint.
type GrantConsentRequest struct {
	Channel string `json:"channel" validate:"required,oneof=web sms email"`
}

// GrantConsentResponse confirms a grant.
type GrantConsentResponse struct {
	CandidateID uuid.UUID `json:"candidate_id"`
	Status      string    `json:"status"`
}

// ImportResponse is the public view of a bulk import.
type ImportResponse struct {
	ID             uuid.UUID  `json:"id"`
	PositionID     uuid.UUID  `json:"position_id"`
	Filename       string     `json:"filename"`
	Status         string     `json:"status"`
	TotalCount     int        `json:"total_count"`
	ProcessedCount int        `json:"processed_count"`
	SuccessCount   int        `json:"success_count"`
	ErrorCount     int        `json:"error_count"`
	ErrorDetails   []domain.RowError `json:"error_details,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

func importToResponse(imp *domain.BulkImport) ImportResponse {
	return ImportResponse{
		ID:             imp.ID,
		PositionID:     imp.PositionID,
		Filename:       imp.Filename,
		Status:         string(imp.Status),
		TotalCount:     imp.TotalCount,
		ProcessedCount: imp.ProcessedCount,
		SuccessCount:   imp.SuccessCount,
		ErrorCount:     imp.ErrorCount,
		ErrorDetails:   imp.ErrorDetails,
		CreatedAt:      imp.CreatedAt,
		CompletedAt:    imp.CompletedAt,
	}
}

// CreateWebhookRequest defines the payload for creating a webhook subscription.
type CreateWebhookRequest struct {
	URL    string   `json:"url"    validate:"required,url"`
	Events []string `json:"events" validate:"required,min=1"`
}

// WebhookResponse is the public view of a webhook subscription. The signing
// secret is only returned once, on creation.
type WebhookResponse struct {
	ID        uuid.UUID `json:"id"`
	URL       string    `json:"url"`
	Events    []string  `json:"events"`
	IsActive  bool      `json:"is_active"`
	Secret    string    `json:"secret,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func webhookToResponse(sub *domain.WebhookSubscription, includeSecret bool) WebhookResponse {
	events := make([]string, len(sub.Events))
	for i, e := range sub.Events {
		events[i] = string(e)
	}
	resp := WebhookResponse{
		ID:        sub.ID,
		URL:       sub.URL,
		Events:    events,
		IsActive:  sub.IsActive,
		CreatedAt: sub.CreatedAt,
	}
	if includeSecret {
		resp.Secret = sub.Secret
	}
	return resp
}

// NotificationResponse is the public view of an in-app notification.
type NotificationResponse struct {
	ID        uuid.UUID         `json:"id"`
	Type      string            `json:"type"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Data      map[string]string `json:"data,omitempty"`
	Read      bool              `json:"read"`
	CreatedAt time.Time         `json:"created_at"`
}

func notificationToResponse(n *domain.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Data:      n.Data,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}

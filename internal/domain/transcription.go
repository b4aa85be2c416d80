package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrEmptyTranscriptionInterview is returned when a transcription has no
// interview reference.
var ErrEmptyTranscriptionInterview = errors.New("transcription interview ID cannot be empty")

// TranscriptSegment is one time-aligned slice of a transcription.
type TranscriptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcription is the text produced from an interview recording. Each
// interview has at most one; the storage-level unique constraint on
// InterviewID is the guard against duplicate stage execution.
type Transcription struct {
	ID               uuid.UUID           `json:"id"`
	InterviewID      uuid.UUID           `json:"interview_id"`
	FullText         string              `json:"full_text"`
	Segments         []TranscriptSegment `json:"segments,omitempty"`
	LanguageDetected string              `json:"language_detected,omitempty"`
	ConfidenceScore  float64             `json:"confidence_score"`
	CreatedAt        time.Time           `json:"created_at"`
}

// NewTranscription creates a transcription record for the given interview.
func NewTranscription(interviewID uuid.UUID, fullText string, segments []TranscriptSegment, language string, confidence float64) (*Transcription, error) {
	if interviewID == uuid.Nil {
		return nil, ErrEmptyTranscriptionInterview
	}
	return &Transcription{
		ID:               uuid.New(),
		InterviewID:      interviewID,
		FullText:         fullText,
		Segments:         segments,
		LanguageDetected: language,
		ConfidenceScore:  confidence,
		CreatedAt:        time.Now().UTC(),
	}, nil
}

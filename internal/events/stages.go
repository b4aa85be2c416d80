package events

import "github.com/google/uuid"

// Pipeline stage names. A StageRequestEvent carries one of these; the task
// factory maps it to the stage implementation.
const (
	StageProcessCV         = "cv.process"
	StageGenerateQuestions = "questions.generate"
	StageNotifyConsent     = "consent.notify"
	StageInitiateCall      = "call.initiate"
	StageTranscribe        = "transcription.transcribe"
	StageAnalyze           = "analysis.analyze"
	StageGenerateReport    = "report.generate"
	StageNotifyFanout      = "notify.fanout"
	StageProcessImport     = "bulkimport.process"
)

// CandidatePayload is the event payload for candidate-keyed stages.
type CandidatePayload struct {
	CandidateID uuid.UUID `json:"candidate_id"`
}

// InterviewPayload is the event payload for interview-keyed stages.
type InterviewPayload struct {
	InterviewID uuid.UUID `json:"interview_id"`
}

// ImportPayload is the event payload for the bulk import stage.
type ImportPayload struct {
	ImportID uuid.UUID `json:"import_id"`
}

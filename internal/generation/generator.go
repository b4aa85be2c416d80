package generation

import (
	"context"

	"github.com/zspirit/aihm-back/internal/domain"
)

// ReportInput bundles everything the report writer needs about one
// completed interview.
type ReportInput struct {
	Candidate  *domain.Candidate
	Position   *domain.Position
	Transcript *domain.Transcription
	Analysis   *domain.AnalysisResult
}

// Generator defines the interface for the AI operations the pipeline
// depends on. This interface serves as a boundary between the application
// core and external AI/LLM services, following the hexagonal architecture
// pattern: stages consume typed domain values and never see prompts or
// raw model output.
type Generator interface {
	// ExtractProfile parses a CV document into a structured profile. The
	// document is passed as stored: plain text goes into the prompt,
	// binary formats (PDF, DOCX) are handed to the model as-is.
	// Implementations must degrade rather than fail on unparseable model
	// output: the returned profile then carries a parse error marker (and,
	// for textual documents, the raw text) instead of structured fields.
	ExtractProfile(ctx context.Context, document []byte, mimeType string) (*domain.CVProfile, error)

	// ScoreCandidate scores a profile against a position's requirements.
	// On unparseable model output it returns a zero ScoreResult with the
	// failure recorded in the breakdown, not an error.
	ScoreCandidate(ctx context.Context, profile *domain.CVProfile, position *domain.Position) (*domain.ScoreResult, error)

	// GenerateQuestions produces personalized interview questions for the
	// candidate, merged after the position's custom questions.
	GenerateQuestions(ctx context.Context, profile *domain.CVProfile, position *domain.Position) ([]domain.Question, error)

	// AnalyzeTranscript evaluates an interview transcript against the
	// position's required skills.
	AnalyzeTranscript(ctx context.Context, transcript string, position *domain.Position) (*domain.AnalysisResult, error)

	// GenerateReport writes the recruiter-facing evaluation report.
	GenerateReport(ctx context.Context, input ReportInput) (*domain.ReportContent, error)
}

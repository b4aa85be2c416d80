package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for Report.
var (
	ErrEmptyReportInterview = errors.New("report interview ID cannot be empty")
	ErrEmptyReportCandidate = errors.New("report candidate ID cannot be empty")
)

// SkillMatrixEntry is one row of the report's skill matrix, combining the
// required level with what the interview demonstrated.
type SkillMatrixEntry struct {
	Skill        string `json:"skill"`
	Category     string `json:"category,omitempty"`
	Required     int    `json:"required"`
	Demonstrated int    `json:"demonstrated"`
	Motivation   int    `json:"motivation"`
	Evidence     string `json:"evidence,omitempty"`
}

// SkillAssessment is one narrative skill entry of the report.
type SkillAssessment struct {
	Skill    string `json:"skill"`
	Level    string `json:"level,omitempty"`
	Evidence string `json:"evidence,omitempty"`
}

// ReportContent is the structured evaluation report shown to recruiters.
// It informs; the recruiter decides — it never contains a hiring
// recommendation.
type ReportContent struct {
	Title            string             `json:"title"`
	Position         string             `json:"position"`
	Date             string             `json:"date,omitempty"`
	Summary          string             `json:"summary"`
	MatchingScore    *int               `json:"matching_score,omitempty"`
	SkillMatrix      []SkillMatrixEntry `json:"skill_matrix,omitempty"`
	Scores           AnalysisScores     `json:"scores"`
	Strengths        []string           `json:"strengths,omitempty"`
	AreasToExplore   []string           `json:"areas_to_explore,omitempty"`
	SkillsAssessment []SkillAssessment  `json:"skills_assessment,omitempty"`
	KeyQuotes        []string           `json:"key_quotes,omitempty"`
	Metadata         map[string]string  `json:"metadata,omitempty"`
}

// Report persists a generated evaluation report. Unique per interview.
type Report struct {
	ID          uuid.UUID     `json:"id"`
	CandidateID uuid.UUID     `json:"candidate_id"`
	InterviewID uuid.UUID     `json:"interview_id"`
	Content     ReportContent `json:"content"`
	PDFFilePath string        `json:"pdf_file_path,omitempty"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// NewReport creates a report record for the given interview.
func NewReport(candidateID, interviewID uuid.UUID, content ReportContent, pdfPath string) (*Report, error) {
	if candidateID == uuid.Nil {
		return nil, ErrEmptyReportCandidate
	}
	if interviewID == uuid.Nil {
		return nil, ErrEmptyReportInterview
	}
	return &Report{
		ID:          uuid.New(),
		CandidateID: candidateID,
		InterviewID: interviewID,
		Content:     content,
		PDFFilePath: pdfPath,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrEmptyAnalysisInterview is returned when an analysis has no interview
// reference.
var ErrEmptyAnalysisInterview = errors.New("analysis interview ID cannot be empty")

// SkillScore is the dual-axis evaluation of one required skill: the level
// actually demonstrated in the conversation and the motivation detected.
type SkillScore struct {
	Skill         string `json:"skill"`
	Category      string `json:"category,omitempty"`
	LevelRequired int    `json:"level_required"`
	Demonstrated  int    `json:"demonstrated"`
	Motivation    int    `json:"motivation"`
	Evidence      string `json:"evidence,omitempty"`
	GapAnalysis   string `json:"gap_analysis,omitempty"`
}

// ExtractedSkill is a skill the candidate mentioned or demonstrated during
// the interview, with the supporting evidence.
type ExtractedSkill struct {
	Skill    string `json:"skill"`
	Evidence string `json:"evidence,omitempty"`
	Level    string `json:"level,omitempty"`
	Type     string `json:"type,omitempty"` // "declared" or "demonstrated"
}

// ExperienceExample is one STAR-method experience recounted in the interview.
type ExperienceExample struct {
	Situation       string   `json:"situation,omitempty"`
	Task            string   `json:"task,omitempty"`
	Action          string   `json:"action,omitempty"`
	Result          string   `json:"result,omitempty"`
	MissingElements []string `json:"missing_star_elements,omitempty"`
}

// Indicator is a scored communication criterion with its evidence.
type Indicator struct {
	Score    int    `json:"score"`
	Evidence string `json:"evidence,omitempty"`
}

// CommunicationIndicators evaluates observable communication signals only:
// clarity, structure and fluency of the answers.
type CommunicationIndicators struct {
	Clarity   Indicator `json:"clarity"`
	Structure Indicator `json:"structure"`
	Fluency   Indicator `json:"fluency"`
}

// AnalysisScores aggregates the per-area interview scores (0-100).
type AnalysisScores struct {
	Technical     int `json:"technical"`
	Experience    int `json:"experience"`
	Communication int `json:"communication"`
	Global        int `json:"global"`
}

// AnalysisResult is the validated output of the interview-analysis call,
// parsed from the external response at the AI boundary.
type AnalysisResult struct {
	SkillScores             []SkillScore             `json:"skill_scores,omitempty"`
	SkillsExtracted         []ExtractedSkill         `json:"skills_extracted,omitempty"`
	ExperienceExamples      []ExperienceExample      `json:"experience_examples,omitempty"`
	CommunicationIndicators *CommunicationIndicators `json:"communication_indicators,omitempty"`
	Scores                  AnalysisScores           `json:"scores"`
	ScoreExplanations       map[string]string        `json:"score_explanations,omitempty"`
}

// Analysis persists an AnalysisResult for an interview. Unique per
// interview; the constraint guards against duplicate stage execution.
type Analysis struct {
	ID          uuid.UUID      `json:"id"`
	InterviewID uuid.UUID      `json:"interview_id"`
	Result      AnalysisResult `json:"result"`
	CreatedAt   time.Time      `json:"created_at"`
}

// NewAnalysis creates an analysis record for the given interview.
func NewAnalysis(interviewID uuid.UUID, result AnalysisResult) (*Analysis, error) {
	if interviewID == uuid.Nil {
		return nil, ErrEmptyAnalysisInterview
	}
	return &Analysis{
		ID:          uuid.New(),
		InterviewID: interviewID,
		Result:      result,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

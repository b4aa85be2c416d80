package domain

// CVProfile is the structured data extracted from a candidate's CV at the
// AI boundary. It is parsed and validated once, where the external response
// is ingested, and carried as a typed value through the rest of the pipeline.
type CVProfile struct {
	Name            string       `json:"name,omitempty"`
	Email           string       `json:"email,omitempty"`
	Phone           string       `json:"phone,omitempty"`
	Skills          []string     `json:"skills,omitempty"`
	ExperienceYears int          `json:"experience_years,omitempty"`
	Experiences     []Experience `json:"experiences,omitempty"`
	Education       []Education  `json:"education,omitempty"`
	Languages       []string     `json:"languages,omitempty"`
	Summary         string       `json:"summary,omitempty"`

	// RawText holds the document text when structured extraction failed.
	RawText string `json:"raw_text,omitempty"`
	// ParseError flags that extraction fell back to raw text.
	ParseError bool `json:"parse_error,omitempty"`
}

// Experience is one past role listed on a CV.
type Experience struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Duration    string `json:"duration,omitempty"`
	Description string `json:"description,omitempty"`
}

// Education is one degree or certification listed on a CV.
type Education struct {
	Degree string `json:"degree"`
	School string `json:"school"`
	Year   string `json:"year,omitempty"`
}

// ScoreBreakdown explains a CV score per evaluation axis. When scoring
// failed, Error is set and all sub-scores are zero.
type ScoreBreakdown struct {
	SkillsMatch     AxisScore `json:"skills_match"`
	ExperienceMatch AxisScore `json:"experience_match"`
	EducationMatch  AxisScore `json:"education_match"`
	Error           string    `json:"error,omitempty"`
}

// AxisScore is one weighted axis of a CV score.
type AxisScore struct {
	Score         int      `json:"score"`
	Matched       []string `json:"matched,omitempty"`
	Missing       []string `json:"missing,omitempty"`
	Transferable  []string `json:"transferable,omitempty"`
	Justification string   `json:"justification,omitempty"`
}

// ScoreResult is the validated output of the CV scoring call: a 0-100 score
// plus the per-axis explanation.
type ScoreResult struct {
	Score       float64        `json:"score"`
	Explanation ScoreBreakdown `json:"explanation"`
}

// Failed reports whether this result is the zero-score fallback produced
// when the scoring response could not be parsed.
func (r ScoreResult) Failed() bool {
	return r.Explanation.Error != ""
}

// Question is a single interview question generated for a candidate.
type Question struct {
	ID    int    `json:"id"`
	Text  string `json:"text"`
	Skill string `json:"skill,omitempty"`
}

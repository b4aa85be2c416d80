package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zspirit/aihm-back/internal/domain"
	"github.com/zspirit/aihm-back/internal/generation"
)

// extractProfileInstruction is the parsing instruction shared by the text
// and document extraction paths. In the document path the CV travels as an
// attached part instead of prompt text.
func extractProfileInstruction() string {
	return `You are a CV parser. Extract structured data from the attached CV.

Respond with JSON only, no commentary, using this schema:
{
  "name": "...",
  "email": "...",
  "phone": "...",
  "skills": ["..."],
  "experience_years": 0,
  "experiences": [{"title": "...", "company": "...", "duration": "...", "description": "..."}],
  "education": [{"degree": "...", "school": "...", "year": "..."}],
  "languages": ["..."],
  "summary": "..."
}

Omit fields you cannot determine. Never invent data that is not in the CV.`
}

func extractProfilePrompt(cvText string) string {
	return fmt.Sprintf(`%s

CV:
%s`, extractProfileInstruction(), cvText)
}

func scorePrompt(profile *domain.CVProfile, position *domain.Position) string {
	profileJSON, _ := json.Marshal(profile)
	skillsJSON, _ := json.Marshal(position.RequiredSkills)

	return fmt.Sprintf(`You are an experienced technical recruiter. Score the candidate profile
against the position on a 0-100 scale.

Position: %s (seniority: %s)
Description: %s
Required skills (with required level 1-5 and weight): %s

Candidate profile:
%s

Scoring axes:
- skills_match: 50%% of the global score (technical and functional skills)
- experience_match: 30%% of the global score (years and relevance)
- education_match: 20%% of the global score (degrees, certifications)
The global score = (skills_match * 0.5) + (experience_match * 0.3) + (education_match * 0.2)

Rules:
- Score from 0 to 100, based on observable criteria only
- Count adjacent technologies as transferable, not matched
- Justify each sub-score with factual elements from the CV

Respond with JSON only:
{
  "score": 75,
  "explanation": {
    "skills_match": {"score": 80, "matched": ["skill1"], "missing": ["skill2"], "transferable": ["skill3"], "justification": "..."},
    "experience_match": {"score": 70, "justification": "..."},
    "education_match": {"score": 75, "justification": "..."}
  }
}`, position.Title, position.SeniorityLevel, position.Description, skillsJSON, profileJSON)
}

func questionsPrompt(profile *domain.CVProfile, position *domain.Position) string {
	profileJSON, _ := json.Marshal(profile)
	skillsJSON, _ := json.Marshal(position.RequiredSkills)

	return fmt.Sprintf(`You are preparing a short screening phone interview for the position
"%s" (seniority: %s).

Required skills: %s

Candidate profile:
%s

Generate 5 personalized interview questions. Probe the required skills the
profile does not clearly demonstrate, and ask for concrete examples from the
candidate's stated experience. Questions must be answerable verbally in a
phone call.

Respond with JSON only:
{"questions": [{"id": 1, "text": "...", "skill": "..."}]}`,
		position.Title, position.SeniorityLevel, skillsJSON, profileJSON)
}

func analysisPrompt(transcript string, position *domain.Position) string {
	skillsJSON, _ := json.Marshal(position.RequiredSkills)

	return fmt.Sprintf(`You are evaluating a screening phone interview transcript for the
position "%s".

Required skills (with required level 1-5): %s

For each required skill rate the level actually DEMONSTRATED in the
conversation (1-5) and the candidate's motivation for it (1-5), citing the
supporting evidence. Extract additional skills the candidate mentioned,
experience examples in STAR form (noting missing STAR elements), and rate
communication on clarity, structure and fluency (0-100 each). Base every
judgment on the transcript only; never assume facts that were not said.

Respond with JSON only:
{
  "skill_scores": [{"skill": "...", "category": "...", "level_required": 3, "demonstrated": 2, "motivation": 4, "evidence": "...", "gap_analysis": "..."}],
  "skills_extracted": [{"skill": "...", "evidence": "...", "level": "...", "type": "declared"}],
  "experience_examples": [{"situation": "...", "task": "...", "action": "...", "result": "...", "missing_star_elements": ["..."]}],
  "communication_indicators": {"clarity": {"score": 70, "evidence": "..."}, "structure": {"score": 60, "evidence": "..."}, "fluency": {"score": 80, "evidence": "..."}},
  "scores": {"technical": 0, "experience": 0, "communication": 0, "global": 0},
  "score_explanations": {"technical": "...", "experience": "...", "communication": "...", "global": "..."}
}

Transcript:
%s`, position.Title, skillsJSON, transcript)
}

func reportPrompt(input generation.ReportInput) string {
	analysisJSON, _ := json.Marshal(input.Analysis)

	var transcript string
	if input.Transcript != nil {
		transcript = input.Transcript.FullText
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `You are writing a factual candidate evaluation report for recruiters.

Candidate: %s
Position: %s

Interview analysis:
%s

Write a neutral, evidence-based report. Describe what the interview showed;
NEVER include a hiring recommendation or a hire/no-hire verdict. Select up
to three short verbatim quotes from the transcript that best illustrate the
findings.

Respond with JSON only:
{
  "title": "...",
  "position": "...",
  "summary": "...",
  "skill_matrix": [{"skill": "...", "category": "...", "required": 3, "demonstrated": 2, "motivation": 4, "evidence": "..."}],
  "scores": {"technical": 0, "experience": 0, "communication": 0, "global": 0},
  "strengths": ["..."],
  "areas_to_explore": ["..."],
  "skills_assessment": [{"skill": "...", "level": "...", "evidence": "..."}],
  "key_quotes": ["..."]
}

Transcript:
`, input.Candidate.Name, input.Position.Title, analysisJSON)
	sb.WriteString(transcript)
	return sb.String()
}

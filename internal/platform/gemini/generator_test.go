package gemini

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zspirit/aihm-back/internal/domain"
	"github.com/zspirit/aihm-back/internal/generation"
)

// stubGenerator returns a Generator whose model call is replaced by the
// given function.
func stubGenerator(fn func(ctx context.Context, prompt string) (string, error)) *Generator {
	return &Generator{
		model:    defaultModel,
		logger:   slog.Default(),
		generate: fn,
		generateDoc: func(ctx context.Context, _ []byte, _, prompt string) (string, error) {
			return fn(ctx, prompt)
		},
	}
}

func testPosition() *domain.Position {
	return &domain.Position{
		Title:          "Backend Engineer",
		SeniorityLevel: "senior",
		RequiredSkills: []domain.RequiredSkill{
			{Name: "Go", LevelRequired: 4, Weight: 5, Category: "technical"},
		},
	}
}

func TestStripJSONFence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no fence", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"leading whitespace", "  ```json\n{\"a\":1}\n```  ", `{"a":1}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, stripJSONFence(tc.in))
		})
	}
}

func TestExtractProfile_ParsesStructuredOutput(t *testing.T) {
	t.Parallel()

	g := stubGenerator(func(_ context.Context, _ string) (string, error) {
		return "```json\n{\"name\": \"Jane Doe\", \"skills\": [\"Go\", \"Postgres\"], \"experience_years\": 7}\n```", nil
	})

	profile, err := g.ExtractProfile(context.Background(), []byte("raw cv text"), "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", profile.Name)
	assert.Equal(t, []string{"Go", "Postgres"}, profile.Skills)
	assert.Equal(t, 7, profile.ExperienceYears)
	assert.False(t, profile.ParseError)
}

func TestExtractProfile_FallsBackToRawText(t *testing.T) {
	t.Parallel()

	g := stubGenerator(func(_ context.Context, _ string) (string, error) {
		return "I could not parse this document, sorry!", nil
	})

	profile, err := g.ExtractProfile(context.Background(), []byte("original cv text"), "text/plain")
	require.NoError(t, err, "unparseable output must not fail the extraction")
	assert.True(t, profile.ParseError)
	assert.Equal(t, "original cv text", profile.RawText)
	assert.Empty(t, profile.Skills)
}

func TestExtractProfile_BinaryDocumentUsesDocumentPath(t *testing.T) {
	t.Parallel()

	var gotMIME string
	g := stubGenerator(func(_ context.Context, _ string) (string, error) {
		t.Fatal("binary documents must not take the text prompt path")
		return "", nil
	})
	g.generateDoc = func(_ context.Context, document []byte, mimeType, _ string) (string, error) {
		gotMIME = mimeType
		assert.Equal(t, []byte{0x25, 0x50, 0x44, 0x46}, document)
		return `{"name": "Jane Doe"}`, nil
	}

	profile, err := g.ExtractProfile(context.Background(), []byte{0x25, 0x50, 0x44, 0x46}, "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", gotMIME)
	assert.Equal(t, "Jane Doe", profile.Name)
}

func TestScoreCandidate_ParsesScore(t *testing.T) {
	t.Parallel()

	g := stubGenerator(func(_ context.Context, _ string) (string, error) {
		return `{"score": 72.5, "explanation": {"skills_match": {"score": 80, "matched": ["Go"]}, "experience_match": {"score": 65}, "education_match": {"score": 70}}}`, nil
	})

	result, err := g.ScoreCandidate(context.Background(), &domain.CVProfile{}, testPosition())
	require.NoError(t, err)
	assert.InDelta(t, 72.5, result.Score, 0.001)
	assert.Equal(t, 80, result.Explanation.SkillsMatch.Score)
	assert.False(t, result.Failed())
}

func TestScoreCandidate_ZeroScoreFallback(t *testing.T) {
	t.Parallel()

	g := stubGenerator(func(_ context.Context, _ string) (string, error) {
		return "not json at all", nil
	})

	result, err := g.ScoreCandidate(context.Background(), &domain.CVProfile{}, testPosition())
	require.NoError(t, err, "unparseable scoring output must not fail the call")
	assert.Zero(t, result.Score)
	assert.True(t, result.Failed())
}

func TestScoreCandidate_ClampsOutOfRangeScore(t *testing.T) {
	t.Parallel()

	g := stubGenerator(func(_ context.Context, _ string) (string, error) {
		return `{"score": 140, "explanation": {}}`, nil
	})

	result, err := g.ScoreCandidate(context.Background(), &domain.CVProfile{}, testPosition())
	require.NoError(t, err)
	assert.Equal(t, 100.0, result.Score)
}

func TestGenerateQuestions(t *testing.T) {
	t.Parallel()

	g := stubGenerator(func(_ context.Context, _ string) (string, error) {
		return `{"questions": [{"id": 1, "text": "Tell me about a Go service you ran in production.", "skill": "Go"}]}`, nil
	})

	questions, err := g.GenerateQuestions(context.Background(), &domain.CVProfile{}, testPosition())
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "Go", questions[0].Skill)
}

func TestGenerateQuestions_EmptyIsInvalid(t *testing.T) {
	t.Parallel()

	g := stubGenerator(func(_ context.Context, _ string) (string, error) {
		return `{"questions": []}`, nil
	})

	_, err := g.GenerateQuestions(context.Background(), &domain.CVProfile{}, testPosition())
	assert.ErrorIs(t, err, generation.ErrInvalidResponse)
}

func TestAnalyzeTranscript(t *testing.T) {
	t.Parallel()

	g := stubGenerator(func(_ context.Context, _ string) (string, error) {
		return `{"skill_scores": [{"skill": "Go", "level_required": 4, "demonstrated": 3, "motivation": 5}], "scores": {"technical": 70, "experience": 60, "communication": 75, "global": 68}}`, nil
	})

	result, err := g.AnalyzeTranscript(context.Background(), "transcript text", testPosition())
	require.NoError(t, err)
	require.Len(t, result.SkillScores, 1)
	assert.Equal(t, 3, result.SkillScores[0].Demonstrated)
	assert.Equal(t, 68, result.Scores.Global)
}

func TestAnalyzeTranscript_InvalidOutput(t *testing.T) {
	t.Parallel()

	g := stubGenerator(func(_ context.Context, _ string) (string, error) {
		return "nope", nil
	})

	_, err := g.AnalyzeTranscript(context.Background(), "transcript", testPosition())
	assert.ErrorIs(t, err, generation.ErrInvalidResponse)
}

func TestGenerateReport(t *testing.T) {
	t.Parallel()

	g := stubGenerator(func(_ context.Context, _ string) (string, error) {
		return `{"title": "Evaluation", "position": "Backend Engineer", "summary": "Solid interview.", "scores": {"global": 70}, "key_quotes": ["I led the migration."]}`, nil
	})

	content, err := g.GenerateReport(context.Background(), generation.ReportInput{
		Candidate: &domain.Candidate{Name: "Jane"},
		Position:  testPosition(),
		Analysis:  &domain.AnalysisResult{},
	})
	require.NoError(t, err)
	assert.Equal(t, "Evaluation", content.Title)
	assert.Len(t, content.KeyQuotes, 1)
}

func TestGenerator_PropagatesModelErrors(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("api unavailable")
	g := stubGenerator(func(_ context.Context, _ string) (string, error) {
		return "", wantErr
	})

	_, err := g.ExtractProfile(context.Background(), []byte("cv"), "text/plain")
	assert.ErrorIs(t, err, wantErr)

	_, err = g.ScoreCandidate(context.Background(), &domain.CVProfile{}, testPosition())
	assert.ErrorIs(t, err, wantErr)
}

package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/zspirit/aihm-back/internal/config"
	"github.com/zspirit/aihm-back/internal/domain"
	"github.com/zspirit/aihm-back/internal/generation"
)

const defaultModel = "gemini-2.0-flash"

// Generator implements generation.Generator against the Gemini API.
type Generator struct {
	client *genai.Client
	model  string
	logger *slog.Logger

	// generate and generateDoc are the raw model calls. Tests replace
	// them to avoid network access.
	generate    func(ctx context.Context, prompt string) (string, error)
	generateDoc func(ctx context.Context, document []byte, mimeType, prompt string) (string, error)
}

// NewGenerator creates a Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (*Generator, error) {
	apiKey := strings.TrimSpace(cfg.GeminiAPIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: gemini api key is required", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	g := &Generator{
		client: client,
		model:  model,
		logger: logger.With(slog.String("component", "gemini_generator")),
	}
	g.generate = g.generateContent
	g.generateDoc = g.generateDocumentContent
	return g, nil
}

// Ensure Generator implements generation.Generator
var _ generation.Generator = (*Generator)(nil)

// ExtractProfile implements generation.Generator.ExtractProfile
// Textual documents are embedded in the prompt; binary formats (PDF, DOCX)
// are sent to the model as inline document parts. A model response that
// cannot be parsed does not fail the call: the pipeline continues with a
// degraded profile.
func (g *Generator) ExtractProfile(ctx context.Context, document []byte, mimeType string) (*domain.CVProfile, error) {
	var raw string
	var err error
	textual := isTextualMIMEType(mimeType)
	if textual {
		raw, err = g.generate(ctx, extractProfilePrompt(string(document)))
	} else {
		raw, err = g.generateDoc(ctx, document, mimeType, extractProfileInstruction())
	}
	if err != nil {
		return nil, err
	}

	var profile domain.CVProfile
	if err := decodeJSONResponse(raw, &profile); err != nil {
		g.logger.Warn("cv profile extraction returned unparseable output",
			slog.String("mime_type", mimeType),
			slog.String("error", err.Error()))
		fallback := &domain.CVProfile{ParseError: true}
		if textual {
			fallback.RawText = string(document)
		}
		return fallback, nil
	}

	return &profile, nil
}

func isTextualMIMEType(mimeType string) bool {
	return mimeType == "" || strings.HasPrefix(mimeType, "text/")
}

// ScoreCandidate implements generation.Generator.ScoreCandidate
// Parse failures yield the zero-score fallback rather than an error, so a
// malformed model response never aborts the pipeline stage.
func (g *Generator) ScoreCandidate(
	ctx context.Context,
	profile *domain.CVProfile,
	position *domain.Position,
) (*domain.ScoreResult, error) {
	raw, err := g.generate(ctx, scorePrompt(profile, position))
	if err != nil {
		return nil, err
	}

	var result domain.ScoreResult
	if err := decodeJSONResponse(raw, &result); err != nil {
		g.logger.Warn("cv scoring returned unparseable output, using zero-score fallback",
			slog.String("error", err.Error()))
		return &domain.ScoreResult{
			Score:       0,
			Explanation: domain.ScoreBreakdown{Error: "scoring failed: unparseable model output"},
		}, nil
	}

	if result.Score < 0 {
		result.Score = 0
	}
	if result.Score > 100 {
		result.Score = 100
	}

	return &result, nil
}

// GenerateQuestions implements generation.Generator.GenerateQuestions
func (g *Generator) GenerateQuestions(
	ctx context.Context,
	profile *domain.CVProfile,
	position *domain.Position,
) ([]domain.Question, error) {
	raw, err := g.generate(ctx, questionsPrompt(profile, position))
	if err != nil {
		return nil, err
	}

	var payload struct {
		Questions []domain.Question `json:"questions"`
	}
	if err := decodeJSONResponse(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: questions: %v", generation.ErrInvalidResponse, err)
	}
	if len(payload.Questions) == 0 {
		return nil, fmt.Errorf("%w: model returned no questions", generation.ErrInvalidResponse)
	}

	return payload.Questions, nil
}

// AnalyzeTranscript implements generation.Generator.AnalyzeTranscript
func (g *Generator) AnalyzeTranscript(
	ctx context.Context,
	transcript string,
	position *domain.Position,
) (*domain.AnalysisResult, error) {
	raw, err := g.generate(ctx, analysisPrompt(transcript, position))
	if err != nil {
		return nil, err
	}

	var result domain.AnalysisResult
	if err := decodeJSONResponse(raw, &result); err != nil {
		return nil, fmt.Errorf("%w: analysis: %v", generation.ErrInvalidResponse, err)
	}

	return &result, nil
}

// GenerateReport implements generation.Generator.GenerateReport
func (g *Generator) GenerateReport(ctx context.Context, input generation.ReportInput) (*domain.ReportContent, error) {
	raw, err := g.generate(ctx, reportPrompt(input))
	if err != nil {
		return nil, err
	}

	var content domain.ReportContent
	if err := decodeJSONResponse(raw, &content); err != nil {
		return nil, fmt.Errorf("%w: report: %v", generation.ErrInvalidResponse, err)
	}

	return &content, nil
}

// generateContent sends the prompt to Gemini and returns the concatenated
// textual response.
func (g *Generator) generateContent(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", mapAPIError(err)
	}
	return textFromResponse(resp)
}

// generateDocumentContent sends a binary document plus instruction to
// Gemini as a multimodal request.
func (g *Generator) generateDocumentContent(ctx context.Context, document []byte, mimeType, prompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(document, mimeType),
			genai.NewPartFromText(prompt),
		}, genai.RoleUser),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", mapAPIError(err)
	}
	return textFromResponse(resp)
}

func textFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(part.Text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", fmt.Errorf("%w: empty response", generation.ErrInvalidResponse)
	}

	return output, nil
}

// mapAPIError classifies Gemini API failures so the task runner knows what
// is worth retrying.
func mapAPIError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == 429 || apiErr.Code >= 500:
			return fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
		case apiErr.Code == 400 && strings.Contains(strings.ToLower(apiErr.Message), "safety"):
			return fmt.Errorf("%w: %v", generation.ErrContentBlocked, err)
		}
	}
	return fmt.Errorf("%w: %v", generation.ErrGenerationFailed, err)
}

// decodeJSONResponse strips markdown code fences the model tends to wrap
// JSON in, then unmarshals into v.
func decodeJSONResponse(raw string, v any) error {
	cleaned := stripJSONFence(raw)
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return fmt.Errorf("failed to decode model output: %w", err)
	}
	return nil
}

// stripJSONFence removes a surrounding ```json ... ``` (or plain ```) fence.
func stripJSONFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

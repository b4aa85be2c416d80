package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/zspirit/aihm-back/internal/domain"
	"github.com/zspirit/aihm-back/internal/events"
	"github.com/zspirit/aihm-back/internal/generation"
	"github.com/zspirit/aihm-back/internal/platform/logger"
	"github.com/zspirit/aihm-back/internal/store"
	"github.com/zspirit/aihm-back/internal/task"
)

// AnalyzeStage evaluates the interview transcript against the position's
// requirements and marks the candidate evaluated.
type AnalyzeStage struct {
	interviews store.InterviewStore
	candidates store.CandidateStore
	positions  store.PositionStore
	artifacts  store.ArtifactStore
	generator  generation.Generator
	logger     *slog.Logger
}

// NewAnalyzeStage creates the analysis.analyze stage handler.
func NewAnalyzeStage(
	interviews store.InterviewStore,
	candidates store.CandidateStore,
	positions store.PositionStore,
	artifacts store.ArtifactStore,
	generator generation.Generator,
	log *slog.Logger,
) *AnalyzeStage {
	return &AnalyzeStage{
		interviews: interviews,
		candidates: candidates,
		positions:  positions,
		artifacts:  artifacts,
		generator:  generator,
		logger:     log.With(slog.String("component", "stage_analyze")),
	}
}

// Stage implements Handler.Stage
func (s *AnalyzeStage) Stage() string { return events.StageAnalyze }

// Successors implements Handler.Successors
func (s *AnalyzeStage) Successors() []string { return []string{events.StageGenerateReport} }

// Execute implements Handler.Execute
func (s *AnalyzeStage) Execute(ctx context.Context, payload json.RawMessage) ([]Next, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var p events.InterviewPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, task.Permanent(fmt.Errorf("decoding payload: %w", err))
	}

	interview, err := s.interviews.GetByID(ctx, p.InterviewID)
	if err != nil {
		if errors.Is(err, store.ErrInterviewNotFound) {
			log.Warn("interview no longer exists, skipping",
				slog.String("interview_id", p.InterviewID.String()))
			return nil, nil
		}
		return nil, fmt.Errorf("loading interview: %w", err)
	}

	next := []Next{{Stage: events.StageGenerateReport, Payload: events.InterviewPayload{InterviewID: interview.ID}}}

	if _, err := s.artifacts.GetAnalysis(ctx, interview.ID); err == nil {
		log.Info("interview already analyzed, re-enqueueing report",
			slog.String("interview_id", interview.ID.String()))
		return next, nil
	} else if !store.IsNotFoundError(err) {
		return nil, fmt.Errorf("checking existing analysis: %w", err)
	}

	transcription, err := s.artifacts.GetTranscription(ctx, interview.ID)
	if err != nil {
		return nil, fmt.Errorf("loading transcription: %w", err)
	}

	position, err := s.positions.GetByID(ctx, interview.PositionID)
	if err != nil {
		return nil, fmt.Errorf("loading position: %w", err)
	}

	result, err := s.generator.AnalyzeTranscript(ctx, transcription.FullText, position)
	if err != nil {
		return nil, fmt.Errorf("analyzing transcript: %w", err)
	}

	analysis, err := domain.NewAnalysis(interview.ID, *result)
	if err != nil {
		return nil, task.Permanent(fmt.Errorf("building analysis: %w", err))
	}
	if err := s.artifacts.CreateAnalysis(ctx, analysis); err != nil {
		if errors.Is(err, store.ErrDuplicateArtifact) {
			log.Info("analysis raced with another worker, continuing",
				slog.String("interview_id", interview.ID.String()))
			return next, nil
		}
		return nil, fmt.Errorf("saving analysis: %w", err)
	}

	candidate, err := s.candidates.GetByID(ctx, interview.CandidateID)
	if err != nil {
		return nil, fmt.Errorf("loading candidate: %w", err)
	}
	if err := candidate.AdvanceTo(domain.PipelineStatusEvaluated); err != nil {
		if !errors.Is(err, domain.ErrStatusRegression) {
			return nil, fmt.Errorf("advancing candidate status: %w", err)
		}
	} else if err := s.candidates.UpdatePipelineStatus(ctx, candidate.ID, candidate.PipelineStatus); err != nil {
		return nil, fmt.Errorf("updating candidate status: %w", err)
	}

	log.Info("interview analyzed",
		slog.String("interview_id", interview.ID.String()),
		slog.String("candidate_id", interview.CandidateID.String()))
	return next, nil
}

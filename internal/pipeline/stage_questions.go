package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/zspirit/aihm-back/internal/events"
	"github.com/zspirit/aihm-back/internal/generation"
	"github.com/zspirit/aihm-back/internal/platform/logger"
	"github.com/zspirit/aihm-back/internal/store"
	"github.com/zspirit/aihm-back/internal/task"
)

// QuestionsStage warms up the interview question set for a freshly scored
// candidate. The questions that are actually asked are generated and
// persisted per interview at call time, from the same profile and position;
// running the generation here surfaces profile or model problems while the
// recruiter still sees the candidate as fresh, instead of at dial time.
type QuestionsStage struct {
	candidates store.CandidateStore
	positions  store.PositionStore
	generator  generation.Generator
	logger     *slog.Logger
}

// NewQuestionsStage creates the questions.generate stage handler.
func NewQuestionsStage(
	candidates store.CandidateStore,
	positions store.PositionStore,
	generator generation.Generator,
	log *slog.Logger,
) *QuestionsStage {
	return &QuestionsStage{
		candidates: candidates,
		positions:  positions,
		generator:  generator,
		logger:     log.With(slog.String("component", "stage_questions")),
	}
}

// Stage implements Handler.Stage
func (s *QuestionsStage) Stage() string { return events.StageGenerateQuestions }

// Successors implements Handler.Successors
func (s *QuestionsStage) Successors() []string { return nil }

// Execute implements Handler.Execute
func (s *QuestionsStage) Execute(ctx context.Context, payload json.RawMessage) ([]Next, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var p events.CandidatePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, task.Permanent(fmt.Errorf("decoding payload: %w", err))
	}

	candidate, err := s.candidates.GetByID(ctx, p.CandidateID)
	if err != nil {
		if errors.Is(err, store.ErrCandidateNotFound) {
			log.Warn("candidate no longer exists, skipping",
				slog.String("candidate_id", p.CandidateID.String()))
			return nil, nil
		}
		return nil, fmt.Errorf("loading candidate: %w", err)
	}

	position, err := s.positions.GetByID(ctx, candidate.PositionID)
	if err != nil {
		return nil, fmt.Errorf("loading position: %w", err)
	}

	questions, err := s.generator.GenerateQuestions(ctx, candidate.CVProfile, position)
	if err != nil {
		return nil, fmt.Errorf("generating questions: %w", err)
	}

	log.Info("interview questions prepared",
		slog.String("candidate_id", candidate.ID.String()),
		slog.Int("question_count", len(questions)))
	return nil, nil
}

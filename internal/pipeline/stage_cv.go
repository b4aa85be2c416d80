package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/zspirit/aihm-back/internal/domain"
	"github.com/zspirit/aihm-back/internal/events"
	"github.com/zspirit/aihm-back/internal/generation"
	"github.com/zspirit/aihm-back/internal/platform/logger"
	"github.com/zspirit/aihm-back/internal/storage"
	"github.com/zspirit/aihm-back/internal/store"
	"github.com/zspirit/aihm-back/internal/task"
	"github.com/zspirit/aihm-back/internal/webhook"
)

// CVProcessStage extracts a structured profile from the candidate's CV,
// scores it against the position, and routes the candidate based on the
// position's automation thresholds.
type CVProcessStage struct {
	candidates store.CandidateStore
	positions  store.PositionStore
	blobs      storage.BlobStore
	generator  generation.Generator
	dispatcher webhook.Dispatcher
	logger     *slog.Logger
}

// NewCVProcessStage creates the cv.process stage handler.
func NewCVProcessStage(
	candidates store.CandidateStore,
	positions store.PositionStore,
	blobs storage.BlobStore,
	generator generation.Generator,
	dispatcher webhook.Dispatcher,
	log *slog.Logger,
) *CVProcessStage {
	return &CVProcessStage{
		candidates: candidates,
		positions:  positions,
		blobs:      blobs,
		generator:  generator,
		dispatcher: dispatcher,
		logger:     log.With(slog.String("component", "stage_cv_process")),
	}
}

// Stage implements Handler.Stage
func (s *CVProcessStage) Stage() string { return events.StageProcessCV }

// Successors implements Handler.Successors
func (s *CVProcessStage) Successors() []string {
	return []string{events.StageGenerateQuestions, events.StageNotifyConsent}
}

// Execute implements Handler.Execute
func (s *CVProcessStage) Execute(ctx context.Context, payload json.RawMessage) ([]Next, error) {
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
	if candidate.CVFilePath == "" {
		log.Warn("candidate has no CV, skipping",
			slog.String("candidate_id", candidate.ID.String()))
		return nil, nil
	}
	// A redelivered task for an already scored candidate must not rescore
	// or regress the status.
	if candidate.PipelineStatus != domain.PipelineStatusNew &&
		candidate.PipelineStatus != domain.PipelineStatusCVUploaded {
		log.Info("candidate already processed, skipping",
			slog.String("candidate_id", candidate.ID.String()),
			slog.String("pipeline_status", string(candidate.PipelineStatus)))
		return nil, nil
	}

	position, err := s.positions.GetByID(ctx, candidate.PositionID)
	if err != nil {
		return nil, fmt.Errorf("loading position: %w", err)
	}

	document, err := s.blobs.Download(ctx, candidate.CVFilePath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, task.Permanent(fmt.Errorf("CV blob %s is gone: %w", candidate.CVFilePath, err))
		}
		return nil, fmt.Errorf("downloading CV: %w", err)
	}

	profile, err := s.generator.ExtractProfile(ctx, document, mimeTypeForPath(candidate.CVFilePath))
	if err != nil {
		return nil, fmt.Errorf("extracting CV profile: %w", err)
	}

	result, err := s.generator.ScoreCandidate(ctx, profile, position)
	if err != nil {
		return nil, fmt.Errorf("scoring candidate: %w", err)
	}

	candidate.CVProfile = profile
	candidate.CVScore = &result.Score
	candidate.CVScoreExplanation = &result.Explanation
	if err := candidate.AdvanceTo(domain.PipelineStatusCVAnalyzed); err != nil {
		return nil, task.Permanent(fmt.Errorf("advancing candidate status: %w", err))
	}

	next := s.route(log, candidate, position, result.Score)

	if err := s.candidates.Update(ctx, candidate); err != nil {
		return nil, fmt.Errorf("saving candidate: %w", err)
	}

	log.Info("cv processed",
		slog.String("candidate_id", candidate.ID.String()),
		slog.Float64("score", result.Score),
		slog.String("pipeline_status", string(candidate.PipelineStatus)))

	s.dispatcher.Dispatch(ctx, candidate.TenantID, domain.EventCVScored, map[string]any{
		"candidate_id": candidate.ID,
		"position_id":  candidate.PositionID,
		"score":        result.Score,
	})
	return next, nil
}

// route applies the position's automation thresholds and returns the
// successor stages. The candidate's status is mutated, not persisted.
func (s *CVProcessStage) route(log *slog.Logger, candidate *domain.Candidate, position *domain.Position, score float64) []Next {
	rejectSet := position.AutoRejectThreshold != nil
	advanceSet := position.AutoAdvanceThreshold != nil
	candidatePayload := events.CandidatePayload{CandidateID: candidate.ID}

	switch {
	case rejectSet && score < *position.AutoRejectThreshold:
		candidate.PipelineStatus = domain.PipelineStatusRejected
		log.Info("candidate auto-rejected",
			slog.String("candidate_id", candidate.ID.String()),
			slog.Float64("score", score),
			slog.Float64("threshold", *position.AutoRejectThreshold))
		return nil

	case advanceSet && score >= *position.AutoAdvanceThreshold:
		candidate.PipelineStatus = domain.PipelineStatusInvited
		log.Info("candidate auto-advanced",
			slog.String("candidate_id", candidate.ID.String()),
			slog.Float64("score", score),
			slog.Float64("threshold", *position.AutoAdvanceThreshold))
		return []Next{
			{Stage: events.StageGenerateQuestions, Payload: candidatePayload},
			{Stage: events.StageNotifyConsent, Payload: candidatePayload},
		}

	case !rejectSet && !advanceSet:
		// No automation configured: invite every scored candidate.
		return []Next{
			{Stage: events.StageGenerateQuestions, Payload: candidatePayload},
			{Stage: events.StageNotifyConsent, Payload: candidatePayload},
		}

	default:
		// A threshold exists but did not fire: prepare questions and let
		// the recruiter decide whether to invite.
		return []Next{
			{Stage: events.StageGenerateQuestions, Payload: candidatePayload},
		}
	}
}

func mimeTypeForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".doc":
		return "application/msword"
	default:
		return "text/plain"
	}
}

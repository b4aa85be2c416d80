package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"

	"github.com/zspirit/aihm-back/internal/domain"
	"github.com/zspirit/aihm-back/internal/events"
	"github.com/zspirit/aihm-back/internal/platform/logger"
	"github.com/zspirit/aihm-back/internal/storage"
	"github.com/zspirit/aihm-back/internal/store"
	"github.com/zspirit/aihm-back/internal/task"
	"github.com/zspirit/aihm-back/internal/transcribe"
)

// TranscribeStage turns the stored call recording into a transcript and
// hands the interview on to analysis.
type TranscribeStage struct {
	interviews  store.InterviewStore
	artifacts   store.ArtifactStore
	blobs       storage.BlobStore
	transcriber transcribe.Transcriber
	logger      *slog.Logger
}

// NewTranscribeStage creates the transcription.transcribe stage handler.
func NewTranscribeStage(
	interviews store.InterviewStore,
	artifacts store.ArtifactStore,
	blobs storage.BlobStore,
	transcriber transcribe.Transcriber,
	log *slog.Logger,
) *TranscribeStage {
	return &TranscribeStage{
		interviews:  interviews,
		artifacts:   artifacts,
		blobs:       blobs,
		transcriber: transcriber,
		logger:      log.With(slog.String("component", "stage_transcribe")),
	}
}

// Stage implements Handler.Stage
func (s *TranscribeStage) Stage() string { return events.StageTranscribe }

// Successors implements Handler.Successors
func (s *TranscribeStage) Successors() []string { return []string{events.StageAnalyze} }

// Execute implements Handler.Execute
func (s *TranscribeStage) Execute(ctx context.Context, payload json.RawMessage) ([]Next, error) {
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

	next := []Next{{Stage: events.StageAnalyze, Payload: events.InterviewPayload{InterviewID: interview.ID}}}

	// A redelivered task after a crash between insert and enqueue must
	// still trigger analysis.
	if _, err := s.artifacts.GetTranscription(ctx, interview.ID); err == nil {
		log.Info("interview already transcribed, re-enqueueing analysis",
			slog.String("interview_id", interview.ID.String()))
		return next, nil
	} else if !store.IsNotFoundError(err) {
		return nil, fmt.Errorf("checking existing transcription: %w", err)
	}

	if interview.AudioFilePath == "" {
		return nil, task.Permanent(fmt.Errorf("interview %s has no stored recording", interview.ID))
	}

	audio, err := s.blobs.Download(ctx, interview.AudioFilePath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, task.Permanent(fmt.Errorf("recording blob %s is gone: %w", interview.AudioFilePath, err))
		}
		return nil, fmt.Errorf("downloading recording: %w", err)
	}

	result, err := s.transcriber.Transcribe(ctx, audio, path.Base(interview.AudioFilePath))
	if err != nil {
		if errors.Is(err, transcribe.ErrTranscriptionFailed) {
			return nil, task.Permanent(err)
		}
		return nil, fmt.Errorf("transcribing interview %s: %w", interview.ID, err)
	}

	transcription, err := domain.NewTranscription(interview.ID, result.Text, result.Segments, result.Language, result.Confidence)
	if err != nil {
		return nil, task.Permanent(fmt.Errorf("building transcription: %w", err))
	}

	if err := s.artifacts.CreateTranscription(ctx, transcription); err != nil {
		if errors.Is(err, store.ErrDuplicateArtifact) {
			log.Info("transcription raced with another worker, continuing",
				slog.String("interview_id", interview.ID.String()))
			return next, nil
		}
		return nil, fmt.Errorf("saving transcription: %w", err)
	}

	log.Info("interview transcribed",
		slog.String("interview_id", interview.ID.String()),
		slog.String("language", result.Language),
		slog.Int("segment_count", len(result.Segments)))
	return next, nil
}

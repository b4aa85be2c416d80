package telephony

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/zspirit/aihm-back/internal/domain"
	"github.com/zspirit/aihm-back/internal/events"
	"github.com/zspirit/aihm-back/internal/platform/logger"
	"github.com/zspirit/aihm-back/internal/storage"
	"github.com/zspirit/aihm-back/internal/store"
	"github.com/zspirit/aihm-back/internal/webhook"
)

// Reconciler applies provider-side call outcomes to interviews. It serves
// the provider's status and recording callbacks, and periodically polls the
// provider for calls whose callbacks never arrived.
type Reconciler struct {
	interviews store.InterviewStore
	candidates store.CandidateStore
	provider   Provider
	blobs      storage.BlobStore
	dispatcher webhook.Dispatcher
	emitter    events.EventEmitter
	logger     *slog.Logger
}

// NewReconciler creates a Reconciler. All dependencies are required.
func NewReconciler(
	interviews store.InterviewStore,
	candidates store.CandidateStore,
	provider Provider,
	blobs storage.BlobStore,
	dispatcher webhook.Dispatcher,
	emitter events.EventEmitter,
	log *slog.Logger,
) *Reconciler {
	if interviews == nil || candidates == nil || provider == nil ||
		blobs == nil || dispatcher == nil || emitter == nil {
		panic("reconciler dependencies cannot be nil")
	}
	if log == nil {
		panic("logger cannot be nil")
	}
	return &Reconciler{
		interviews: interviews,
		candidates: candidates,
		provider:   provider,
		blobs:      blobs,
		dispatcher: dispatcher,
		emitter:    emitter,
		logger:     log.With(slog.String("component", "call_reconciler")),
	}
}

// HandleStatus applies a call status update keyed by the provider call ID.
// Unknown call IDs and non-terminal statuses are no-ops, as are replays on
// interviews that already reached a terminal state.
func (r *Reconciler) HandleStatus(ctx context.Context, callID, callStatus string, durationSeconds int) error {
	log := logger.FromContextOrDefault(ctx, r.logger)
	log.Info("call status update",
		slog.String("call_id", callID),
		slog.String("status", callStatus),
		slog.Int("duration_seconds", durationSeconds))

	interview, err := r.interviews.GetByProviderCallID(ctx, callID)
	if err != nil {
		if errors.Is(err, store.ErrInterviewNotFound) {
			log.Warn("status update for unknown call", slog.String("call_id", callID))
			return nil
		}
		return fmt.Errorf("looking up interview for call %s: %w", callID, err)
	}

	mapped, terminal := MapCallStatus(callStatus)
	if !terminal {
		log.Debug("ignoring non-terminal call status",
			slog.String("call_id", callID),
			slog.String("status", callStatus))
		return nil
	}
	if interview.IsTerminal() {
		log.Debug("replayed status update on terminal interview",
			slog.String("interview_id", interview.ID.String()))
		return nil
	}

	now := time.Now().UTC()
	interview.Status = mapped
	interview.EndedAt = &now
	if durationSeconds > 0 {
		interview.DurationSeconds = &durationSeconds
	}
	if err := r.interviews.Update(ctx, interview); err != nil {
		return fmt.Errorf("updating interview %s: %w", interview.ID, err)
	}

	if mapped != domain.InterviewStatusCompleted {
		return nil
	}

	candidate, err := r.candidates.GetByID(ctx, interview.CandidateID)
	if err != nil {
		return fmt.Errorf("loading candidate %s: %w", interview.CandidateID, err)
	}
	if err := candidate.AdvanceTo(domain.PipelineStatusCallDone); err != nil {
		// The recording callback can land first and drive the candidate
		// all the way to evaluated before this status update arrives. A
		// late callback must not pull the candidate backwards.
		if !errors.Is(err, domain.ErrStatusRegression) {
			return fmt.Errorf("advancing candidate %s: %w", candidate.ID, err)
		}
		log.Debug("late status callback, candidate already past call_done",
			slog.String("candidate_id", candidate.ID.String()),
			slog.String("status", string(candidate.PipelineStatus)))
	} else if err := r.candidates.UpdatePipelineStatus(ctx, candidate.ID, candidate.PipelineStatus); err != nil {
		return fmt.Errorf("updating candidate %s: %w", candidate.ID, err)
	}

	r.dispatcher.Dispatch(ctx, interview.TenantID, domain.EventInterviewCompleted, map[string]any{
		"interview_id": interview.ID,
		"candidate_id": interview.CandidateID,
		"duration":     durationSeconds,
	})
	return nil
}

// HandleRecording downloads the finished call's audio, stores it, and
// enqueues transcription. This is the sole trigger of the transcription
// chain; it tolerates arriving before or after the status callback. An
// interview that already has audio is left untouched.
func (r *Reconciler) HandleRecording(ctx context.Context, callID, recordingURL, recordingID string) error {
	log := logger.FromContextOrDefault(ctx, r.logger)
	log.Info("recording ready",
		slog.String("call_id", callID),
		slog.String("recording_id", recordingID))

	interview, err := r.interviews.GetByProviderCallID(ctx, callID)
	if err != nil {
		if errors.Is(err, store.ErrInterviewNotFound) {
			log.Warn("recording for unknown call", slog.String("call_id", callID))
			return nil
		}
		return fmt.Errorf("looking up interview for call %s: %w", callID, err)
	}
	if interview.AudioFilePath != "" {
		log.Debug("recording already stored",
			slog.String("interview_id", interview.ID.String()))
		return nil
	}

	audio, err := r.provider.DownloadRecording(ctx, recordingURL)
	if err != nil {
		return fmt.Errorf("downloading recording %s: %w", recordingID, err)
	}

	key := storage.RecordingKey(interview.TenantID, interview.ID, recordingID)
	if err := r.blobs.Upload(ctx, key, audio, "audio/wav"); err != nil {
		return fmt.Errorf("storing recording %s: %w", recordingID, err)
	}

	interview.AudioFilePath = key
	if err := r.interviews.Update(ctx, interview); err != nil {
		return fmt.Errorf("updating interview %s: %w", interview.ID, err)
	}

	event, err := events.NewStageRequestEvent(events.StageTranscribe,
		events.InterviewPayload{InterviewID: interview.ID})
	if err != nil {
		return fmt.Errorf("building transcription event: %w", err)
	}
	if err := r.emitter.EmitEvent(ctx, event); err != nil {
		return fmt.Errorf("enqueueing transcription for interview %s: %w", interview.ID, err)
	}

	log.Info("recording stored and transcription enqueued",
		slog.String("interview_id", interview.ID.String()),
		slog.String("audio_file_path", key))
	return nil
}

// ReconcileStale polls the provider for in-progress interviews that started
// before the cutoff and applies whatever terminal status the provider
// reports. Covers calls whose status callback was lost.
func (r *Reconciler) ReconcileStale(ctx context.Context, cutoff time.Time) error {
	log := logger.FromContextOrDefault(ctx, r.logger)

	stale, err := r.interviews.ListStaleInProgress(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("listing stale interviews: %w", err)
	}
	if len(stale) == 0 {
		return nil
	}

	log.Info("reconciling stale calls", slog.Int("count", len(stale)))
	for _, interview := range stale {
		if interview.CallProviderID == "" {
			continue
		}
		state, err := r.provider.GetCallStatus(ctx, interview.CallProviderID)
		if err != nil {
			if errors.Is(err, ErrCallNotFound) {
				// The provider lost the call entirely; count it as failed.
				state = &CallState{CallID: interview.CallProviderID, Status: "failed"}
			} else {
				log.Warn("failed to poll call status",
					slog.String("call_id", interview.CallProviderID),
					slog.String("error", err.Error()))
				continue
			}
		}
		if err := r.HandleStatus(ctx, state.CallID, state.Status, state.DurationSeconds); err != nil {
			log.Error("failed to reconcile call",
				slog.String("call_id", state.CallID),
				slog.String("error", err.Error()))
		}
	}
	return nil
}

// RunReconcileLoop runs ReconcileStale on the given interval until the
// context is cancelled. Interviews are considered stale once in progress
// for longer than one interval.
func (r *Reconciler) RunReconcileLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.logger.Info("call reconcile loop started",
		slog.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("call reconcile loop stopped")
			return
		case <-ticker.C:
			if err := r.ReconcileStale(ctx, time.Now().UTC().Add(-interval)); err != nil {
				r.logger.Error("call reconciliation failed",
					slog.String("error", err.Error()))
			}
		}
	}
}

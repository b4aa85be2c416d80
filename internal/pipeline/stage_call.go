package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/zspirit/aihm-back/internal/domain"
	"github.com/zspirit/aihm-back/internal/events"
	"github.com/zspirit/aihm-back/internal/generation"
	"github.com/zspirit/aihm-back/internal/platform/logger"
	"github.com/zspirit/aihm-back/internal/store"
	"github.com/zspirit/aihm-back/internal/task"
	"github.com/zspirit/aihm-back/internal/telephony"
)

// How long the provider lets the candidate's phone ring.
const callRingTimeoutSeconds = 30

// CallInitiateStage generates the interview's question set and places the
// outbound call. From here the interview is driven by provider callbacks.
type CallInitiateStage struct {
	interviews store.InterviewStore
	candidates store.CandidateStore
	positions  store.PositionStore
	consents   store.ConsentStore
	generator  generation.Generator
	provider   telephony.Provider
	baseURL    string
	logger     *slog.Logger
}

// NewCallInitiateStage creates the call.initiate stage handler. baseURL is
// the public base URL the provider's callbacks are built from.
func NewCallInitiateStage(
	interviews store.InterviewStore,
	candidates store.CandidateStore,
	positions store.PositionStore,
	consents store.ConsentStore,
	generator generation.Generator,
	provider telephony.Provider,
	baseURL string,
	log *slog.Logger,
) *CallInitiateStage {
	return &CallInitiateStage{
		interviews: interviews,
		candidates: candidates,
		positions:  positions,
		consents:   consents,
		generator:  generator,
		provider:   provider,
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     log.With(slog.String("component", "stage_call_initiate")),
	}
}

// Stage implements Handler.Stage
func (s *CallInitiateStage) Stage() string { return events.StageInitiateCall }

// Successors implements Handler.Successors
// Call progress flows back through provider callbacks, not the stage graph.
func (s *CallInitiateStage) Successors() []string { return nil }

// Execute implements Handler.Execute
func (s *CallInitiateStage) Execute(ctx context.Context, payload json.RawMessage) ([]Next, error) {
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
	if interview.Status != domain.InterviewStatusScheduled {
		log.Info("interview already started, skipping",
			slog.String("interview_id", interview.ID.String()),
			slog.String("status", string(interview.Status)))
		return nil, nil
	}

	candidate, err := s.candidates.GetByID(ctx, interview.CandidateID)
	if err != nil {
		return nil, fmt.Errorf("loading candidate: %w", err)
	}

	// Scheduling already checked these; state may have changed since.
	if candidate.Phone == "" {
		return nil, task.Permanent(fmt.Errorf("candidate %s has no phone number", candidate.ID))
	}
	granted, err := s.consents.HasGranted(ctx, candidate.ID, domain.ConsentTypeCallRecording)
	if err != nil {
		return nil, fmt.Errorf("checking call recording consent: %w", err)
	}
	if !granted {
		return nil, task.Permanent(fmt.Errorf("candidate %s has not consented to call recording", candidate.ID))
	}

	position, err := s.positions.GetByID(ctx, interview.PositionID)
	if err != nil {
		return nil, fmt.Errorf("loading position: %w", err)
	}

	generated, err := s.generator.GenerateQuestions(ctx, candidate.CVProfile, position)
	if err != nil {
		return nil, fmt.Errorf("generating interview questions: %w", err)
	}
	questions := mergeQuestions(position.CustomQuestions, generated)

	callID, err := s.provider.InitiateCall(ctx, telephony.CallRequest{
		To:                   candidate.Phone,
		VoiceURL:             fmt.Sprintf("%s/api/callbacks/telephony/voice?interview_id=%s", s.baseURL, interview.ID),
		StatusCallbackURL:    s.baseURL + "/api/callbacks/telephony/status",
		RecordingCallbackURL: s.baseURL + "/api/callbacks/telephony/recording",
		TimeoutSeconds:       callRingTimeoutSeconds,
	})
	if err != nil {
		if errors.Is(err, telephony.ErrCallFailed) {
			return nil, task.Permanent(fmt.Errorf("provider rejected call: %w", err))
		}
		return nil, fmt.Errorf("initiating call: %w", err)
	}

	now := time.Now().UTC()
	interview.Questions = questions
	interview.CallProviderID = callID
	interview.Status = domain.InterviewStatusInProgress
	interview.StartedAt = &now
	if err := s.interviews.Update(ctx, interview); err != nil {
		return nil, fmt.Errorf("saving interview: %w", err)
	}

	if err := candidate.AdvanceTo(domain.PipelineStatusCallInProgress); err != nil {
		if !errors.Is(err, domain.ErrStatusRegression) {
			return nil, fmt.Errorf("advancing candidate status: %w", err)
		}
	} else if err := s.candidates.UpdatePipelineStatus(ctx, candidate.ID, candidate.PipelineStatus); err != nil {
		return nil, fmt.Errorf("updating candidate status: %w", err)
	}

	log.Info("call initiated",
		slog.String("interview_id", interview.ID.String()),
		slog.String("call_id", callID),
		slog.Int("question_count", len(questions)))
	return nil, nil
}

// mergeQuestions puts the recruiter's custom questions first and renumbers
// the combined list.
func mergeQuestions(custom, generated []domain.Question) []domain.Question {
	merged := make([]domain.Question, 0, len(custom)+len(generated))
	merged = append(merged, custom...)
	merged = append(merged, generated...)
	for i := range merged {
		merged[i].ID = i + 1
	}
	return merged
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/zspirit/aihm-back/internal/domain"
	"github.com/zspirit/aihm-back/internal/events"
	"github.com/zspirit/aihm-back/internal/store"
)

// InterviewService handles interview scheduling.
type InterviewService interface {
	// ScheduleInterview creates the next interview attempt for the
	// candidate and enqueues the outbound call. Precondition violations
	// return ErrMissingPhone, ErrConsentRequired or ErrAttemptLimit.
	ScheduleInterview(ctx context.Context, candidateID uuid.UUID, scheduledAt *time.Time) (*domain.Interview, error)

	// GetInterview retrieves an interview by ID.
	GetInterview(ctx context.Context, id uuid.UUID) (*domain.Interview, error)
}

type interviewService struct {
	interviews store.InterviewStore
	candidates store.CandidateStore
	consents   store.ConsentStore
	tx         store.TxRunner
	emitter    events.EventEmitter
	logger     *slog.Logger
}

// NewInterviewService creates an InterviewService.
// It returns an error if any of the required dependencies are nil.
func NewInterviewService(
	interviews store.InterviewStore,
	candidates store.CandidateStore,
	consents store.ConsentStore,
	tx store.TxRunner,
	emitter events.EventEmitter,
	logger *slog.Logger,
) (InterviewService, error) {
	if interviews == nil || candidates == nil || consents == nil {
		return nil, wrapErr("create_service", "stores cannot be nil", nil)
	}
	if tx == nil {
		return nil, wrapErr("create_service", "tx runner cannot be nil", nil)
	}
	if emitter == nil {
		return nil, wrapErr("create_service", "event emitter cannot be nil", nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &interviewService{
		interviews: interviews,
		candidates: candidates,
		consents:   consents,
		tx:         tx,
		emitter:    emitter,
		logger:     logger.With(slog.String("component", "interview_service")),
	}, nil
}

// ScheduleInterview checks the scheduling preconditions, creates the
// interview row and moves the candidate to call_scheduled in one
// transaction, then enqueues call.initiate.
func (s *interviewService) ScheduleInterview(
	ctx context.Context,
	candidateID uuid.UUID,
	scheduledAt *time.Time,
) (*domain.Interview, error) {
	candidate, err := s.candidates.GetByID(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	if candidate.Phone == "" {
		return nil, ErrMissingPhone
	}
	granted, err := s.consents.HasGranted(ctx, candidate.ID, domain.ConsentTypeCallRecording)
	if err != nil {
		return nil, wrapErr("schedule_interview", "failed to check consent", err)
	}
	if !granted {
		return nil, ErrConsentRequired
	}
	attempts, err := s.interviews.CountByCandidate(ctx, candidate.ID)
	if err != nil {
		return nil, wrapErr("schedule_interview", "failed to count attempts", err)
	}
	if attempts >= domain.MaxInterviewAttempts {
		return nil, ErrAttemptLimit
	}

	interview, err := domain.NewInterview(candidate.ID, candidate.PositionID, candidate.TenantID, scheduledAt, attempts+1)
	if err != nil {
		return nil, err
	}

	err = s.tx.InTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.interviews.WithTx(tx).Create(ctx, interview); err != nil {
			return err
		}
		txCandidates := s.candidates.WithTx(tx)
		if err := candidate.AdvanceTo(domain.PipelineStatusCallScheduled); err != nil {
			// Retry attempts start from a later status; that is fine.
			if !errors.Is(err, domain.ErrStatusRegression) {
				return err
			}
			return nil
		}
		return txCandidates.Update(ctx, candidate)
	})
	if err != nil {
		return nil, wrapErr("schedule_interview", "failed to save interview", err)
	}

	event, err := events.NewStageRequestEvent(events.StageInitiateCall, events.InterviewPayload{InterviewID: interview.ID})
	if err != nil {
		return nil, wrapErr("schedule_interview", "failed to build stage event", err)
	}
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		return nil, wrapErr("schedule_interview", "failed to enqueue call", err)
	}

	s.logger.Info("interview scheduled successfully",
		slog.String("interview_id", interview.ID.String()),
		slog.String("candidate_id", candidate.ID.String()),
		slog.Int("attempt_number", interview.AttemptNumber))
	return interview, nil
}

// GetInterview retrieves an interview by its ID.
func (s *interviewService) GetInterview(ctx context.Context, id uuid.UUID) (*domain.Interview, error) {
	return s.interviews.GetByID(ctx, id)
}

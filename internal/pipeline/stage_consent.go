package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/zspirit/aihm-back/internal/domain"
	"github.com/zspirit/aihm-back/internal/events"
	"github.com/zspirit/aihm-back/internal/notify"
	"github.com/zspirit/aihm-back/internal/platform/logger"
	"github.com/zspirit/aihm-back/internal/store"
	"github.com/zspirit/aihm-back/internal/task"
)

// ConsentNotifyStage emails the candidate an interview invitation carrying
// their consent link. The pipeline pauses here until the candidate grants
// consent through the public endpoint.
type ConsentNotifyStage struct {
	candidates store.CandidateStore
	positions  store.PositionStore
	consents   store.ConsentStore
	sender     notify.EmailSender
	baseURL    string
	tenantName string
	logger     *slog.Logger
}

// NewConsentNotifyStage creates the consent.notify stage handler. baseURL
// is the public base URL consent links are built from.
func NewConsentNotifyStage(
	candidates store.CandidateStore,
	positions store.PositionStore,
	consents store.ConsentStore,
	sender notify.EmailSender,
	baseURL string,
	tenantName string,
	log *slog.Logger,
) *ConsentNotifyStage {
	return &ConsentNotifyStage{
		candidates: candidates,
		positions:  positions,
		consents:   consents,
		sender:     sender,
		baseURL:    strings.TrimRight(baseURL, "/"),
		tenantName: tenantName,
		logger:     log.With(slog.String("component", "stage_consent_notify")),
	}
}

// Stage implements Handler.Stage
func (s *ConsentNotifyStage) Stage() string { return events.StageNotifyConsent }

// Successors implements Handler.Successors
func (s *ConsentNotifyStage) Successors() []string { return nil }

// Execute implements Handler.Execute
func (s *ConsentNotifyStage) Execute(ctx context.Context, payload json.RawMessage) ([]Next, error) {
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
	if candidate.Email == "" {
		log.Warn("candidate has no email address, cannot request consent",
			slog.String("candidate_id", candidate.ID.String()))
		return nil, nil
	}

	consent, err := s.dataProcessingConsent(ctx, candidate.ID)
	if err != nil {
		return nil, err
	}
	if consent == nil {
		log.Warn("candidate has no consent record, skipping",
			slog.String("candidate_id", candidate.ID.String()))
		return nil, nil
	}

	position, err := s.positions.GetByID(ctx, candidate.PositionID)
	if err != nil {
		return nil, fmt.Errorf("loading position: %w", err)
	}

	subject, html, err := notify.BuildConsentEmail(notify.ConsentEmailInput{
		CandidateName: candidate.Name,
		TenantName:    s.tenantName,
		PositionTitle: position.Title,
		ConsentURL:    fmt.Sprintf("%s/consent/%s", s.baseURL, consent.Token),
	})
	if err != nil {
		return nil, task.Permanent(err)
	}
	if err := s.sender.Send(ctx, candidate.Email, subject, html); err != nil {
		return nil, fmt.Errorf("sending consent email: %w", err)
	}

	if candidate.PipelineStatus == domain.PipelineStatusCVAnalyzed {
		if err := candidate.AdvanceTo(domain.PipelineStatusInvited); err != nil {
			return nil, task.Permanent(fmt.Errorf("advancing candidate status: %w", err))
		}
		if err := s.candidates.Update(ctx, candidate); err != nil {
			return nil, fmt.Errorf("saving candidate: %w", err)
		}
	}

	log.Info("consent email sent",
		slog.String("candidate_id", candidate.ID.String()),
		slog.String("to", candidate.Email))
	return nil, nil
}

func (s *ConsentNotifyStage) dataProcessingConsent(ctx context.Context, candidateID uuid.UUID) (*domain.Consent, error) {
	consents, err := s.consents.FindByCandidate(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("loading consents: %w", err)
	}
	for _, c := range consents {
		if c.Type == domain.ConsentTypeDataProcessing {
			return c, nil
		}
	}
	return nil, nil
}

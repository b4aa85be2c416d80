package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/zspirit/aihm-back/internal/domain"
	"github.com/zspirit/aihm-back/internal/store"
	"github.com/zspirit/aihm-back/internal/webhook"
)

// ConsentService handles the public consent grant operation.
type ConsentService interface {
	// GrantConsent marks every pending consent of the token's candidate as
	// granted and moves the candidate to consent_given. Using an
	// already-granted token returns domain.ErrConsentAlreadyGranted.
	GrantConsent(ctx context.Context, token, channel, ipAddress string) (*domain.Candidate, error)

	// GetConsentPage resolves a token to what the public consent page
	// shows before granting. Returns ErrInvalidConsentToken for unknown
	// tokens.
	GetConsentPage(ctx context.Context, token string) (*ConsentPage, error)
}

// ConsentPage is the public view behind a consent link.
type ConsentPage struct {
	CandidateName string
	PositionTitle string
	Granted       bool
}

type consentService struct {
	consents   store.ConsentStore
	candidates store.CandidateStore
	positions  store.PositionStore
	tx         store.TxRunner
	dispatcher webhook.Dispatcher
	logger     *slog.Logger
}

// NewConsentService creates a ConsentService.
// It returns an error if any of the required dependencies are nil.
func NewConsentService(
	consents store.ConsentStore,
	candidates store.CandidateStore,
	positions store.PositionStore,
	tx store.TxRunner,
	dispatcher webhook.Dispatcher,
	logger *slog.Logger,
) (ConsentService, error) {
	if consents == nil || candidates == nil || positions == nil {
		return nil, wrapErr("create_service", "stores cannot be nil", nil)
	}
	if tx == nil {
		return nil, wrapErr("create_service", "tx runner cannot be nil", nil)
	}
	if dispatcher == nil {
		return nil, wrapErr("create_service", "webhook dispatcher cannot be nil", nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &consentService{
		consents:   consents,
		candidates: candidates,
		positions:  positions,
		tx:         tx,
		dispatcher: dispatcher,
		logger:     logger.With(slog.String("component", "consent_service")),
	}, nil
}

// GrantConsent grants all of the candidate's pending consents in one
// transaction and fires the consent.given webhook after commit. One link
// grants everything: the consent page presents both uses together.
func (s *consentService) GrantConsent(
	ctx context.Context,
	token, channel, ipAddress string,
) (*domain.Candidate, error) {
	consent, err := s.consents.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrConsentNotFound) {
			return nil, ErrInvalidConsentToken
		}
		return nil, wrapErr("grant_consent", "failed to load consent", err)
	}
	if consent.Granted {
		return nil, domain.ErrConsentAlreadyGranted
	}

	var candidate *domain.Candidate
	var grantedTypes []string
	err = s.tx.InTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		txConsents := s.consents.WithTx(tx)
		txCandidates := s.candidates.WithTx(tx)

		all, err := txConsents.FindByCandidate(ctx, consent.CandidateID)
		if err != nil {
			return err
		}
		for _, c := range all {
			if c.Granted {
				continue
			}
			if err := c.Grant(channel, ipAddress); err != nil {
				return err
			}
			if err := txConsents.Update(ctx, c); err != nil {
				return err
			}
			grantedTypes = append(grantedTypes, string(c.Type))
		}

		candidate, err = txCandidates.GetByID(ctx, consent.CandidateID)
		if err != nil {
			return err
		}
		if err := candidate.AdvanceTo(domain.PipelineStatusConsentGiven); err != nil {
			// A replay through a second pending token after scheduling
			// must not fail the grant itself.
			if !errors.Is(err, domain.ErrStatusRegression) {
				return err
			}
		} else if err := txCandidates.Update(ctx, candidate); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, wrapErr("grant_consent", "failed to record consent", err)
	}

	s.logger.Info("consent granted successfully",
		slog.String("candidate_id", candidate.ID.String()),
		slog.String("channel", channel),
		slog.Any("types", grantedTypes))

	s.dispatcher.Dispatch(ctx, candidate.TenantID, domain.EventConsentGiven, map[string]any{
		"candidate_id": candidate.ID,
		"types":        grantedTypes,
	})
	return candidate, nil
}

// GetConsentPage resolves a consent token to the candidate and position
// details the public page displays.
func (s *consentService) GetConsentPage(ctx context.Context, token string) (*ConsentPage, error) {
	consent, err := s.consents.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrConsentNotFound) {
			return nil, ErrInvalidConsentToken
		}
		return nil, wrapErr("get_consent_page", "failed to load consent", err)
	}
	candidate, err := s.candidates.GetByID(ctx, consent.CandidateID)
	if err != nil {
		return nil, wrapErr("get_consent_page", "failed to load candidate", err)
	}
	position, err := s.positions.GetByID(ctx, candidate.PositionID)
	if err != nil {
		return nil, wrapErr("get_consent_page", "failed to load position", err)
	}
	return &ConsentPage{
		CandidateName: candidate.Name,
		PositionTitle: position.Title,
		Granted:       consent.Granted,
	}, nil
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/zspirit/aihm-back/internal/domain"
	"github.com/zspirit/aihm-back/internal/events"
	"github.com/zspirit/aihm-back/internal/storage"
	"github.com/zspirit/aihm-back/internal/store"
)

// CandidateService provides candidate intake operations.
type CandidateService interface {
	// CreateCandidate creates a candidate for a position along with both
	// ungranted consent records.
	CreateCandidate(ctx context.Context, tenantID, positionID uuid.UUID, name, email, phone string) (*domain.Candidate, error)

	// UploadCV stores the CV document and enqueues CV processing. The
	// candidate must not have been scored yet.
	UploadCV(ctx context.Context, candidateID uuid.UUID, filename string, content []byte, contentType string) (*domain.Candidate, error)

	// GetCandidate retrieves a candidate by ID.
	GetCandidate(ctx context.Context, id uuid.UUID) (*domain.Candidate, error)
}

type candidateService struct {
	candidates store.CandidateStore
	positions  store.PositionStore
	consents   store.ConsentStore
	blobs      storage.BlobStore
	tx         store.TxRunner
	emitter    events.EventEmitter
	logger     *slog.Logger
}

// NewCandidateService creates a CandidateService.
// It returns an error if any of the required dependencies are nil.
func NewCandidateService(
	candidates store.CandidateStore,
	positions store.PositionStore,
	consents store.ConsentStore,
	blobs storage.BlobStore,
	tx store.TxRunner,
	emitter events.EventEmitter,
	logger *slog.Logger,
) (CandidateService, error) {
	if candidates == nil || positions == nil || consents == nil {
		return nil, wrapErr("create_service", "stores cannot be nil", nil)
	}
	if blobs == nil {
		return nil, wrapErr("create_service", "blob store cannot be nil", nil)
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
	return &candidateService{
		candidates: candidates,
		positions:  positions,
		consents:   consents,
		blobs:      blobs,
		tx:         tx,
		emitter:    emitter,
		logger:     logger.With(slog.String("component", "candidate_service")),
	}, nil
}

// CreateCandidate creates the candidate row and its two pending consents in
// one transaction.
func (s *candidateService) CreateCandidate(
	ctx context.Context,
	tenantID, positionID uuid.UUID,
	name, email, phone string,
) (*domain.Candidate, error) {
	position, err := s.positions.GetByID(ctx, positionID)
	if err != nil {
		if errors.Is(err, store.ErrPositionNotFound) {
			return nil, err
		}
		return nil, wrapErr("create_candidate", "failed to load position", err)
	}
	if position.TenantID != tenantID {
		return nil, store.ErrPositionNotFound
	}

	candidate, err := domain.NewCandidate(tenantID, positionID, name, email, phone)
	if err != nil {
		return nil, err
	}

	err = s.tx.InTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.candidates.WithTx(tx).Create(ctx, candidate); err != nil {
			return err
		}
		txConsents := s.consents.WithTx(tx)
		for _, consentType := range domain.AllConsentTypes {
			consent, err := domain.NewConsent(candidate.ID, consentType)
			if err != nil {
				return err
			}
			if err := txConsents.Create(ctx, consent); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, wrapErr("create_candidate", "failed to save candidate", err)
	}

	s.logger.Info("candidate created successfully",
		slog.String("candidate_id", candidate.ID.String()),
		slog.String("position_id", positionID.String()))
	return candidate, nil
}

// UploadCV stores the document, marks the candidate cv_uploaded and emits
// the cv.process stage request after the row is committed.
func (s *candidateService) UploadCV(
	ctx context.Context,
	candidateID uuid.UUID,
	filename string,
	content []byte,
	contentType string,
) (*domain.Candidate, error) {
	candidate, err := s.candidates.GetByID(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	if candidate.PipelineStatus != domain.PipelineStatusNew &&
		candidate.PipelineStatus != domain.PipelineStatusCVUploaded {
		return nil, ErrCVAlreadyProcessed
	}

	key := storage.CVKey(candidate.TenantID, candidate.ID, filename)
	if err := s.blobs.Upload(ctx, key, content, contentType); err != nil {
		return nil, wrapErr("upload_cv", "failed to store CV", err)
	}

	candidate.CVFilePath = key
	if candidate.PipelineStatus == domain.PipelineStatusNew {
		if err := candidate.AdvanceTo(domain.PipelineStatusCVUploaded); err != nil {
			return nil, err
		}
	}
	if err := s.candidates.Update(ctx, candidate); err != nil {
		return nil, wrapErr("upload_cv", "failed to save candidate", err)
	}

	event, err := events.NewStageRequestEvent(events.StageProcessCV, events.CandidatePayload{CandidateID: candidate.ID})
	if err != nil {
		return nil, wrapErr("upload_cv", "failed to build stage event", err)
	}
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		return nil, wrapErr("upload_cv", "failed to enqueue cv processing", err)
	}

	s.logger.Info("cv uploaded and processing enqueued",
		slog.String("candidate_id", candidate.ID.String()),
		slog.String("cv_file_path", key),
		slog.Int("size_bytes", len(content)))
	return candidate, nil
}

// GetCandidate retrieves a candidate by its ID.
func (s *candidateService) GetCandidate(ctx context.Context, id uuid.UUID) (*domain.Candidate, error) {
	candidate, err := s.candidates.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrCandidateNotFound) {
			return nil, err
		}
		return nil, wrapErr("get_candidate", fmt.Sprintf("failed to load candidate %s", id), err)
	}
	return candidate, nil
}

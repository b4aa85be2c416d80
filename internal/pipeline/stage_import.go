package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/zspirit/aihm-back/internal/bulkimport"
	"github.com/zspirit/aihm-back/internal/domain"
	"github.com/zspirit/aihm-back/internal/events"
	"github.com/zspirit/aihm-back/internal/platform/logger"
	"github.com/zspirit/aihm-back/internal/storage"
	"github.com/zspirit/aihm-back/internal/store"
	"github.com/zspirit/aihm-back/internal/task"
)

// ImportStage processes an uploaded candidate spreadsheet row by row,
// creating a candidate plus its two pending consents per valid row and
// recording a RowError per invalid one. Counters are persisted after every
// row so the progress stream polls live state.
type ImportStage struct {
	imports    store.BulkImportStore
	candidates store.CandidateStore
	consents   store.ConsentStore
	blobs      storage.BlobStore
	logger     *slog.Logger
}

// NewImportStage creates the bulkimport.process stage handler.
func NewImportStage(
	imports store.BulkImportStore,
	candidates store.CandidateStore,
	consents store.ConsentStore,
	blobs storage.BlobStore,
	log *slog.Logger,
) *ImportStage {
	return &ImportStage{
		imports:    imports,
		candidates: candidates,
		consents:   consents,
		blobs:      blobs,
		logger:     log.With(slog.String("component", "stage_import")),
	}
}

// Stage implements Handler.Stage
func (s *ImportStage) Stage() string { return events.StageProcessImport }

// Successors implements Handler.Successors
func (s *ImportStage) Successors() []string { return nil }

// Execute implements Handler.Execute
func (s *ImportStage) Execute(ctx context.Context, payload json.RawMessage) ([]Next, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var p events.ImportPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, task.Permanent(fmt.Errorf("decoding payload: %w", err))
	}

	imp, err := s.imports.GetByID(ctx, p.ImportID)
	if err != nil {
		if errors.Is(err, store.ErrBulkImportNotFound) {
			log.Warn("bulk import no longer exists, skipping",
				slog.String("import_id", p.ImportID.String()))
			return nil, nil
		}
		return nil, fmt.Errorf("loading bulk import: %w", err)
	}
	if imp.IsTerminal() {
		log.Info("bulk import already finished, skipping",
			slog.String("import_id", imp.ID.String()),
			slog.String("status", string(imp.Status)))
		return nil, nil
	}

	rows, err := s.loadRows(ctx, imp)
	if err != nil {
		if task.IsPermanent(err) {
			// A missing or malformed file never recovers; close the
			// import so polling clients see the failure.
			return nil, s.fail(ctx, imp, err)
		}
		return nil, err
	}

	// A redelivered task restarts the batch from the top, so the counters
	// committed by an interrupted run must not carry over. Rows already
	// created by that run resolve as per-row duplicate errors.
	imp.Status = domain.BulkImportStatusProcessing
	imp.TotalCount = len(rows)
	imp.ProcessedCount = 0
	imp.SuccessCount = 0
	imp.ErrorCount = 0
	imp.ErrorDetails = nil
	if err := s.imports.Update(ctx, imp); err != nil {
		return nil, fmt.Errorf("marking import processing: %w", err)
	}

	for _, row := range rows {
		if rowErr := s.importRow(ctx, imp, row); rowErr != nil {
			imp.ErrorCount++
			imp.ErrorDetails = append(imp.ErrorDetails, domain.RowError{
				Row:   row.Number,
				Error: rowErr.Error(),
			})
		} else {
			imp.SuccessCount++
		}
		imp.ProcessedCount++
		if err := s.imports.Update(ctx, imp); err != nil {
			return nil, fmt.Errorf("saving import progress: %w", err)
		}
	}

	now := time.Now().UTC()
	imp.Status = domain.BulkImportStatusCompleted
	imp.CompletedAt = &now
	if err := s.imports.Update(ctx, imp); err != nil {
		return nil, fmt.Errorf("finalizing import: %w", err)
	}

	log.Info("bulk import completed",
		slog.String("import_id", imp.ID.String()),
		slog.Int("total", imp.TotalCount),
		slog.Int("success", imp.SuccessCount),
		slog.Int("errors", imp.ErrorCount))
	return nil, nil
}

// loadRows downloads and parses the uploaded file. Parse failures are
// permanent: retrying never turns a malformed spreadsheet into a valid one.
func (s *ImportStage) loadRows(ctx context.Context, imp *domain.BulkImport) ([]bulkimport.Row, error) {
	content, err := s.blobs.Download(ctx, imp.FilePath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, task.Permanent(fmt.Errorf("import file missing: %w", err))
		}
		return nil, fmt.Errorf("downloading import file: %w", err)
	}
	rows, err := bulkimport.Parse(imp.Filename, content)
	if err != nil {
		return nil, task.Permanent(fmt.Errorf("parsing import file: %w", err))
	}
	return rows, nil
}

// importRow creates one candidate with its pending consents. The returned
// error is the user-facing row message recorded in ErrorDetails.
func (s *ImportStage) importRow(ctx context.Context, imp *domain.BulkImport, row bulkimport.Row) error {
	if row.Name == "" {
		return errors.New("Nom manquant")
	}
	if row.Email != "" {
		exists, err := s.candidates.ExistsByEmail(ctx, imp.PositionID, row.Email)
		if err != nil {
			return fmt.Errorf("verification email: %v", err)
		}
		if exists {
			return fmt.Errorf("Email deja existant: %s", row.Email)
		}
	}

	candidate, err := domain.NewCandidate(imp.TenantID, imp.PositionID, row.Name, row.Email, row.Phone)
	if err != nil {
		return err
	}
	if err := s.candidates.Create(ctx, candidate); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return fmt.Errorf("Email deja existant: %s", row.Email)
		}
		return fmt.Errorf("creation candidat: %v", err)
	}

	for _, consentType := range domain.AllConsentTypes {
		consent, err := domain.NewConsent(candidate.ID, consentType)
		if err != nil {
			return err
		}
		if err := s.consents.Create(ctx, consent); err != nil {
			return fmt.Errorf("creation consentement: %v", err)
		}
	}
	return nil
}

// fail marks the whole import failed with a single batch-level error row.
func (s *ImportStage) fail(ctx context.Context, imp *domain.BulkImport, cause error) error {
	now := time.Now().UTC()
	imp.Status = domain.BulkImportStatusFailed
	imp.CompletedAt = &now
	imp.ErrorDetails = append(imp.ErrorDetails, domain.RowError{Row: 0, Error: cause.Error()})
	if err := s.imports.Update(ctx, imp); err != nil {
		return fmt.Errorf("marking import failed: %w", err)
	}
	return cause
}

package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/zspirit/aihm-back/internal/domain"
	"github.com/zspirit/aihm-back/internal/events"
	"github.com/zspirit/aihm-back/internal/storage"
	"github.com/zspirit/aihm-back/internal/store"
)

// ImportService handles bulk import submission.
type ImportService interface {
	// CreateImport stores the uploaded spreadsheet, creates the pending
	// import record and enqueues processing.
	CreateImport(ctx context.Context, tenantID, userID, positionID uuid.UUID, filename string, content []byte) (*domain.BulkImport, error)

	// GetImport retrieves a bulk import by ID.
	GetImport(ctx context.Context, id uuid.UUID) (*domain.BulkImport, error)
}

type importService struct {
	imports   store.BulkImportStore
	positions store.PositionStore
	blobs     storage.BlobStore
	emitter   events.EventEmitter
	logger    *slog.Logger
}

// NewImportService creates an ImportService.
// It returns an error if any of the required dependencies are nil.
func NewImportService(
	imports store.BulkImportStore,
	positions store.PositionStore,
	blobs storage.BlobStore,
	emitter events.EventEmitter,
	logger *slog.Logger,
) (ImportService, error) {
	if imports == nil || positions == nil {
		return nil, wrapErr("create_service", "stores cannot be nil", nil)
	}
	if blobs == nil {
		return nil, wrapErr("create_service", "blob store cannot be nil", nil)
	}
	if emitter == nil {
		return nil, wrapErr("create_service", "event emitter cannot be nil", nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &importService{
		imports:   imports,
		positions: positions,
		blobs:     blobs,
		emitter:   emitter,
		logger:    logger.With(slog.String("component", "import_service")),
	}, nil
}

// CreateImport uploads the file under the import's own ID, saves the pending
// record and emits the bulkimport.process stage request.
func (s *importService) CreateImport(
	ctx context.Context,
	tenantID, userID, positionID uuid.UUID,
	filename string,
	content []byte,
) (*domain.BulkImport, error) {
	position, err := s.positions.GetByID(ctx, positionID)
	if err != nil {
		if errors.Is(err, store.ErrPositionNotFound) {
			return nil, err
		}
		return nil, wrapErr("create_import", "failed to load position", err)
	}
	if position.TenantID != tenantID {
		return nil, store.ErrPositionNotFound
	}

	importID := uuid.New()
	key := storage.ImportKey(tenantID, importID, filename)
	imp, err := domain.NewBulkImport(tenantID, userID, positionID, filename, key)
	if err != nil {
		return nil, err
	}
	imp.ID = importID

	if err := s.blobs.Upload(ctx, key, content, "application/octet-stream"); err != nil {
		return nil, wrapErr("create_import", "failed to store import file", err)
	}
	if err := s.imports.Create(ctx, imp); err != nil {
		return nil, wrapErr("create_import", "failed to save import", err)
	}

	event, err := events.NewStageRequestEvent(events.StageProcessImport, events.ImportPayload{ImportID: imp.ID})
	if err != nil {
		return nil, wrapErr("create_import", "failed to build stage event", err)
	}
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		return nil, wrapErr("create_import", "failed to enqueue processing", err)
	}

	s.logger.Info("bulk import created successfully",
		slog.String("import_id", imp.ID.String()),
		slog.String("filename", filename),
		slog.Int("size_bytes", len(content)))
	return imp, nil
}

// GetImport retrieves a bulk import by its ID.
func (s *importService) GetImport(ctx context.Context, id uuid.UUID) (*domain.BulkImport, error) {
	return s.imports.GetByID(ctx, id)
}

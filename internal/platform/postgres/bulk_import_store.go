package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/zspirit/aihm-back/internal/domain"
	"github.com/zspirit/aihm-back/internal/platform/logger"
	"github.com/zspirit/aihm-back/internal/store"
)

// PostgresBulkImportStore implements the store.BulkImportStore interface
// using a PostgreSQL database as the storage backend.
type PostgresBulkImportStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresBulkImportStore creates a new PostgreSQL implementation of the
// BulkImportStore interface. If logger is nil, a default logger will be used.
func NewPostgresBulkImportStore(db store.DBTX, logger *slog.Logger) *PostgresBulkImportStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresBulkImportStore{
		db:     db,
		logger: logger.With(slog.String("component", "bulk_import_store")),
	}
}

// Ensure PostgresBulkImportStore implements store.BulkImportStore interface
var _ store.BulkImportStore = (*PostgresBulkImportStore)(nil)

// WithTx implements store.BulkImportStore.WithTx
func (s *PostgresBulkImportStore) WithTx(tx *sql.Tx) store.BulkImportStore {
	return &PostgresBulkImportStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.BulkImportStore.Create
func (s *PostgresBulkImportStore) Create(ctx context.Context, bi *domain.BulkImport) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := bi.Validate(); err != nil {
		log.Warn("bulk import validation failed during create",
			slog.String("error", err.Error()),
			slog.String("import_id", bi.ID.String()))
		return err
	}

	errorsJSON, err := marshalRowErrors(bi.ErrorDetails)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO bulk_imports (id, tenant_id, user_id, position_id,
			filename, file_path, total_count, processed_count, success_count,
			error_count, status, error_details, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		bi.ID,
		bi.TenantID,
		bi.UserID,
		bi.PositionID,
		bi.Filename,
		bi.FilePath,
		bi.TotalCount,
		bi.ProcessedCount,
		bi.SuccessCount,
		bi.ErrorCount,
		bi.Status,
		errorsJSON,
		bi.CreatedAt,
		bi.CompletedAt,
	)

	if err != nil {
		log.Error("failed to create bulk import",
			slog.String("error", err.Error()),
			slog.String("import_id", bi.ID.String()))
		return MapError(err)
	}

	log.Info("bulk import created successfully",
		slog.String("import_id", bi.ID.String()),
		slog.String("filename", bi.Filename))
	return nil
}

// GetByID implements store.BulkImportStore.GetByID
// Returns store.ErrBulkImportNotFound if the import does not exist.
func (s *PostgresBulkImportStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.BulkImport, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, tenant_id, user_id, position_id, filename, file_path,
			total_count, processed_count, success_count, error_count,
			status, error_details, created_at, completed_at
		FROM bulk_imports
		WHERE id = $1
	`

	var bi domain.BulkImport
	var status string
	var errorsJSON []byte

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&bi.ID,
		&bi.TenantID,
		&bi.UserID,
		&bi.PositionID,
		&bi.Filename,
		&bi.FilePath,
		&bi.TotalCount,
		&bi.ProcessedCount,
		&bi.SuccessCount,
		&bi.ErrorCount,
		&status,
		&errorsJSON,
		&bi.CreatedAt,
		&bi.CompletedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("bulk import not found", slog.String("import_id", id.String()))
			return nil, store.ErrBulkImportNotFound
		}
		log.Error("failed to get bulk import by ID",
			slog.String("error", err.Error()),
			slog.String("import_id", id.String()))
		return nil, MapError(err)
	}

	bi.Status = domain.BulkImportStatus(status)
	if len(errorsJSON) > 0 {
		if err := json.Unmarshal(errorsJSON, &bi.ErrorDetails); err != nil {
			return nil, fmt.Errorf("failed to unmarshal row errors: %w", err)
		}
	}

	return &bi, nil
}

// Update implements store.BulkImportStore.Update
// Returns store.ErrBulkImportNotFound if the import does not exist.
func (s *PostgresBulkImportStore) Update(ctx context.Context, bi *domain.BulkImport) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := bi.Validate(); err != nil {
		log.Warn("bulk import validation failed during update",
			slog.String("error", err.Error()),
			slog.String("import_id", bi.ID.String()))
		return err
	}

	errorsJSON, err := marshalRowErrors(bi.ErrorDetails)
	if err != nil {
		return err
	}

	query := `
		UPDATE bulk_imports
		SET total_count = $1, processed_count = $2, success_count = $3,
			error_count = $4, status = $5, error_details = $6, completed_at = $7
		WHERE id = $8
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		bi.TotalCount,
		bi.ProcessedCount,
		bi.SuccessCount,
		bi.ErrorCount,
		bi.Status,
		errorsJSON,
		bi.CompletedAt,
		bi.ID,
	)

	if err != nil {
		log.Error("failed to update bulk import",
			slog.String("error", err.Error()),
			slog.String("import_id", bi.ID.String()))
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		log.Debug("bulk import not found for update",
			slog.String("import_id", bi.ID.String()))
		return store.ErrBulkImportNotFound
	}

	return nil
}

func marshalRowErrors(rowErrors []domain.RowError) ([]byte, error) {
	if len(rowErrors) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(rowErrors)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal row errors: %w", err)
	}
	return data, nil
}

package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// BulkImportStatus represents the processing state of a bulk import.
type BulkImportStatus string

// Possible bulk import status values.
const (
	BulkImportStatusPending    BulkImportStatus = "pending"
	BulkImportStatusProcessing BulkImportStatus = "processing"
	BulkImportStatusCompleted  BulkImportStatus = "completed"
	BulkImportStatusFailed     BulkImportStatus = "failed"
)

// Common validation errors for BulkImport.
var (
	ErrEmptyImportID       = errors.New("bulk import ID cannot be empty")
	ErrEmptyImportFile     = errors.New("bulk import file path cannot be empty")
	ErrInvalidImportStatus = errors.New("invalid bulk import status")
)

// RowError records one failed spreadsheet row. Row numbers are 1-based
// spreadsheet positions, so the first data row is 2.
type RowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// BulkImport tracks a batch CV intake from a spreadsheet or CSV file.
// Counters are committed after every processed row so progress polling
// reflects near-real-time state.
type BulkImport struct {
	ID             uuid.UUID        `json:"id"`
	TenantID       uuid.UUID        `json:"tenant_id"`
	UserID         uuid.UUID        `json:"user_id"`
	PositionID     uuid.UUID        `json:"position_id"`
	Filename       string           `json:"filename"`
	FilePath       string           `json:"file_path"`
	TotalCount     int              `json:"total_count"`
	ProcessedCount int              `json:"processed_count"`
	SuccessCount   int              `json:"success_count"`
	ErrorCount     int              `json:"error_count"`
	Status         BulkImportStatus `json:"status"`
	ErrorDetails   []RowError       `json:"error_details,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	CompletedAt    *time.Time       `json:"completed_at,omitempty"`
}

// NewBulkImport creates a pending bulk import for an uploaded file.
func NewBulkImport(tenantID, userID, positionID uuid.UUID, filename, filePath string) (*BulkImport, error) {
	bi := &BulkImport{
		ID:         uuid.New(),
		TenantID:   tenantID,
		UserID:     userID,
		PositionID: positionID,
		Filename:   filename,
		FilePath:   filePath,
		Status:     BulkImportStatusPending,
		CreatedAt:  time.Now().UTC(),
	}
	if err := bi.Validate(); err != nil {
		return nil, err
	}
	return bi, nil
}

// Validate checks if the BulkImport has valid data.
func (bi *BulkImport) Validate() error {
	if bi.ID == uuid.Nil {
		return ErrEmptyImportID
	}
	if bi.FilePath == "" {
		return ErrEmptyImportFile
	}
	switch bi.Status {
	case BulkImportStatusPending, BulkImportStatusProcessing,
		BulkImportStatusCompleted, BulkImportStatusFailed:
	default:
		return ErrInvalidImportStatus
	}
	return nil
}

// IsTerminal reports whether processing has finished.
func (bi *BulkImport) IsTerminal() bool {
	return bi.Status == BulkImportStatusCompleted || bi.Status == BulkImportStatusFailed
}

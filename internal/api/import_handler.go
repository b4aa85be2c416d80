package api

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/zspirit/aihm-back/internal/api/middleware"
	"github.com/zspirit/aihm-back/internal/api/shared"
	"github.com/zspirit/aihm-back/internal/service"
	"github.com/zspirit/aihm-back/internal/store"
)

// maxImportUploadBytes caps the size of an uploaded spreadsheet.
const maxImportUploadBytes = 20 << 20

// ImportHandler handles bulk import HTTP requests.
type ImportHandler struct {
	imports      service.ImportService
	pollInterval time.Duration
	logger       *slog.Logger
}

// NewImportHandler creates a new ImportHandler.
func NewImportHandler(imports service.ImportService, logger *slog.Logger) *ImportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImportHandler{
		imports:      imports,
		pollInterval: defaultPollInterval,
		logger:       logger.With(slog.String("component", "import_handler")),
	}
}

// CreateImport handles POST /api/positions/{positionID}/imports: a
// multipart upload of a CSV or XLSX candidate list. Processing is
// asynchronous; the response carries the import ID to poll or stream.
func (h *ImportHandler) CreateImport(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenantID(w, r)
	if !ok {
		return
	}
	userID, _ := middleware.GetUserID(r)
	positionID, ok := pathUUID(w, r, "positionID")
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxImportUploadBytes); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Import file is required")
		return
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(io.LimitReader(file, maxImportUploadBytes))
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Failed to read import upload", err)
		return
	}

	imp, err := h.imports.CreateImport(r.Context(), tenantID, userID, positionID, header.Filename, content)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, importToResponse(imp))
}

// GetImport handles GET /api/imports/{id}.
func (h *ImportHandler) GetImport(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenantID(w, r)
	if !ok {
		return
	}
	importID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	imp, err := h.imports.GetImport(r.Context(), importID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if imp.TenantID != tenantID {
		HandleAPIError(w, r, store.ErrBulkImportNotFound, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, importToResponse(imp))
}

// importProgress is the SSE progress payload for a bulk import.
type importProgress struct {
	Status         string `json:"status"`
	ProcessedCount int    `json:"processed_count"`
	TotalCount     int    `json:"total_count"`
	SuccessCount   int    `json:"success_count"`
	ErrorCount     int    `json:"error_count"`
}

// Events handles GET /api/positions/{positionID}/imports/{id}/events: an
// SSE stream reporting row-by-row import progress.
func (h *ImportHandler) Events(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenantID(w, r)
	if !ok {
		return
	}
	positionID, ok := pathUUID(w, r, "positionID")
	if !ok {
		return
	}
	importID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var last *importProgress
	streamSSE(w, r, h.pollInterval, h.logger, func() (sseFrame, error) {
		imp, err := h.imports.GetImport(r.Context(), importID)
		if err != nil {
			return sseFrame{}, err
		}
		if imp.TenantID != tenantID || imp.PositionID != positionID {
			return sseFrame{}, store.ErrBulkImportNotFound
		}

		current := importProgress{
			Status:         string(imp.Status),
			ProcessedCount: imp.ProcessedCount,
			TotalCount:     imp.TotalCount,
			SuccessCount:   imp.SuccessCount,
			ErrorCount:     imp.ErrorCount,
		}
		frame := sseFrame{}
		if last == nil || *last != current {
			last = &current
			frame.Event = "progress"
			frame.Data = current
			frame.Emit = true
		}
		if imp.IsTerminal() {
			frame.Done = true
		}
		return frame, nil
	})
}

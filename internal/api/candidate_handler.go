package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/zspirit/aihm-back/internal/api/shared"
	"github.com/zspirit/aihm-back/internal/service"
	"github.com/zspirit/aihm-back/internal/store"
)

// maxCVUploadBytes caps the size of a single CV document.
const maxCVUploadBytes = 10 << 20

// CandidateHandler handles candidate-related HTTP requests.
type CandidateHandler struct {
	candidates   service.CandidateService
	validator    *validator.Validate
	pollInterval time.Duration
	logger       *slog.Logger
}

// NewCandidateHandler creates a new CandidateHandler.
func NewCandidateHandler(candidates service.CandidateService, logger *slog.Logger) *CandidateHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CandidateHandler{
		candidates:   candidates,
		validator:    validator.New(),
		pollInterval: defaultPollInterval,
		logger:       logger.With(slog.String("component", "candidate_handler")),
	}
}

// CreateCandidate handles POST /api/positions/{positionID}/candidates.
// The body is multipart form data: name (required), email, phone and an
// optional cv document that starts processing immediately.
func (h *CandidateHandler) CreateCandidate(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenantID(w, r)
	if !ok {
		return
	}
	positionID, ok := pathUUID(w, r, "positionID")
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxCVUploadBytes); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	name := r.FormValue("name")
	if name == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Name is required")
		return
	}

	candidate, err := h.candidates.CreateCandidate(
		r.Context(), tenantID, positionID, name, r.FormValue("email"), r.FormValue("phone"))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	file, header, err := r.FormFile("cv")
	if err == nil {
		defer func() { _ = file.Close() }()
		content, readErr := io.ReadAll(io.LimitReader(file, maxCVUploadBytes))
		if readErr != nil {
			shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Failed to read CV upload", readErr)
			return
		}
		candidate, err = h.candidates.UploadCV(
			r.Context(), candidate.ID, header.Filename, content, header.Header.Get("Content-Type"))
		if err != nil {
			HandleAPIError(w, r, err, "")
			return
		}
	} else if !errors.Is(err, http.ErrMissingFile) {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid CV upload")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, candidateToResponse(candidate))
}

// GetCandidate handles GET /api/candidates/{id}.
func (h *CandidateHandler) GetCandidate(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenantID(w, r)
	if !ok {
		return
	}
	candidateID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	candidate, err := h.candidates.GetCandidate(r.Context(), candidateID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if candidate.TenantID != tenantID {
		HandleAPIError(w, r, store.ErrCandidateNotFound, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, candidateToResponse(candidate))
}

// UploadCV handles POST /api/candidates/{id}/cv for candidates created
// without a document.
func (h *CandidateHandler) UploadCV(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenantID(w, r)
	if !ok {
		return
	}
	candidateID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	candidate, err := h.candidates.GetCandidate(r.Context(), candidateID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if candidate.TenantID != tenantID {
		HandleAPIError(w, r, store.ErrCandidateNotFound, "")
		return
	}

	if err := r.ParseMultipartForm(maxCVUploadBytes); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	file, header, err := r.FormFile("cv")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "CV file is required")
		return
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(io.LimitReader(file, maxCVUploadBytes))
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Failed to read CV upload", err)
		return
	}

	candidate, err = h.candidates.UploadCV(
		r.Context(), candidateID, header.Filename, content, header.Header.Get("Content-Type"))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	// Processing happens asynchronously.
	shared.RespondWithJSON(w, r, http.StatusAccepted, candidateToResponse(candidate))
}

// candidateProgress is the SSE progress payload for a candidate.
type candidateProgress struct {
	PipelineStatus string   `json:"pipeline_status"`
	CVScore        *float64 `json:"cv_score,omitempty"`
}

// Events handles GET /api/candidates/{id}/events: a Server-Sent-Events
// stream that polls the candidate row and reports pipeline progress.
func (h *CandidateHandler) Events(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenantID(w, r)
	if !ok {
		return
	}
	candidateID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var last *candidateProgress
	streamSSE(w, r, h.pollInterval, h.logger, func() (sseFrame, error) {
		candidate, err := h.candidates.GetCandidate(r.Context(), candidateID)
		if err != nil {
			return sseFrame{}, err
		}
		if candidate.TenantID != tenantID {
			return sseFrame{}, store.ErrCandidateNotFound
		}

		current := candidateProgress{
			PipelineStatus: string(candidate.PipelineStatus),
			CVScore:        candidate.CVScore,
		}
		frame := sseFrame{}
		changed := last == nil ||
			last.PipelineStatus != current.PipelineStatus ||
			!floatPtrEqual(last.CVScore, current.CVScore)
		if changed {
			last = &current
			frame.Event = "progress"
			frame.Data = current
			frame.Emit = true
		}
		if candidate.IsTerminal() {
			frame.Done = true
		}
		return frame, nil
	})
}

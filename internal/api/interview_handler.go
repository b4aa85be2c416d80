package api

import (
	"log/slog"
	"net/http"

	"github.com/zspirit/aihm-back/internal/api/shared"
	"github.com/zspirit/aihm-back/internal/service"
	"github.com/zspirit/aihm-back/internal/store"
)

// InterviewHandler handles interview-related HTTP requests.
type InterviewHandler struct {
	interviews service.InterviewService
	candidates service.CandidateService
	logger     *slog.Logger
}

// NewInterviewHandler creates a new InterviewHandler.
func NewInterviewHandler(interviews service.InterviewService, candidates service.CandidateService, logger *slog.Logger) *InterviewHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &InterviewHandler{
		interviews: interviews,
		candidates: candidates,
		logger:     logger.With(slog.String("component", "interview_handler")),
	}
}

// ScheduleInterview handles POST /api/candidates/{id}/interviews.
// Precondition failures (no phone, missing consent, attempt limit) map to
// 422 so the client can show a precise message.
func (h *InterviewHandler) ScheduleInterview(w http.ResponseWriter, r *http.Request) {
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

	var req ScheduleInterviewRequest
	if r.ContentLength > 0 {
		if err := shared.DecodeJSON(r, &req); err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
			return
		}
	}

	interview, err := h.interviews.ScheduleInterview(r.Context(), candidateID, req.ScheduledAt)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, interviewToResponse(interview))
}

// GetInterview handles GET /api/interviews/{id}.
func (h *InterviewHandler) GetInterview(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenantID(w, r)
	if !ok {
		return
	}
	interviewID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	interview, err := h.interviews.GetInterview(r.Context(), interviewID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if interview.TenantID != tenantID {
		HandleAPIError(w, r, store.ErrInterviewNotFound, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, interviewToResponse(interview))
}

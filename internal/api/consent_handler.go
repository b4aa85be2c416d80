package api

import (
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/zspirit/aihm-back/internal/api/shared"
	"github.com/zspirit/aihm-back/internal/service"
)

// ConsentHandler handles the public consent endpoints. These routes are
// reached through the tokenized link mailed to the candidate and carry no
// bearer token.
type ConsentHandler struct {
	consents  service.ConsentService
	validator *validator.Validate
	logger    *slog.Logger
}

// NewConsentHandler creates a new ConsentHandler.
func NewConsentHandler(consents service.ConsentService, logger *slog.Logger) *ConsentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsentHandler{
		consents:  consents,
		validator: validator.New(),
		logger:    logger.With(slog.String("component", "consent_handler")),
	}
}

// GetPage handles GET /api/consent/{token}: what the consent page shows.
func (h *ConsentHandler) GetPage(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Missing token")
		return
	}

	page, err := h.consents.GetConsentPage(r.Context(), token)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ConsentPageResponse{
		CandidateName: page.CandidateName,
		PositionTitle: page.PositionTitle,
		Granted:       page.Granted,
	})
}

// Grant handles POST /api/consent/{token}.
func (h *ConsentHandler) Grant(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Missing token")
		return
	}

	req := GrantConsentRequest{Channel: "web"}
	if r.ContentLength > 0 {
		if err := shared.DecodeJSON(r, &req); err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
			return
		}
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	candidate, err := h.consents.GrantConsent(r.Context(), token, req.Channel, clientIP(r))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, GrantConsentResponse{
		CandidateID: candidate.ID,
		Status:      string(candidate.PipelineStatus),
	})
}

// clientIP extracts the caller address, preferring the reverse-proxy header
// chi's RealIP middleware rewrites into RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

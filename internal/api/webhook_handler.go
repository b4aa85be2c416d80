package api

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/zspirit/aihm-back/internal/api/shared"
	"github.com/zspirit/aihm-back/internal/domain"
	"github.com/zspirit/aihm-back/internal/store"
)

// WebhookHandler manages a tenant's webhook subscriptions.
type WebhookHandler struct {
	subscriptions store.WebhookSubscriptionStore
	validator     *validator.Validate
	logger        *slog.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(subscriptions store.WebhookSubscriptionStore, logger *slog.Logger) *WebhookHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookHandler{
		subscriptions: subscriptions,
		validator:     validator.New(),
		logger:        logger.With(slog.String("component", "webhook_handler")),
	}
}

// List handles GET /api/webhooks.
func (h *WebhookHandler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenantID(w, r)
	if !ok {
		return
	}

	subs, err := h.subscriptions.List(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list webhook subscriptions")
		return
	}

	responses := make([]WebhookResponse, 0)
	for _, sub := range subs {
		if sub.TenantID == tenantID {
			responses = append(responses, webhookToResponse(sub, false))
		}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// Create handles POST /api/webhooks. The signing secret is generated
// server-side and returned only in this response.
func (h *WebhookHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenantID(w, r)
	if !ok {
		return
	}

	var req CreateWebhookRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	events := make([]domain.WebhookEvent, len(req.Events))
	for i, e := range req.Events {
		events[i] = domain.WebhookEvent(e)
	}
	sub, err := domain.NewWebhookSubscription(tenantID, req.URL, events)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := h.subscriptions.Create(r.Context(), sub); err != nil {
		HandleAPIError(w, r, err, "Failed to create webhook subscription")
		return
	}

	h.logger.Info("webhook subscription created",
		slog.String("subscription_id", sub.ID.String()),
		slog.String("url", sub.URL))
	shared.RespondWithJSON(w, r, http.StatusCreated, webhookToResponse(sub, true))
}

// Delete handles DELETE /api/webhooks/{id}.
func (h *WebhookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenantID(w, r)
	if !ok {
		return
	}
	subID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	sub, err := h.subscriptions.GetByID(r.Context(), subID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if sub.TenantID != tenantID {
		HandleAPIError(w, r, store.ErrSubscriptionNotFound, "")
		return
	}

	if err := h.subscriptions.Delete(r.Context(), subID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete webhook subscription")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Toggle handles PATCH /api/webhooks/{id}/toggle, flipping is_active.
func (h *WebhookHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireTenantID(w, r)
	if !ok {
		return
	}
	subID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	sub, err := h.subscriptions.GetByID(r.Context(), subID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if sub.TenantID != tenantID {
		HandleAPIError(w, r, store.ErrSubscriptionNotFound, "")
		return
	}

	sub.IsActive = !sub.IsActive
	if err := h.subscriptions.Update(r.Context(), sub); err != nil {
		HandleAPIError(w, r, err, "Failed to update webhook subscription")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, webhookToResponse(sub, false))
}

// ListEvents handles GET /api/webhooks/events: the subscribable event names.
func (h *WebhookHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events := make([]string, len(domain.WebhookEvents))
	for i, e := range domain.WebhookEvents {
		events[i] = string(e)
	}
	shared.RespondWithJSON(w, r, http.StatusOK, map[string][]string{"events": events})
}

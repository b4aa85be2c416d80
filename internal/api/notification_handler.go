package api

import (
	"log/slog"
	"net/http"

	"github.com/zspirit/aihm-back/internal/api/middleware"
	"github.com/zspirit/aihm-back/internal/api/shared"
	"github.com/zspirit/aihm-back/internal/store"
)

// notificationListLimit caps one page of the notification feed.
const notificationListLimit = 50

// NotificationHandler serves the in-app notification feed.
type NotificationHandler struct {
	notifications store.NotificationStore
	logger        *slog.Logger
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notifications store.NotificationStore, logger *slog.Logger) *NotificationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationHandler{
		notifications: notifications,
		logger:        logger.With(slog.String("component", "notification_handler")),
	}
}

// List handles GET /api/notifications: the user's notifications plus
// tenant-wide broadcasts, newest first.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireTenantID(w, r); !ok {
		return
	}
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User not found in request context")
		return
	}

	notifications, err := h.notifications.ListForUser(r.Context(), userID, notificationListLimit)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list notifications")
		return
	}

	responses := make([]NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		responses = append(responses, notificationToResponse(n))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// MarkRead handles PATCH /api/notifications/{id}/read.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireTenantID(w, r); !ok {
		return
	}
	notificationID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.notifications.MarkRead(r.Context(), notificationID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

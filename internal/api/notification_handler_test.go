package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zspirit/aihm-back/internal/domain"
)

func TestListNotifications(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()
	userID := uuid.New()

	t.Run("returns broadcasts and personal notifications", func(t *testing.T) {
		t.Parallel()
		broadcast, err := domain.NewNotification(tenantID, nil, "report_ready", "Rapport disponible", "Le rapport est prêt.", nil)
		require.NoError(t, err)
		personal, err := domain.NewNotification(tenantID, &userID, "import_done", "Import terminé", "2 candidats importés.", nil)
		require.NoError(t, err)
		otherUser := uuid.New()
		foreign, err := domain.NewNotification(tenantID, &otherUser, "import_done", "Import terminé", "", nil)
		require.NoError(t, err)

		handler := NewNotificationHandler(newFakeNotificationStore(broadcast, personal, foreign), discardLogger())

		req := authedRequest(t, http.MethodGet, "/api/notifications", nil, tenantID, userID, nil)
		rec := httptest.NewRecorder()
		handler.List(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp []NotificationResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp, 2)
		ids := []uuid.UUID{resp[0].ID, resp[1].ID}
		assert.ElementsMatch(t, []uuid.UUID{broadcast.ID, personal.ID}, ids)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		t.Parallel()
		handler := NewNotificationHandler(newFakeNotificationStore(), discardLogger())

		req := publicRequest(t, http.MethodGet, "/api/notifications", nil, nil)
		rec := httptest.NewRecorder()
		handler.List(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestMarkNotificationRead(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()
	userID := uuid.New()

	t.Run("marks as read", func(t *testing.T) {
		t.Parallel()
		notification, err := domain.NewNotification(tenantID, &userID, "report_ready", "Rapport disponible", "", nil)
		require.NoError(t, err)
		notifications := newFakeNotificationStore(notification)
		handler := NewNotificationHandler(notifications, discardLogger())

		req := authedRequest(t, http.MethodPatch, "/api/notifications/"+notification.ID.String()+"/read", nil,
			tenantID, userID, map[string]string{"id": notification.ID.String()})
		rec := httptest.NewRecorder()
		handler.MarkRead(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.True(t, notification.Read)
	})

	t.Run("unknown notification", func(t *testing.T) {
		t.Parallel()
		handler := NewNotificationHandler(newFakeNotificationStore(), discardLogger())

		id := uuid.New()
		req := authedRequest(t, http.MethodPatch, "/api/notifications/"+id.String()+"/read", nil,
			tenantID, userID, map[string]string{"id": id.String()})
		rec := httptest.NewRecorder()
		handler.MarkRead(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zspirit/aihm-back/internal/domain"
)

func testSubscription(t *testing.T, tenantID uuid.UUID) *domain.WebhookSubscription {
	t.Helper()
	sub, err := domain.NewWebhookSubscription(tenantID, "https://hooks.example.com/aihm",
		[]domain.WebhookEvent{domain.EventReportReady})
	require.NoError(t, err)
	return sub
}

func TestCreateWebhook(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()

	t.Run("creates and returns the secret once", func(t *testing.T) {
		t.Parallel()
		subs := newFakeSubscriptionStore()
		handler := NewWebhookHandler(subs, discardLogger())

		body := strings.NewReader(`{"url":"https://hooks.example.com/aihm","events":["report.ready","cv.scored"]}`)
		req := authedRequest(t, http.MethodPost, "/api/webhooks", body, tenantID, uuid.New(), nil)
		rec := httptest.NewRecorder()
		handler.Create(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		var resp WebhookResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Secret)
		assert.True(t, resp.IsActive)
		assert.ElementsMatch(t, []string{"report.ready", "cv.scored"}, resp.Events)

		stored, err := subs.GetByID(req.Context(), resp.ID)
		require.NoError(t, err)
		assert.Equal(t, tenantID, stored.TenantID)
	})

	t.Run("unknown event rejected", func(t *testing.T) {
		t.Parallel()
		handler := NewWebhookHandler(newFakeSubscriptionStore(), discardLogger())

		body := strings.NewReader(`{"url":"https://hooks.example.com/aihm","events":["unknown.event"]}`)
		req := authedRequest(t, http.MethodPost, "/api/webhooks", body, tenantID, uuid.New(), nil)
		rec := httptest.NewRecorder()
		handler.Create(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid URL rejected", func(t *testing.T) {
		t.Parallel()
		handler := NewWebhookHandler(newFakeSubscriptionStore(), discardLogger())

		body := strings.NewReader(`{"url":"not-a-url","events":["report.ready"]}`)
		req := authedRequest(t, http.MethodPost, "/api/webhooks", body, tenantID, uuid.New(), nil)
		rec := httptest.NewRecorder()
		handler.Create(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestListWebhooks(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()

	t.Run("lists only this tenant's subscriptions without secrets", func(t *testing.T) {
		t.Parallel()
		mine := testSubscription(t, tenantID)
		other := testSubscription(t, uuid.New())
		handler := NewWebhookHandler(newFakeSubscriptionStore(mine, other), discardLogger())

		req := authedRequest(t, http.MethodGet, "/api/webhooks", nil, tenantID, uuid.New(), nil)
		rec := httptest.NewRecorder()
		handler.List(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp []WebhookResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp, 1)
		assert.Equal(t, mine.ID, resp[0].ID)
		assert.Empty(t, resp[0].Secret)
	})
}

func TestToggleWebhook(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()

	t.Run("flips is_active", func(t *testing.T) {
		t.Parallel()
		sub := testSubscription(t, tenantID)
		handler := NewWebhookHandler(newFakeSubscriptionStore(sub), discardLogger())

		req := authedRequest(t, http.MethodPatch, "/api/webhooks/"+sub.ID.String()+"/toggle", nil,
			tenantID, uuid.New(), map[string]string{"id": sub.ID.String()})
		rec := httptest.NewRecorder()
		handler.Toggle(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp WebhookResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.IsActive)
	})

	t.Run("another tenant's subscription is hidden", func(t *testing.T) {
		t.Parallel()
		sub := testSubscription(t, uuid.New())
		handler := NewWebhookHandler(newFakeSubscriptionStore(sub), discardLogger())

		req := authedRequest(t, http.MethodPatch, "/api/webhooks/"+sub.ID.String()+"/toggle", nil,
			tenantID, uuid.New(), map[string]string{"id": sub.ID.String()})
		rec := httptest.NewRecorder()
		handler.Toggle(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestDeleteWebhook(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()

	t.Run("deletes own subscription", func(t *testing.T) {
		t.Parallel()
		sub := testSubscription(t, tenantID)
		subs := newFakeSubscriptionStore(sub)
		handler := NewWebhookHandler(subs, discardLogger())

		req := authedRequest(t, http.MethodDelete, "/api/webhooks/"+sub.ID.String(), nil,
			tenantID, uuid.New(), map[string]string{"id": sub.ID.String()})
		rec := httptest.NewRecorder()
		handler.Delete(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		_, err := subs.GetByID(req.Context(), sub.ID)
		assert.Error(t, err)
	})
}

func TestListWebhookEvents(t *testing.T) {
	t.Parallel()

	handler := NewWebhookHandler(newFakeSubscriptionStore(), discardLogger())
	req := authedRequest(t, http.MethodGet, "/api/webhooks/events", nil, uuid.New(), uuid.New(), nil)
	rec := httptest.NewRecorder()
	handler.ListEvents(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string][]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.ElementsMatch(t,
		[]string{"consent.given", "interview.completed", "report.ready", "cv.scored"},
		resp["events"])
}

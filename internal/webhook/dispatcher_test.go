package webhook

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zspirit/aihm-back/internal/config"
	"github.com/zspirit/aihm-back/internal/domain"
	"github.com/zspirit/aihm-back/internal/store"
)

// stubSubscriptionStore serves a fixed subscription list.
type stubSubscriptionStore struct {
	store.WebhookSubscriptionStore
	subs []*domain.WebhookSubscription
	err  error
}

func (s *stubSubscriptionStore) ListActive(_ context.Context) ([]*domain.WebhookSubscription, error) {
	return s.subs, s.err
}

func (s *stubSubscriptionStore) WithTx(_ *sql.Tx) store.WebhookSubscriptionStore { return s }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSubscription(t *testing.T, tenantID uuid.UUID, url string, events ...domain.WebhookEvent) *domain.WebhookSubscription {
	t.Helper()
	sub, err := domain.NewWebhookSubscription(tenantID, url, events)
	require.NoError(t, err)
	return sub
}

func TestDispatchSignsAndDelivers(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()
	var received atomic.Int32
	var sub *domain.WebhookSubscription

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "report.ready", r.Header.Get(HeaderEvent))
		assert.True(t, VerifySignature(body, sub.Secret, r.Header.Get(HeaderSignature)))

		var env map[string]any
		require.NoError(t, json.Unmarshal(body, &env))
		assert.Equal(t, "report.ready", env["event"])
		assert.NotEmpty(t, env["timestamp"])

		received.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sub = newSubscription(t, tenantID, server.URL, domain.EventReportReady)
	dispatcher := NewHTTPDispatcher(
		&stubSubscriptionStore{subs: []*domain.WebhookSubscription{sub}},
		config.WebhookConfig{TimeoutSec: 5},
		testLogger(),
	)

	delivered := dispatcher.Dispatch(context.Background(), tenantID, domain.EventReportReady,
		map[string]string{"report_id": uuid.NewString()})

	assert.Equal(t, 1, delivered)
	assert.Equal(t, int32(1), received.Load())
}

func TestDispatchSkipsOtherTenantsAndEvents(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no delivery expected")
	}))
	defer server.Close()

	subs := []*domain.WebhookSubscription{
		newSubscription(t, uuid.New(), server.URL, domain.EventReportReady),
		newSubscription(t, tenantID, server.URL, domain.EventConsentGiven),
	}

	dispatcher := NewHTTPDispatcher(
		&stubSubscriptionStore{subs: subs},
		config.WebhookConfig{TimeoutSec: 5},
		testLogger(),
	)

	delivered := dispatcher.Dispatch(context.Background(), tenantID, domain.EventReportReady, nil)
	assert.Equal(t, 0, delivered)
}

func TestDispatchCountsOnlySuccesses(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()
	okServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer okServer.Close()
	failServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failServer.Close()

	subs := []*domain.WebhookSubscription{
		newSubscription(t, tenantID, okServer.URL, domain.EventCVScored),
		newSubscription(t, tenantID, failServer.URL, domain.EventCVScored),
	}

	dispatcher := NewHTTPDispatcher(
		&stubSubscriptionStore{subs: subs},
		config.WebhookConfig{TimeoutSec: 5},
		testLogger(),
	)

	delivered := dispatcher.Dispatch(context.Background(), tenantID, domain.EventCVScored, nil)
	assert.Equal(t, 1, delivered)
}

func TestVerifySignature(t *testing.T) {
	t.Parallel()

	payload := []byte(`{"event":"cv.scored"}`)
	sig := Sign(payload, "secret")

	assert.True(t, VerifySignature(payload, "secret", sig))
	assert.False(t, VerifySignature(payload, "other", sig))
	assert.False(t, VerifySignature([]byte("tampered"), "secret", sig))
}

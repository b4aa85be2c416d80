package api

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/zspirit/aihm-back/internal/domain"
	"github.com/zspirit/aihm-back/internal/service"
	"github.com/zspirit/aihm-back/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockCandidateService implements service.CandidateService with canned
// responses per method.
type mockCandidateService struct {
	createFn func(ctx context.Context, tenantID, positionID uuid.UUID, name, email, phone string) (*domain.Candidate, error)
	uploadFn func(ctx context.Context, candidateID uuid.UUID, filename string, content []byte, contentType string) (*domain.Candidate, error)
	getFn    func(ctx context.Context, id uuid.UUID) (*domain.Candidate, error)
}

var _ service.CandidateService = (*mockCandidateService)(nil)

func (m *mockCandidateService) CreateCandidate(ctx context.Context, tenantID, positionID uuid.UUID, name, email, phone string) (*domain.Candidate, error) {
	return m.createFn(ctx, tenantID, positionID, name, email, phone)
}

func (m *mockCandidateService) UploadCV(ctx context.Context, candidateID uuid.UUID, filename string, content []byte, contentType string) (*domain.Candidate, error) {
	return m.uploadFn(ctx, candidateID, filename, content, contentType)
}

func (m *mockCandidateService) GetCandidate(ctx context.Context, id uuid.UUID) (*domain.Candidate, error) {
	return m.getFn(ctx, id)
}

type mockConsentService struct {
	grantFn func(ctx context.Context, token, channel, ipAddress string) (*domain.Candidate, error)
	pageFn  func(ctx context.Context, token string) (*service.ConsentPage, error)
}

var _ service.ConsentService = (*mockConsentService)(nil)

func (m *mockConsentService) GrantConsent(ctx context.Context, token, channel, ipAddress string) (*domain.Candidate, error) {
	return m.grantFn(ctx, token, channel, ipAddress)
}

func (m *mockConsentService) GetConsentPage(ctx context.Context, token string) (*service.ConsentPage, error) {
	return m.pageFn(ctx, token)
}

type mockInterviewService struct {
	scheduleFn func(ctx context.Context, candidateID uuid.UUID, scheduledAt *time.Time) (*domain.Interview, error)
	getFn      func(ctx context.Context, id uuid.UUID) (*domain.Interview, error)
}

var _ service.InterviewService = (*mockInterviewService)(nil)

func (m *mockInterviewService) ScheduleInterview(ctx context.Context, candidateID uuid.UUID, scheduledAt *time.Time) (*domain.Interview, error) {
	return m.scheduleFn(ctx, candidateID, scheduledAt)
}

func (m *mockInterviewService) GetInterview(ctx context.Context, id uuid.UUID) (*domain.Interview, error) {
	return m.getFn(ctx, id)
}

type mockImportService struct {
	createFn func(ctx context.Context, tenantID, userID, positionID uuid.UUID, filename string, content []byte) (*domain.BulkImport, error)
	getFn    func(ctx context.Context, id uuid.UUID) (*domain.BulkImport, error)
}

var _ service.ImportService = (*mockImportService)(nil)

func (m *mockImportService) CreateImport(ctx context.Context, tenantID, userID, positionID uuid.UUID, filename string, content []byte) (*domain.BulkImport, error) {
	return m.createFn(ctx, tenantID, userID, positionID, filename, content)
}

func (m *mockImportService) GetImport(ctx context.Context, id uuid.UUID) (*domain.BulkImport, error) {
	return m.getFn(ctx, id)
}

// recordedCall captures one reconciler invocation.
type recordedCall struct {
	kind         string
	callID       string
	callStatus   string
	duration     int
	recordingURL string
	recordingID  string
}

type mockReconciler struct {
	calls []recordedCall
	err   error
}

func (m *mockReconciler) HandleStatus(_ context.Context, callID, callStatus string, durationSeconds int) error {
	m.calls = append(m.calls, recordedCall{kind: "status", callID: callID, callStatus: callStatus, duration: durationSeconds})
	return m.err
}

func (m *mockReconciler) HandleRecording(_ context.Context, callID, recordingURL, recordingID string) error {
	m.calls = append(m.calls, recordedCall{kind: "recording", callID: callID, recordingURL: recordingURL, recordingID: recordingID})
	return m.err
}

// fakeSubscriptionStore is an in-memory store.WebhookSubscriptionStore.
type fakeSubscriptionStore struct {
	byID map[uuid.UUID]*domain.WebhookSubscription
}

func newFakeSubscriptionStore(subs ...*domain.WebhookSubscription) *fakeSubscriptionStore {
	f := &fakeSubscriptionStore{byID: make(map[uuid.UUID]*domain.WebhookSubscription)}
	for _, sub := range subs {
		f.byID[sub.ID] = sub
	}
	return f
}

func (f *fakeSubscriptionStore) Create(_ context.Context, sub *domain.WebhookSubscription) error {
	f.byID[sub.ID] = sub
	return nil
}

func (f *fakeSubscriptionStore) GetByID(_ context.Context, id uuid.UUID) (*domain.WebhookSubscription, error) {
	sub, ok := f.byID[id]
	if !ok {
		return nil, store.ErrSubscriptionNotFound
	}
	return sub, nil
}

func (f *fakeSubscriptionStore) List(_ context.Context) ([]*domain.WebhookSubscription, error) {
	out := make([]*domain.WebhookSubscription, 0, len(f.byID))
	for _, sub := range f.byID {
		out = append(out, sub)
	}
	return out, nil
}

func (f *fakeSubscriptionStore) ListActive(_ context.Context) ([]*domain.WebhookSubscription, error) {
	out := make([]*domain.WebhookSubscription, 0, len(f.byID))
	for _, sub := range f.byID {
		if sub.IsActive {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (f *fakeSubscriptionStore) Update(_ context.Context, sub *domain.WebhookSubscription) error {
	if _, ok := f.byID[sub.ID]; !ok {
		return store.ErrSubscriptionNotFound
	}
	f.byID[sub.ID] = sub
	return nil
}

func (f *fakeSubscriptionStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.byID[id]; !ok {
		return store.ErrSubscriptionNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeSubscriptionStore) WithTx(_ *sql.Tx) store.WebhookSubscriptionStore { return f }

// fakeNotificationStore is an in-memory store.NotificationStore.
type fakeNotificationStore struct {
	byID map[uuid.UUID]*domain.Notification
	read []uuid.UUID
}

func newFakeNotificationStore(notifications ...*domain.Notification) *fakeNotificationStore {
	f := &fakeNotificationStore{byID: make(map[uuid.UUID]*domain.Notification)}
	for _, n := range notifications {
		f.byID[n.ID] = n
	}
	return f
}

func (f *fakeNotificationStore) Create(_ context.Context, n *domain.Notification) error {
	f.byID[n.ID] = n
	return nil
}

func (f *fakeNotificationStore) ListForUser(_ context.Context, userID uuid.UUID, limit int) ([]*domain.Notification, error) {
	out := make([]*domain.Notification, 0, len(f.byID))
	for _, n := range f.byID {
		if n.UserID == nil || *n.UserID == userID {
			out = append(out, n)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (f *fakeNotificationStore) MarkRead(_ context.Context, id uuid.UUID) error {
	n, ok := f.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	n.Read = true
	f.read = append(f.read, id)
	return nil
}

func (f *fakeNotificationStore) WithTx(_ *sql.Tx) store.NotificationStore { return f }

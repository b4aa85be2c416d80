package service

import (
	"context"
	"database/sql"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/zspirit/aihm-back/internal/domain"
	"github.com/zspirit/aihm-back/internal/events"
	"github.com/zspirit/aihm-back/internal/storage"
	"github.com/zspirit/aihm-back/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeTxRunner runs the function directly; the in-memory stores ignore the
// nil transaction handle.
type fakeTxRunner struct {
	err error
}

func (f *fakeTxRunner) InTransaction(ctx context.Context, fn store.TxFn) error {
	if f.err != nil {
		return f.err
	}
	return fn(ctx, nil)
}

type fakeCandidateStore struct {
	store.CandidateStore
	byID   map[uuid.UUID]*domain.Candidate
	emails map[string]bool
}

func newFakeCandidateStore(candidates ...*domain.Candidate) *fakeCandidateStore {
	f := &fakeCandidateStore{
		byID:   make(map[uuid.UUID]*domain.Candidate),
		emails: make(map[string]bool),
	}
	for _, c := range candidates {
		f.byID[c.ID] = c
		if c.Email != "" {
			f.emails[c.Email] = true
		}
	}
	return f
}

func (f *fakeCandidateStore) Create(_ context.Context, c *domain.Candidate) error {
	if c.Email != "" && f.emails[c.Email] {
		return store.ErrDuplicateEmail
	}
	f.byID[c.ID] = c
	if c.Email != "" {
		f.emails[c.Email] = true
	}
	return nil
}

func (f *fakeCandidateStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Candidate, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, store.ErrCandidateNotFound
	}
	copied := *c
	return &copied, nil
}

func (f *fakeCandidateStore) Update(_ context.Context, c *domain.Candidate) error {
	if _, ok := f.byID[c.ID]; !ok {
		return store.ErrCandidateNotFound
	}
	f.byID[c.ID] = c
	return nil
}

func (f *fakeCandidateStore) WithTx(_ *sql.Tx) store.CandidateStore { return f }

type fakePositionStore struct {
	byID map[uuid.UUID]*domain.Position
}

func newFakePositionStore(positions ...*domain.Position) *fakePositionStore {
	f := &fakePositionStore{byID: make(map[uuid.UUID]*domain.Position)}
	for _, p := range positions {
		f.byID[p.ID] = p
	}
	return f
}

func (f *fakePositionStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Position, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, store.ErrPositionNotFound
	}
	return p, nil
}

type fakeConsentStore struct {
	store.ConsentStore
	byCandidate map[uuid.UUID][]*domain.Consent
	byToken     map[string]*domain.Consent
	created     []*domain.Consent
}

func newFakeConsentStore(consents ...*domain.Consent) *fakeConsentStore {
	f := &fakeConsentStore{
		byCandidate: make(map[uuid.UUID][]*domain.Consent),
		byToken:     make(map[string]*domain.Consent),
	}
	for _, c := range consents {
		f.byCandidate[c.CandidateID] = append(f.byCandidate[c.CandidateID], c)
		f.byToken[c.Token] = c
	}
	return f
}

func (f *fakeConsentStore) Create(_ context.Context, c *domain.Consent) error {
	f.byCandidate[c.CandidateID] = append(f.byCandidate[c.CandidateID], c)
	f.byToken[c.Token] = c
	f.created = append(f.created, c)
	return nil
}

func (f *fakeConsentStore) GetByToken(_ context.Context, token string) (*domain.Consent, error) {
	c, ok := f.byToken[token]
	if !ok {
		return nil, store.ErrConsentNotFound
	}
	copied := *c
	return &copied, nil
}

func (f *fakeConsentStore) FindByCandidate(_ context.Context, candidateID uuid.UUID) ([]*domain.Consent, error) {
	return f.byCandidate[candidateID], nil
}

func (f *fakeConsentStore) HasGranted(_ context.Context, candidateID uuid.UUID, consentType domain.ConsentType) (bool, error) {
	for _, c := range f.byCandidate[candidateID] {
		if c.Type == consentType && c.Granted {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeConsentStore) Update(_ context.Context, c *domain.Consent) error {
	for i, existing := range f.byCandidate[c.CandidateID] {
		if existing.ID == c.ID {
			f.byCandidate[c.CandidateID][i] = c
			f.byToken[c.Token] = c
			return nil
		}
	}
	return store.ErrConsentNotFound
}

func (f *fakeConsentStore) WithTx(_ *sql.Tx) store.ConsentStore { return f }

type fakeInterviewStore struct {
	store.InterviewStore
	byID    map[uuid.UUID]*domain.Interview
	created []*domain.Interview
}

func newFakeInterviewStore(interviews ...*domain.Interview) *fakeInterviewStore {
	f := &fakeInterviewStore{byID: make(map[uuid.UUID]*domain.Interview)}
	for _, iv := range interviews {
		f.byID[iv.ID] = iv
	}
	return f
}

func (f *fakeInterviewStore) Create(_ context.Context, iv *domain.Interview) error {
	f.byID[iv.ID] = iv
	f.created = append(f.created, iv)
	return nil
}

func (f *fakeInterviewStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Interview, error) {
	iv, ok := f.byID[id]
	if !ok {
		return nil, store.ErrInterviewNotFound
	}
	return iv, nil
}

func (f *fakeInterviewStore) CountByCandidate(_ context.Context, candidateID uuid.UUID) (int, error) {
	count := 0
	for _, iv := range f.byID {
		if iv.CandidateID == candidateID {
			count++
		}
	}
	return count, nil
}

func (f *fakeInterviewStore) WithTx(_ *sql.Tx) store.InterviewStore { return f }

type fakeBulkImportStore struct {
	store.BulkImportStore
	byID map[uuid.UUID]*domain.BulkImport
}

func newFakeBulkImportStore() *fakeBulkImportStore {
	return &fakeBulkImportStore{byID: make(map[uuid.UUID]*domain.BulkImport)}
}

func (f *fakeBulkImportStore) Create(_ context.Context, imp *domain.BulkImport) error {
	f.byID[imp.ID] = imp
	return nil
}

func (f *fakeBulkImportStore) GetByID(_ context.Context, id uuid.UUID) (*domain.BulkImport, error) {
	imp, ok := f.byID[id]
	if !ok {
		return nil, store.ErrBulkImportNotFound
	}
	return imp, nil
}

func (f *fakeBulkImportStore) WithTx(_ *sql.Tx) store.BulkImportStore { return f }

type fakeBlobStore struct {
	objects map[string][]byte
	err     error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: make(map[string][]byte)}
}

func (f *fakeBlobStore) Upload(_ context.Context, key string, data []byte, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.objects[key] = data
	return nil
}

func (f *fakeBlobStore) Download(_ context.Context, key string) ([]byte, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return data, nil
}

func (f *fakeBlobStore) Delete(_ context.Context, key string) error {
	delete(f.objects, key)
	return nil
}

type fakeEmitter struct {
	emitted []*events.StageRequestEvent
	err     error
}

func (f *fakeEmitter) EmitEvent(_ context.Context, event *events.StageRequestEvent) error {
	if f.err != nil {
		return f.err
	}
	f.emitted = append(f.emitted, event)
	return nil
}

type dispatchedEvent struct {
	tenantID uuid.UUID
	event    domain.WebhookEvent
	data     any
}

type fakeDispatcher struct {
	dispatched []dispatchedEvent
}

func (f *fakeDispatcher) Dispatch(_ context.Context, tenantID uuid.UUID, event domain.WebhookEvent, data any) int {
	f.dispatched = append(f.dispatched, dispatchedEvent{tenantID: tenantID, event: event, data: data})
	return 1
}

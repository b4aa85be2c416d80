package pipeline

import (
	"context"
	"database/sql"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/zspirit/aihm-back/internal/domain"
	"github.com/zspirit/aihm-back/internal/events"
	"github.com/zspirit/aihm-back/internal/generation"
	"github.com/zspirit/aihm-back/internal/storage"
	"github.com/zspirit/aihm-back/internal/store"
	"github.com/zspirit/aihm-back/internal/telephony"
	"github.com/zspirit/aihm-back/internal/transcribe"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newUUID() uuid.UUID { return uuid.New() }

// fakeCandidateStore keeps candidates in memory and records mutations.
type fakeCandidateStore struct {
	store.CandidateStore
	byID          map[uuid.UUID]*domain.Candidate
	emails        map[string]bool
	created       []*domain.Candidate
	updated       []*domain.Candidate
	statusUpdates map[uuid.UUID]domain.PipelineStatus
	createErr     error
}

func newFakeCandidateStore(candidates ...*domain.Candidate) *fakeCandidateStore {
	f := &fakeCandidateStore{
		byID:          make(map[uuid.UUID]*domain.Candidate),
		emails:        make(map[string]bool),
		statusUpdates: make(map[uuid.UUID]domain.PipelineStatus),
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
	if f.createErr != nil {
		return f.createErr
	}
	if c.Email != "" && f.emails[c.Email] {
		return store.ErrDuplicateEmail
	}
	f.byID[c.ID] = c
	if c.Email != "" {
		f.emails[c.Email] = true
	}
	f.created = append(f.created, c)
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
	f.updated = append(f.updated, c)
	return nil
}

func (f *fakeCandidateStore) UpdatePipelineStatus(_ context.Context, id uuid.UUID, status domain.PipelineStatus) error {
	c, ok := f.byID[id]
	if !ok {
		return store.ErrCandidateNotFound
	}
	c.PipelineStatus = status
	f.statusUpdates[id] = status
	return nil
}

func (f *fakeCandidateStore) ExistsByEmail(_ context.Context, _ uuid.UUID, email string) (bool, error) {
	return f.emails[email], nil
}

func (f *fakeCandidateStore) WithTx(_ *sql.Tx) store.CandidateStore { return f }

// fakePositionStore serves positions by ID.
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

// fakeInterviewStore keeps interviews in memory.
type fakeInterviewStore struct {
	store.InterviewStore
	byID    map[uuid.UUID]*domain.Interview
	updated []*domain.Interview
}

func newFakeInterviewStore(interviews ...*domain.Interview) *fakeInterviewStore {
	f := &fakeInterviewStore{byID: make(map[uuid.UUID]*domain.Interview)}
	for _, iv := range interviews {
		f.byID[iv.ID] = iv
	}
	return f
}

func (f *fakeInterviewStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Interview, error) {
	iv, ok := f.byID[id]
	if !ok {
		return nil, store.ErrInterviewNotFound
	}
	copied := *iv
	return &copied, nil
}

func (f *fakeInterviewStore) Update(_ context.Context, iv *domain.Interview) error {
	if _, ok := f.byID[iv.ID]; !ok {
		return store.ErrInterviewNotFound
	}
	f.byID[iv.ID] = iv
	f.updated = append(f.updated, iv)
	return nil
}

func (f *fakeInterviewStore) WithTx(_ *sql.Tx) store.InterviewStore { return f }

// fakeArtifactStore keeps the per-interview artifacts in memory and enforces
// the one-per-interview constraint the way the database does.
type fakeArtifactStore struct {
	transcriptions map[uuid.UUID]*domain.Transcription
	analyses       map[uuid.UUID]*domain.Analysis
	reports        map[uuid.UUID]*domain.Report
}

func newFakeArtifactStore() *fakeArtifactStore {
	return &fakeArtifactStore{
		transcriptions: make(map[uuid.UUID]*domain.Transcription),
		analyses:       make(map[uuid.UUID]*domain.Analysis),
		reports:        make(map[uuid.UUID]*domain.Report),
	}
}

func (f *fakeArtifactStore) CreateTranscription(_ context.Context, t *domain.Transcription) error {
	if _, exists := f.transcriptions[t.InterviewID]; exists {
		return store.ErrDuplicateArtifact
	}
	f.transcriptions[t.InterviewID] = t
	return nil
}

func (f *fakeArtifactStore) GetTranscription(_ context.Context, interviewID uuid.UUID) (*domain.Transcription, error) {
	t, ok := f.transcriptions[interviewID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return t, nil
}

func (f *fakeArtifactStore) CreateAnalysis(_ context.Context, a *domain.Analysis) error {
	if _, exists := f.analyses[a.InterviewID]; exists {
		return store.ErrDuplicateArtifact
	}
	f.analyses[a.InterviewID] = a
	return nil
}

func (f *fakeArtifactStore) GetAnalysis(_ context.Context, interviewID uuid.UUID) (*domain.Analysis, error) {
	a, ok := f.analyses[interviewID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return a, nil
}

func (f *fakeArtifactStore) CreateReport(_ context.Context, r *domain.Report) error {
	if _, exists := f.reports[r.InterviewID]; exists {
		return store.ErrDuplicateArtifact
	}
	f.reports[r.InterviewID] = r
	return nil
}

func (f *fakeArtifactStore) GetReport(_ context.Context, interviewID uuid.UUID) (*domain.Report, error) {
	r, ok := f.reports[interviewID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return r, nil
}

func (f *fakeArtifactStore) WithTx(_ *sql.Tx) store.ArtifactStore { return f }

// fakeConsentStore serves consents by candidate.
type fakeConsentStore struct {
	store.ConsentStore
	byCandidate map[uuid.UUID][]*domain.Consent
	created     []*domain.Consent
	createErr   error
}

func newFakeConsentStore(consents ...*domain.Consent) *fakeConsentStore {
	f := &fakeConsentStore{byCandidate: make(map[uuid.UUID][]*domain.Consent)}
	for _, c := range consents {
		f.byCandidate[c.CandidateID] = append(f.byCandidate[c.CandidateID], c)
	}
	return f
}

func (f *fakeConsentStore) Create(_ context.Context, c *domain.Consent) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.byCandidate[c.CandidateID] = append(f.byCandidate[c.CandidateID], c)
	f.created = append(f.created, c)
	return nil
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

func (f *fakeConsentStore) WithTx(_ *sql.Tx) store.ConsentStore { return f }

// fakeNotificationStore records created notifications.
type fakeNotificationStore struct {
	store.NotificationStore
	created []*domain.Notification
}

func (f *fakeNotificationStore) Create(_ context.Context, n *domain.Notification) error {
	f.created = append(f.created, n)
	return nil
}

func (f *fakeNotificationStore) WithTx(_ *sql.Tx) store.NotificationStore { return f }

// fakeBulkImportStore keeps bulk imports in memory.
type fakeBulkImportStore struct {
	store.BulkImportStore
	byID    map[uuid.UUID]*domain.BulkImport
	updates int
}

func newFakeBulkImportStore(imports ...*domain.BulkImport) *fakeBulkImportStore {
	f := &fakeBulkImportStore{byID: make(map[uuid.UUID]*domain.BulkImport)}
	for _, imp := range imports {
		f.byID[imp.ID] = imp
	}
	return f
}

func (f *fakeBulkImportStore) GetByID(_ context.Context, id uuid.UUID) (*domain.BulkImport, error) {
	imp, ok := f.byID[id]
	if !ok {
		return nil, store.ErrBulkImportNotFound
	}
	copied := *imp
	return &copied, nil
}

func (f *fakeBulkImportStore) Update(_ context.Context, imp *domain.BulkImport) error {
	if _, ok := f.byID[imp.ID]; !ok {
		return store.ErrBulkImportNotFound
	}
	copied := *imp
	f.byID[imp.ID] = &copied
	f.updates++
	return nil
}

func (f *fakeBulkImportStore) WithTx(_ *sql.Tx) store.BulkImportStore { return f }

// fakeBlobStore keeps blobs in memory.
type fakeBlobStore struct {
	objects map[string][]byte
	uploads []string
	deleted []string
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: make(map[string][]byte)}
}

func (f *fakeBlobStore) Upload(_ context.Context, key string, data []byte, _ string) error {
	f.objects[key] = data
	f.uploads = append(f.uploads, key)
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
	f.deleted = append(f.deleted, key)
	return nil
}

// fakeGenerator answers AI calls from canned values.
type fakeGenerator struct {
	profile   *domain.CVProfile
	score     *domain.ScoreResult
	questions []domain.Question
	analysis  *domain.AnalysisResult
	report    *domain.ReportContent
	err       error
}

var _ generation.Generator = (*fakeGenerator)(nil)

func (f *fakeGenerator) ExtractProfile(_ context.Context, _ []byte, _ string) (*domain.CVProfile, error) {
	return f.profile, f.err
}

func (f *fakeGenerator) ScoreCandidate(_ context.Context, _ *domain.CVProfile, _ *domain.Position) (*domain.ScoreResult, error) {
	return f.score, f.err
}

func (f *fakeGenerator) GenerateQuestions(_ context.Context, _ *domain.CVProfile, _ *domain.Position) ([]domain.Question, error) {
	return f.questions, f.err
}

func (f *fakeGenerator) AnalyzeTranscript(_ context.Context, _ string, _ *domain.Position) (*domain.AnalysisResult, error) {
	return f.analysis, f.err
}

func (f *fakeGenerator) GenerateReport(_ context.Context, _ generation.ReportInput) (*domain.ReportContent, error) {
	return f.report, f.err
}

// dispatchedEvent records one webhook dispatch.
type dispatchedEvent struct {
	tenantID uuid.UUID
	event    domain.WebhookEvent
	data     any
}

// fakeDispatcher records webhook dispatches.
type fakeDispatcher struct {
	dispatched []dispatchedEvent
}

func (f *fakeDispatcher) Dispatch(_ context.Context, tenantID uuid.UUID, event domain.WebhookEvent, data any) int {
	f.dispatched = append(f.dispatched, dispatchedEvent{tenantID: tenantID, event: event, data: data})
	return 1
}

// fakeEmitter records emitted stage-request events.
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

func (f *fakeEmitter) stages() []string {
	names := make([]string, 0, len(f.emitted))
	for _, e := range f.emitted {
		names = append(names, e.Stage)
	}
	return names
}

// sentEmail records one outbound email.
type sentEmail struct {
	to      string
	subject string
	html    string
}

// fakeSender records sent emails.
type fakeSender struct {
	sent []sentEmail
	err  error
}

func (f *fakeSender) Send(_ context.Context, to, subject, htmlBody string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentEmail{to: to, subject: subject, html: htmlBody})
	return nil
}

// fakeCallProvider records initiated calls.
type fakeCallProvider struct {
	telephony.Provider
	callID   string
	err      error
	requests []telephony.CallRequest
}

func (f *fakeCallProvider) InitiateCall(_ context.Context, req telephony.CallRequest) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.requests = append(f.requests, req)
	return f.callID, nil
}

// fakeTranscriber returns a canned transcription result.
type fakeTranscriber struct {
	result *transcribe.Result
	err    error
	calls  int
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ []byte, _ string) (*transcribe.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

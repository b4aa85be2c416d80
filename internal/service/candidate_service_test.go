package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zspirit/aihm-back/internal/domain"
	"github.com/zspirit/aihm-back/internal/events"
	"github.com/zspirit/aihm-back/internal/storage"
	"github.com/zspirit/aihm-back/internal/store"
)

type candidateServiceFixture struct {
	candidates *fakeCandidateStore
	positions  *fakePositionStore
	consents   *fakeConsentStore
	blobs      *fakeBlobStore
	emitter    *fakeEmitter
	svc        CandidateService
}

func newCandidateServiceFixture(t *testing.T, position *domain.Position, candidates ...*domain.Candidate) *candidateServiceFixture {
	t.Helper()
	f := &candidateServiceFixture{
		candidates: newFakeCandidateStore(candidates...),
		positions:  newFakePositionStore(position),
		consents:   newFakeConsentStore(),
		blobs:      newFakeBlobStore(),
		emitter:    &fakeEmitter{},
	}
	svc, err := NewCandidateService(f.candidates, f.positions, f.consents, f.blobs, &fakeTxRunner{}, f.emitter, discardLogger())
	require.NoError(t, err)
	f.svc = svc
	return f
}

func testPosition(tenantID uuid.UUID) *domain.Position {
	return &domain.Position{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Title:     "Backend Engineer",
		CreatedAt: time.Now().UTC(),
	}
}

func TestCreateCandidate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("creates candidate with both pending consents", func(t *testing.T) {
		t.Parallel()
		tenantID := uuid.New()
		position := testPosition(tenantID)
		f := newCandidateServiceFixture(t, position)

		candidate, err := f.svc.CreateCandidate(ctx, tenantID, position.ID, "Marie Dupont", "marie@example.com", "+33612345678")
		require.NoError(t, err)
		assert.Equal(t, domain.PipelineStatusNew, candidate.PipelineStatus)
		assert.Equal(t, tenantID, candidate.TenantID)

		stored, err := f.candidates.GetByID(ctx, candidate.ID)
		require.NoError(t, err)
		assert.Equal(t, "marie@example.com", stored.Email)

		require.Len(t, f.consents.created, len(domain.AllConsentTypes))
		types := make(map[domain.ConsentType]bool)
		for _, c := range f.consents.created {
			assert.Equal(t, candidate.ID, c.CandidateID)
			assert.False(t, c.Granted)
			assert.NotEmpty(t, c.Token)
			types[c.Type] = true
		}
		assert.True(t, types[domain.ConsentTypeDataProcessing])
		assert.True(t, types[domain.ConsentTypeCallRecording])
	})

	t.Run("rejects duplicate email within the position", func(t *testing.T) {
		t.Parallel()
		tenantID := uuid.New()
		position := testPosition(tenantID)
		f := newCandidateServiceFixture(t, position)

		_, err := f.svc.CreateCandidate(ctx, tenantID, position.ID, "Marie Dupont", "marie@example.com", "")
		require.NoError(t, err)

		_, err = f.svc.CreateCandidate(ctx, tenantID, position.ID, "Marie D.", "marie@example.com", "")
		assert.ErrorIs(t, err, store.ErrDuplicateEmail)
	})

	t.Run("hides positions belonging to another tenant", func(t *testing.T) {
		t.Parallel()
		position := testPosition(uuid.New())
		f := newCandidateServiceFixture(t, position)

		_, err := f.svc.CreateCandidate(ctx, uuid.New(), position.ID, "Marie Dupont", "", "")
		assert.ErrorIs(t, err, store.ErrPositionNotFound)
	})

	t.Run("unknown position", func(t *testing.T) {
		t.Parallel()
		tenantID := uuid.New()
		f := newCandidateServiceFixture(t, testPosition(tenantID))

		_, err := f.svc.CreateCandidate(ctx, tenantID, uuid.New(), "Marie Dupont", "", "")
		assert.ErrorIs(t, err, store.ErrPositionNotFound)
	})
}

func TestUploadCV(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	newFixtureWithCandidate := func(t *testing.T, status domain.PipelineStatus) (*candidateServiceFixture, *domain.Candidate) {
		t.Helper()
		tenantID := uuid.New()
		position := testPosition(tenantID)
		candidate, err := domain.NewCandidate(tenantID, position.ID, "Marie Dupont", "marie@example.com", "")
		require.NoError(t, err)
		candidate.PipelineStatus = status
		return newCandidateServiceFixture(t, position, candidate), candidate
	}

	t.Run("stores blob, advances status and enqueues processing", func(t *testing.T) {
		t.Parallel()
		f, candidate := newFixtureWithCandidate(t, domain.PipelineStatusNew)

		updated, err := f.svc.UploadCV(ctx, candidate.ID, "cv.pdf", []byte("%PDF-1.4"), "application/pdf")
		require.NoError(t, err)
		assert.Equal(t, domain.PipelineStatusCVUploaded, updated.PipelineStatus)

		key := storage.CVKey(candidate.TenantID, candidate.ID, "cv.pdf")
		assert.Equal(t, key, updated.CVFilePath)
		assert.Equal(t, []byte("%PDF-1.4"), f.blobs.objects[key])

		require.Len(t, f.emitter.emitted, 1)
		assert.Equal(t, events.StageProcessCV, f.emitter.emitted[0].Stage)
		var payload events.CandidatePayload
		require.NoError(t, f.emitter.emitted[0].UnmarshalPayload(&payload))
		assert.Equal(t, candidate.ID, payload.CandidateID)
	})

	t.Run("replacing the CV before processing is allowed", func(t *testing.T) {
		t.Parallel()
		f, candidate := newFixtureWithCandidate(t, domain.PipelineStatusCVUploaded)

		updated, err := f.svc.UploadCV(ctx, candidate.ID, "cv-v2.pdf", []byte("%PDF-1.4"), "application/pdf")
		require.NoError(t, err)
		assert.Equal(t, domain.PipelineStatusCVUploaded, updated.PipelineStatus)
		assert.Len(t, f.emitter.emitted, 1)
	})

	t.Run("rejected once the CV has been analyzed", func(t *testing.T) {
		t.Parallel()
		f, candidate := newFixtureWithCandidate(t, domain.PipelineStatusCVAnalyzed)

		_, err := f.svc.UploadCV(ctx, candidate.ID, "cv.pdf", []byte("%PDF-1.4"), "application/pdf")
		assert.ErrorIs(t, err, ErrCVAlreadyProcessed)
		assert.Empty(t, f.blobs.objects)
		assert.Empty(t, f.emitter.emitted)
	})

	t.Run("unknown candidate", func(t *testing.T) {
		t.Parallel()
		f, _ := newFixtureWithCandidate(t, domain.PipelineStatusNew)

		_, err := f.svc.UploadCV(ctx, uuid.New(), "cv.pdf", []byte("x"), "application/pdf")
		assert.ErrorIs(t, err, store.ErrCandidateNotFound)
	})
}

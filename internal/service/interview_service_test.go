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
)

type interviewServiceFixture struct {
	interviews *fakeInterviewStore
	candidates *fakeCandidateStore
	consents   *fakeConsentStore
	emitter    *fakeEmitter
	svc        InterviewService
}

func newInterviewServiceFixture(t *testing.T, candidate *domain.Candidate, consents []*domain.Consent, interviews ...*domain.Interview) *interviewServiceFixture {
	t.Helper()
	f := &interviewServiceFixture{
		interviews: newFakeInterviewStore(interviews...),
		candidates: newFakeCandidateStore(candidate),
		consents:   newFakeConsentStore(consents...),
		emitter:    &fakeEmitter{},
	}
	svc, err := NewInterviewService(f.interviews, f.candidates, f.consents, &fakeTxRunner{}, f.emitter, discardLogger())
	require.NoError(t, err)
	f.svc = svc
	return f
}

func scheduleReadyCandidate(t *testing.T) (*domain.Candidate, []*domain.Consent) {
	t.Helper()
	candidate, err := domain.NewCandidate(uuid.New(), uuid.New(), "Marie Dupont", "marie@example.com", "+33612345678")
	require.NoError(t, err)
	candidate.PipelineStatus = domain.PipelineStatusConsentGiven

	consents := pendingConsents(t, candidate.ID)
	for _, c := range consents {
		require.NoError(t, c.Grant("web", "203.0.113.7"))
	}
	return candidate, consents
}

func TestScheduleInterview(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("creates the interview and enqueues the call", func(t *testing.T) {
		t.Parallel()
		candidate, consents := scheduleReadyCandidate(t)
		f := newInterviewServiceFixture(t, candidate, consents)

		scheduledAt := time.Now().UTC().Add(time.Hour)
		interview, err := f.svc.ScheduleInterview(ctx, candidate.ID, &scheduledAt)
		require.NoError(t, err)
		assert.Equal(t, domain.InterviewStatusScheduled, interview.Status)
		assert.Equal(t, 1, interview.AttemptNumber)
		assert.Equal(t, candidate.TenantID, interview.TenantID)
		require.NotNil(t, interview.ScheduledAt)
		assert.Equal(t, scheduledAt, *interview.ScheduledAt)

		stored, err := f.candidates.GetByID(ctx, candidate.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PipelineStatusCallScheduled, stored.PipelineStatus)

		require.Len(t, f.emitter.emitted, 1)
		assert.Equal(t, events.StageInitiateCall, f.emitter.emitted[0].Stage)
		var payload events.InterviewPayload
		require.NoError(t, f.emitter.emitted[0].UnmarshalPayload(&payload))
		assert.Equal(t, interview.ID, payload.InterviewID)
	})

	t.Run("numbers retry attempts from the existing count", func(t *testing.T) {
		t.Parallel()
		candidate, consents := scheduleReadyCandidate(t)
		candidate.PipelineStatus = domain.PipelineStatusCallScheduled

		prior, err := domain.NewInterview(candidate.ID, candidate.PositionID, candidate.TenantID, nil, 1)
		require.NoError(t, err)
		prior.Status = domain.InterviewStatusNoAnswer
		f := newInterviewServiceFixture(t, candidate, consents, prior)

		interview, err := f.svc.ScheduleInterview(ctx, candidate.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, 2, interview.AttemptNumber)

		// Retrying from call_scheduled must not be treated as a regression.
		stored, err := f.candidates.GetByID(ctx, candidate.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PipelineStatusCallScheduled, stored.PipelineStatus)
	})

	t.Run("enforces the attempt limit", func(t *testing.T) {
		t.Parallel()
		candidate, consents := scheduleReadyCandidate(t)
		priors := make([]*domain.Interview, 0, domain.MaxInterviewAttempts)
		for i := 1; i <= domain.MaxInterviewAttempts; i++ {
			iv, err := domain.NewInterview(candidate.ID, candidate.PositionID, candidate.TenantID, nil, i)
			require.NoError(t, err)
			iv.Status = domain.InterviewStatusNoAnswer
			priors = append(priors, iv)
		}
		f := newInterviewServiceFixture(t, candidate, consents, priors...)

		_, err := f.svc.ScheduleInterview(ctx, candidate.ID, nil)
		assert.ErrorIs(t, err, ErrAttemptLimit)
		assert.Empty(t, f.emitter.emitted)
	})

	t.Run("requires a phone number", func(t *testing.T) {
		t.Parallel()
		candidate, consents := scheduleReadyCandidate(t)
		candidate.Phone = ""
		f := newInterviewServiceFixture(t, candidate, consents)

		_, err := f.svc.ScheduleInterview(ctx, candidate.ID, nil)
		assert.ErrorIs(t, err, ErrMissingPhone)
	})

	t.Run("requires the call recording consent", func(t *testing.T) {
		t.Parallel()
		candidate, _ := scheduleReadyCandidate(t)
		f := newInterviewServiceFixture(t, candidate, pendingConsents(t, candidate.ID))

		_, err := f.svc.ScheduleInterview(ctx, candidate.ID, nil)
		assert.ErrorIs(t, err, ErrConsentRequired)
		assert.Empty(t, f.interviews.created)
	})
}

package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zspirit/aihm-back/internal/domain"
	"github.com/zspirit/aihm-back/internal/events"
)

func TestConsentNotifyStage(t *testing.T) {
	position := &domain.Position{ID: newUUID(), TenantID: newUUID(), Title: "Data Analyst"}

	setup := func(t *testing.T) (*ConsentNotifyStage, *fakeCandidateStore, *fakeSender, *domain.Candidate, *domain.Consent) {
		t.Helper()
		candidate, err := domain.NewCandidate(position.TenantID, position.ID, "Karim Benali", "karim@example.com", "")
		require.NoError(t, err)
		require.NoError(t, candidate.AdvanceTo(domain.PipelineStatusCVUploaded))
		require.NoError(t, candidate.AdvanceTo(domain.PipelineStatusCVAnalyzed))

		consent, err := domain.NewConsent(candidate.ID, domain.ConsentTypeDataProcessing)
		require.NoError(t, err)
		recording, err := domain.NewConsent(candidate.ID, domain.ConsentTypeCallRecording)
		require.NoError(t, err)

		candidates := newFakeCandidateStore(candidate)
		sender := &fakeSender{}
		stage := NewConsentNotifyStage(
			candidates,
			newFakePositionStore(position),
			newFakeConsentStore(consent, recording),
			sender,
			"https://app.example.com/",
			"Acme Recrutement",
			discardLogger(),
		)
		return stage, candidates, sender, candidate, consent
	}

	execute := func(t *testing.T, stage *ConsentNotifyStage, candidate *domain.Candidate) ([]Next, error) {
		t.Helper()
		payload, err := json.Marshal(events.CandidatePayload{CandidateID: candidate.ID})
		require.NoError(t, err)
		return stage.Execute(context.Background(), payload)
	}

	t.Run("emails the consent link and invites the candidate", func(t *testing.T) {
		stage, candidates, sender, candidate, consent := setup(t)

		next, err := execute(t, stage, candidate)
		require.NoError(t, err)
		assert.Empty(t, next)

		require.Len(t, sender.sent, 1)
		email := sender.sent[0]
		assert.Equal(t, "karim@example.com", email.to)
		assert.Contains(t, email.subject, "Data Analyst")
		assert.Contains(t, email.html, fmt.Sprintf("https://app.example.com/consent/%s", consent.Token))
		assert.Contains(t, email.html, "Karim Benali")

		assert.Equal(t, domain.PipelineStatusInvited, candidates.byID[candidate.ID].PipelineStatus)
	})

	t.Run("does not regress an already invited candidate", func(t *testing.T) {
		stage, candidates, sender, candidate, _ := setup(t)
		require.NoError(t, candidates.byID[candidate.ID].AdvanceTo(domain.PipelineStatusInvited))

		_, err := execute(t, stage, candidate)
		require.NoError(t, err)
		assert.Len(t, sender.sent, 1)
		assert.Empty(t, candidates.updated, "status already invited, no write needed")
	})

	t.Run("skips candidates without an email address", func(t *testing.T) {
		stage, candidates, sender, candidate, _ := setup(t)
		candidates.byID[candidate.ID].Email = ""

		next, err := execute(t, stage, candidate)
		require.NoError(t, err)
		assert.Empty(t, next)
		assert.Empty(t, sender.sent)
	})

	t.Run("send failure is retried", func(t *testing.T) {
		stage, candidates, sender, candidate, _ := setup(t)
		sender.err = assert.AnError

		_, err := execute(t, stage, candidate)
		require.Error(t, err)
		assert.Equal(t, domain.PipelineStatusCVAnalyzed, candidates.byID[candidate.ID].PipelineStatus,
			"status must not advance before the email is out")
	})
}

package pipeline

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zspirit/aihm-back/internal/domain"
	"github.com/zspirit/aihm-back/internal/events"
	"github.com/zspirit/aihm-back/internal/storage"
)

type reportStageFixture struct {
	interviews *fakeInterviewStore
	artifacts  *fakeArtifactStore
	blobs      *fakeBlobStore
	dispatcher *fakeDispatcher
	generator  *fakeGenerator
	interview  *domain.Interview
	candidate  *domain.Candidate
	position   *domain.Position
}

func newReportStageFixture(t *testing.T) *reportStageFixture {
	t.Helper()

	position := &domain.Position{ID: newUUID(), TenantID: newUUID(), Title: "Product Manager"}
	candidate, err := domain.NewCandidate(position.TenantID, position.ID, "Sami Haddad", "", "")
	require.NoError(t, err)

	interview, err := domain.NewInterview(candidate.ID, position.ID, position.TenantID, nil, 1)
	require.NoError(t, err)
	interview.Status = domain.InterviewStatusCompleted
	interview.AudioFilePath = storage.RecordingKey(interview.TenantID, interview.ID, "RE9")

	artifacts := newFakeArtifactStore()
	transcription, err := domain.NewTranscription(interview.ID, "full transcript", nil, "fr", 0.9)
	require.NoError(t, err)
	require.NoError(t, artifacts.CreateTranscription(context.Background(), transcription))
	analysis, err := domain.NewAnalysis(interview.ID, domain.AnalysisResult{})
	require.NoError(t, err)
	require.NoError(t, artifacts.CreateAnalysis(context.Background(), analysis))

	score := 78
	blobs := newFakeBlobStore()
	blobs.objects[interview.AudioFilePath] = []byte("audio")

	return &reportStageFixture{
		interviews: newFakeInterviewStore(interview),
		artifacts:  artifacts,
		blobs:      blobs,
		dispatcher: &fakeDispatcher{},
		generator: &fakeGenerator{report: &domain.ReportContent{
			Title:         "Rapport d'entretien - Sami Haddad",
			Position:      "Product Manager",
			Summary:       "Bon entretien dans l'ensemble.",
			MatchingScore: &score,
			Strengths:     []string{"communication claire"},
			KeyQuotes:     []string{"Je privilégie les données."},
		}},
		interview: interview,
		candidate: candidate,
		position:  position,
	}
}

func (f *reportStageFixture) stage(cleanupAudio bool) *ReportStage {
	return NewReportStage(
		f.interviews,
		newFakeCandidateStore(f.candidate),
		newFakePositionStore(f.position),
		f.artifacts,
		f.generator,
		f.blobs,
		f.dispatcher,
		cleanupAudio,
		discardLogger(),
	)
}

func (f *reportStageFixture) execute(t *testing.T, stage *ReportStage) ([]Next, error) {
	t.Helper()
	payload, err := json.Marshal(events.InterviewPayload{InterviewID: f.interview.ID})
	require.NoError(t, err)
	return stage.Execute(context.Background(), payload)
}

func TestReportStage(t *testing.T) {
	t.Run("stores the report and fires the webhook", func(t *testing.T) {
		f := newReportStageFixture(t)

		next, err := f.execute(t, f.stage(false))
		require.NoError(t, err)
		require.Len(t, next, 1)
		assert.Equal(t, events.StageNotifyFanout, next[0].Stage)

		saved, ok := f.artifacts.reports[f.interview.ID]
		require.True(t, ok)
		assert.Equal(t, f.candidate.ID, saved.CandidateID)

		reportKey := storage.ReportKey(f.interview.TenantID, f.interview.ID)
		rendered, ok := f.blobs.objects[reportKey]
		require.True(t, ok)
		assert.Contains(t, string(rendered), "Rapport d'entretien - Sami Haddad")
		assert.Contains(t, string(rendered), "Matching score: 78/100")
		assert.Contains(t, string(rendered), "- communication claire")

		require.Len(t, f.dispatcher.dispatched, 1)
		assert.Equal(t, domain.EventReportReady, f.dispatcher.dispatched[0].event)

		assert.Contains(t, f.blobs.objects, f.interview.AudioFilePath,
			"recording kept when cleanup is disabled")
	})

	t.Run("deletes the recording when cleanup is enabled", func(t *testing.T) {
		f := newReportStageFixture(t)

		_, err := f.execute(t, f.stage(true))
		require.NoError(t, err)

		assert.NotContains(t, f.blobs.objects, f.interview.AudioFilePath)
		assert.Empty(t, f.interviews.byID[f.interview.ID].AudioFilePath)
	})

	t.Run("redelivery re-enqueues fan-out without regenerating", func(t *testing.T) {
		f := newReportStageFixture(t)
		stage := f.stage(false)
		_, err := f.execute(t, stage)
		require.NoError(t, err)

		f.generator.err = assert.AnError
		next, err := f.execute(t, stage)
		require.NoError(t, err)
		require.Len(t, next, 1)
		assert.Equal(t, events.StageNotifyFanout, next[0].Stage)
		assert.Len(t, f.dispatcher.dispatched, 1, "webhook fires once")
	})
}

func TestRenderReportText(t *testing.T) {
	content := &domain.ReportContent{
		Title:          "Rapport",
		Position:       "QA",
		Date:           "2026-08-30",
		Summary:        "Résumé.",
		AreasToExplore: []string{"tests de charge"},
	}
	text := string(renderReportText(content))
	assert.Contains(t, text, "Rapport\n=======")
	assert.Contains(t, text, "Position: QA")
	assert.Contains(t, text, "Date: 2026-08-30")
	assert.Contains(t, text, "- tests de charge")
	assert.NotContains(t, text, "Matching score", "omitted when unset")
}

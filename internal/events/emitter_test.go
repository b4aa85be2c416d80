package events

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingHandler captures every event it receives.
type recordingHandler struct {
	events []*StageRequestEvent
	err    error
}

func (h *recordingHandler) HandleEvent(_ context.Context, event *StageRequestEvent) error {
	h.events = append(h.events, event)
	return h.err
}

func TestInMemoryEventEmitter_DispatchesToAllHandlers(t *testing.T) {
	t.Parallel()

	emitter := NewInMemoryEventEmitter(slog.Default())
	first := &recordingHandler{}
	second := &recordingHandler{}
	emitter.RegisterHandler(first)
	emitter.RegisterHandler(second)

	event, err := NewStageRequestEvent("cv.process", map[string]string{"candidate_id": "abc"})
	require.NoError(t, err)

	err = emitter.EmitEvent(context.Background(), event)
	require.NoError(t, err)

	assert.Len(t, first.events, 1)
	assert.Len(t, second.events, 1)
	assert.Equal(t, event.ID, first.events[0].ID)
}

func TestInMemoryEventEmitter_HandlerErrorDoesNotStopDispatch(t *testing.T) {
	t.Parallel()

	emitter := NewInMemoryEventEmitter(slog.Default())
	failing := &recordingHandler{err: errors.New("boom")}
	succeeding := &recordingHandler{}
	emitter.RegisterHandler(failing)
	emitter.RegisterHandler(succeeding)

	event, err := NewStageRequestEvent("analysis.analyze", nil)
	require.NoError(t, err)

	err = emitter.EmitEvent(context.Background(), event)
	assert.Error(t, err)
	assert.Len(t, succeeding.events, 1, "second handler should still receive the event")
}

func TestInMemoryEventEmitter_NoHandlers(t *testing.T) {
	t.Parallel()

	emitter := NewInMemoryEventEmitter(slog.Default())

	event, err := NewStageRequestEvent("report.generate", nil)
	require.NoError(t, err)

	assert.NoError(t, emitter.EmitEvent(context.Background(), event))
}

func TestStageRequestEvent_UnmarshalPayload(t *testing.T) {
	t.Parallel()

	event, err := NewStageRequestEvent("call.initiate", map[string]string{"interview_id": "xyz"})
	require.NoError(t, err)

	var payload struct {
		InterviewID string `json:"interview_id"`
	}
	require.NoError(t, event.UnmarshalPayload(&payload))
	assert.Equal(t, "xyz", payload.InterviewID)
}

package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/zspirit/aihm-back/internal/events"
)

// TaskSubmitter accepts tasks for background execution. Satisfied by
// *TaskRunner; narrowed to an interface so the handler is testable without
// a running worker pool.
type TaskSubmitter interface {
	Submit(ctx context.Context, task Task) error
}

// StageEventHandler implements the events.EventHandler interface. It turns
// stage-request events into executable tasks via the factory and submits
// them to the runner. This is the single bridge between the synchronous
// HTTP side and the background pipeline.
type StageEventHandler struct {
	factory   TaskFactory
	submitter TaskSubmitter
	logger    *slog.Logger
}

// NewStageEventHandler creates a new event handler that uses the given task
// factory to create stage tasks and submits them to the provided runner.
func NewStageEventHandler(factory TaskFactory, submitter TaskSubmitter, logger *slog.Logger) *StageEventHandler {
	return &StageEventHandler{
		factory:   factory,
		submitter: submitter,
		logger:    logger.With("component", "stage_event_handler"),
	}
}

// HandleEvent processes a stage-request event by creating and submitting
// the corresponding task.
func (h *StageEventHandler) HandleEvent(ctx context.Context, event *events.StageRequestEvent) error {
	h.logger.Debug("creating task for stage request",
		"stage", event.Stage,
		"event_id", event.ID)

	t, err := h.factory.CreateTask(uuid.New(), event.Stage, event.Payload)
	if err != nil {
		h.logger.Error("failed to create task",
			"error", err,
			"stage", event.Stage,
			"event_id", event.ID)
		return fmt.Errorf("failed to create task: %w", err)
	}

	if err := h.submitter.Submit(ctx, t); err != nil {
		h.logger.Error("failed to submit task",
			"error", err,
			"task_id", t.ID(),
			"stage", event.Stage,
			"event_id", event.ID)
		return fmt.Errorf("failed to submit task: %w", err)
	}

	h.logger.Info("task created and submitted successfully",
		"task_id", t.ID(),
		"stage", event.Stage,
		"event_id", event.ID)
	return nil
}

// Ensure StageEventHandler implements events.EventHandler
var _ events.EventHandler = (*StageEventHandler)(nil)

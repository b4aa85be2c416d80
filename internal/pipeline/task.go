package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/zspirit/aihm-back/internal/events"
	"github.com/zspirit/aihm-back/internal/task"
)

// StageTask adapts a registered stage handler to the task runner. After a
// successful Execute it enqueues the handler's requested successors as new
// stage-request events.
type StageTask struct {
	id      uuid.UUID
	handler Handler
	payload json.RawMessage
	emitter events.EventEmitter
	logger  *slog.Logger
}

var _ task.Task = (*StageTask)(nil)

// ID implements task.Task.ID
func (t *StageTask) ID() uuid.UUID { return t.id }

// Type implements task.Task.Type
func (t *StageTask) Type() string { return t.handler.Stage() }

// Payload implements task.Task.Payload
func (t *StageTask) Payload() []byte { return t.payload }

// Status implements task.Task.Status
func (t *StageTask) Status() task.TaskStatus { return task.TaskStatusPending }

// Execute implements task.Task.Execute
func (t *StageTask) Execute(ctx context.Context) error {
	next, err := t.handler.Execute(ctx, t.payload)
	if err != nil {
		return err
	}

	declared := t.handler.Successors()
	for _, n := range next {
		if !contains(declared, n.Stage) {
			// A handler enqueueing an undeclared stage is a programming
			// error; retrying cannot fix it.
			return task.Permanent(fmt.Errorf("stage %q returned undeclared successor %q", t.handler.Stage(), n.Stage))
		}
		event, err := events.NewStageRequestEvent(n.Stage, n.Payload)
		if err != nil {
			return fmt.Errorf("building successor event for stage %q: %w", n.Stage, err)
		}
		if err := t.emitter.EmitEvent(ctx, event); err != nil {
			return fmt.Errorf("enqueueing successor stage %q: %w", n.Stage, err)
		}
		t.logger.Debug("successor stage enqueued",
			slog.String("stage", t.handler.Stage()),
			slog.String("successor", n.Stage))
	}
	return nil
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// Factory builds executable stage tasks from persisted or event-borne
// (type, payload) pairs. It implements task.TaskFactory, which the runner
// also uses to rehydrate recovered task rows after a restart.
type Factory struct {
	registry *Registry
	emitter  events.EventEmitter
	logger   *slog.Logger
}

var _ task.TaskFactory = (*Factory)(nil)

// NewFactory creates a stage task factory over the registry.
func NewFactory(registry *Registry, emitter events.EventEmitter, logger *slog.Logger) *Factory {
	if registry == nil {
		panic("registry cannot be nil")
	}
	if emitter == nil {
		panic("emitter cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Factory{
		registry: registry,
		emitter:  emitter,
		logger:   logger.With(slog.String("component", "stage_factory")),
	}
}

// CreateTask implements task.TaskFactory.CreateTask
func (f *Factory) CreateTask(id uuid.UUID, taskType string, payload json.RawMessage) (task.Task, error) {
	handler, ok := f.registry.Handler(taskType)
	if !ok {
		return nil, fmt.Errorf("unknown pipeline stage %q", taskType)
	}
	return &StageTask{
		id:      id,
		handler: handler,
		payload: payload,
		emitter: f.emitter,
		logger:  f.logger,
	}, nil
}

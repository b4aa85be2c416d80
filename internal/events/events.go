package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// StageRequestEvent represents a request to run a pipeline stage as a
// background task. It carries the stage name and its serialized payload
// without direct dependencies on the task package.
type StageRequestEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Stage is the registered name of the pipeline stage to run
	Stage string `json:"stage"`

	// Payload contains the stage-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *StageRequestEvent) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// NewStageRequestEvent creates a new StageRequestEvent for the named stage.
func NewStageRequestEvent(stage string, payload any) (*StageRequestEvent, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &StageRequestEvent{
		ID:        uuid.New(),
		Stage:     stage,
		Payload:   payloadBytes,
		CreatedAt: time.Now(),
	}, nil
}

// EventHandler defines an interface for components that can handle events.
// Handlers are responsible for processing events and taking appropriate actions.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *StageRequestEvent) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows services and stages to publish events without direct
// knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *StageRequestEvent) error
}

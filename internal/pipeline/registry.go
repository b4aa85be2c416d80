// Package pipeline implements the candidate evaluation pipeline as a graph
// of named stages. Each stage is keyed by one entity ID, re-reads all state
// from the store, commits its own effects, and only then names the
// successor stages to enqueue. Chaining between stages always travels
// through the event emitter and the persisted task queue, never by direct
// call, so a crash between stages loses at most one enqueue.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
)

// Next names a follow-up stage to enqueue once the current stage has
// committed.
type Next struct {
	Stage   string
	Payload any
}

// Handler implements one pipeline stage.
type Handler interface {
	// Stage returns the unique stage name this handler serves.
	Stage() string

	// Successors returns every stage this handler may enqueue. The
	// registry validates them at construction; Execute may only return a
	// subset.
	Successors() []string

	// Execute runs the stage. The payload is the stage-request event
	// payload. The returned Next entries are enqueued by the caller after
	// Execute returns; an error means nothing is enqueued.
	Execute(ctx context.Context, payload json.RawMessage) ([]Next, error)
}

// Registry holds the stage graph. Construction fails fast on duplicate
// stage names and on successors that no handler serves, so a wiring mistake
// surfaces at startup instead of mid-pipeline.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry builds a validated registry from the given handlers.
func NewRegistry(handlers ...Handler) (*Registry, error) {
	r := &Registry{handlers: make(map[string]Handler, len(handlers))}
	for _, h := range handlers {
		name := h.Stage()
		if name == "" {
			return nil, fmt.Errorf("stage handler %T has an empty stage name", h)
		}
		if _, exists := r.handlers[name]; exists {
			return nil, fmt.Errorf("duplicate stage handler for %q", name)
		}
		r.handlers[name] = h
	}

	for name, h := range r.handlers {
		for _, successor := range h.Successors() {
			if _, ok := r.handlers[successor]; !ok {
				return nil, fmt.Errorf("stage %q declares unknown successor %q", name, successor)
			}
		}
	}
	return r, nil
}

// Handler returns the handler registered for the stage name.
func (r *Registry) Handler(stage string) (Handler, bool) {
	h, ok := r.handlers[stage]
	return h, ok
}

// Stages returns the registered stage names, sorted.
func (r *Registry) Stages() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

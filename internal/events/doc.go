// Package events provides types and interfaces for an event-driven architecture.
//
// This package defines event types and handler interfaces that allow for loose
// coupling between components in the system. HTTP handlers, telephony callbacks
// and pipeline stages emit stage-request events without knowing which handlers
// will process them, which keeps the stage packages free of circular
// dependencies on the task runner.
//
// The primary components are:
// - StageRequestEvent: Represents a request to run a pipeline stage
// - EventHandler: Interface for components that can handle events
// - EventEmitter: Interface for components that can emit events
package events

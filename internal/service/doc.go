// Package service contains the application-specific use cases and business
// logic. It orchestrates interactions between domain objects and repositories
// (defined in internal/store) to fulfill application features: candidate
// intake, consent collection, interview scheduling and bulk import
// submission.
//
// Services commit their own database state and only then enqueue pipeline
// stages through the event emitter, so a crash never leaves an enqueued
// stage pointing at uncommitted rows.
//
// The service layer depends on domain entities and repository interfaces
// (from store), but never on specific infrastructure implementations,
// maintaining the Dependency Inversion Principle of clean architecture.
package service

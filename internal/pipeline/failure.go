package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/zspirit/aihm-back/internal/domain"
	"github.com/zspirit/aihm-back/internal/store"
	"github.com/zspirit/aihm-back/internal/task"
)

// FailureMarker moves the entity behind a permanently failed stage task
// into its failed status, so recruiters and polling clients see the outcome
// instead of a row stuck at the last committed stage. Transient failures
// that merely exhausted their retries leave the entity untouched; the
// reconcile and recovery paths can still pick those up.
type FailureMarker struct {
	candidates store.CandidateStore
	interviews store.InterviewStore
	imports    store.BulkImportStore
	logger     *slog.Logger
}

// NewFailureMarker creates a FailureMarker over the given stores.
func NewFailureMarker(
	candidates store.CandidateStore,
	interviews store.InterviewStore,
	imports store.BulkImportStore,
	log *slog.Logger,
) *FailureMarker {
	if candidates == nil || interviews == nil || imports == nil {
		panic("failure marker stores cannot be nil")
	}
	if log == nil {
		panic("logger cannot be nil")
	}
	return &FailureMarker{
		candidates: candidates,
		interviews: interviews,
		imports:    imports,
		logger:     log.With(slog.String("component", "failure_marker")),
	}
}

// failurePayload matches whichever of the stage payload shapes the task
// carries; absent fields stay zero.
type failurePayload struct {
	CandidateID uuid.UUID `json:"candidate_id"`
	InterviewID uuid.UUID `json:"interview_id"`
	ImportID    uuid.UUID `json:"import_id"`
}

// OnTaskFailure is wired as the task runner's error handler. It acts only
// on permanent failures.
func (m *FailureMarker) OnTaskFailure(t task.Task, err error) {
	if !task.IsPermanent(err) {
		return
	}

	ctx := context.Background()
	log := m.logger.With(
		slog.String("task_id", t.ID().String()),
		slog.String("stage", t.Type()))

	var p failurePayload
	if jsonErr := json.Unmarshal(t.Payload(), &p); jsonErr != nil {
		log.Error("cannot decode failed task payload",
			slog.String("error", jsonErr.Error()))
		return
	}

	switch {
	case p.InterviewID != uuid.Nil:
		m.failInterview(ctx, log, p.InterviewID)
	case p.CandidateID != uuid.Nil:
		m.failCandidate(ctx, log, p.CandidateID)
	case p.ImportID != uuid.Nil:
		m.failImport(ctx, log, p.ImportID)
	}
}

func (m *FailureMarker) failInterview(ctx context.Context, log *slog.Logger, id uuid.UUID) {
	interview, err := m.interviews.GetByID(ctx, id)
	if err != nil {
		log.Error("cannot load interview for failure marking",
			slog.String("interview_id", id.String()),
			slog.String("error", err.Error()))
		return
	}
	if !interview.IsTerminal() {
		now := time.Now().UTC()
		interview.Status = domain.InterviewStatusFailed
		interview.EndedAt = &now
		if err := m.interviews.Update(ctx, interview); err != nil {
			log.Error("cannot mark interview failed",
				slog.String("interview_id", id.String()),
				slog.String("error", err.Error()))
			return
		}
		log.Info("interview marked failed",
			slog.String("interview_id", id.String()))
	}
	m.failCandidate(ctx, log, interview.CandidateID)
}

func (m *FailureMarker) failCandidate(ctx context.Context, log *slog.Logger, id uuid.UUID) {
	candidate, err := m.candidates.GetByID(ctx, id)
	if err != nil {
		log.Error("cannot load candidate for failure marking",
			slog.String("candidate_id", id.String()),
			slog.String("error", err.Error()))
		return
	}
	if candidate.IsTerminal() {
		// Already rejected, evaluated or failed: nothing to surface.
		return
	}
	if err := candidate.AdvanceTo(domain.PipelineStatusFailed); err != nil {
		if !errors.Is(err, domain.ErrStatusRegression) {
			log.Error("cannot advance candidate to failed",
				slog.String("candidate_id", id.String()),
				slog.String("error", err.Error()))
		}
		return
	}
	if err := m.candidates.UpdatePipelineStatus(ctx, candidate.ID, candidate.PipelineStatus); err != nil {
		log.Error("cannot mark candidate failed",
			slog.String("candidate_id", id.String()),
			slog.String("error", err.Error()))
		return
	}
	log.Info("candidate marked failed", slog.String("candidate_id", id.String()))
}

func (m *FailureMarker) failImport(ctx context.Context, log *slog.Logger, id uuid.UUID) {
	imp, err := m.imports.GetByID(ctx, id)
	if err != nil {
		log.Error("cannot load bulk import for failure marking",
			slog.String("import_id", id.String()),
			slog.String("error", err.Error()))
		return
	}
	if imp.IsTerminal() {
		return
	}
	now := time.Now().UTC()
	imp.Status = domain.BulkImportStatusFailed
	imp.CompletedAt = &now
	if err := m.imports.Update(ctx, imp); err != nil {
		log.Error("cannot mark bulk import failed",
			slog.String("import_id", id.String()),
			slog.String("error", err.Error()))
		return
	}
	log.Info("bulk import marked failed", slog.String("import_id", id.String()))
}

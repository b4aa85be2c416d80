package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/zspirit/aihm-back/internal/domain"
	"github.com/zspirit/aihm-back/internal/events"
	"github.com/zspirit/aihm-back/internal/generation"
	"github.com/zspirit/aihm-back/internal/platform/logger"
	"github.com/zspirit/aihm-back/internal/storage"
	"github.com/zspirit/aihm-back/internal/store"
	"github.com/zspirit/aihm-back/internal/task"
	"github.com/zspirit/aihm-back/internal/webhook"
)

// ReportStage builds the recruiter-facing evaluation report from the
// transcript and analysis, stores a rendered copy, and fans out the
// report-ready notifications. Once the report exists the call recording has
// served its purpose and is deleted when audio cleanup is enabled.
type ReportStage struct {
	interviews   store.InterviewStore
	candidates   store.CandidateStore
	positions    store.PositionStore
	artifacts    store.ArtifactStore
	generator    generation.Generator
	blobs        storage.BlobStore
	dispatcher   webhook.Dispatcher
	cleanupAudio bool
	logger       *slog.Logger
}

// NewReportStage creates the report.generate stage handler.
func NewReportStage(
	interviews store.InterviewStore,
	candidates store.CandidateStore,
	positions store.PositionStore,
	artifacts store.ArtifactStore,
	generator generation.Generator,
	blobs storage.BlobStore,
	dispatcher webhook.Dispatcher,
	cleanupAudio bool,
	log *slog.Logger,
) *ReportStage {
	return &ReportStage{
		interviews:   interviews,
		candidates:   candidates,
		positions:    positions,
		artifacts:    artifacts,
		generator:    generator,
		blobs:        blobs,
		dispatcher:   dispatcher,
		cleanupAudio: cleanupAudio,
		logger:       log.With(slog.String("component", "stage_report")),
	}
}

// Stage implements Handler.Stage
func (s *ReportStage) Stage() string { return events.StageGenerateReport }

// Successors implements Handler.Successors
func (s *ReportStage) Successors() []string { return []string{events.StageNotifyFanout} }

// Execute implements Handler.Execute
func (s *ReportStage) Execute(ctx context.Context, payload json.RawMessage) ([]Next, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var p events.InterviewPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, task.Permanent(fmt.Errorf("decoding payload: %w", err))
	}

	interview, err := s.interviews.GetByID(ctx, p.InterviewID)
	if err != nil {
		if errors.Is(err, store.ErrInterviewNotFound) {
			log.Warn("interview no longer exists, skipping",
				slog.String("interview_id", p.InterviewID.String()))
			return nil, nil
		}
		return nil, fmt.Errorf("loading interview: %w", err)
	}

	next := []Next{{Stage: events.StageNotifyFanout, Payload: events.InterviewPayload{InterviewID: interview.ID}}}

	if _, err := s.artifacts.GetReport(ctx, interview.ID); err == nil {
		log.Info("report already generated, re-enqueueing notifications",
			slog.String("interview_id", interview.ID.String()))
		return next, nil
	} else if !store.IsNotFoundError(err) {
		return nil, fmt.Errorf("checking existing report: %w", err)
	}

	candidate, err := s.candidates.GetByID(ctx, interview.CandidateID)
	if err != nil {
		return nil, fmt.Errorf("loading candidate: %w", err)
	}
	position, err := s.positions.GetByID(ctx, interview.PositionID)
	if err != nil {
		return nil, fmt.Errorf("loading position: %w", err)
	}
	transcription, err := s.artifacts.GetTranscription(ctx, interview.ID)
	if err != nil {
		return nil, fmt.Errorf("loading transcription: %w", err)
	}
	analysis, err := s.artifacts.GetAnalysis(ctx, interview.ID)
	if err != nil {
		return nil, fmt.Errorf("loading analysis: %w", err)
	}

	content, err := s.generator.GenerateReport(ctx, generation.ReportInput{
		Candidate:  candidate,
		Position:   position,
		Transcript: transcription,
		Analysis:   &analysis.Result,
	})
	if err != nil {
		return nil, fmt.Errorf("generating report: %w", err)
	}

	reportKey := storage.ReportKey(interview.TenantID, interview.ID)
	if err := s.blobs.Upload(ctx, reportKey, renderReportText(content), "text/plain; charset=utf-8"); err != nil {
		return nil, fmt.Errorf("storing rendered report: %w", err)
	}

	report, err := domain.NewReport(candidate.ID, interview.ID, *content, reportKey)
	if err != nil {
		return nil, task.Permanent(fmt.Errorf("building report: %w", err))
	}
	if err := s.artifacts.CreateReport(ctx, report); err != nil {
		if errors.Is(err, store.ErrDuplicateArtifact) {
			log.Info("report raced with another worker, continuing",
				slog.String("interview_id", interview.ID.String()))
			return next, nil
		}
		return nil, fmt.Errorf("saving report: %w", err)
	}

	log.Info("report generated",
		slog.String("interview_id", interview.ID.String()),
		slog.String("candidate_id", candidate.ID.String()))

	s.dispatcher.Dispatch(ctx, interview.TenantID, domain.EventReportReady, map[string]any{
		"report_id":    report.ID,
		"interview_id": interview.ID,
		"candidate_id": candidate.ID,
	})

	if s.cleanupAudio && interview.AudioFilePath != "" {
		if err := s.blobs.Delete(ctx, interview.AudioFilePath); err != nil {
			log.Warn("failed to delete call recording",
				slog.String("audio_file_path", interview.AudioFilePath),
				slog.String("error", err.Error()))
		} else {
			interview.AudioFilePath = ""
			if err := s.interviews.Update(ctx, interview); err != nil {
				log.Warn("failed to clear audio path",
					slog.String("interview_id", interview.ID.String()),
					slog.String("error", err.Error()))
			}
		}
	}

	return next, nil
}

// renderReportText renders the structured report as a plain text document
// for storage alongside the JSON content.
func renderReportText(content *domain.ReportContent) []byte {
	var b strings.Builder
	b.WriteString(content.Title)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", len(content.Title)))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Position: %s\n", content.Position)
	if content.Date != "" {
		fmt.Fprintf(&b, "Date: %s\n", content.Date)
	}
	if content.MatchingScore != nil {
		fmt.Fprintf(&b, "Matching score: %d/100\n", *content.MatchingScore)
	}
	b.WriteString("\nSummary\n-------\n")
	b.WriteString(content.Summary)
	b.WriteString("\n")
	if len(content.Strengths) > 0 {
		b.WriteString("\nStrengths\n---------\n")
		for _, s := range content.Strengths {
			fmt.Fprintf(&b, "- %s\n", s)
		}
	}
	if len(content.AreasToExplore) > 0 {
		b.WriteString("\nAreas to explore\n----------------\n")
		for _, a := range content.AreasToExplore {
			fmt.Fprintf(&b, "- %s\n", a)
		}
	}
	if len(content.KeyQuotes) > 0 {
		b.WriteString("\nKey quotes\n----------\n")
		for _, q := range content.KeyQuotes {
			fmt.Fprintf(&b, "> %s\n", q)
		}
	}
	return []byte(b.String())
}

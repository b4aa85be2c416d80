package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/zspirit/aihm-back/internal/domain"
	"github.com/zspirit/aihm-back/internal/events"
	"github.com/zspirit/aihm-back/internal/notify"
	"github.com/zspirit/aihm-back/internal/platform/logger"
	"github.com/zspirit/aihm-back/internal/store"
	"github.com/zspirit/aihm-back/internal/task"
)

// NotifyFanoutStage is the terminal stage of the interview chain: it writes
// the tenant-wide in-app notification and emails the recruiting inbox that
// the evaluation report is ready.
type NotifyFanoutStage struct {
	interviews    store.InterviewStore
	candidates    store.CandidateStore
	positions     store.PositionStore
	notifications store.NotificationStore
	sender        notify.EmailSender
	recruiterAddr string
	logger        *slog.Logger
}

// NewNotifyFanoutStage creates the notify.fanout stage handler.
// recruiterAddr may be empty, which disables the email half of the fan-out.
func NewNotifyFanoutStage(
	interviews store.InterviewStore,
	candidates store.CandidateStore,
	positions store.PositionStore,
	notifications store.NotificationStore,
	sender notify.EmailSender,
	recruiterAddr string,
	log *slog.Logger,
) *NotifyFanoutStage {
	return &NotifyFanoutStage{
		interviews:    interviews,
		candidates:    candidates,
		positions:     positions,
		notifications: notifications,
		sender:        sender,
		recruiterAddr: recruiterAddr,
		logger:        log.With(slog.String("component", "stage_notify_fanout")),
	}
}

// Stage implements Handler.Stage
func (s *NotifyFanoutStage) Stage() string { return events.StageNotifyFanout }

// Successors implements Handler.Successors
func (s *NotifyFanoutStage) Successors() []string { return nil }

// Execute implements Handler.Execute
func (s *NotifyFanoutStage) Execute(ctx context.Context, payload json.RawMessage) ([]Next, error) {
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
	candidate, err := s.candidates.GetByID(ctx, interview.CandidateID)
	if err != nil {
		return nil, fmt.Errorf("loading candidate: %w", err)
	}
	position, err := s.positions.GetByID(ctx, interview.PositionID)
	if err != nil {
		return nil, fmt.Errorf("loading position: %w", err)
	}

	notification, err := domain.NewNotification(
		interview.TenantID,
		nil, // broadcast to every recruiter in the tenant
		"report_ready",
		"Rapport d'entretien disponible",
		fmt.Sprintf("Le rapport de %s pour le poste %s est prêt.", candidate.Name, position.Title),
		map[string]string{
			"candidate_id": candidate.ID.String(),
			"interview_id": interview.ID.String(),
		},
	)
	if err != nil {
		return nil, task.Permanent(fmt.Errorf("building notification: %w", err))
	}
	if err := s.notifications.Create(ctx, notification); err != nil {
		return nil, fmt.Errorf("saving notification: %w", err)
	}

	if s.recruiterAddr != "" {
		subject, html, err := notify.BuildReportReadyEmail(notify.ReportReadyEmailInput{
			CandidateName: candidate.Name,
			PositionTitle: position.Title,
		})
		if err != nil {
			return nil, task.Permanent(err)
		}
		if err := s.sender.Send(ctx, s.recruiterAddr, subject, html); err != nil {
			// The in-app notification is already committed; a failed email
			// must not re-run the stage.
			log.Warn("report ready email failed",
				slog.String("interview_id", interview.ID.String()),
				slog.String("error", err.Error()))
		}
	}

	log.Info("report notifications fanned out",
		slog.String("interview_id", interview.ID.String()),
		slog.String("candidate_id", candidate.ID.String()))
	return nil, nil
}

package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/zspirit/aihm-back/internal/redact"
)

// CallReconciler is the subset of the telephony reconciler the callback
// endpoints drive.
type CallReconciler interface {
	HandleStatus(ctx context.Context, callID, callStatus string, durationSeconds int) error
	HandleRecording(ctx context.Context, callID, recordingURL, recordingID string) error
}

// CallbackHandler receives the telephony provider's form-encoded callbacks.
// The provider retries on non-2xx responses and the reconciler is idempotent,
// so every request is acknowledged with 200 regardless of outcome.
type CallbackHandler struct {
	reconciler CallReconciler
	logger     *slog.Logger
}

// NewCallbackHandler creates a new CallbackHandler.
func NewCallbackHandler(reconciler CallReconciler, logger *slog.Logger) *CallbackHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CallbackHandler{
		reconciler: reconciler,
		logger:     logger.With(slog.String("component", "callback_handler")),
	}
}

// Status handles POST /api/callbacks/telephony/status.
func (h *CallbackHandler) Status(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.logger.Warn("unparsable status callback", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusOK)
		return
	}

	callID := r.PostFormValue("CallSid")
	callStatus := r.PostFormValue("CallStatus")
	duration, _ := strconv.Atoi(r.PostFormValue("CallDuration"))

	if err := h.reconciler.HandleStatus(r.Context(), callID, callStatus, duration); err != nil {
		h.logger.Error("status callback reconciliation failed",
			slog.String("call_id", callID),
			slog.String("call_status", callStatus),
			slog.String("error", redact.Error(err)))
	}

	w.WriteHeader(http.StatusOK)
}

// Recording handles POST /api/callbacks/telephony/recording.
func (h *CallbackHandler) Recording(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.logger.Warn("unparsable recording callback", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusOK)
		return
	}

	callID := r.PostFormValue("CallSid")
	recordingURL := r.PostFormValue("RecordingUrl")
	recordingID := r.PostFormValue("RecordingSid")

	if err := h.reconciler.HandleRecording(r.Context(), callID, recordingURL, recordingID); err != nil {
		h.logger.Error("recording callback reconciliation failed",
			slog.String("call_id", callID),
			slog.String("recording_id", recordingID),
			slog.String("error", redact.Error(err)))
	}

	w.WriteHeader(http.StatusOK)
}

// Package telephony places outbound interview calls through an external
// voice provider and downloads the resulting recordings. The wire protocol
// follows the Twilio REST conventions (form-encoded requests, basic auth),
// which self-hosted gateways in front of other carriers also speak.
package telephony

import (
	"context"
	"errors"

	"github.com/zspirit/aihm-back/internal/domain"
)

// Sentinel errors returned by Provider implementations.
var (
	// ErrCallFailed indicates the provider rejected the call request.
	ErrCallFailed = errors.New("call initiation failed")

	// ErrProviderUnavailable indicates a transient provider failure.
	ErrProviderUnavailable = errors.New("telephony provider unavailable")

	// ErrCallNotFound indicates the provider has no call with that ID.
	ErrCallNotFound = errors.New("call not found")
)

// CallRequest describes an outbound interview call.
type CallRequest struct {
	// To is the candidate's phone number in E.164 format.
	To string

	// VoiceURL is fetched by the provider when the candidate answers and
	// returns the call script.
	VoiceURL string

	// StatusCallbackURL receives call lifecycle updates from the
	// provider as form-encoded POSTs.
	StatusCallbackURL string

	// RecordingCallbackURL receives a notification once the call
	// recording is ready for download.
	RecordingCallbackURL string

	// TimeoutSeconds is how long the provider lets the phone ring
	// before giving up.
	TimeoutSeconds int
}

// CallState is a provider-side snapshot of a call, used both when parsing
// callbacks and when polling during reconciliation.
type CallState struct {
	// CallID is the provider's identifier for the call.
	CallID string

	// Status is the provider's raw status string, e.g. "completed" or
	// "no-answer".
	Status string

	// DurationSeconds is the call duration; zero until the call ends.
	DurationSeconds int
}

// Provider places and inspects calls.
type Provider interface {
	// InitiateCall asks the provider to dial the candidate. Returns the
	// provider's call ID on success.
	InitiateCall(ctx context.Context, req CallRequest) (string, error)

	// GetCallStatus fetches the provider's current view of a call. Used
	// by the reconciler when a status callback never arrives.
	GetCallStatus(ctx context.Context, callID string) (*CallState, error)

	// DownloadRecording fetches the audio of a finished call. The URL
	// comes from the provider's recording callback.
	DownloadRecording(ctx context.Context, recordingURL string) ([]byte, error)
}

// MapCallStatus translates a provider status string into the interview
// status it terminates with. Returns false for non-terminal statuses such
// as "ringing" or "in-progress", which callers ignore.
func MapCallStatus(providerStatus string) (domain.InterviewStatus, bool) {
	switch providerStatus {
	case "completed":
		return domain.InterviewStatusCompleted, true
	case "busy", "no-answer", "canceled":
		return domain.InterviewStatusNoAnswer, true
	case "failed":
		return domain.InterviewStatusFailed, true
	default:
		return "", false
	}
}

// Package transcribe converts interview call recordings into text by calling
// an external speech-to-text service over HTTP.
package transcribe

import (
	"context"
	"errors"

	"github.com/zspirit/aihm-back/internal/domain"
)

// Sentinel errors returned by Transcriber implementations.
var (
	// ErrTranscriptionFailed indicates the service rejected the audio or
	// returned an unusable response.
	ErrTranscriptionFailed = errors.New("transcription failed")

	// ErrServiceUnavailable indicates a transient service failure worth
	// retrying.
	ErrServiceUnavailable = errors.New("transcription service unavailable")
)

// Result is the transcription of a single recording.
type Result struct {
	// Text is the full transcript with all segments concatenated.
	Text string

	// Segments are timestamped portions of the transcript, in order.
	Segments []domain.TranscriptSegment

	// Language is the detected ISO 639-1 language code, e.g. "fr".
	Language string

	// Confidence is the service's overall confidence in [0, 1].
	Confidence float64
}

// Transcriber converts raw audio into a transcript.
type Transcriber interface {
	// Transcribe submits the audio (WAV) and blocks until the service
	// returns a transcript or fails.
	Transcribe(ctx context.Context, audio []byte, filename string) (*Result, error)
}

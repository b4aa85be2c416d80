package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/zspirit/aihm-back/internal/config"
	"github.com/zspirit/aihm-back/internal/domain"
	"github.com/zspirit/aihm-back/internal/platform/logger"
)

// HTTPTranscriber calls a speech-to-text HTTP service that accepts a
// multipart audio upload and responds with JSON.
type HTTPTranscriber struct {
	serviceURL string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ Transcriber = (*HTTPTranscriber)(nil)

// transcriptionResponse mirrors the service's JSON response body.
type transcriptionResponse struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
	Confidence float64 `json:"confidence"`
}

// NewHTTPTranscriber builds a transcriber from the transcription
// configuration.
func NewHTTPTranscriber(cfg config.TranscriptionConfig, log *slog.Logger) *HTTPTranscriber {
	if log == nil {
		panic("logger cannot be nil")
	}

	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	return &HTTPTranscriber{
		serviceURL: cfg.ServiceURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     log.With(slog.String("component", "transcriber")),
	}
}

// Transcribe implements Transcriber.Transcribe.
func (t *HTTPTranscriber) Transcribe(ctx context.Context, audio []byte, filename string) (*Result, error) {
	log := logger.FromContextOrDefault(ctx, t.logger)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("building multipart body: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, fmt.Errorf("building multipart body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("building multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.serviceURL, &body)
	if err != nil {
		return nil, fmt.Errorf("creating transcription request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}

	log.Debug("submitting audio for transcription",
		slog.String("filename", filename),
		slog.Int("size_bytes", len(audio)))

	resp, err := t.httpClient.Do(req)
	if err != nil {
		log.Error("transcription request failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading transcription response: %w", err)
	}

	switch {
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		log.Warn("transcription service unavailable",
			slog.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: status %d", ErrServiceUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		log.Error("transcription rejected",
			slog.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: status %d", ErrTranscriptionFailed, resp.StatusCode)
	}

	var parsed transcriptionResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrTranscriptionFailed, err)
	}
	if parsed.Text == "" && len(parsed.Segments) == 0 {
		return nil, fmt.Errorf("%w: empty transcript", ErrTranscriptionFailed)
	}

	segments := make([]domain.TranscriptSegment, 0, len(parsed.Segments))
	for _, s := range parsed.Segments {
		segments = append(segments, domain.TranscriptSegment{
			Start: s.Start,
			End:   s.End,
			Text:  s.Text,
		})
	}

	log.Info("transcription completed",
		slog.String("language", parsed.Language),
		slog.Int("segment_count", len(segments)))

	return &Result{
		Text:       parsed.Text,
		Segments:   segments,
		Language:   parsed.Language,
		Confidence: parsed.Confidence,
	}, nil
}

package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/zspirit/aihm-back/internal/config"
	"github.com/zspirit/aihm-back/internal/platform/logger"
)

const defaultResendBaseURL = "https://api.resend.com"

// ResendSender implements EmailSender over the Resend HTTP API.
type ResendSender struct {
	apiKey     string
	from       string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ EmailSender = (*ResendSender)(nil)

// NewResendSender builds a sender from the email configuration. An empty
// API key produces a sender that skips delivery.
func NewResendSender(cfg config.EmailConfig, log *slog.Logger) *ResendSender {
	if log == nil {
		panic("logger cannot be nil")
	}
	return &ResendSender{
		apiKey:     cfg.APIKey,
		from:       cfg.FromAddress,
		baseURL:    defaultResendBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     log.With(slog.String("component", "email_sender")),
	}
}

// Send implements EmailSender.Send.
func (s *ResendSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if s.apiKey == "" {
		log.Warn("email delivery skipped, no API key configured",
			slog.String("to", to),
			slog.String("subject", subject))
		return nil
	}

	payload, err := json.Marshal(map[string]any{
		"from":    s.from,
		"to":      []string{to},
		"subject": subject,
		"html":    htmlBody,
	})
	if err != nil {
		return fmt.Errorf("encoding email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating email request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		log.Error("email request failed",
			slog.String("to", to),
			slog.String("error", err.Error()))
		return fmt.Errorf("sending email to %s: %w", to, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		log.Error("email provider rejected message",
			slog.String("to", to),
			slog.Int("status", resp.StatusCode))
		return fmt.Errorf("sending email to %s: status %d", to, resp.StatusCode)
	}

	log.Info("email sent", slog.String("to", to), slog.String("subject", subject))
	return nil
}

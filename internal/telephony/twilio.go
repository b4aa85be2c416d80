package telephony

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/zspirit/aihm-back/internal/config"
	"github.com/zspirit/aihm-back/internal/platform/logger"
)

const defaultAPIBaseURL = "https://api.twilio.com"

// TwilioProvider implements Provider against the Twilio voice REST API.
type TwilioProvider struct {
	accountSID string
	authToken  string
	fromNumber string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ Provider = (*TwilioProvider)(nil)

// callResource mirrors the fields we use from the provider's call JSON.
type callResource struct {
	Sid      string `json:"sid"`
	Status   string `json:"status"`
	Duration string `json:"duration"`
}

// NewTwilioProvider builds a provider client from the telephony
// configuration. A non-empty BaseURL overrides the provider endpoint, which
// tests and carrier gateways rely on.
func NewTwilioProvider(cfg config.TelephonyConfig, log *slog.Logger) *TwilioProvider {
	if log == nil {
		panic("logger cannot be nil")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultAPIBaseURL
	}

	return &TwilioProvider{
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		fromNumber: cfg.FromNumber,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     log.With(slog.String("component", "telephony_provider")),
	}
}

// InitiateCall implements Provider.InitiateCall.
func (p *TwilioProvider) InitiateCall(ctx context.Context, req CallRequest) (string, error) {
	log := logger.FromContextOrDefault(ctx, p.logger)

	form := url.Values{}
	form.Set("To", req.To)
	form.Set("From", p.fromNumber)
	form.Set("Url", req.VoiceURL)
	form.Set("StatusCallback", req.StatusCallbackURL)
	for _, event := range []string{"initiated", "ringing", "answered", "completed"} {
		form.Add("StatusCallbackEvent", event)
	}
	form.Set("Record", "true")
	form.Set("RecordingStatusCallback", req.RecordingCallbackURL)
	form.Set("Timeout", strconv.Itoa(req.TimeoutSeconds))

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Calls.json", p.baseURL, p.accountSID)
	body, status, err := p.do(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		log.Error("call initiation request failed", slog.String("error", err.Error()))
		return "", fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	if status >= 500 || status == http.StatusTooManyRequests {
		log.Warn("provider unavailable", slog.Int("status", status))
		return "", fmt.Errorf("%w: status %d", ErrProviderUnavailable, status)
	}
	if status != http.StatusCreated && status != http.StatusOK {
		log.Error("provider rejected call",
			slog.Int("status", status),
			slog.String("to", req.To))
		return "", fmt.Errorf("%w: status %d", ErrCallFailed, status)
	}

	var call callResource
	if err := json.Unmarshal(body, &call); err != nil {
		return "", fmt.Errorf("%w: decoding call response: %v", ErrCallFailed, err)
	}
	if call.Sid == "" {
		return "", fmt.Errorf("%w: response missing call sid", ErrCallFailed)
	}

	log.Info("call initiated", slog.String("call_id", call.Sid))
	return call.Sid, nil
}

// GetCallStatus implements Provider.GetCallStatus.
func (p *TwilioProvider) GetCallStatus(ctx context.Context, callID string) (*CallState, error) {
	log := logger.FromContextOrDefault(ctx, p.logger)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Calls/%s.json", p.baseURL, p.accountSID, callID)
	body, status, err := p.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	switch {
	case status == http.StatusNotFound:
		log.Warn("call not found at provider", slog.String("call_id", callID))
		return nil, ErrCallNotFound
	case status >= 500:
		return nil, fmt.Errorf("%w: status %d", ErrProviderUnavailable, status)
	case status != http.StatusOK:
		return nil, fmt.Errorf("fetching call %s: status %d", callID, status)
	}

	var call callResource
	if err := json.Unmarshal(body, &call); err != nil {
		return nil, fmt.Errorf("decoding call %s: %w", callID, err)
	}

	duration, _ := strconv.Atoi(call.Duration)
	return &CallState{
		CallID:          call.Sid,
		Status:          call.Status,
		DurationSeconds: duration,
	}, nil
}

// DownloadRecording implements Provider.DownloadRecording. The provider
// serves recordings at the callback URL with a format suffix.
func (p *TwilioProvider) DownloadRecording(ctx context.Context, recordingURL string) ([]byte, error) {
	log := logger.FromContextOrDefault(ctx, p.logger)

	body, status, err := p.do(ctx, http.MethodGet, recordingURL+".wav", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	if status >= 500 {
		return nil, fmt.Errorf("%w: status %d", ErrProviderUnavailable, status)
	}
	if status != http.StatusOK {
		log.Error("recording download failed", slog.Int("status", status))
		return nil, fmt.Errorf("downloading recording: status %d", status)
	}

	log.Debug("recording downloaded", slog.Int("size_bytes", len(body)))
	return body, nil
}

// do sends an authenticated request and returns the response body and
// status code.
func (p *TwilioProvider) do(ctx context.Context, method, endpoint string, body io.Reader) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	req.SetBasicAuth(p.accountSID, p.authToken)
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading response: %w", err)
	}
	return respBody, resp.StatusCode, nil
}

package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server        ServerConfig        `mapstructure:"server"        validate:"required"`
	Database      DatabaseConfig      `mapstructure:"database"      validate:"required"`
	Auth          AuthConfig          `mapstructure:"auth"          validate:"required"`
	Task          TaskConfig          `mapstructure:"task"          validate:"required"`
	LLM           LLMConfig           `mapstructure:"llm"           validate:"required"`
	Telephony     TelephonyConfig     `mapstructure:"telephony"     validate:"required"`
	Storage       StorageConfig       `mapstructure:"storage"       validate:"required"`
	Transcription TranscriptionConfig `mapstructure:"transcription" validate:"required"`
	Webhook       WebhookConfig       `mapstructure:"webhook"`
	Pipeline      PipelineConfig      `mapstructure:"pipeline"`
	Email         EmailConfig         `mapstructure:"email"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`

	// PublicBaseURL is the externally reachable base URL, used to build
	// consent links and telephony callback URLs.
	PublicBaseURL string `mapstructure:"public_base_url" validate:"required,url"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains all authentication and authorization settings.
// Tokens are minted by the identity service; this application only
// verifies them.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`
}

// TaskConfig controls the background task runner.
type TaskConfig struct {
	WorkerCount       int `mapstructure:"worker_count"         validate:"required,gt=0"`
	QueueSize         int `mapstructure:"queue_size"           validate:"required,gt=0"`
	StuckTaskAgeMin   int `mapstructure:"stuck_task_age_min"   validate:"gte=0"`
	MaxRetryAttempts  int `mapstructure:"max_retry_attempts"   validate:"required,gte=1"`
	RetryBaseDelaySec int `mapstructure:"retry_base_delay_sec" validate:"gte=0"`
}

// LLMConfig contains all LLM integration related settings.
type LLMConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key" validate:"required"`
	Model        string `mapstructure:"model"          validate:"required"`
}

// TelephonyConfig holds credentials for the outbound-call provider.
type TelephonyConfig struct {
	AccountSID string `mapstructure:"account_sid" validate:"required"`
	AuthToken  string `mapstructure:"auth_token"  validate:"required"`
	FromNumber string `mapstructure:"from_number" validate:"required"`

	// BaseURL lets tests point the client at a stub server. Empty means
	// the provider's production endpoint.
	BaseURL string `mapstructure:"base_url"`

	// ReconcileIntervalMin controls how often interviews stuck in
	// in-progress state are reconciled against the provider. Zero
	// disables reconciliation.
	ReconcileIntervalMin int `mapstructure:"reconcile_interval_min" validate:"gte=0"`
}

// StorageConfig holds S3-compatible blob storage settings. Endpoint and
// path-style addressing support MinIO deployments.
type StorageConfig struct {
	Endpoint       string `mapstructure:"endpoint"`
	Region         string `mapstructure:"region"     validate:"required"`
	Bucket         string `mapstructure:"bucket"     validate:"required"`
	AccessKey      string `mapstructure:"access_key" validate:"required"`
	SecretKey      string `mapstructure:"secret_key" validate:"required"`
	ForcePathStyle bool   `mapstructure:"force_path_style"`
}

// TranscriptionConfig holds settings for the speech-to-text service.
type TranscriptionConfig struct {
	ServiceURL string `mapstructure:"service_url" validate:"required,url"`
	APIKey     string `mapstructure:"api_key"`
	TimeoutSec int    `mapstructure:"timeout_sec" validate:"gte=0"`
}

// WebhookConfig controls outbound webhook delivery.
type WebhookConfig struct {
	TimeoutSec  int `mapstructure:"timeout_sec"  validate:"gte=0"`
	MaxAttempts int `mapstructure:"max_attempts" validate:"gte=0"`
}

// PipelineConfig holds pipeline behavior toggles.
type PipelineConfig struct {
	// CleanupAudio removes the interview recording from blob storage once
	// the report is generated.
	CleanupAudio bool `mapstructure:"cleanup_audio"`
}

// EmailConfig holds settings for the transactional email provider used for
// consent requests and recruiter notifications.
type EmailConfig struct {
	APIKey      string `mapstructure:"api_key"`
	FromAddress string `mapstructure:"from_address" validate:"omitempty,email"`

	// SenderName is the organization name shown in candidate-facing
	// emails.
	SenderName string `mapstructure:"sender_name"`

	// NotificationsAddress receives recruiter-facing notifications such
	// as report-ready messages. Empty disables those emails; recruiters
	// still get the in-app notification.
	NotificationsAddress string `mapstructure:"notifications_address" validate:"omitempty,email"`
}

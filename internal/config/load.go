package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// envPrefix namespaces every environment variable read by Load, e.g.
// AIHM_SERVER_PORT or AIHM_DATABASE_URL.
const envPrefix = "AIHM"

// Load reads configuration from environment variables and an optional
// config.yaml in the working directory. Environment variables take
// precedence over values from the config file.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; env vars alone can carry the
		// full configuration.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv alone does not surface nested keys that were never set
	// in a file, so bind each known key explicitly.
	for _, key := range configKeys() {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("task.worker_count", 4)
	v.SetDefault("task.queue_size", 100)
	v.SetDefault("task.stuck_task_age_min", 30)
	v.SetDefault("task.max_retry_attempts", 3)
	v.SetDefault("task.retry_base_delay_sec", 2)

	v.SetDefault("llm.model", "gemini-2.0-flash")

	v.SetDefault("storage.region", "us-east-1")

	v.SetDefault("transcription.timeout_sec", 300)

	v.SetDefault("telephony.reconcile_interval_min", 10)

	v.SetDefault("webhook.timeout_sec", 10)
	v.SetDefault("webhook.max_attempts", 3)

	v.SetDefault("pipeline.cleanup_audio", true)

	v.SetDefault("email.from_address", "noreply@aihm.ai")
	v.SetDefault("email.sender_name", "AIHM")
}

// configKeys lists every viper key so BindEnv covers fields with no
// default and no config-file entry.
func configKeys() []string {
	return []string{
		"server.port",
		"server.log_level",
		"server.public_base_url",
		"database.url",
		"auth.jwt_secret",
		"task.worker_count",
		"task.queue_size",
		"task.stuck_task_age_min",
		"task.max_retry_attempts",
		"task.retry_base_delay_sec",
		"llm.gemini_api_key",
		"llm.model",
		"telephony.account_sid",
		"telephony.auth_token",
		"telephony.from_number",
		"telephony.base_url",
		"telephony.reconcile_interval_min",
		"storage.endpoint",
		"storage.region",
		"storage.bucket",
		"storage.access_key",
		"storage.secret_key",
		"storage.force_path_style",
		"transcription.service_url",
		"transcription.api_key",
		"transcription.timeout_sec",
		"webhook.timeout_sec",
		"webhook.max_attempts",
		"pipeline.cleanup_audio",
		"email.api_key",
		"email.from_address",
		"email.sender_name",
		"email.notifications_address",
	}
}

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables and an optional
// config.yaml in the working directory. Environment variables use the
// VOICEBRIEF_ prefix with underscores for nesting (for example
// VOICEBRIEF_DATABASE_URL, VOICEBRIEF_WORKER_BATCH_SIZE) and take
// precedence over file values.
// Returns a populated, validated Config or an error.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("VOICEBRIEF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file is fine; everything can come from the environment.
	}

	// AutomaticEnv alone does not surface env-only keys through Unmarshal,
	// so bind every known key explicitly.
	for _, key := range configKeys() {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults applies the defaults for everything that has a sensible
// one. Credentials and the database URL have no default on purpose.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8081)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("worker.poll_interval_seconds", 2)
	v.SetDefault("worker.batch_size", 10)
	v.SetDefault("worker.concurrency", 4)
	v.SetDefault("worker.max_attempts", 3)
	v.SetDefault("worker.backoff_base_seconds", 60)
	v.SetDefault("worker.lease_timeout_seconds", 600)
	v.SetDefault("worker.reclaim_interval_seconds", 60)

	v.SetDefault("email.mailjet_base_url", "https://api.mailjet.com")
	v.SetDefault("email.from_name", "Voice Agent")
	v.SetDefault("email.subject", "Your conversation summary")
	v.SetDefault("email.timeout_seconds", 20)

	v.SetDefault("transcriber.model_name", "gemini-2.0-flash")
}

// configKeys lists every key Load understands, for explicit env binding.
func configKeys() []string {
	return []string{
		"server.port",
		"server.log_level",
		"database.url",
		"worker.poll_interval_seconds",
		"worker.batch_size",
		"worker.concurrency",
		"worker.max_attempts",
		"worker.backoff_base_seconds",
		"worker.lease_timeout_seconds",
		"worker.reclaim_interval_seconds",
		"email.mailjet_api_key",
		"email.mailjet_api_secret",
		"email.mailjet_base_url",
		"email.from_email",
		"email.from_name",
		"email.subject",
		"email.reply_to",
		"email.timeout_seconds",
		"transcriber.gemini_api_key",
		"transcriber.model_name",
	}
}

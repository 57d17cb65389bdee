package config

// Config holds all application configuration.
// It organizes settings into logical groups and is loaded once at startup;
// after that it is treated as immutable and injected into constructors.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"      validate:"required"`
	Database    DatabaseConfig    `mapstructure:"database"    validate:"required"`
	Worker      WorkerConfig      `mapstructure:"worker"      validate:"required"`
	Email       EmailConfig       `mapstructure:"email"       validate:"required"`
	Transcriber TranscriberConfig `mapstructure:"transcriber" validate:"required"`
}

// ServerConfig contains the operational HTTP listener and logging settings.
// The listener serves health and metrics endpoints only; the request CRUD
// API is a separate system.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// WorkerConfig contains the claim loop, retry, and lease settings.
// Durations are expressed in seconds so they can be set from plain
// environment variables.
type WorkerConfig struct {
	PollIntervalSeconds    int `mapstructure:"poll_interval_seconds"    validate:"required,gt=0"`
	BatchSize              int `mapstructure:"batch_size"               validate:"required,gt=0"`
	Concurrency            int `mapstructure:"concurrency"              validate:"required,gt=0"`
	MaxAttempts            int `mapstructure:"max_attempts"             validate:"required,gt=0"`
	BackoffBaseSeconds     int `mapstructure:"backoff_base_seconds"     validate:"required,gt=0"`
	LeaseTimeoutSeconds    int `mapstructure:"lease_timeout_seconds"    validate:"required,gt=0"`
	ReclaimIntervalSeconds int `mapstructure:"reclaim_interval_seconds" validate:"required,gt=0"`
}

// EmailConfig contains the Mailjet credentials and message template
// settings. Key and secret must differ; identical values almost always
// mean one of them was pasted twice.
type EmailConfig struct {
	MailjetAPIKey    string `mapstructure:"mailjet_api_key"    validate:"required"`
	MailjetAPISecret string `mapstructure:"mailjet_api_secret" validate:"required,nefield=MailjetAPIKey"`
	MailjetBaseURL   string `mapstructure:"mailjet_base_url"   validate:"required,url"`
	FromEmail        string `mapstructure:"from_email"         validate:"required,email"`
	FromName         string `mapstructure:"from_name"          validate:"required"`
	Subject          string `mapstructure:"subject"            validate:"required"`
	ReplyTo          string `mapstructure:"reply_to"           validate:"omitempty,email"`
	TimeoutSeconds   int    `mapstructure:"timeout_seconds"    validate:"required,gt=0"`
}

// TranscriberConfig contains the Gemini transcription settings.
type TranscriberConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key" validate:"required"`
	ModelName    string `mapstructure:"model_name"     validate:"required"`
}

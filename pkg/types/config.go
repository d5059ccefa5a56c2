package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "arxiv-digest/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// LookbackConfig sets how many days back the ingestion cutoff reaches for
// each weekday. arXiv announces nothing over the weekend, so Monday must
// reach back to Friday's batch; every other day uses the default.
type LookbackConfig struct {
	Monday  int `json:"monday" yaml:"monday" mapstructure:"monday"`
	Tuesday int `json:"tuesday" yaml:"tuesday" mapstructure:"tuesday"`
	Default int `json:"default" yaml:"default" mapstructure:"default"`
}

// Days returns the lookback for the given weekday.
func (l LookbackConfig) Days(wd time.Weekday) int {
	switch wd {
	case time.Monday:
		if l.Monday > 0 {
			return l.Monday
		}
		return 4
	case time.Tuesday:
		if l.Tuesday > 0 {
			return l.Tuesday
		}
		return 3
	default:
		if l.Default > 0 {
			return l.Default
		}
		return 2
	}
}

// FetchConfig holds settings for the ingestion stage.
type FetchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Categories lists the arXiv categories to harvest (e.g. "cs.AI").
	Categories []string `json:"categories" yaml:"categories" mapstructure:"categories"`

	// MaxResults caps how many candidates are requested per category.
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`

	// RequestDelay is the pacing pause between consecutive requests;
	// twice this delay is applied between categories.
	RequestDelay time.Duration `json:"request_delay" yaml:"request_delay" mapstructure:"request_delay"`

	// Lookback configures the weekday-dependent recency cutoff.
	Lookback LookbackConfig `json:"lookback" yaml:"lookback" mapstructure:"lookback"`

	// MirrorURLTemplate builds the external-mirror link; the literal
	// "{arxiv_id}" is replaced with the paper identifier.
	MirrorURLTemplate string `json:"mirror_url_template" yaml:"mirror_url_template" mapstructure:"mirror_url_template"`
}

// TranslationConfig holds settings for the translation stage.
type TranslationConfig struct {
	// Model is the chat-completion model identifier.
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey authenticates against the translation API. May also be
	// supplied via the secrets directory (openai-api-key).
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// BaseURL is the OpenAI-compatible API root.
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// TargetLanguage names the translation target in the prompt.
	TargetLanguage string `json:"target_language" yaml:"target_language" mapstructure:"target_language"`

	// MaxRetries is the per-record retry ceiling; each record gets
	// MaxRetries+1 attempts.
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// Workers bounds the translation pool size.
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`

	// RetryDelay is the pacing pause applied before each retry attempt,
	// scaled by the attempt number.
	RetryDelay time.Duration `json:"retry_delay" yaml:"retry_delay" mapstructure:"retry_delay"`

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// EmailConfig holds settings for digest delivery.
type EmailConfig struct {
	SMTPServer string `json:"smtp_server" yaml:"smtp_server" mapstructure:"smtp_server"`
	SMTPPort   int    `json:"smtp_port" yaml:"smtp_port" mapstructure:"smtp_port"`

	// SenderEmail is both the From address and the SMTP username.
	SenderEmail string `json:"sender_email" yaml:"sender_email" mapstructure:"sender_email"`

	// SenderPassword may also come from the secrets directory (smtp-password).
	SenderPassword string `json:"sender_password,omitempty" yaml:"sender_password,omitempty" mapstructure:"sender_password"`

	Recipients []string `json:"recipients" yaml:"recipients" mapstructure:"recipients"`

	// SubjectTemplate renders the subject; "{date}" is replaced with the
	// run date.
	SubjectTemplate string `json:"subject_template" yaml:"subject_template" mapstructure:"subject_template"`

	// HTMLFormat selects the HTML body over plain text.
	HTMLFormat bool `json:"html_format" yaml:"html_format" mapstructure:"html_format"`
}

// StorageConfig holds settings for the record store.
type StorageConfig struct {
	// DataDir is the base directory holding the SQLite database.
	DataDir string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`

	// RetentionDays bounds record age for the cleanup sweep; zero or
	// negative disables sweeping.
	RetentionDays int `json:"retention_days" yaml:"retention_days" mapstructure:"retention_days"`
}

// ScheduleConfig holds settings for the daily trigger.
type ScheduleConfig struct {
	// DailyTime is the fire time in "HH:MM" form, interpreted in Timezone.
	DailyTime string `json:"daily_time" yaml:"daily_time" mapstructure:"daily_time"`

	// Timezone is an IANA zone name (e.g. "Asia/Shanghai") giving the
	// business timezone DailyTime and the weekend rule are evaluated in.
	Timezone string `json:"timezone" yaml:"timezone" mapstructure:"timezone"`

	// Enabled arms the trigger at construction.
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`
}

// Config groups all stage configurations.
type Config struct {
	Fetch       FetchConfig       `json:"fetch" yaml:"fetch" mapstructure:"fetch"`
	Translation TranslationConfig `json:"translation" yaml:"translation" mapstructure:"translation"`
	Email       EmailConfig       `json:"email" yaml:"email" mapstructure:"email"`
	Storage     StorageConfig     `json:"storage" yaml:"storage" mapstructure:"storage"`
	Schedule    ScheduleConfig    `json:"schedule" yaml:"schedule" mapstructure:"schedule"`
	Log         LogConfig         `json:"log" yaml:"log" mapstructure:"log"`
}

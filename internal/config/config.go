// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sethvargo/go-envconfig"
)

// Static errors for configuration validation.
var (
	// ErrClientIDRequired is returned when HH_CLIENT_ID is not set.
	ErrClientIDRequired = errors.New("config: HH_CLIENT_ID is required")
	// ErrClientSecretRequired is returned when HH_CLIENT_SECRET is not set.
	ErrClientSecretRequired = errors.New("config: HH_CLIENT_SECRET is required")
	// ErrRedirectURIRequired is returned when HH_REDIRECT_URI is not set.
	ErrRedirectURIRequired = errors.New("config: HH_REDIRECT_URI is required")
	// ErrResumeIDRequired is returned when HH_RESUME_ID is not set.
	ErrResumeIDRequired = errors.New("config: HH_RESUME_ID is required")
)

// Config holds all configuration for the application.
type Config struct {
	// OAuth application credentials
	ClientID     string `env:"HH_CLIENT_ID, required" json:"-" validate:"required"` // Masked in JSON
	ClientSecret string `env:"HH_CLIENT_SECRET, required" json:"-" validate:"required"`
	RedirectURI  string `env:"HH_REDIRECT_URI, required" json:"redirect_uri" validate:"required,url"`
	ResumeID     string `env:"HH_RESUME_ID, required" json:"resume_id" validate:"required"`

	// Platform endpoints, overridable for testing
	BaseURL   string `env:"HH_BASE_URL, default=https://api.hh.ru" json:"base_url" validate:"required,url"`
	OAuthURL  string `env:"HH_OAUTH_URL, default=https://hh.ru/oauth" json:"oauth_url" validate:"required,url"`
	UserAgent string `env:"HH_USER_AGENT, default=hh-autoapply" json:"user_agent"`

	// State files
	StateDir    string `env:"STATE_DIR, default=." json:"state_dir"`
	TokenFile   string `env:"TOKEN_FILE, default=hh_token.json" json:"token_file"`
	AppliedFile string `env:"APPLIED_FILE, default=applied_vacancies.json" json:"applied_file"`

	// Throttling and caps; defaults match observed platform-safe behavior
	PageSize    int           `env:"PAGE_SIZE, default=50" json:"page_size" validate:"min=1,max=100"`
	MaxPages    int           `env:"MAX_PAGES, default=5" json:"max_pages" validate:"min=1"`
	PageDelay   time.Duration `env:"PAGE_DELAY, default=1s" json:"page_delay"`
	SubmitDelay time.Duration `env:"SUBMIT_DELAY, default=3s" json:"submit_delay"`
	DailyCap    int           `env:"DAILY_CAP, default=200" json:"daily_cap" validate:"min=0"`

	// Search filters
	SearchText       string `env:"SEARCH_TEXT" json:"search_text"`
	SearchArea       string `env:"SEARCH_AREA" json:"search_area"`
	SearchExperience string `env:"SEARCH_EXPERIENCE" json:"search_experience"`
	SearchEmployment string `env:"SEARCH_EMPLOYMENT" json:"search_employment"`
	SearchSchedule   string `env:"SEARCH_SCHEDULE" json:"search_schedule"`
	SearchPeriod     int    `env:"SEARCH_PERIOD, default=30" json:"search_period"`

	// Suitability keyword policy; an empty include list admits everything
	IncludeKeywords []string `env:"INCLUDE_KEYWORDS" json:"include_keywords,omitempty"`
	ExcludeKeywords []string `env:"EXCLUDE_KEYWORDS" json:"exclude_keywords,omitempty"`

	// Optional S3 state mirror
	S3Bucket           string `env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3Region           string `env:"S3_REGION" json:"s3_region,omitempty"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
	LogFile   string `env:"LOG_FILE, default=hh_auto_apply.log" json:"log_file"`
}

// S3Enabled returns true if the S3 state mirror is configured.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// Load reads configuration from environment variables using go-envconfig.
// It returns an error if required variables are not set.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process(context.Background(), cfg); err != nil {
		// Map envconfig errors to our domain errors for required fields
		switch {
		case strings.Contains(err.Error(), "HH_CLIENT_ID"):
			return nil, ErrClientIDRequired
		case strings.Contains(err.Error(), "HH_CLIENT_SECRET"):
			return nil, ErrClientSecretRequired
		case strings.Contains(err.Error(), "HH_REDIRECT_URI"):
			return nil, ErrRedirectURIRequired
		case strings.Contains(err.Error(), "HH_RESUME_ID"):
			return nil, ErrResumeIDRequired
		}
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// NewLogger creates a structured logger writing to stdout and, when LogFile
// is set, to an append-only log file simultaneously. The returned closer
// releases the file handle.
func (c *Config) NewLogger() (*slog.Logger, func(), error) {
	level := parseLogLevel(c.LogLevel)

	var w io.Writer = os.Stdout
	closer := func() {}

	if c.LogFile != "" {
		f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return nil, nil, fmt.Errorf("config: open log file: %w", err)
		}
		w = io.MultiWriter(os.Stdout, f)
		closer = func() { _ = f.Close() }
	}

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler), closer, nil
}

// String returns a string representation of the config with sensitive
// values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{ResumeID: %s, BaseURL: %s, StateDir: %s, PageSize: %d, MaxPages: %d, PageDelay: %s, SubmitDelay: %s, DailyCap: %d, S3Bucket: %s, LogFormat: %s, LogLevel: %s}",
		c.ResumeID,
		c.BaseURL,
		c.StateDir,
		c.PageSize,
		c.MaxPages,
		c.PageDelay,
		c.SubmitDelay,
		c.DailyCap,
		c.S3Bucket,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

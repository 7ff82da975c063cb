package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setRequiredEnv sets the minimum environment for Load to succeed. Tests
// unset individual keys on top of it.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HH_CLIENT_ID", "client-1")
	t.Setenv("HH_CLIENT_SECRET", "secret-1")
	t.Setenv("HH_REDIRECT_URI", "https://localhost/callback")
	t.Setenv("HH_RESUME_ID", "resume-1")
}

// unsetenv removes a variable while keeping t.Setenv's restore on cleanup.
func unsetenv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.hh.ru", cfg.BaseURL)
	assert.Equal(t, "https://hh.ru/oauth", cfg.OAuthURL)
	assert.Equal(t, "hh-autoapply", cfg.UserAgent)
	assert.Equal(t, "hh_token.json", cfg.TokenFile)
	assert.Equal(t, "applied_vacancies.json", cfg.AppliedFile)
	assert.Equal(t, 50, cfg.PageSize)
	assert.Equal(t, 5, cfg.MaxPages)
	assert.Equal(t, time.Second, cfg.PageDelay)
	assert.Equal(t, 3*time.Second, cfg.SubmitDelay)
	assert.Equal(t, 200, cfg.DailyCap)
	assert.Equal(t, 30, cfg.SearchPeriod)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.S3Enabled())
}

func TestLoad_RequiredVars(t *testing.T) {
	tests := []struct {
		key     string
		wantErr error
	}{
		{"HH_CLIENT_ID", ErrClientIDRequired},
		{"HH_CLIENT_SECRET", ErrClientSecretRequired},
		{"HH_REDIRECT_URI", ErrRedirectURIRequired},
		{"HH_RESUME_ID", ErrResumeIDRequired},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			setRequiredEnv(t)
			unsetenv(t, tt.key)

			_, err := Load()
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoad_CustomValues(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("HH_BASE_URL", "http://localhost:8080")
	t.Setenv("PAGE_SIZE", "20")
	t.Setenv("MAX_PAGES", "2")
	t.Setenv("SUBMIT_DELAY", "500ms")
	t.Setenv("SEARCH_TEXT", "golang")
	t.Setenv("INCLUDE_KEYWORDS", "go,golang,backend")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, 20, cfg.PageSize)
	assert.Equal(t, 2, cfg.MaxPages)
	assert.Equal(t, 500*time.Millisecond, cfg.SubmitDelay)
	assert.Equal(t, "golang", cfg.SearchText)
	assert.Equal(t, []string{"go", "golang", "backend"}, cfg.IncludeKeywords)
}

func TestLoad_InvalidRedirectURI(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("HH_REDIRECT_URI", "not a url")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_PageSizeOutOfRange(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PAGE_SIZE", "500")

	_, err := Load()
	assert.Error(t, err)
}

func TestS3Enabled(t *testing.T) {
	cfg := &Config{S3Bucket: "state", S3Region: "eu-central-1"}
	assert.True(t, cfg.S3Enabled())

	cfg.S3Region = ""
	assert.False(t, cfg.S3Enabled())
}

func TestConfig_StringMasksSecrets(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	s := cfg.String()
	assert.NotContains(t, s, "client-1")
	assert.NotContains(t, s, "secret-1")
	assert.Contains(t, s, "resume-1")
}

func TestNewLogger_WritesToFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "run.log")
	cfg := &Config{LogFormat: "json", LogLevel: "debug", LogFile: logFile}

	logger, closer, err := cfg.NewLogger()
	require.NoError(t, err)
	defer closer()

	logger.Info("hello", slog.String("k", "v"))

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("WARNING"))
	assert.Equal(t, slog.LevelError, parseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("whatever"))
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	applyDefaults(&cfg)

	assert.Equal(t, "http://localhost:8000/api/v1", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.RequestTimeout.Duration())
	assert.Equal(t, 30*time.Minute, cfg.Session.IdleTimeout.Duration())
	assert.Equal(t, time.Minute, cfg.Session.CheckInterval.Duration())
	assert.Equal(t, 50, cfg.Chat.MaxMessages)
	assert.Equal(t, 24*time.Hour, cfg.Chat.MaxAge.Duration())
	assert.Equal(t, 10, cfg.Media.PollAttempts)
	assert.Equal(t, time.Second, cfg.Media.PollDelay.Duration())
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestValidate_DefaultsPass(t *testing.T) {
	var cfg Config
	applyDefaults(&cfg)
	require.NoError(t, cfg.Validate())
}

func TestValidate_RejectsRelativeBaseURL(t *testing.T) {
	var cfg Config
	applyDefaults(&cfg)
	cfg.API.BaseURL = "/api/v1"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "absolute URL")
}

func TestValidate_RejectsZeroIdleTimeout(t *testing.T) {
	var cfg Config
	applyDefaults(&cfg)
	cfg.Session.IdleTimeout = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "idle_timeout")
}

func TestValidate_RejectsUnknownLogFormat(t *testing.T) {
	var cfg Config
	applyDefaults(&cfg)
	cfg.Logging.Format = "xml"

	require.Error(t, cfg.Validate())
}

func TestLoadWithFile_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadWithFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Chat.MaxMessages)
}

func TestLoadWithFile_ReadsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("api:\n  base_url: https://support.example.com/api/v1\nchat:\n  max_messages: 25\n  max_age: 12h\n")
	require.NoError(t, os.WriteFile(path, content, 0600))

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, "https://support.example.com/api/v1", cfg.API.BaseURL)
	assert.Equal(t, 25, cfg.Chat.MaxMessages)
	assert.Equal(t, 12*time.Hour, cfg.Chat.MaxAge.Duration())
	// Untouched sections still get defaults.
	assert.Equal(t, 30*time.Minute, cfg.Session.IdleTimeout.Duration())
}

func TestLoadWithFile_RejectsWorldReadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  base_url: http://x.test/api\n"), 0644))

	_, err := LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permissions")
}

func TestDuration_UnmarshalText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("90s")))
	assert.Equal(t, 90*time.Second, d.Duration())

	require.Error(t, d.UnmarshalText([]byte("-1s")))
	require.Error(t, d.UnmarshalText([]byte("soon")))
}

func TestSecret_NeverPrints(t *testing.T) {
	s := Secret("hunter2")
	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "hunter2", s.Value())
	assert.True(t, s.IsSet())

	out, err := s.MarshalJSON()
	require.NoError(t, err)
	assert.NotContains(t, string(out), "hunter2")

	var empty Secret
	assert.Equal(t, "", empty.String())
	assert.False(t, empty.IsSet())
}

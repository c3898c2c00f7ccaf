// Package config provides configuration loading for the helpcenter client.
package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config is the root configuration for the helpcenter client.
type Config struct {
	API     APIConfig     `koanf:"api"`
	Storage StorageConfig `koanf:"storage"`
	Session SessionConfig `koanf:"session"`
	Chat    ChatConfig    `koanf:"chat"`
	Media   MediaConfig   `koanf:"media"`
	Logging LoggingConfig `koanf:"logging"`
}

// APIConfig describes the consumed help-center REST backend.
type APIConfig struct {
	// BaseURL is the API root, e.g. http://localhost:8000/api/v1.
	BaseURL string `koanf:"base_url"`

	// RequestTimeout bounds each HTTP request. The media poll loop has its
	// own attempt budget on top of this.
	RequestTimeout Duration `koanf:"request_timeout"`

	// RateLimit is the maximum outbound requests per second. Zero disables
	// client-side limiting.
	RateLimit float64 `koanf:"rate_limit"`
}

// StorageConfig controls where client state is persisted.
type StorageConfig struct {
	// Path is the state database file. Empty selects the default under
	// ~/.config/helpcenter/state.db.
	Path string `koanf:"path"`
}

// SessionConfig controls the idle-timeout policy.
type SessionConfig struct {
	// IdleTimeout is the inactivity window after which the session is
	// forcibly signed out.
	IdleTimeout Duration `koanf:"idle_timeout"`

	// CheckInterval is how often the guard re-evaluates idle expiry.
	CheckInterval Duration `koanf:"check_interval"`
}

// ChatConfig controls transcript retention.
type ChatConfig struct {
	// MaxMessages caps the retained transcript length per category.
	MaxMessages int `koanf:"max_messages"`

	// MaxAge expires a persisted transcript snapshot as a whole unit.
	MaxAge Duration `koanf:"max_age"`
}

// MediaConfig controls the analysis poll loop.
type MediaConfig struct {
	// PollAttempts is the maximum number of status checks per job.
	PollAttempts int `koanf:"poll_attempts"`

	// PollDelay is the fixed delay between status checks.
	PollDelay Duration `koanf:"poll_delay"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	// Level is one of trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is json or console.
	Format string `koanf:"format"`
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute URL: %q", c.API.BaseURL)
	}
	if c.API.RateLimit < 0 {
		return fmt.Errorf("api.rate_limit cannot be negative")
	}
	if c.Session.IdleTimeout.Duration() <= 0 {
		return fmt.Errorf("session.idle_timeout must be positive")
	}
	if c.Session.CheckInterval.Duration() <= 0 {
		return fmt.Errorf("session.check_interval must be positive")
	}
	if c.Chat.MaxMessages <= 0 {
		return fmt.Errorf("chat.max_messages must be positive")
	}
	if c.Chat.MaxAge.Duration() <= 0 {
		return fmt.Errorf("chat.max_age must be positive")
	}
	if c.Media.PollAttempts <= 0 {
		return fmt.Errorf("media.poll_attempts must be positive")
	}
	if c.Media.PollDelay.Duration() <= 0 {
		return fmt.Errorf("media.poll_delay must be positive")
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console: %q", c.Logging.Format)
	}
	return nil
}

// applyDefaults sets default values for missing configuration fields.
// The retention and timeout defaults mirror the policies the backend was
// designed against: 50-message transcripts, 24h snapshot expiry, 30-minute
// idle timeout checked once a minute, 10x1s media polling.
func applyDefaults(cfg *Config) {
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "http://localhost:8000/api/v1"
	}
	if cfg.API.RequestTimeout == 0 {
		cfg.API.RequestTimeout = Duration(30 * time.Second)
	}
	if cfg.Session.IdleTimeout == 0 {
		cfg.Session.IdleTimeout = Duration(30 * time.Minute)
	}
	if cfg.Session.CheckInterval == 0 {
		cfg.Session.CheckInterval = Duration(time.Minute)
	}
	if cfg.Chat.MaxMessages == 0 {
		cfg.Chat.MaxMessages = 50
	}
	if cfg.Chat.MaxAge == 0 {
		cfg.Chat.MaxAge = Duration(24 * time.Hour)
	}
	if cfg.Media.PollAttempts == 0 {
		cfg.Media.PollAttempts = 10
	}
	if cfg.Media.PollDelay == 0 {
		cfg.Media.PollDelay = Duration(time.Second)
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
}

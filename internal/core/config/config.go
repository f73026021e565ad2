// Package config handles configuration loading and validation for repodoc.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/colonyops/repodoc/internal/core/styles"
)

// Watch transports for following a task until it finishes.
const (
	TransportPoll      = "poll"
	TransportWebSocket = "websocket"
)

// Config holds the application configuration.
type Config struct {
	API     APIConfig  `yaml:"api"`
	Poll    PollConfig `yaml:"poll"`
	QA      QAConfig   `yaml:"qa"`
	TUI     TUIConfig  `yaml:"tui"`
	DataDir string     `yaml:"-"` // set by caller, not from config file
}

// APIConfig describes how to reach the analysis service.
type APIConfig struct {
	BaseURL       string        `yaml:"base_url"`
	Timeout       time.Duration `yaml:"timeout"`
	RetryAttempts int           `yaml:"retry_attempts"` // GET retries only
	RetryDelay    time.Duration `yaml:"retry_delay"`    // initial backoff, doubled per attempt
}

// PollConfig controls how a submitted task is followed.
type PollConfig struct {
	Interval  time.Duration `yaml:"interval"`
	Transport string        `yaml:"transport"` // poll | websocket
}

// QAConfig configures the question-answer panel.
type QAConfig struct {
	SuggestionCache int `yaml:"suggestion_cache"` // number of repos whose suggestions are cached
}

// TUIConfig configures the terminal UI.
type TUIConfig struct {
	Theme    string `yaml:"theme"` // palette name, see styles.ThemeNames
	WordWrap int    `yaml:"word_wrap"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL:       "http://localhost:8000",
			Timeout:       30 * time.Second,
			RetryAttempts: 3,
			RetryDelay:    time.Second,
		},
		Poll: PollConfig{
			Interval:  2 * time.Second,
			Transport: TransportPoll,
		},
		QA: QAConfig{
			SuggestionCache: 64,
		},
		TUI: TUIConfig{
			Theme:    styles.DefaultTheme,
			WordWrap: 100,
		},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided
// dataDir. Environment overrides (see ApplyEnv) are applied last.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	cfg.DataDir = dataDir
	cfg.ApplyEnv(os.Getenv)
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.API.BaseURL == "" {
		c.API.BaseURL = defaults.API.BaseURL
	}
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
	if c.API.Timeout == 0 {
		c.API.Timeout = defaults.API.Timeout
	}
	if c.API.RetryDelay == 0 {
		c.API.RetryDelay = defaults.API.RetryDelay
	}
	if c.Poll.Interval == 0 {
		c.Poll.Interval = defaults.Poll.Interval
	}
	if c.Poll.Transport == "" {
		c.Poll.Transport = defaults.Poll.Transport
	}
	if c.QA.SuggestionCache == 0 {
		c.QA.SuggestionCache = defaults.QA.SuggestionCache
	}
	if c.TUI.Theme == "" {
		c.TUI.Theme = defaults.TUI.Theme
	}
	if c.TUI.WordWrap == 0 {
		c.TUI.WordWrap = defaults.TUI.WordWrap
	}
}

// Validate checks that the configuration is structurally valid.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}

	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute http(s) URL, got %q", c.API.BaseURL)
	}

	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout cannot be negative")
	}

	if c.API.RetryAttempts < 0 {
		return fmt.Errorf("api.retry_attempts cannot be negative")
	}

	if c.Poll.Interval < 0 {
		return fmt.Errorf("poll.interval cannot be negative")
	}

	if !isValidTransport(c.Poll.Transport) {
		return fmt.Errorf("poll.transport %q must be %q or %q", c.Poll.Transport, TransportPoll, TransportWebSocket)
	}

	if c.QA.SuggestionCache < 0 {
		return fmt.Errorf("qa.suggestion_cache cannot be negative")
	}

	return nil
}

// StateFile returns the path of the persisted client state slot.
func (c *Config) StateFile() string {
	return filepath.Join(c.DataDir, "repodoc-storage.json")
}

// LogFile returns the default log file path inside the data directory.
func (c *Config) LogFile() string {
	return filepath.Join(c.DataDir, "repodoc.log")
}

func isValidTransport(t string) bool {
	switch t {
	case TransportPoll, TransportWebSocket:
		return true
	default:
		return false
	}
}

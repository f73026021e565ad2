package config

import (
	"errors"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Environment variables that override file configuration.
const (
	EnvAPIURL       = "REPODOC_API_URL"
	EnvPollInterval = "REPODOC_POLL_INTERVAL"
	EnvTransport    = "REPODOC_TRANSPORT"
)

// LoadDotEnv loads KEY=VALUE pairs from the given .env files into the process
// environment without overriding variables that are already set. Missing
// files are ignored.
func LoadDotEnv(files ...string) {
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			log.Warn().Str("file", file).Err(err).Msg("dotenv not loaded")
		}
	}
}

// ApplyEnv overlays environment overrides onto the config. getenv is
// injected so tests do not touch the process environment.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvAPIURL)); v != "" {
		c.API.BaseURL = v
	}

	if v := strings.TrimSpace(getenv(EnvPollInterval)); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			log.Warn().Str("value", v).Err(err).Msg("ignoring invalid " + EnvPollInterval)
		} else {
			c.Poll.Interval = d
		}
	}

	if v := strings.TrimSpace(getenv(EnvTransport)); v != "" {
		c.Poll.Transport = strings.ToLower(v)
	}
}

// parseDuration accepts Go duration strings ("2s") and bare integers, which
// are read as milliseconds.
func parseDuration(v string) (time.Duration, error) {
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(v)
}

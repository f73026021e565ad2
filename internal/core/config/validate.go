package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/hay-kot/criterio"

	"github.com/colonyops/repodoc/internal/core/styles"
)

// minPollInterval is the smallest interval that does not hammer the service.
const minPollInterval = 500 * time.Millisecond

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Category string `json:"category"`
	Item     string `json:"item,omitempty"`
	Message  string `json:"message"`
}

// ValidateDeep performs comprehensive validation of the configuration including
// file accessibility and URL shape. The configPath argument specifies the
// config file location to validate (empty string skips config file check).
// This calls Validate() first for basic structural validation.
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		criterio.Run("data_dir", c.DataDir, isDirectoryOrNotExist),
		criterio.Run("api.base_url", c.API.BaseURL, hasNoQueryOrFragment),
		criterio.Run("tui.theme", c.TUI.Theme, isKnownTheme),
		c.validateTimings(),
	)
}

// Warnings returns non-fatal configuration issues.
func (c *Config) Warnings() []ValidationWarning {
	var warnings []ValidationWarning

	if c.Poll.Interval > 0 && c.Poll.Interval < minPollInterval {
		warnings = append(warnings, ValidationWarning{
			Category: "Poll",
			Item:     "interval",
			Message:  fmt.Sprintf("interval %s is below %s and may overload the service", c.Poll.Interval, minPollInterval),
		})
	}

	if c.Poll.Transport == TransportWebSocket {
		warnings = append(warnings, ValidationWarning{
			Category: "Poll",
			Item:     "transport",
			Message:  "websocket transport is legacy; poll is the supported default",
		})
	}

	if c.API.RetryAttempts == 0 {
		warnings = append(warnings, ValidationWarning{
			Category: "API",
			Item:     "retry_attempts",
			Message:  "GET requests will not be retried on transient failures",
		})
	}

	return warnings
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

// isDirectoryOrNotExist validates that a path is a directory or doesn't exist.
func isDirectoryOrNotExist(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil // will be created
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("exists but is not a directory")
	}
	return nil
}

// hasNoQueryOrFragment rejects base URLs that endpoint paths cannot be
// appended to.
func hasNoQueryOrFragment(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("must not contain a query or fragment")
	}
	return nil
}

func isKnownTheme(name string) error {
	names := styles.ThemeNames()
	if !slices.Contains(names, name) {
		return fmt.Errorf("unknown theme %q, available: %s", name, strings.Join(names, ", "))
	}
	return nil
}

func (c *Config) validateTimings() error {
	var errs criterio.FieldErrorsBuilder

	if c.API.Timeout > 0 && c.Poll.Interval > c.API.Timeout*10 {
		errs = errs.Append("poll.interval", fmt.Errorf("interval %s is more than ten request timeouts", c.Poll.Interval))
	}
	if c.API.RetryAttempts > 10 {
		errs = errs.Append("api.retry_attempts", fmt.Errorf("at most 10 retries are allowed, got %d", c.API.RetryAttempts))
	}
	if c.API.RetryAttempts > 0 && c.API.RetryDelay > c.API.Timeout {
		errs = errs.Append("api.retry_delay", fmt.Errorf("retry delay %s exceeds request timeout %s", c.API.RetryDelay, c.API.Timeout))
	}

	return errs.ToError()
}

package initcmd

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/colonyops/repodoc/internal/core/config"
)

// ConfigOptions are the answers collected by the wizard.
type ConfigOptions struct {
	BaseURL   string
	Transport string
	Theme     string
}

// GenerateConfig returns the defaults with the wizard's answers applied.
func GenerateConfig(opts ConfigOptions) config.Config {
	cfg := config.DefaultConfig()
	if opts.BaseURL != "" {
		cfg.API.BaseURL = opts.BaseURL
	}
	if opts.Transport != "" {
		cfg.Poll.Transport = opts.Transport
	}
	if opts.Theme != "" {
		cfg.TUI.Theme = opts.Theme
	}
	return cfg
}

const configHeader = "# repodoc configuration\n# Environment: REPODOC_API_URL overrides api.base_url.\n\n"

// WriteConfig writes cfg as YAML, creating parent directories.
func WriteConfig(cfg config.Config, configPath string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	return os.WriteFile(configPath, append([]byte(configHeader), data...), 0o644)
}

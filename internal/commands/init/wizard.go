// Package initcmd implements the first-run configuration wizard.
package initcmd

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/colonyops/repodoc/internal/core/config"
	"github.com/colonyops/repodoc/internal/core/doctor"
	"github.com/colonyops/repodoc/internal/core/styles"
	"github.com/colonyops/repodoc/internal/printer"
)

// WizardOptions configures the wizard behavior.
type WizardOptions struct {
	ConfigPath string
	DataDir    string
	Yes        bool   // skip prompts, use defaults
	Force      bool   // overwrite existing config
	BaseURL    string // pre-specified service URL ("" = prompt)
}

// Wizard orchestrates the init process.
type Wizard struct {
	opts WizardOptions
}

// NewWizard creates a new init wizard.
func NewWizard(opts WizardOptions) *Wizard {
	return &Wizard{opts: opts}
}

// Run executes the wizard.
func (w *Wizard) Run(ctx context.Context) error {
	p := printer.Ctx(ctx)

	if ConfigExists(w.opts.ConfigPath) && !w.opts.Force {
		if w.opts.Yes {
			return fmt.Errorf("config exists at %s; use --force to overwrite", w.opts.ConfigPath)
		}

		var overwrite bool
		err := huh.NewConfirm().
			Title("Config file already exists").
			Description(w.opts.ConfigPath + "\nOverwrite? (a backup will be created)").
			Value(&overwrite).
			Run()
		if err != nil {
			return err
		}
		if !overwrite {
			p.Infof("Init cancelled")
			return nil
		}
	}

	answers := ConfigOptions{
		BaseURL:   w.opts.BaseURL,
		Transport: config.TransportPoll,
		Theme:     styles.DefaultTheme,
	}
	if answers.BaseURL == "" {
		answers.BaseURL = config.DefaultConfig().API.BaseURL
	}

	if !w.opts.Yes {
		if err := w.promptUser(&answers); err != nil {
			return err
		}
	}

	backupPath, err := BackupConfig(w.opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("backup config: %w", err)
	}
	if backupPath != "" {
		p.Successf("Backed up config to: %s", backupPath)
	}

	if err := WriteConfig(GenerateConfig(answers), w.opts.ConfigPath); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	p.Successf("Created config: %s", w.opts.ConfigPath)

	p.Printf("")
	cfg, err := config.Load(w.opts.ConfigPath, w.opts.DataDir)
	if err != nil {
		p.Errorf("written config does not load: %v", err)
		return err
	}

	result := doctor.NewConfigCheck(cfg, w.opts.ConfigPath).Run(ctx)
	p.Section(result.Name)
	for _, item := range result.Items {
		switch item.Status {
		case doctor.StatusPass:
			p.CheckItem(item.Label, item.Detail)
		case doctor.StatusWarn:
			p.WarnItem(item.Label, item.Detail)
		case doctor.StatusFail:
			p.FailItem(item.Label, item.Detail)
		}
	}

	p.Printf("")
	p.Section("Next Steps")
	p.Printf("  1. Run 'repodoc doctor' to check the analysis service")
	p.Printf("  2. Run 'repodoc' to start analysing repositories")

	return nil
}

func (w *Wizard) promptUser(answers *ConfigOptions) error {
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Analysis service URL").
			Description("Base URL of the documentation service").
			Validate(validateBaseURL).
			Value(&answers.BaseURL),
		huh.NewSelect[string]().
			Title("Status updates").
			Description("Polling works everywhere; the websocket stream needs server support").
			Options(
				huh.NewOption("Polling", config.TransportPoll),
				huh.NewOption("WebSocket", config.TransportWebSocket),
			).
			Value(&answers.Transport),
		huh.NewSelect[string]().
			Title("Theme").
			Options(huh.NewOptions(styles.ThemeNames()...)...).
			Value(&answers.Theme),
	))

	if err := form.Run(); err != nil {
		return err
	}

	answers.BaseURL = strings.TrimRight(strings.TrimSpace(answers.BaseURL), "/")
	return nil
}

func validateBaseURL(s string) error {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("enter an absolute http(s) URL")
	}
	return nil
}

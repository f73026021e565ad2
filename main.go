package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/repodoc/internal/commands"
	"github.com/colonyops/repodoc/internal/core/config"
	"github.com/colonyops/repodoc/internal/core/styles"
	"github.com/colonyops/repodoc/internal/printer"
	"github.com/colonyops/repodoc/internal/repodoc"
	"github.com/colonyops/repodoc/internal/state"
	"github.com/colonyops/repodoc/internal/store/jsonfile"
	"github.com/colonyops/repodoc/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, build() reads
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

// buildInfo resolves the version, commit, and date of the running binary.
func buildInfo() (v, c, d string) {
	v, c, d = version, commit, date

	// When installed via `go install module@version`, ldflags aren't set
	// so version remains "dev". Fall back to runtime/debug.BuildInfo which
	// Go populates automatically with the module version and VCS metadata.
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}
	return v, c, d
}

func build() string {
	v, c, d := buildInfo()

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx := context.Background()

	// .env may set REPODOC_* variables read by flags and config below
	config.LoadDotEnv(".env")

	var (
		logCloser  func()
		repodocApp = &repodoc.App{}
	)

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "repodoc",
		Usage:     "Generate and browse documentation for GitHub repositories",
		UsageText: "repodoc [global options] command [command options]",
		Description: `repodoc submits repositories to a documentation analysis service, follows
each analysis until it finishes, and keeps a history of past analyses.

Run 'repodoc' with no arguments to open the interactive interface.
Run 'repodoc analyze <url>' to analyse a repository from a script.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("REPODOC_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to <data-dir>/repodoc.log)",
				Sources:     cli.EnvVars("REPODOC_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("REPODOC_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("REPODOC_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			ctx = printer.NewContext(ctx, printer.New(os.Stderr))

			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			flags.Config = cfg

			// Always log to a file so the TUI owns the terminal
			logFile := flags.LogFile
			if logFile == "" {
				logFile = cfg.LogFile()
			}

			logger, closer, err := logutils.New(flags.LogLevel, logFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			// Apply configured theme (validation ensures name is valid)
			if palette, ok := styles.GetPalette(cfg.TUI.Theme); ok {
				styles.SetTheme(palette)
			}

			// A state file that cannot be read is replaced with defaults;
			// 'repodoc doctor --autofix' removes it.
			stateFile := jsonfile.NewStateFile(cfg.StateFile())
			persisted, err := stateFile.Load()
			if err != nil {
				log.Warn().Err(err).Str("path", stateFile.Path()).Msg("ignoring unreadable state file")
			}

			v, _, _ := buildInfo()
			a, err := repodoc.NewApp(cfg, stateFile, state.Rehydrate(persisted), v)
			if err != nil {
				return ctx, fmt.Errorf("create app: %w", err)
			}

			// Populate the pre-allocated App struct (commands already hold a pointer to it)
			*repodocApp = *a

			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			repodocApp.Close()

			// Close log file
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	tuiCmd := commands.NewTuiCmd(flags, repodocApp)

	app = commands.NewAnalyzeCmd(flags, repodocApp).Register(app)
	app = commands.NewOpenCmd(flags, repodocApp).Register(app)
	app = commands.NewHistoryCmd(flags, repodocApp).Register(app)
	app = commands.NewAskCmd(flags, repodocApp).Register(app)
	app = commands.NewArchCmd(flags, repodocApp).Register(app)
	app = commands.NewResetCmd(flags, repodocApp).Register(app)
	app = commands.NewDoctorCmd(flags, repodocApp).Register(app)
	app = commands.NewConfigValidateCmd(flags).Register(app)
	app = commands.NewInitCmd(flags).Register(app)

	// Register TUI flags on root command
	app.Flags = append(app.Flags, tuiCmd.Flags()...)

	// Set TUI as default action when no subcommand is provided
	app.Action = func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() > 0 {
			return fmt.Errorf("unknown command %q. Run 'repodoc --help' for usage", c.Args().First())
		}
		return tuiCmd.Run(ctx, c)
	}

	exitCode := 0
	runErr := app.Run(ctx, os.Args)
	if runErr != nil {
		if msg := runErr.Error(); msg != "" {
			fmt.Fprintln(os.Stderr)
			fmt.Fprintln(os.Stderr, msg)
		}
		exitCode = 1
	}

	os.Exit(exitCode)
}

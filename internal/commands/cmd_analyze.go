package commands

import (
	"context"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/repodoc/internal/core/analysis"
	"github.com/colonyops/repodoc/internal/repodoc"
)

type AnalyzeCmd struct {
	flags *Flags
	app   *repodoc.App
	opts  watchOptions
}

// NewAnalyzeCmd creates a new analyze command
func NewAnalyzeCmd(flags *Flags, app *repodoc.App) *AnalyzeCmd {
	return &AnalyzeCmd{flags: flags, app: app}
}

// Register adds the analyze command to the application
func (cmd *AnalyzeCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "analyze",
		Usage:     "Analyze a repository and print its documentation",
		UsageText: "repodoc analyze [--json] [--timeout 10m] <repo-url>",
		Description: `Submits the repository to the analysis service and waits for the generated
documentation. Progress is printed to stderr while the analysis runs.

Documentation is rendered for the terminal when stdout is a TTY and printed
as raw markdown otherwise. Use --json for the documentation and architecture
data as a single JSON document.`,
		Flags:  cmd.opts.flags(),
		Action: cmd.run,
	})

	return app
}

func (cmd *AnalyzeCmd) run(ctx context.Context, c *cli.Command) error {
	repoURL := strings.TrimSpace(c.Args().First())
	if repoURL == "" {
		return fail(ctx, cmd.opts.jsonOutput, analysis.ErrEmptyURL)
	}

	return follow(ctx, c, cmd.app, cmd.opts, func() error {
		return cmd.app.Lifecycle.SubmitRepoURL(ctx, repoURL)
	})
}

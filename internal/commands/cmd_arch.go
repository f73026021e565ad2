package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/repodoc/internal/core/analysis"
	"github.com/colonyops/repodoc/internal/printer"
	"github.com/colonyops/repodoc/internal/repodoc"
	"github.com/colonyops/repodoc/internal/tui"
	"github.com/colonyops/repodoc/pkg/iojson"
)

type ArchCmd struct {
	flags *Flags
	app   *repodoc.App

	// flags
	jsonOutput bool
}

// NewArchCmd creates a new arch command
func NewArchCmd(flags *Flags, app *repodoc.App) *ArchCmd {
	return &ArchCmd{flags: flags, app: app}
}

// Register adds the arch command to the application
func (cmd *ArchCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "arch",
		Usage:     "Print the dependency summary of an analysis",
		UsageText: "repodoc arch [--json] [task-id]",
		Description: `Fetches the architecture data of a completed analysis. The task id
defaults to the one currently shown.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output the raw architecture as JSON",
				Destination: &cmd.jsonOutput,
			},
		},
		ShellComplete: TaskIDCompleter(cmd.app),
		Action:        cmd.run,
	})

	return app
}

func (cmd *ArchCmd) run(ctx context.Context, c *cli.Command) error {
	taskID := strings.TrimSpace(c.Args().First())
	if taskID == "" {
		taskID = cmd.app.Store.Snapshot().TaskID
	}
	if taskID == "" {
		return fail(ctx, cmd.jsonOutput, fmt.Errorf("task id is required"))
	}

	arch, err := cmd.app.QA.Architecture(ctx, taskID)
	if err != nil {
		if errors.Is(err, analysis.ErrArchitectureNotReady) && !cmd.jsonOutput {
			printer.Ctx(ctx).Warnf("Architecture for %s is not ready yet", taskID)
			return cli.Exit("", 1)
		}
		return fail(ctx, cmd.jsonOutput, err)
	}

	out := c.Root().Writer
	if cmd.jsonOutput {
		return iojson.Write(out, arch)
	}

	md := tui.ArchitectureSummary(arch)
	if isTerminal(out) {
		rendered, err := tui.RenderMarkdown(md, cmd.app.Config.TUI.WordWrap)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(out, rendered)
		return err
	}
	_, err = fmt.Fprintln(out, md)
	return err
}

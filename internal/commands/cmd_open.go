package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/repodoc/internal/repodoc"
)

type OpenCmd struct {
	flags *Flags
	app   *repodoc.App
	opts  watchOptions
}

// NewOpenCmd creates a new open command
func NewOpenCmd(flags *Flags, app *repodoc.App) *OpenCmd {
	return &OpenCmd{flags: flags, app: app}
}

// Register adds the open command to the application
func (cmd *OpenCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "open",
		Usage:     "Print the documentation of a previous analysis",
		UsageText: "repodoc open [--json] <task-id>",
		Description: `Fetches an existing task by id. A task that is still running is followed
until it finishes, exactly like 'repodoc analyze'.`,
		Flags:         cmd.opts.flags(),
		ShellComplete: TaskIDCompleter(cmd.app),
		Action:        cmd.run,
	})

	return app
}

func (cmd *OpenCmd) run(ctx context.Context, c *cli.Command) error {
	taskID := strings.TrimSpace(c.Args().First())
	if taskID == "" {
		return fail(ctx, cmd.opts.jsonOutput, fmt.Errorf("task id is required"))
	}

	return follow(ctx, c, cmd.app, cmd.opts, func() error {
		cmd.app.History.Open(taskID)
		return nil
	})
}

package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/repodoc/internal/printer"
	"github.com/colonyops/repodoc/internal/repodoc"
)

type ResetCmd struct {
	flags *Flags
	app   *repodoc.App
	hard  bool
}

// NewResetCmd creates a new reset command
func NewResetCmd(flags *Flags, app *repodoc.App) *ResetCmd {
	return &ResetCmd{flags: flags, app: app}
}

// Register adds the reset command to the application
func (cmd *ResetCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "reset",
		Usage:     "Return to the home screen",
		UsageText: "repodoc reset [--hard]",
		Description: `Clears the open documentation, progress, and error so the next 'repodoc'
starts on the home screen. The history list is kept.

--hard removes the saved state file entirely.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "hard",
				Usage:       "delete the saved state file",
				Destination: &cmd.hard,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ResetCmd) run(ctx context.Context, _ *cli.Command) error {
	p := printer.Ctx(ctx)

	if cmd.hard {
		cmd.app.Lifecycle.Close()
		if err := cmd.app.StateFile.Clear(); err != nil {
			return fmt.Errorf("remove state: %w", err)
		}
		p.Successf("Removed %s", cmd.app.StateFile.Path())
		return nil
	}

	cmd.app.Lifecycle.ResetState()
	p.Successf("State reset")
	return nil
}

package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/repodoc/internal/core/analysis"
	"github.com/colonyops/repodoc/internal/printer"
	"github.com/colonyops/repodoc/internal/repodoc"
	"github.com/colonyops/repodoc/internal/state"
	"github.com/colonyops/repodoc/pkg/iojson"
)

// DeleteInput is the JSON accepted by 'history rm --file'.
type DeleteInput struct {
	IDs []string `json:"ids"`
}

type HistoryCmd struct {
	flags *Flags
	app   *repodoc.App
	fr    *iojson.FileReader[DeleteInput]

	// flags
	jsonOutput bool
	match      string
	yes        bool
	all        bool

	// confirm asks before deleting; replaced in tests.
	confirm func(n int) (bool, error)
}

// NewHistoryCmd creates a new history command
func NewHistoryCmd(flags *Flags, app *repodoc.App) *HistoryCmd {
	return &HistoryCmd{
		flags:   flags,
		app:     app,
		fr:      &iojson.FileReader[DeleteInput]{},
		confirm: confirmDelete,
	}
}

// Register adds the history command to the application
func (cmd *HistoryCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "history",
		Usage: "List and delete previous analyses",
		Commands: []*cli.Command{
			{
				Name:      "ls",
				Usage:     "List previous analyses",
				UsageText: "repodoc history ls [--json] [--match 'owner/*']",
				Description: `Refreshes the history from the analysis service and prints it, newest first
as ordered by the service. If the service cannot be reached the last known
list is printed.

--match filters by repository name with a glob pattern ("acme/*", "*/api*").`,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:        "json",
						Usage:       "output as JSON lines",
						Destination: &cmd.jsonOutput,
					},
					&cli.StringFlag{
						Name:        "match",
						Aliases:     []string{"m"},
						Usage:       "only show repositories matching a glob pattern",
						Destination: &cmd.match,
					},
				},
				Action: cmd.runList,
			},
			{
				Name:      "rm",
				Usage:     "Delete analyses",
				UsageText: "repodoc history rm [--yes] <task-id>...\nrepodoc history rm --all\necho '{\"ids\":[\"a\",\"b\"]}' | repodoc history rm --yes",
				Description: `Deletes the given analyses and their stored data from the service.

Ids are taken from the arguments, from --file, or from piped JSON of the form
{"ids": [...]}. --all deletes every analysis in the history. You are asked to
confirm unless --yes is given.`,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:        "yes",
						Aliases:     []string{"y"},
						Usage:       "do not ask for confirmation",
						Destination: &cmd.yes,
					},
					&cli.BoolFlag{
						Name:        "all",
						Usage:       "delete every analysis in the history",
						Destination: &cmd.all,
					},
					cmd.fr.Flag(),
				},
				ShellComplete: TaskIDCompleter(cmd.app),
				Action:        cmd.runRemove,
			},
		},
	})

	return app
}

// historyInfo is the JSON output format for history ls --json.
type historyInfo struct {
	ID         string          `json:"id"`
	RepoName   string          `json:"repo_name"`
	Status     analysis.Status `json:"status"`
	UpdatedAt  time.Time       `json:"updated_at,omitzero"`
	CommitHash string          `json:"commit_hash,omitempty"`
}

func (cmd *HistoryCmd) runList(ctx context.Context, c *cli.Command) error {
	cmd.app.History.FetchHistory(ctx)

	entries, err := cmd.app.History.Filter(cmd.match)
	if err != nil {
		return err
	}

	out := c.Root().Writer

	if cmd.jsonOutput {
		for _, e := range entries {
			info := historyInfo{
				ID:         e.ID,
				RepoName:   e.RepoName,
				Status:     e.Status,
				UpdatedAt:  e.UpdatedAt.Time,
				CommitHash: e.CommitHash,
			}
			if err := iojson.WriteLine(out, info); err != nil {
				return fmt.Errorf("encode history entry: %w", err)
			}
		}
		return nil
	}

	if len(entries) == 0 {
		printer.Ctx(ctx).Infof("No analyses found")
		return nil
	}

	now := time.Now()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tREPO\tSTATUS\tCOMMIT\tUPDATED")
	for _, e := range entries {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.ID, e.RepoName, e.Status.Label(), e.ShortCommit(), e.UpdatedAt.Relative(now))
	}
	return w.Flush()
}

func (cmd *HistoryCmd) runRemove(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	ids, err := cmd.targetIDs(ctx, c)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		p.Infof("Nothing to delete")
		return nil
	}

	if !cmd.yes {
		ok, err := cmd.confirm(len(ids))
		if err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			return err
		}
		if !ok {
			p.Infof("Deletion cancelled")
			return nil
		}
	}

	hist := cmd.app.History
	hist.SelectItems(ids...)

	deleted, err := hist.DeleteSelectedItems(ctx)

	var partial *analysis.PartialFailure
	switch {
	case err == nil:
		p.Successf("Deleted %d analysis(es)", deleted)
		return nil
	case errors.As(err, &partial):
		p.Warnf("%s", analysis.UserMessage(err))
		for _, id := range partial.Failed {
			p.Printf("  %s", id)
		}
		return cli.Exit("", 1)
	default:
		msg := cmd.app.Store.Snapshot().Error
		if cmd.app.Store.Snapshot().IsSelectionMode {
			hist.ToggleSelectionMode()
		}
		p.Errorf("%s", msg)
		return cli.Exit("", 1)
	}
}

// targetIDs resolves the ids to delete from --all, the arguments, or JSON
// input, in that order. Repeated ids are returned once.
func (cmd *HistoryCmd) targetIDs(ctx context.Context, c *cli.Command) ([]string, error) {
	ids, err := cmd.rawTargetIDs(ctx, c)
	if err != nil {
		return nil, err
	}
	return state.NewSelectionSet(ids...).IDs(), nil
}

func (cmd *HistoryCmd) rawTargetIDs(ctx context.Context, c *cli.Command) ([]string, error) {
	if cmd.all {
		cmd.app.History.FetchHistory(ctx)
		return cmd.app.Store.Snapshot().HistoryIDs(), nil
	}

	if c.Args().Len() > 0 {
		ids := make([]string, 0, c.Args().Len())
		for _, arg := range c.Args().Slice() {
			// completions are "id:repo"
			id, _, _ := strings.Cut(arg, ":")
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
		return ids, nil
	}

	input, ok, err := cmd.fr.Read()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no task ids given; pass ids, --all, or JSON on stdin")
	}
	return input.IDs, nil
}

func confirmDelete(n int) (bool, error) {
	if !isTerminal(os.Stdin) {
		return false, fmt.Errorf("refusing to delete without --yes when stdin is not a terminal")
	}

	var ok bool
	err := huh.NewConfirm().
		Title(fmt.Sprintf("Delete %d analysis(es)?", n)).
		Description("The generated documentation and embeddings are removed from the service.").
		Affirmative("Delete").
		Negative("Cancel").
		Value(&ok).
		Run()
	return ok, err
}

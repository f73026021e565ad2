package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/repodoc/internal/repodoc"
)

// TaskIDCompleter returns a ShellCompleteFunc that suggests task ids from the
// persisted history as positional completions.
//
// When the user's last typed argument starts with "-", it falls back to the
// default flag completion behavior.
func TaskIDCompleter(app *repodoc.App) cli.ShellCompleteFunc {
	return func(ctx context.Context, cmd *cli.Command) {
		if args := cmd.Args(); args.Present() {
			last := args.Slice()[args.Len()-1]
			if len(last) > 0 && last[0] == '-' {
				cli.DefaultCompleteWithFlags(ctx, cmd)
				return
			}
		}

		if app.Store == nil {
			return
		}

		w := cmd.Root().Writer
		for _, e := range app.Store.Snapshot().History {
			_, _ = fmt.Fprintf(w, "%s:%s\n", e.ID, e.RepoName)
		}
	}
}

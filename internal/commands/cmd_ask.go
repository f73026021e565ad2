package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/repodoc/internal/gateway"
	"github.com/colonyops/repodoc/internal/printer"
	"github.com/colonyops/repodoc/internal/repodoc"
	"github.com/colonyops/repodoc/internal/tui"
	"github.com/colonyops/repodoc/pkg/iojson"
)

type AskCmd struct {
	flags *Flags
	app   *repodoc.App

	// flags
	repo        string
	jsonOutput  bool
	showSources bool
	refresh     bool
}

// NewAskCmd creates a new ask command
func NewAskCmd(flags *Flags, app *repodoc.App) *AskCmd {
	return &AskCmd{flags: flags, app: app}
}

// Register adds the ask and suggest commands to the application
func (cmd *AskCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:      "ask",
			Usage:     "Ask a question about an analysed repository",
			UsageText: "repodoc ask [--repo owner/name] [--sources] [--json] <question>",
			Description: `Answers a question using the embeddings stored for the repository.

--repo defaults to the repository of the last opened documentation.`,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:        "repo",
					Aliases:     []string{"r"},
					Usage:       "repository as owner/name",
					Destination: &cmd.repo,
				},
				&cli.BoolFlag{
					Name:        "sources",
					Usage:       "print the passages the answer is based on",
					Destination: &cmd.showSources,
				},
				&cli.BoolFlag{
					Name:        "json",
					Usage:       "output as JSON",
					Destination: &cmd.jsonOutput,
				},
			},
			Action: cmd.runAsk,
		},
		&cli.Command{
			Name:      "suggest",
			Usage:     "List suggested questions for a repository",
			UsageText: "repodoc suggest [--json] [--refresh] [owner/name]",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:        "json",
					Usage:       "output as a JSON array",
					Destination: &cmd.jsonOutput,
				},
				&cli.BoolFlag{
					Name:        "refresh",
					Usage:       "bypass cached suggestions",
					Destination: &cmd.refresh,
				},
			},
			Action: cmd.runSuggest,
		},
	)

	return app
}

// repoName resolves the target repository from the flag, the argument, or
// the current documentation.
func (cmd *AskCmd) repoName(explicit string) string {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return explicit
	}
	return cmd.app.Store.Snapshot().RepoName
}

type answerJSON struct {
	Repo    string           `json:"repo"`
	Answer  string           `json:"answer"`
	Sources []gateway.Source `json:"sources,omitempty"`
}

func (cmd *AskCmd) runAsk(ctx context.Context, c *cli.Command) error {
	repo := cmd.repoName(cmd.repo)
	question := strings.Join(c.Args().Slice(), " ")

	answer, err := cmd.app.QA.Ask(ctx, question, repo)
	if err != nil {
		return fail(ctx, cmd.jsonOutput, err)
	}

	out := c.Root().Writer

	if cmd.jsonOutput {
		return iojson.Write(out, answerJSON{Repo: repo, Answer: answer.Text, Sources: answer.Sources})
	}

	md := answer.Text
	if cmd.showSources && len(answer.Sources) > 0 {
		var b strings.Builder
		b.WriteString(strings.TrimRight(md, "\n"))
		b.WriteString("\n\n## Sources\n")
		for _, src := range answer.Sources {
			if file, ok := src.Metadata["file"].(string); ok && file != "" {
				b.WriteString("\n`" + file + "`\n")
			}
			b.WriteString("\n```\n")
			b.WriteString(strings.TrimRight(src.Content, "\n"))
			b.WriteString("\n```\n")
		}
		md = b.String()
	}

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

func (cmd *AskCmd) runSuggest(ctx context.Context, c *cli.Command) error {
	repo := cmd.repoName(c.Args().First())
	if repo == "" {
		return fail(ctx, cmd.jsonOutput, fmt.Errorf("repository is required"))
	}

	if cmd.refresh {
		cmd.app.QA.Forget(repo)
	}

	suggestions := cmd.app.QA.Suggestions(ctx, repo)
	out := c.Root().Writer

	if cmd.jsonOutput {
		return iojson.Write(out, suggestions)
	}

	if len(suggestions) == 0 {
		printer.Ctx(ctx).Infof("No suggestions for %s", repo)
		return nil
	}
	for _, s := range suggestions {
		_, _ = fmt.Fprintln(out, s)
	}
	return nil
}

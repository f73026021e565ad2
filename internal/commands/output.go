package commands

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/colonyops/repodoc/internal/core/analysis"
	"github.com/colonyops/repodoc/internal/state"
	"github.com/colonyops/repodoc/internal/tui"
)

// documentJSON is the --json shape of a finished analysis.
type documentJSON struct {
	TaskID        string                 `json:"task_id"`
	RepoName      string                 `json:"repo_name"`
	Documentation string                 `json:"documentation"`
	Architecture  *analysis.Architecture `json:"architecture,omitempty"`
}

func newDocumentJSON(s state.ClientState) documentJSON {
	return documentJSON{
		TaskID:        s.TaskID,
		RepoName:      s.RepoName,
		Documentation: s.Documentation,
		Architecture:  s.Architecture,
	}
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// writeDocument prints the documentation and architecture summary. Terminals
// get glamour-rendered output; pipes get the raw markdown.
func writeDocument(w io.Writer, s state.ClientState, wordWrap int) error {
	md := tui.DocsMarkdown(s.Documentation, s.Architecture)

	if isTerminal(w) {
		rendered, err := tui.RenderMarkdown(md, wordWrap)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(w, rendered)
		return err
	}

	_, err := fmt.Fprintln(w, md)
	return err
}

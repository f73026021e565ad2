package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/colonyops/repodoc/internal/qa"
	"github.com/colonyops/repodoc/internal/state"
)

// stateMsg carries a store snapshot into the update loop.
type stateMsg struct {
	state state.ClientState
}

// answerMsg carries the result of a question.
type answerMsg struct {
	answer qa.Answer
	err    error
}

// suggestionsMsg carries suggested questions for a repository.
type suggestionsMsg struct {
	repo        string
	suggestions []string
}

// doneMsg signals a background action finished; its outcome is in state.
type doneMsg struct{}

// waitForState blocks until the store publishes a new snapshot.
func waitForState(ch <-chan state.ClientState) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return stateMsg{state: s}
	}
}

func (m Model) submit(repoURL string) tea.Cmd {
	return func() tea.Msg {
		if err := m.ctrl.SubmitRepoURL(m.ctx, repoURL); err != nil {
			m.log.Debug().Err(err).Msg("submit returned error")
		}
		return doneMsg{}
	}
}

func (m Model) fetchHistory() tea.Cmd {
	return func() tea.Msg {
		m.history.FetchHistory(m.ctx)
		return doneMsg{}
	}
}

func (m Model) deleteSelected() tea.Cmd {
	return func() tea.Msg {
		if _, err := m.history.DeleteSelectedItems(m.ctx); err != nil {
			m.log.Debug().Err(err).Msg("delete returned error")
		}
		return doneMsg{}
	}
}

func (m Model) ask(question string) tea.Cmd {
	repo := m.st.RepoName
	return func() tea.Msg {
		answer, err := m.qa.Ask(m.ctx, question, repo)
		return answerMsg{answer: answer, err: err}
	}
}

func (m Model) loadSuggestions() tea.Cmd {
	repo := m.st.RepoName
	if m.qa == nil || repo == "" || m.st.View != state.ViewDocs {
		return nil
	}
	return func() tea.Msg {
		return suggestionsMsg{repo: repo, suggestions: m.qa.Suggestions(m.ctx, repo)}
	}
}

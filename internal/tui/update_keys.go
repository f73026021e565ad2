package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/colonyops/repodoc/internal/state"
)

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m.quit()
	}

	switch m.st.View {
	case state.ViewLoading:
		return m.handleLoadingKey(msg)
	case state.ViewDocs:
		return m.handleDocsKey(msg)
	default:
		return m.handleHomeKey(msg)
	}
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.cancel()
	return m, tea.Quit
}

func (m Model) handleHomeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirming {
		switch {
		case key.Matches(msg, m.keys.Confirm):
			m.confirming = false
			return m, m.deleteSelected()
		case key.Matches(msg, m.keys.Cancel):
			m.confirming = false
		}
		return m, nil
	}

	if key.Matches(msg, m.keys.SwitchFocus) {
		return m.switchHomeFocus()
	}

	if m.focus == focusInput {
		if key.Matches(msg, m.keys.Submit) {
			url := strings.TrimSpace(m.input.Value())
			if url == "" || m.st.Loading {
				return m, nil
			}
			m.input.SetValue("")
			return m, m.submit(url)
		}
		if msg.Type == tea.KeyDown && len(m.st.History) > 0 {
			return m.switchHomeFocus()
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		} else {
			return m.switchHomeFocus()
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.st.History)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Open):
		if id, ok := m.cursorID(); ok {
			m.history.Activate(id)
		}
	case key.Matches(msg, m.keys.Toggle):
		if id, ok := m.cursorID(); ok && m.st.IsSelectionMode {
			m.history.ToggleItemSelection(id)
		}
	case key.Matches(msg, m.keys.SelectionMode):
		m.history.ToggleSelectionMode()
	case key.Matches(msg, m.keys.SelectAll):
		if m.st.IsSelectionMode {
			m.history.SelectAllItems()
		}
	case key.Matches(msg, m.keys.ClearSel):
		if m.st.IsSelectionMode {
			m.history.ClearSelection()
		}
	case key.Matches(msg, m.keys.Delete):
		if m.st.IsSelectionMode && m.st.SelectedItems.Len() > 0 && !m.st.IsDeleting {
			m.confirming = true
		}
	case key.Matches(msg, m.keys.Refresh):
		return m, m.fetchHistory()
	}

	return m, nil
}

func (m Model) switchHomeFocus() (tea.Model, tea.Cmd) {
	if m.focus == focusInput && len(m.st.History) > 0 {
		m.focus = focusList
		m.input.Blur()
		return m, nil
	}
	m.focus = focusInput
	return m, m.input.Focus()
}

func (m Model) cursorID() (string, bool) {
	if m.cursor < 0 || m.cursor >= len(m.st.History) {
		return "", false
	}
	return m.st.History[m.cursor].ID, true
}

func (m Model) handleLoadingKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.ctrl.ResetState()
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	}
	return m, nil
}

func (m Model) handleDocsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.question.Focused() {
		switch {
		case key.Matches(msg, m.keys.Back):
			m.question.Blur()
			return m, nil
		case key.Matches(msg, m.keys.NextSuggest):
			if len(m.suggestions) > 0 {
				m.question.SetValue(m.suggestions[m.suggestCursor%len(m.suggestions)])
				m.question.CursorEnd()
				m.suggestCursor++
			}
			return m, nil
		case key.Matches(msg, m.keys.Submit):
			q := strings.TrimSpace(m.question.Value())
			if q == "" || m.asking {
				return m, nil
			}
			m.asking = true
			m.answer, m.answerErr = "", ""
			return m, m.ask(q)
		}
		var cmd tea.Cmd
		m.question, cmd = m.question.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Back):
		m.ctrl.ResetState()
		return m, nil
	case key.Matches(msg, m.keys.Ask):
		if m.qa == nil {
			return m, nil
		}
		return m, m.question.Focus()
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/colonyops/repodoc/internal/core/analysis"
	"github.com/colonyops/repodoc/internal/core/styles"
)

const appTitle = "repodoc"

func (m Model) viewHome() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render(appTitle))
	b.WriteString("\n")
	b.WriteString(styles.SubtitleStyle.Render("Generate documentation for a GitHub repository"))
	b.WriteString("\n\n")
	b.WriteString(styles.InputFrameStyle.Render(m.input.View()))
	b.WriteString("\n")

	if m.st.Error != "" {
		b.WriteString("\n")
		b.WriteString(styles.ErrorBannerStyle.Render(m.st.Error))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.viewHistory())

	if m.confirming {
		b.WriteString("\n")
		b.WriteString(styles.TextWarningStyle.Render(
			fmt.Sprintf("Delete %d selected analyses? (y/n)", m.st.SelectedItems.Len())))
		b.WriteString("\n")
	}

	b.WriteString(styles.HelpStyle.Render(m.help.View(m.homeHelp())))
	return b.String()
}

func (m Model) viewHistory() string {
	var b strings.Builder

	title := "History"
	if m.st.IsSelectionMode {
		title = fmt.Sprintf("History (selecting, %d selected)", m.st.SelectedItems.Len())
	}
	if m.st.IsDeleting {
		title += " " + m.spinner.View() + " deleting"
	}
	b.WriteString(styles.PanelTitleStyle.Render(title))
	b.WriteString("\n")

	if len(m.st.History) == 0 {
		b.WriteString(styles.TextMutedStyle.Render("No previous analyses"))
		b.WriteString("\n")
		return b.String()
	}

	now := time.Now()
	for i, e := range m.st.History {
		b.WriteString(m.historyRow(i, e, now))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) historyRow(i int, e analysis.HistoryEntry, now time.Time) string {
	mark := "  "
	if m.st.IsSelectionMode {
		mark = "[ ] "
		if m.st.SelectedItems.Has(e.ID) {
			mark = styles.SelectedMarkStyle.Render("[x]") + " "
		}
	}

	name := e.RepoName
	if name == "" {
		name = e.ID
	}

	cols := []string{
		fmt.Sprintf("%-36s", name),
		styles.StatusStyle(e.Status).Render(fmt.Sprintf("%-26s", e.Status.Label())),
		styles.TextMutedStyle.Render(fmt.Sprintf("%-8s", e.ShortCommit())),
		styles.TextMutedStyle.Render(e.UpdatedAt.Relative(now)),
	}
	row := strings.Join(cols, " ")

	if m.focus == focusList && i == m.cursor {
		return mark + styles.CursorRowStyle.Render(row)
	}
	return mark + styles.NormalRowStyle.Render(row)
}

func (m Model) homeHelp() helpKeys {
	if m.confirming {
		return helpKeys{m.keys.Confirm, m.keys.Cancel}
	}
	if m.focus == focusInput {
		return helpKeys{m.keys.Submit, m.keys.SwitchFocus}
	}
	if m.st.IsSelectionMode {
		return helpKeys{m.keys.Toggle, m.keys.SelectAll, m.keys.ClearSel, m.keys.Delete, m.keys.SelectionMode, m.keys.Quit}
	}
	return helpKeys{m.keys.Up, m.keys.Down, m.keys.Open, m.keys.SelectionMode, m.keys.Refresh, m.keys.SwitchFocus, m.keys.Quit}
}

func (m Model) viewLoading() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render(appTitle))
	b.WriteString("\n")

	progress := m.st.Progress
	if progress == "" {
		progress = "Waiting for the analysis service..."
	} else {
		progress = analysis.Status(progress).Label()
	}

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(progress)
	b.WriteString("\n")

	if m.st.TaskID != "" {
		b.WriteString(styles.TextMutedStyle.Render("task " + m.st.TaskID))
		b.WriteString("\n")
	}

	b.WriteString(styles.HelpStyle.Render(m.help.View(helpKeys{m.keys.Back, m.keys.Quit})))
	return b.String()
}

func (m Model) viewDocs() string {
	header := styles.TitleStyle.Render(appTitle + " · " + m.st.RepoName)
	qa := m.viewQA()
	helpLine := styles.HelpStyle.Render(m.help.View(m.docsHelp()))

	vp := m.viewport
	if m.height > 0 {
		vp.Height = max(m.height-lipgloss.Height(header)-lipgloss.Height(qa)-lipgloss.Height(helpLine), 3)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, vp.View(), qa, helpLine)
}

func (m Model) viewQA() string {
	if m.qa == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(styles.PanelTitleStyle.Render("Ask"))
	b.WriteString("\n")
	b.WriteString(m.question.View())

	switch {
	case m.asking:
		b.WriteString("\n")
		b.WriteString(m.spinner.View() + " thinking")
	case m.answerErr != "":
		b.WriteString("\n")
		b.WriteString(styles.TextErrorStyle.Render(m.answerErr))
	case m.answer != "":
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Width(m.renderWidth()).Render(m.answer))
	case m.question.Focused() && len(m.suggestions) > 0:
		b.WriteString("\n")
		b.WriteString(styles.TextMutedStyle.Render(fmt.Sprintf("%d suggestions, tab to cycle", len(m.suggestions))))
	}

	return styles.PanelStyle.Render(b.String())
}

func (m Model) docsHelp() helpKeys {
	if m.question.Focused() {
		return helpKeys{m.keys.Submit, m.keys.NextSuggest, m.keys.Back}
	}
	keys := helpKeys{m.keys.Up, m.keys.Down, m.keys.Back}
	if m.qa != nil {
		keys = append(keys, m.keys.Ask)
	}
	return append(keys, m.keys.Quit)
}

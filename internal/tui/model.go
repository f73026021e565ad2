// Package tui implements the interactive terminal interface: the URL form and
// history list, the progress screen, and the documentation reader.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/colonyops/repodoc/internal/core/logging"
	"github.com/colonyops/repodoc/internal/core/styles"
	"github.com/colonyops/repodoc/internal/qa"
	"github.com/colonyops/repodoc/internal/state"
)

// Controller drives the analysis lifecycle.
type Controller interface {
	SubmitRepoURL(ctx context.Context, repoURL string) error
	ResetState()
}

// History manages the history list and selection.
type History interface {
	FetchHistory(ctx context.Context)
	ToggleSelectionMode()
	ToggleItemSelection(id string)
	SelectAllItems()
	ClearSelection()
	DeleteSelectedItems(ctx context.Context) (int, error)
	Activate(id string)
}

// QA answers questions about the documented repository.
type QA interface {
	Suggestions(ctx context.Context, repoName string) []string
	Ask(ctx context.Context, question, repoName string) (qa.Answer, error)
}

// Options configures the TUI.
type Options struct {
	Store      *state.Store
	Controller Controller
	History    History
	QA         QA
	WordWrap   int
}

// focus identifies the widget receiving keys on the home view.
type focus int

const (
	focusInput focus = iota
	focusList
)

// Model is the root Bubble Tea model.
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc
	log    zerolog.Logger

	store    *state.Store
	updates  <-chan state.ClientState
	ctrl     Controller
	history  History
	qa       QA
	keys     KeyMap
	wordWrap int

	st state.ClientState

	width  int
	height int

	// home
	input      textinput.Model
	focus      focus
	cursor     int
	confirming bool

	// loading
	spinner spinner.Model

	// docs
	viewport      viewport.Model
	rendered      renderKey
	question      textinput.Model
	asking        bool
	answer        string
	answerErr     string
	suggestions   []string
	suggestRepo   string
	suggestCursor int

	help     help.Model
	quitting bool
}

// New creates the root model. The model subscribes to store updates until
// the program exits.
func New(opts Options) Model {
	ctx, cancel := context.WithCancel(context.Background())

	input := textinput.New()
	input.Placeholder = "https://github.com/owner/repo"
	input.Prompt = "› "
	input.CharLimit = 512
	input.Focus()

	question := textinput.New()
	question.Placeholder = "Ask a question about this repository"
	question.Prompt = "? "
	question.CharLimit = 1024

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.TextPrimaryBoldStyle

	wrap := opts.WordWrap
	if wrap <= 0 {
		wrap = defaultWordWrap
	}

	return Model{
		ctx:      ctx,
		cancel:   cancel,
		log:      logging.Component("tui"),
		store:    opts.Store,
		updates:  opts.Store.Watch(ctx),
		ctrl:     opts.Controller,
		history:  opts.History,
		qa:       opts.QA,
		keys:     DefaultKeyMap(),
		wordWrap: wrap,
		st:       opts.Store.Snapshot(),
		input:    input,
		question: question,
		spinner:  sp,
		viewport: viewport.New(0, 0),
		help:     help.New(),
	}
}

// Init starts the state subscription and loads the history list.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		waitForState(m.updates),
		m.fetchHistory(),
		m.loadSuggestions(),
	)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-8, 10)
		m.question.Width = max(msg.Width-8, 10)
		m.help.Width = msg.Width
		m.resizeViewport()
		return m, nil

	case stateMsg:
		return m.applyState(msg.state)

	case answerMsg:
		m.asking = false
		m.answer = msg.answer.Text
		m.answerErr = ""
		if msg.err != nil {
			m.answer = ""
			m.answerErr = msg.err.Error()
		}
		return m, nil

	case suggestionsMsg:
		if msg.repo == m.st.RepoName {
			m.suggestions = msg.suggestions
			m.suggestRepo = msg.repo
			m.suggestCursor = 0
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateFocused(msg)
}

// View renders the active screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	switch m.st.View {
	case state.ViewLoading:
		return m.viewLoading()
	case state.ViewDocs:
		return m.viewDocs()
	default:
		return m.viewHome()
	}
}

// applyState installs a new snapshot and reacts to view transitions.
func (m Model) applyState(next state.ClientState) (tea.Model, tea.Cmd) {
	prev := m.st
	m.st = next

	cmds := []tea.Cmd{waitForState(m.updates)}

	if m.cursor >= len(next.History) {
		m.cursor = max(len(next.History)-1, 0)
	}
	if !next.IsSelectionMode {
		m.confirming = false
	}

	if prev.View != next.View {
		switch next.View {
		case state.ViewHome:
			m.focus = focusInput
			cmds = append(cmds, m.input.Focus())
			m.question.Blur()
		case state.ViewDocs:
			m.input.Blur()
			m.answer, m.answerErr = "", ""
			m.viewport.GotoTop()
		case state.ViewLoading:
			m.input.Blur()
			cmds = append(cmds, m.spinner.Tick)
		}
	}

	if next.View == state.ViewDocs && next.RepoName != m.suggestRepo {
		cmds = append(cmds, m.loadSuggestions())
	}

	m.refreshDocs()
	return m, tea.Batch(cmds...)
}

// updateFocused forwards non-key messages to the focused input.
func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case m.st.View == state.ViewHome && m.focus == focusInput:
		m.input, cmd = m.input.Update(msg)
	case m.st.View == state.ViewDocs && m.question.Focused():
		m.question, cmd = m.question.Update(msg)
	case m.st.View == state.ViewDocs:
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

// Close ends the state subscription.
func (m Model) Close() {
	m.cancel()
}

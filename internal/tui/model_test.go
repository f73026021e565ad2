package tui

import (
	"context"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/repodoc/internal/core/analysis"
	"github.com/colonyops/repodoc/internal/qa"
	"github.com/colonyops/repodoc/internal/state"
	"github.com/colonyops/repodoc/pkg/tuitest"
)

type fakeController struct {
	mu        sync.Mutex
	submitted []string
	resets    int
}

func (f *fakeController) SubmitRepoURL(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, url)
	return nil
}

func (f *fakeController) ResetState() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
}

type fakeHistory struct {
	mu        sync.Mutex
	calls     []string
	activated []string
	toggled   []string
}

func (f *fakeHistory) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeHistory) FetchHistory(context.Context) { f.record("fetch") }
func (f *fakeHistory) ToggleSelectionMode()         { f.record("mode") }
func (f *fakeHistory) SelectAllItems()              { f.record("all") }
func (f *fakeHistory) ClearSelection()              { f.record("clear") }

func (f *fakeHistory) ToggleItemSelection(id string) {
	f.record("toggle")
	f.toggled = append(f.toggled, id)
}

func (f *fakeHistory) DeleteSelectedItems(context.Context) (int, error) {
	f.record("delete")
	return 0, nil
}

func (f *fakeHistory) Activate(id string) {
	f.record("activate")
	f.activated = append(f.activated, id)
}

type fakeQA struct {
	answer qa.Answer
	err    error
	asked  []string
}

func (f *fakeQA) Suggestions(context.Context, string) []string {
	return []string{"What does it do?", "How is it tested?"}
}

func (f *fakeQA) Ask(_ context.Context, question, _ string) (qa.Answer, error) {
	f.asked = append(f.asked, question)
	return f.answer, f.err
}

type harness struct {
	model   Model
	store   *state.Store
	ctrl    *fakeController
	history *fakeHistory
	qa      *fakeQA
}

func newHarness(t *testing.T, initial state.ClientState) *harness {
	t.Helper()

	h := &harness{
		store:   state.NewStore(initial),
		ctrl:    &fakeController{},
		history: &fakeHistory{},
		qa:      &fakeQA{},
	}
	h.model = New(Options{
		Store:      h.store,
		Controller: h.ctrl,
		History:    h.history,
		QA:         h.qa,
		WordWrap:   80,
	})
	t.Cleanup(h.model.Close)

	h.send(tuitest.WindowSize(100, 40))
	return h
}

// send delivers msg and returns the resulting command without running it.
func (h *harness) send(msg tea.Msg) tea.Cmd {
	next, cmd := h.model.Update(msg)
	h.model = next.(Model)
	return cmd
}

// run delivers msg and executes the returned command, feeding its message
// back into the model.
func (h *harness) run(msg tea.Msg) {
	cmd := h.send(msg)
	if cmd == nil {
		return
	}
	if out := cmd(); out != nil {
		if _, ok := out.(tea.BatchMsg); !ok {
			h.send(out)
		}
	}
}

func (h *harness) setState(fn func(*state.ClientState)) {
	h.send(stateMsg{state: h.store.Update(fn)})
}

func (h *harness) view() string {
	return tuitest.StripANSI(h.model.View())
}

func withHistory(ids ...string) state.ClientState {
	s := state.Defaults()
	for _, id := range ids {
		s.History = append(s.History, analysis.HistoryEntry{ID: id, RepoName: "acme/" + id, Status: analysis.StatusCompleted})
	}
	return s
}

func TestHome_SubmitURL(t *testing.T) {
	h := newHarness(t, state.Defaults())

	for _, msg := range tuitest.Type("https://github.com/acme/widgets") {
		h.send(msg)
	}
	h.run(tuitest.KeyEnter())

	assert.Equal(t, []string{"https://github.com/acme/widgets"}, h.ctrl.submitted)
	assert.Empty(t, h.model.input.Value())
}

func TestHome_EmptySubmitIgnored(t *testing.T) {
	h := newHarness(t, state.Defaults())

	cmd := h.send(tuitest.KeyEnter())

	assert.Nil(t, cmd)
	assert.Empty(t, h.ctrl.submitted)
}

func TestHome_ShowsErrorAndHistory(t *testing.T) {
	initial := withHistory("widgets", "gears")
	initial.Error = "Invalid GitHub URL"
	h := newHarness(t, initial)

	out := h.view()
	assert.Contains(t, out, "Invalid GitHub URL")
	assert.Contains(t, out, "acme/widgets")
	assert.Contains(t, out, "acme/gears")
}

func TestHome_OpenFromList(t *testing.T) {
	h := newHarness(t, withHistory("a", "b"))

	h.send(tuitest.KeyTab())
	h.send(tuitest.KeyDown())
	h.send(tuitest.KeyEnter())

	assert.Equal(t, []string{"b"}, h.history.activated)
}

func TestHome_SelectionAndDelete(t *testing.T) {
	h := newHarness(t, withHistory("a", "b"))
	h.send(tuitest.KeyTab())

	h.send(tuitest.KeyPress('s'))
	assert.Contains(t, h.history.calls, "mode")

	h.setState(func(s *state.ClientState) { s.IsSelectionMode = true })
	h.send(tuitest.KeyPress(' '))
	assert.Equal(t, []string{"a"}, h.history.toggled)

	h.send(tuitest.KeyPress('d'))
	assert.False(t, h.model.confirming, "nothing selected yet")

	h.setState(func(s *state.ClientState) { s.SelectedItems = state.NewSelectionSet("a") })
	h.send(tuitest.KeyPress('d'))
	require.True(t, h.model.confirming)
	assert.Contains(t, h.view(), "Delete 1 selected analyses?")

	h.run(tuitest.KeyPress('y'))
	assert.False(t, h.model.confirming)
	assert.Contains(t, h.history.calls, "delete")
}

func TestHome_DeleteCancelled(t *testing.T) {
	initial := withHistory("a")
	initial.IsSelectionMode = true
	initial.SelectedItems = state.NewSelectionSet("a")
	h := newHarness(t, initial)
	h.send(tuitest.KeyTab())

	h.send(tuitest.KeyPress('d'))
	require.True(t, h.model.confirming)
	h.send(tuitest.KeyPress('n'))

	assert.False(t, h.model.confirming)
	assert.NotContains(t, h.history.calls, "delete")
}

func TestLoading_ShowsProgressAndCancels(t *testing.T) {
	h := newHarness(t, state.Defaults())
	h.setState(func(s *state.ClientState) {
		s.View = state.ViewLoading
		s.Loading = true
		s.TaskID = "t1"
		s.Progress = string(analysis.StatusGeneratingDocumentation)
	})

	out := h.view()
	assert.Contains(t, out, "Generating documentation")
	assert.Contains(t, out, "task t1")

	h.send(tuitest.KeyEsc())
	assert.Equal(t, 1, h.ctrl.resets)
}

func TestDocs_RendersDocumentationAndArchitecture(t *testing.T) {
	h := newHarness(t, state.Defaults())
	h.setState(func(s *state.ClientState) {
		s.View = state.ViewDocs
		s.Documentation = "# Widgets\n\nRenders widgets."
		s.RepoName = "acme/widgets"
		s.Architecture = &analysis.Architecture{
			Metrics: analysis.Metrics{TotalComponents: 4, TotalDependencies: 3, MostDependedComponent: "core"},
		}
	})

	out := h.view()
	assert.Contains(t, out, "acme/widgets")
	assert.Contains(t, out, "Renders widgets.")
	assert.Contains(t, out, "Architecture")

	h.send(tuitest.KeyEsc())
	assert.Equal(t, 1, h.ctrl.resets)
}

func TestDocs_AskQuestion(t *testing.T) {
	h := newHarness(t, state.Defaults())
	h.qa.answer = qa.Answer{Text: "It renders widgets."}
	h.setState(func(s *state.ClientState) {
		s.View = state.ViewDocs
		s.Documentation = "# Doc"
		s.RepoName = "acme/widgets"
	})

	h.send(tuitest.KeyPress('/'))
	require.True(t, h.model.question.Focused())

	for _, msg := range tuitest.Type("what?") {
		h.send(msg)
	}
	h.run(tuitest.KeyEnter())

	assert.Equal(t, []string{"what?"}, h.qa.asked)
	assert.Contains(t, h.view(), "It renders widgets.")
}

func TestDocs_AskError(t *testing.T) {
	h := newHarness(t, state.Defaults())
	h.qa.err = &analysis.BackendFailure{Op: "ask", Message: "no embeddings"}
	h.setState(func(s *state.ClientState) {
		s.View = state.ViewDocs
		s.Documentation = "# Doc"
		s.RepoName = "acme/widgets"
	})

	h.send(tuitest.KeyPress('/'))
	h.send(tuitest.KeyPress('x'))
	h.run(tuitest.KeyEnter())

	assert.False(t, h.model.asking)
	assert.Contains(t, h.view(), "no embeddings")
}

func TestDocs_SuggestionCycling(t *testing.T) {
	h := newHarness(t, state.Defaults())
	h.setState(func(s *state.ClientState) {
		s.View = state.ViewDocs
		s.Documentation = "# Doc"
		s.RepoName = "acme/widgets"
	})
	h.send(suggestionsMsg{repo: "acme/widgets", suggestions: []string{"one", "two"}})

	h.send(tuitest.KeyPress('/'))
	h.send(tuitest.KeyTab())
	assert.Equal(t, "one", h.model.question.Value())
	h.send(tuitest.KeyTab())
	assert.Equal(t, "two", h.model.question.Value())
}

func TestArchitectureSummary(t *testing.T) {
	assert.Empty(t, ArchitectureSummary(nil))

	got := ArchitectureSummary(&analysis.Architecture{
		Components: map[string]analysis.Component{
			"db":  {Type: "module", FilePath: "app/db.py"},
			"api": {Type: "module", FilePath: "app/api.py"},
		},
		Structure: analysis.Structure{Layers: []string{"api", "db"}, Complexity: "low"},
		Metrics:   analysis.Metrics{TotalComponents: 2, TotalDependencies: 1, DependencyDensity: 0.5},
	})

	assert.Contains(t, got, "**Components:** 2")
	assert.Contains(t, got, "api → db")
	assert.Contains(t, got, "| api | module | app/api.py |")
	assert.Less(t, strings.Index(got, "| api |"), strings.Index(got, "| db |"))
}

func TestQuit(t *testing.T) {
	h := newHarness(t, state.Defaults())

	cmd := h.send(tea.KeyMsg{Type: tea.KeyCtrlC})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Empty(t, h.model.View())
}

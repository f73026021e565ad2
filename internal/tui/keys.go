package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds every binding the TUI responds to.
type KeyMap struct {
	Quit          key.Binding
	Submit        key.Binding
	SwitchFocus   key.Binding
	Up            key.Binding
	Down          key.Binding
	Open          key.Binding
	Toggle        key.Binding
	SelectionMode key.Binding
	SelectAll     key.Binding
	ClearSel      key.Binding
	Delete        key.Binding
	Refresh       key.Binding
	Back          key.Binding
	Ask           key.Binding
	NextSuggest   key.Binding
	Confirm       key.Binding
	Cancel        key.Binding
}

// DefaultKeyMap returns the built-in bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit:          key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
		Submit:        key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "analyze")),
		SwitchFocus:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch focus")),
		Up:            key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:          key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Open:          key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Toggle:        key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
		SelectionMode: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "select mode")),
		SelectAll:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "select all")),
		ClearSel:      key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear")),
		Delete:        key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Refresh:       key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Back:          key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Ask:           key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "ask")),
		NextSuggest:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "suggestion")),
		Confirm:       key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "confirm")),
		Cancel:        key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "cancel")),
	}
}

// helpKeys adapts a binding list to help.KeyMap.
type helpKeys []key.Binding

func (h helpKeys) ShortHelp() []key.Binding  { return h }
func (h helpKeys) FullHelp() [][]key.Binding { return [][]key.Binding{h} }

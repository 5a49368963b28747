package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the picker's bindings. Letters are left to the search field.
type keyMap struct {
	Toggle  key.Binding
	Up      key.Binding
	Down    key.Binding
	Enter   key.Binding
	Escape  key.Binding
	Dismiss key.Binding
	Quit    key.Binding
}

var defaultKeys = keyMap{
	Toggle: key.NewBinding(
		key.WithKeys("tab", "ctrl+k"),
		key.WithHelp("tab", "contexts"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "ctrl+p"),
		key.WithHelp("↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "ctrl+n"),
		key.WithHelp("↓", "down"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select/search"),
	),
	Escape: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "close/quit"),
	),
	Dismiss: key.NewBinding(
		key.WithKeys("ctrl+x"),
		key.WithHelp("C-x", "dismiss tip"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("C-c", "quit"),
	),
}

// help renders the bindings relevant to the dropdown state.
func (k keyMap) help(open bool) []key.Binding {
	if open {
		return []key.Binding{k.Up, k.Down, k.Enter, k.Escape}
	}
	return []key.Binding{k.Toggle, k.Enter, k.Dismiss, k.Quit}
}

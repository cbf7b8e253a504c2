package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the lookup screen bindings.
type keyMap struct {
	Lookup       key.Binding
	Refresh      key.Binding
	Retry        key.Binding
	Focus        key.Binding
	Up           key.Binding
	Down         key.Binding
	ClearHistory key.Binding
	Quit         key.Binding
}

// ShortHelp returns the bindings for the help bar.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Lookup, k.Refresh, k.Retry, k.Focus, k.ClearHistory, k.Quit}
}

// FullHelp returns the bindings grouped for expanded help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Lookup, k.Refresh, k.Retry},
		{k.Focus, k.Up, k.Down},
		{k.ClearHistory, k.Quit},
	}
}

// KeyMap returns the key bindings for the lookup screen. Printable keys are
// left to the input, so nothing here is a bare letter.
func KeyMap() keyMap {
	return keyMap{
		Lookup: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "look up"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "refresh"),
		),
		Retry: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "retry"),
		),
		Focus: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "history"),
		),
		Up: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "down"),
		),
		ClearHistory: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "clear history"),
		),
		Quit: key.NewBinding(
			key.WithKeys("esc", "ctrl+c"),
			key.WithHelp("esc", "quit"),
		),
	}
}

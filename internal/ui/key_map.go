package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up        key.Binding
	down      key.Binding
	toggle    key.Binding
	union     key.Binding
	back      key.Binding
	merge     key.Binding
	duplicate key.Binding
	undo      key.Binding
	quit      key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		toggle:    key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "select")),
		union:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "view union")),
		back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		merge:     key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "merge")),
		duplicate: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "duplicate")),
		undo:      key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo")),
		quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.toggle, k.merge, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.toggle},
		{k.union, k.back, k.undo},
		{k.merge, k.duplicate, k.quit},
	}
}

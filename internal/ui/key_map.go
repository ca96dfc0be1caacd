package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the watch TUI.
type keyMap struct {
	sync  key.Binding
	force key.Binding
	help  key.Binding
	quit  key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		sync:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sync now")),
		force: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "force sync")),
		help:  key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
		quit:  key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.sync, k.force, k.help, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.sync, k.force},
		{k.help, k.quit},
	}
}

package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	search  key.Binding
	clear   key.Binding
	sort    key.Binding
	delete  key.Binding
	rate    key.Binding
	copy    key.Binding
	refresh key.Binding
	yes     key.Binding
	no      key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		search:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		clear:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear search")),
		sort:    key.NewBinding(key.WithKeys("1", "2", "3", "4", "5"), key.WithHelp("1-5", "sort")),
		delete:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		rate:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rate")),
		copy:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy")),
		refresh: key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reload")),
		yes:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:      key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "no")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.search, k.sort, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.search, k.clear, k.sort},
		{k.delete, k.rate, k.copy},
		{k.refresh, k.quit},
	}
}

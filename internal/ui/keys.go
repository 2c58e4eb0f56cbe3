package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the dashboard key bindings.
type keyMap struct {
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Refresh    key.Binding
	Tab        key.Binding
	Escape     key.Binding
	Confirm    key.Binding

	// Navigation
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding

	// View state
	PickExecution key.Binding
	FilterInput   key.Binding
	TagFilter     key.Binding
	AccountFilter key.Binding
	RemoveFilter  key.Binding
	ClearFilters  key.Binding
	ClearResource key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?", "h"),
			key.WithHelp("?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Refresh now"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Switch pane"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Close / cancel"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Show resources"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),

		PickExecution: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "Pick execution"),
		),
		FilterInput: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "Type filters"),
		),
		TagFilter: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "Add tag filter"),
		),
		AccountFilter: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "Add account filter"),
		),
		RemoveFilter: key.NewBinding(
			key.WithKeys("backspace", "-"),
			key.WithHelp("-", "Remove last filter"),
		),
		ClearFilters: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "Clear filters"),
		),
		ClearResource: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Close resources"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.PickExecution, k.FilterInput, k.TagFilter, k.Refresh, k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom, k.Tab},
		{k.Confirm, k.ClearResource, k.PickExecution, k.Refresh},
		{k.FilterInput, k.TagFilter, k.AccountFilter, k.RemoveFilter, k.ClearFilters},
		{k.CycleTheme, k.Escape, k.Help, k.Quit},
	}
}

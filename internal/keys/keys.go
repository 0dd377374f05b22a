// Package keys contains keybinding definitions.
package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keybindings for the month view.
type KeyMap struct {
	// Navigation
	Up    key.Binding
	Down  key.Binding
	Left  key.Binding
	Right key.Binding

	// Month paging
	PrevMonth key.Binding
	NextMonth key.Binding
	Today     key.Binding

	// Actions
	Generate     key.Binding
	NextSolution key.Binding
	ExportExcel  key.Binding
	ExportPDF    key.Binding
	Diff         key.Binding
	ToggleCounts key.Binding

	// General
	Help         key.Binding
	Escape       key.Binding
	Quit         key.Binding
	ToggleStatus key.Binding
	Logs         key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "previous week"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "next week"),
		),
		Left: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/←", "previous day"),
		),
		Right: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/→", "next day"),
		),

		PrevMonth: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "previous month"),
		),
		NextMonth: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "next month"),
		),
		Today: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "jump to current month"),
		),

		Generate: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "generate roster"),
		),
		NextSolution: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "next candidate"),
		),
		ExportExcel: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "export excel"),
		),
		ExportPDF: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "export pdf"),
		),
		Diff: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "diff against saved roster"),
		),
		ToggleCounts: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "toggle duty counts"),
		),

		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "go back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		ToggleStatus: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "toggle status bar"),
		),
		Logs: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "toggle log view"),
		),
	}
}

// ShortHelp returns keybindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Generate, k.Help, k.Quit}
}

// FullHelp returns keybindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},                                    // Navigation
		{k.PrevMonth, k.NextMonth, k.Today},                                // Month paging
		{k.Generate, k.NextSolution, k.ExportExcel, k.ExportPDF, k.Diff},   // Actions
		{k.ToggleCounts, k.ToggleStatus, k.Logs, k.Help, k.Escape, k.Quit}, // General
	}
}

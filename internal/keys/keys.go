package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the dashboard keybindings.
type KeyMap struct {
	// Navigation
	Up    key.Binding
	Down  key.Binding
	Left  key.Binding
	Right key.Binding

	// Focus the subtask pane and back
	Focus key.Binding
	Back  key.Binding

	// Tags
	PrevTag key.Binding
	NextTag key.Binding
	NewTag  key.Binding

	// Tasks
	NewTask     key.Binding
	EditTitle   key.Binding
	EditDesc    key.Binding
	CycleStatus key.Binding
	Delete      key.Binding
	ToggleDone  key.Binding

	// Subtasks
	NewSubtask         key.Binding
	CycleSubtaskStatus key.Binding
	MoveSubtaskUp      key.Binding
	MoveSubtaskDown    key.Binding
	DeleteSubtask      key.Binding

	Help    key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Left: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/←", "prev column"),
		),
		Right: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/→", "next column"),
		),
		Focus: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "focus subtasks"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		PrevTag: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "prev tag"),
		),
		NextTag: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "next tag"),
		),
		NewTag: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "new tag"),
		),
		NewTask: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new task"),
		),
		EditTitle: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit title"),
		),
		EditDesc: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "edit description"),
		),
		CycleStatus: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "cycle status"),
		),
		Delete: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "delete"),
		),
		ToggleDone: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "toggle done column"),
		),
		NewSubtask: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "add subtask"),
		),
		CycleSubtaskStatus: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "cycle subtask"),
		),
		MoveSubtaskUp: key.NewBinding(
			key.WithKeys("K", "shift+up"),
			key.WithHelp("K", "move subtask up"),
		),
		MoveSubtaskDown: key.NewBinding(
			key.WithKeys("J", "shift+down"),
			key.WithHelp("J", "move subtask down"),
		),
		DeleteSubtask: key.NewBinding(
			key.WithKeys("delete", "backspace"),
			key.WithHelp("del", "delete subtask"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.PrevTag, k.NextTag, k.NewTask, k.CycleStatus,
		k.NewSubtask, k.Help, k.Quit,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right, k.Focus, k.Back},
		{k.PrevTag, k.NextTag, k.NewTag, k.ToggleDone},
		{k.NewTask, k.EditTitle, k.EditDesc, k.CycleStatus, k.Delete},
		{k.NewSubtask, k.CycleSubtaskStatus, k.MoveSubtaskUp, k.MoveSubtaskDown, k.DeleteSubtask},
		{k.Help, k.Refresh, k.Quit},
	}
}

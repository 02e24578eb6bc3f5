// Package help renders the keyboard reference shown over the board.
package help

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/pulse/internal/keys"
	"github.com/nhle/pulse/internal/model"
	"github.com/nhle/pulse/internal/theme"
)

// Model lists every binding in the key map followed by the status legend.
type Model struct {
	keys *keys.KeyMap
	help help.Model
}

func New(k *keys.KeyMap, width, height int) Model {
	m := Model{keys: k, help: help.New()}
	m.help.ShowAll = true
	m.SetSize(width, height)
	return m
}

func (m Model) Update(tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

func (m Model) View() string {
	heading := lipgloss.NewStyle().Bold(true).Foreground(theme.Current.Accent)

	var legend []string
	for _, s := range model.Statuses {
		legend = append(legend, theme.StatusStyle(s).Render(theme.StatusIcon(s)+" "+s.Label()))
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		heading.Render("Keys"),
		m.help.View(m.keys),
		"",
		heading.Render("Statuses"),
		strings.Join(legend, "   "),
		"",
		theme.HelpStyle.Render("Status cycles pending → in progress → done → pending."),
		theme.HelpStyle.Render("? or esc to close"),
	)
	return theme.FocusedPanelStyle.Padding(1, 2).Render(body)
}

// SetSize leaves room for the panel border and padding.
func (m *Model) SetSize(width, _ int) {
	m.help.Width = max(width-8, 20)
}

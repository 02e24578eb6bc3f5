package theme

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/pulse/internal/model"
)

// Palette is a set of adaptive color pairs (dark terminal value, light
// terminal value).
type Palette struct {
	Accent lipgloss.AdaptiveColor
	Info   lipgloss.AdaptiveColor
	Warn   lipgloss.AdaptiveColor
	Danger lipgloss.AdaptiveColor
	Text   lipgloss.AdaptiveColor
	Muted  lipgloss.AdaptiveColor
	Subtle lipgloss.AdaptiveColor
	Border lipgloss.AdaptiveColor
}

var palettes = map[string]Palette{
	"default": {
		Accent: lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"},
		Info:   lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"},
		Warn:   lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"},
		Danger: lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"},
		Text:   lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"},
		Muted:  lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"},
		Subtle: lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"},
		Border: lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"},
	},
	"pulse": {
		Accent: lipgloss.AdaptiveColor{Dark: "#06D6A0", Light: "#05A57B"},
		Info:   lipgloss.AdaptiveColor{Dark: "#118AB2", Light: "#0E6F8F"},
		Warn:   lipgloss.AdaptiveColor{Dark: "#FFD166", Light: "#B7791F"},
		Danger: lipgloss.AdaptiveColor{Dark: "#EF476F", Light: "#C53030"},
		Text:   lipgloss.AdaptiveColor{Dark: "#DADDE1", Light: "#1A202C"},
		Muted:  lipgloss.AdaptiveColor{Dark: "#9AA0A6", Light: "#718096"},
		Subtle: lipgloss.AdaptiveColor{Dark: "#5F6770", Light: "#CBD5E0"},
		Border: lipgloss.AdaptiveColor{Dark: "#151922", Light: "#E2E8F0"},
	},
}

// Current is the active palette.
var Current = palettes["default"]

var (
	// HeaderStyle is used for the application title.
	HeaderStyle lipgloss.Style

	// StatusBarStyle is used for the bottom status bar.
	StatusBarStyle lipgloss.Style

	// PanelStyle wraps an unfocused column or sidebar.
	PanelStyle lipgloss.Style

	// FocusedPanelStyle wraps the panel holding keyboard focus.
	FocusedPanelStyle lipgloss.Style

	ListItemStyle     lipgloss.Style
	SelectedItemStyle lipgloss.Style

	// HelpStyle is used for keyboard shortcut hints and help text.
	HelpStyle lipgloss.Style

	// MutedStyle renders secondary text such as descriptions and counts.
	MutedStyle lipgloss.Style

	// ErrorStyle renders error messages.
	ErrorStyle lipgloss.Style
)

func init() {
	build()
}

// Names returns the available theme names.
func Names() []string {
	return []string{"default", "pulse"}
}

// Apply switches the active palette and rebuilds every style.
func Apply(name string) error {
	if name == "" {
		name = "default"
	}
	p, ok := palettes[name]
	if !ok {
		return fmt.Errorf("unknown theme %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	Current = p
	build()
	return nil
}

func build() {
	p := Current

	HeaderStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#000000")).
		Background(p.Accent).
		Padding(0, 1)

	StatusBarStyle = lipgloss.NewStyle().
		Foreground(p.Text).
		Background(p.Subtle).
		Padding(0, 1)

	PanelStyle = lipgloss.NewStyle().
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Border)

	FocusedPanelStyle = PanelStyle.
		BorderForeground(p.Accent)

	ListItemStyle = lipgloss.NewStyle().
		PaddingLeft(2)

	SelectedItemStyle = lipgloss.NewStyle().
		PaddingLeft(1).
		Bold(true).
		Foreground(p.Info).
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(p.Info)

	HelpStyle = lipgloss.NewStyle().
		Foreground(p.Muted).
		Italic(true)

	MutedStyle = lipgloss.NewStyle().
		Foreground(p.Muted)

	ErrorStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Danger)
}

// StatusColor returns the palette color for a status.
func StatusColor(status model.Status) lipgloss.AdaptiveColor {
	switch status {
	case model.StatusInProgress:
		return Current.Warn
	case model.StatusDone:
		return Current.Accent
	default:
		return Current.Text
	}
}

// StatusStyle returns a color-coded style for the given task status.
func StatusStyle(status model.Status) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(StatusColor(status))
}

// StatusIcon returns the glyph used for a status in lists.
func StatusIcon(status model.Status) string {
	switch status {
	case model.StatusInProgress:
		return "◐"
	case model.StatusDone:
		return "●"
	default:
		return "○"
	}
}

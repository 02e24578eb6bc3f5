package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/pulse/internal/theme"
)

// Frame splits the terminal into a header line, the board area and a
// status line.
type Frame struct {
	Width  int
	Height int
}

// NewFrame sizes a frame to the terminal.
func NewFrame(width, height int) Frame {
	return Frame{Width: width, Height: height}
}

// BodySize is the space left for the board once both bars are drawn.
func (f Frame) BodySize() (width, height int) {
	return f.Width, max(f.Height-2, 0)
}

// Header shows the app name and active tag on the left and the tag's
// completion and storage directory on the right.
func (f Frame) Header(tag string, done, total int, dir string) string {
	left := theme.HeaderStyle.Render("Pulse › " + tag)
	right := theme.HeaderStyle.Render(fmt.Sprintf("%d/%d done · %s", done, total, dir))
	return f.spread(theme.HeaderStyle, left, right)
}

// StatusBar shows message when set and the key hints otherwise.
func (f Frame) StatusBar(hints, message string) string {
	text := hints
	if message != "" {
		text = message
	}
	return f.spread(theme.StatusBarStyle, theme.StatusBarStyle.Render(text), "")
}

// spread pads between left and right with the bar's background so the
// line fills the terminal width.
func (f Frame) spread(bar lipgloss.Style, left, right string) string {
	gap := max(f.Width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	pad := lipgloss.NewStyle().Width(gap).Background(bar.GetBackground()).Render("")
	return lipgloss.JoinHorizontal(lipgloss.Top, left, pad, right)
}

// Compose stacks header, body and status bar.
func (f Frame) Compose(header, body, status string) string {
	return lipgloss.JoinVertical(lipgloss.Left, header, body, status)
}

// Center places a dialog in the middle of the body area.
func (f Frame) Center(dialog string) string {
	w, h := f.BodySize()
	return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, dialog)
}

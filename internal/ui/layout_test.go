package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestFrame(t *testing.T) {
	f := NewFrame(100, 30)

	if w, h := f.BodySize(); w != 100 || h != 28 {
		t.Errorf("BodySize() = %d,%d", w, h)
	}
	if _, h := NewFrame(10, 1).BodySize(); h != 0 {
		t.Errorf("tiny terminal should give zero body height, got %d", h)
	}

	header := f.Header("base", 2, 5, "/tmp/p/.pulse")
	if !strings.Contains(header, "base") || !strings.Contains(header, "2/5 done") {
		t.Errorf("header missing tag or progress: %q", header)
	}
	if got := lipgloss.Width(header); got != 100 {
		t.Errorf("header width = %d", got)
	}

	if bar := f.StatusBar("q quit", ""); !strings.Contains(bar, "q quit") {
		t.Errorf("hints not shown: %q", bar)
	}
	if bar := f.StatusBar("q quit", "Created #1"); strings.Contains(bar, "q quit") || !strings.Contains(bar, "Created #1") {
		t.Errorf("message should replace hints: %q", bar)
	}
}

package board

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/pulse/internal/keys"
	"github.com/nhle/pulse/internal/model"
	"github.com/nhle/pulse/internal/tagname"
	"github.com/nhle/pulse/internal/tasks"
	"github.com/nhle/pulse/internal/theme"
)

// DataLoadedMsg carries a fresh snapshot of tags and the active tag's tasks.
type DataLoadedMsg struct {
	Tags  []string
	Tag   string
	Tasks []model.Task
	Err   error
}

// columns are the status groups shown left to right.
var columns = []model.Status{model.StatusPending, model.StatusInProgress, model.StatusDone}

// Focus identifies which pane receives navigation keys.
type Focus int

const (
	FocusColumns Focus = iota
	FocusSubtasks
)

// Model is the kanban board: a tag sidebar, one column per status and a
// subtask pane for the selected task.
type Model struct {
	manager  *tasks.Manager
	keys     *keys.KeyMap
	tags     []string
	tag      string
	tasks    []model.Task
	showDone bool
	col      int
	rows     [3]int
	focus    Focus
	subIndex int
	width    int
	height   int
}

// New creates a board starting on tag.
func New(m *tasks.Manager, k *keys.KeyMap, tag string, showDone bool, width, height int) Model {
	return Model{
		manager:  m,
		keys:     k,
		tag:      tag,
		showDone: showDone,
		width:    width,
		height:   height,
	}
}

// Init loads the initial data.
func (m Model) Init() tea.Cmd {
	return m.LoadData()
}

// LoadData returns a command that reads tags and the active tag's tasks.
func (m Model) LoadData() tea.Cmd {
	mgr := m.manager
	tag := m.tag
	return func() tea.Msg {
		ctx := context.Background()
		all, err := mgr.GetAllTags(ctx)
		if err != nil {
			return DataLoadedMsg{Err: err}
		}
		list, err := mgr.ListTasks(ctx, tag, "")
		if err != nil {
			return DataLoadedMsg{Err: err}
		}
		return DataLoadedMsg{
			Tags:  tagname.SortForDisplay(all, mgr.DefaultTag()),
			Tag:   tag,
			Tasks: list,
		}
	}
}

// Update handles data and navigation messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case DataLoadedMsg:
		if msg.Err != nil {
			return m, nil
		}
		m.tags = msg.Tags
		if msg.Tag == m.tag {
			m.tasks = msg.Tasks
		}
		m.clamp()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}
	return m, nil
}

func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.focus == FocusSubtasks {
			m.subIndex--
		} else {
			m.rows[m.col]--
		}
		m.clamp()

	case key.Matches(msg, m.keys.Down):
		if m.focus == FocusSubtasks {
			m.subIndex++
		} else {
			m.rows[m.col]++
		}
		m.clamp()

	case key.Matches(msg, m.keys.Left):
		if m.focus == FocusColumns && m.col > 0 {
			m.col--
			m.subIndex = 0
		}

	case key.Matches(msg, m.keys.Right):
		if m.focus == FocusColumns && m.col < m.visibleColumns()-1 {
			m.col++
			m.subIndex = 0
		}

	case key.Matches(msg, m.keys.Focus):
		if t, ok := m.SelectedTask(); ok && len(t.Subtasks) > 0 {
			m.focus = FocusSubtasks
		}

	case key.Matches(msg, m.keys.Back):
		m.focus = FocusColumns

	case key.Matches(msg, m.keys.PrevTag):
		return m, m.CycleTag(-1)

	case key.Matches(msg, m.keys.NextTag):
		return m, m.CycleTag(1)

	case key.Matches(msg, m.keys.ToggleDone):
		m.showDone = !m.showDone
		m.clamp()
	}
	return m, nil
}

// CycleTag moves the active tag by delta positions, wrapping around.
func (m *Model) CycleTag(delta int) tea.Cmd {
	if len(m.tags) == 0 {
		return nil
	}
	i := 0
	for j, t := range m.tags {
		if t == m.tag {
			i = j
			break
		}
	}
	i = (i + delta + len(m.tags)) % len(m.tags)
	return m.SetTag(m.tags[i])
}

// SetTag switches to tag and reloads.
func (m *Model) SetTag(tag string) tea.Cmd {
	if tag != m.tag {
		m.tag = tag
		m.tasks = nil
		m.rows = [3]int{}
		m.subIndex = 0
		m.focus = FocusColumns
	}
	return m.LoadData()
}

// Tag returns the active tag.
func (m Model) Tag() string {
	return m.tag
}

// Progress counts done and total tasks in the active tag.
func (m Model) Progress() (done, total int) {
	for _, t := range m.tasks {
		if t.Status == model.StatusDone {
			done++
		}
	}
	return done, len(m.tasks)
}

// Focused returns the pane with keyboard focus.
func (m Model) Focused() Focus {
	return m.focus
}

// SelectSubtask moves the subtask cursor.
func (m *Model) SelectSubtask(i int) {
	m.subIndex = i
	m.clamp()
}

func (m Model) visibleColumns() int {
	if m.showDone {
		return 3
	}
	return 2
}

func (m Model) column(i int) []model.Task {
	var out []model.Task
	for _, t := range m.tasks {
		if t.Status == columns[i] {
			out = append(out, t)
		}
	}
	return out
}

// SelectedTask returns the task under the cursor.
func (m Model) SelectedTask() (model.Task, bool) {
	col := m.column(m.col)
	if len(col) == 0 {
		return model.Task{}, false
	}
	return col[m.rows[m.col]], true
}

// SelectedSubtask returns the subtask under the cursor and its position.
func (m Model) SelectedSubtask() (model.Subtask, int, bool) {
	t, ok := m.SelectedTask()
	if !ok || len(t.Subtasks) == 0 {
		return model.Subtask{}, 0, false
	}
	return t.Subtasks[m.subIndex], m.subIndex, true
}

func (m *Model) clamp() {
	if m.col >= m.visibleColumns() {
		m.col = m.visibleColumns() - 1
	}
	for i := range m.rows {
		n := len(m.column(i))
		if m.rows[i] >= n {
			m.rows[i] = n - 1
		}
		if m.rows[i] < 0 {
			m.rows[i] = 0
		}
	}

	n := 0
	if t, ok := m.SelectedTask(); ok {
		n = len(t.Subtasks)
	}
	if m.subIndex >= n {
		m.subIndex = n - 1
	}
	if m.subIndex < 0 {
		m.subIndex = 0
	}
	if n == 0 {
		m.focus = FocusColumns
	}
}

// SetSize updates the board dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// View renders the board.
func (m Model) View() string {
	sidebarWidth := 24
	if m.width >= 140 {
		sidebarWidth = 32
	}
	showSidebar := m.width >= 80

	mainWidth := m.width
	if showSidebar {
		mainWidth -= sidebarWidth
	}
	detailHeight := m.height / 3
	if detailHeight < 6 {
		detailHeight = 6
	}
	columnHeight := m.height - detailHeight

	n := m.visibleColumns()
	colWidth := mainWidth / n
	cols := make([]string, 0, n)
	for i := 0; i < n; i++ {
		cols = append(cols, m.renderColumn(i, colWidth, columnHeight))
	}
	main := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, cols...),
		m.renderDetail(mainWidth, detailHeight),
	)

	if !showSidebar {
		return main
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(sidebarWidth, m.height), main)
}

func (m Model) renderSidebar(width, height int) string {
	lines := []string{theme.MutedStyle.Render("Tags")}
	for _, t := range m.tags {
		label := truncate(t, width-6)
		if t == m.tag {
			lines = append(lines, theme.SelectedItemStyle.Render(label))
		} else {
			lines = append(lines, theme.ListItemStyle.Render(label))
		}
	}
	lines = append(lines, "", theme.HelpStyle.Render("[ / ] switch"))

	return theme.PanelStyle.
		Width(width - 2).
		Height(height - 2).
		Render(strings.Join(lines, "\n"))
}

func (m Model) renderColumn(i, width, height int) string {
	status := columns[i]
	focused := m.focus == FocusColumns && i == m.col
	list := m.column(i)

	title := theme.StatusStyle(status).Render(fmt.Sprintf("%s %s (%d)", theme.StatusIcon(status), status.Label(), len(list)))
	lines := []string{title, ""}
	if len(list) == 0 {
		lines = append(lines, theme.MutedStyle.Render("No items"))
	}

	// Each task takes two lines; keep the cursor in view.
	capacity := (height - 4) / 2
	start := 0
	if capacity > 0 && m.rows[i] >= capacity {
		start = m.rows[i] - capacity + 1
	}
	for j := start; j < len(list); j++ {
		if capacity > 0 && j-start >= capacity {
			break
		}
		t := list[j]
		head := truncate(fmt.Sprintf("#%d %s", t.ID, t.Title), width-6)
		sub := theme.MutedStyle.Render(subtaskSummary(t))
		if focused && j == m.rows[i] {
			lines = append(lines, theme.SelectedItemStyle.Render(head), theme.ListItemStyle.Render(sub))
		} else {
			lines = append(lines, theme.ListItemStyle.Render(head), theme.ListItemStyle.Render(sub))
		}
	}

	style := theme.PanelStyle
	if focused {
		style = theme.FocusedPanelStyle.BorderForeground(theme.StatusColor(status))
	}
	return style.Width(width - 2).Height(height - 2).Render(strings.Join(lines, "\n"))
}

func (m Model) renderDetail(width, height int) string {
	t, ok := m.SelectedTask()
	if !ok {
		return theme.PanelStyle.Width(width - 2).Height(height - 2).
			Render(theme.MutedStyle.Render("No task selected. Press n to add one."))
	}

	lines := []string{
		theme.StatusStyle(t.Status).Render(fmt.Sprintf("#%d %s", t.ID, t.Title)),
	}
	if t.Description != "" {
		lines = append(lines, theme.MutedStyle.Render(truncate(t.Description, width-6)))
	}
	lines = append(lines, "")

	if len(t.Subtasks) == 0 {
		lines = append(lines, theme.MutedStyle.Render("No subtasks. Press u to add one."))
	}
	for j, st := range t.Subtasks {
		row := truncate(fmt.Sprintf("%s %d. %s", theme.StatusIcon(st.Status), st.Order, st.Title), width-6)
		if m.focus == FocusSubtasks && j == m.subIndex {
			lines = append(lines, theme.SelectedItemStyle.Render(row))
		} else {
			lines = append(lines, theme.ListItemStyle.Render(row))
		}
	}

	style := theme.PanelStyle
	if m.focus == FocusSubtasks {
		style = theme.FocusedPanelStyle
	}
	return style.Width(width - 2).Height(height - 2).Render(strings.Join(lines, "\n"))
}

func subtaskSummary(t model.Task) string {
	done, total := t.SubtaskProgress()
	if total == 0 {
		return fmt.Sprintf("[%s] · no subtasks", t.Status.Label())
	}
	return fmt.Sprintf("[%s] · %d/%d open", t.Status.Label(), total-done, total)
}

func truncate(s string, width int) string {
	if width < 4 {
		width = 4
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}

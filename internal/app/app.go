package app

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/pulse/internal/keys"
	"github.com/nhle/pulse/internal/tasks"
	"github.com/nhle/pulse/internal/theme"
	"github.com/nhle/pulse/internal/ui"
	"github.com/nhle/pulse/internal/ui/board"
	"github.com/nhle/pulse/internal/ui/form"
	helpview "github.com/nhle/pulse/internal/ui/help"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewBoard ViewState = iota
	ViewForm
	ViewHelp
)

// Options configures the dashboard.
type Options struct {
	// Tag is the tag shown first; empty means the manager's default tag.
	Tag string

	// ShowDone shows the DONE column on start.
	ShowDone bool
}

// Model is the root Bubble Tea model that routes between the board, the
// modal form and the help overlay.
type Model struct {
	view     ViewState
	frame    ui.Frame
	manager  *tasks.Manager
	keys     *keys.KeyMap
	board    board.Model
	form     form.Model
	helpView helpview.Model
	message  string
	failed   bool
	ready    bool
}

// New creates the root dashboard model.
func New(m *tasks.Manager, opts Options) Model {
	k := keys.DefaultKeyMap()
	tag := opts.Tag
	if tag == "" {
		tag = m.DefaultTag()
	}

	return Model{
		view:     ViewBoard,
		manager:  m,
		keys:     k,
		board:    board.New(m, k, tag, opts.ShowDone, 80, 24),
		form:     form.New(80, 24),
		helpView: helpview.New(k, 80, 24),
	}
}

// Run starts the dashboard in the alternate screen and blocks until the
// user quits.
func Run(m *tasks.Manager, opts Options) error {
	p := tea.NewProgram(New(m, opts), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running dashboard: %w", err)
	}
	return nil
}

// Init loads the first board snapshot.
func (m Model) Init() tea.Cmd {
	return m.board.Init()
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.frame = ui.NewFrame(msg.Width, msg.Height)
		m.ready = true
		w, h := m.frame.BodySize()
		m.board.SetSize(w, h)
		m.form.SetSize(w, h)
		m.helpView.SetSize(w, h)
		return m, nil

	case board.DataLoadedMsg:
		if msg.Err != nil {
			m.message = describeError(msg.Err)
			m.failed = true
		}
		var cmd tea.Cmd
		m.board, cmd = m.board.Update(msg)
		return m, cmd

	case form.SubmittedMsg:
		m.view = ViewBoard
		return m, m.submit(msg)

	case form.CancelMsg:
		m.view = ViewBoard
		return m, nil

	case actionResultMsg:
		m.message = msg.note
		m.failed = msg.err != nil
		if m.failed {
			m.message = describeError(msg.err)
		}
		if msg.subtask >= 0 {
			m.board.SelectSubtask(msg.subtask)
		}
		if msg.switchTag != "" {
			return m, m.board.SetTag(msg.switchTag)
		}
		return m, m.board.LoadData()

	case tea.KeyMsg:
		switch m.view {
		case ViewForm:
			var cmd tea.Cmd
			m.form, cmd = m.form.Update(msg)
			return m, cmd
		case ViewHelp:
			if key.Matches(msg, m.keys.Help, m.keys.Back, m.keys.Quit) {
				m.view = ViewBoard
			}
			return m, nil
		}
		return m.handleBoardKeys(msg)
	}

	if m.view == ViewForm {
		var cmd tea.Cmd
		m.form, cmd = m.form.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleBoardKeys runs actions on the current selection and passes
// navigation keys to the board.
func (m Model) handleBoardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.message = ""
	m.failed = false
	task, hasTask := m.board.SelectedTask()
	sub, pos, hasSub := m.board.SelectedSubtask()
	target := form.Target{TaskID: task.ID, Tag: task.Tag}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.view = ViewHelp
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m, m.board.LoadData()

	case key.Matches(msg, m.keys.NewTask):
		m.view = ViewForm
		return m, m.form.StartNewTask(m.board.Tag())

	case key.Matches(msg, m.keys.NewTag):
		m.view = ViewForm
		return m, m.form.StartNewTag()

	case key.Matches(msg, m.keys.EditTitle) && hasTask:
		m.view = ViewForm
		return m, m.form.StartEditTitle(target, task.Title)

	case key.Matches(msg, m.keys.EditDesc) && hasTask:
		m.view = ViewForm
		return m, m.form.StartEditDescription(target, task.Description)

	case key.Matches(msg, m.keys.Delete) && hasTask:
		m.view = ViewForm
		return m, m.form.StartConfirm(form.KindConfirmDelete, target,
			fmt.Sprintf("Delete task #%d %q?", task.ID, task.Title))

	case key.Matches(msg, m.keys.CycleStatus) && hasTask:
		return m, m.cycleStatus(task)

	case key.Matches(msg, m.keys.NewSubtask):
		if !hasTask {
			m.message = "Select a task first"
			return m, nil
		}
		m.view = ViewForm
		return m, m.form.StartNewSubtask(target)

	case key.Matches(msg, m.keys.CycleSubtaskStatus) && hasSub:
		return m, m.cycleSubtaskStatus(task, sub, pos)

	case key.Matches(msg, m.keys.MoveSubtaskUp) && hasSub:
		return m, m.moveSubtask(task, pos, -1)

	case key.Matches(msg, m.keys.MoveSubtaskDown) && hasSub:
		return m, m.moveSubtask(task, pos, 1)

	case key.Matches(msg, m.keys.DeleteSubtask) && hasSub && m.board.Focused() == board.FocusSubtasks:
		return m, m.deleteSubtask(task, sub, pos)
	}

	var cmd tea.Cmd
	m.board, cmd = m.board.Update(msg)
	return m, cmd
}

// View renders the header, the active view and the status bar.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	done, total := m.board.Progress()
	header := m.frame.Header(m.board.Tag(), done, total, m.manager.Dir())

	var content string
	switch m.view {
	case ViewForm:
		content = m.frame.Center(m.form.View())
	case ViewHelp:
		content = m.frame.Center(m.helpView.View())
	default:
		content = m.board.View()
	}

	message := m.message
	if m.failed {
		message = theme.ErrorStyle.Render(message)
	}
	return m.frame.Compose(header, content, m.frame.StatusBar(m.keyHints(), message))
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.view {
	case ViewHelp:
		return "? close help | esc back"
	case ViewForm:
		return "enter submit | esc cancel"
	}
	if m.board.Focused() == board.FocusSubtasks {
		return "esc back | c status | K/J move | del delete | u add"
	}
	return "q quit | ? help | [ ] tags | n new | s status | e edit | x delete | u subtask | t tag"
}

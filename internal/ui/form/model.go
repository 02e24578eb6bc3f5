package form

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/pulse/internal/theme"
)

// Kind identifies what a submitted form is for.
type Kind int

const (
	KindNewTask Kind = iota
	KindEditTitle
	KindEditDescription
	KindNewSubtask
	KindNewTag
	KindConfirmDelete
	KindConfirmComplete
)

// Target identifies the task (and optionally subtask) a form acts on.
type Target struct {
	TaskID    int
	SubtaskID int
	Tag       string
}

// SubmittedMsg is dispatched when the user completes the form.
type SubmittedMsg struct {
	Kind   Kind
	Target Target

	Title       string
	Description string

	// Confirmed is set for confirmation forms.
	Confirmed bool
}

// CancelMsg is dispatched when the user aborts the form.
type CancelMsg struct{}

// bindings holds field values on the heap so that huh's Value() pointers
// remain valid across Bubble Tea model copies.
type bindings struct {
	title       string
	description string
	confirmed   bool
}

// Model is the modal prompt used by the dashboard for every text entry and
// confirmation.
type Model struct {
	form    *huh.Form
	fb      *bindings
	kind    Kind
	target  Target
	heading string
	width   int
	height  int
}

// New creates an idle form model.
func New(width, height int) Model {
	return Model{
		fb:     &bindings{},
		width:  width,
		height: height,
	}
}

// Active reports whether a form is open.
func (m Model) Active() bool {
	return m.form != nil
}

// StartNewTask opens the title and description form for a new task in tag.
func (m *Model) StartNewTask(tag string) tea.Cmd {
	m.reset(KindNewTask, Target{Tag: tag}, fmt.Sprintf("New task in %s", tag))
	m.form = m.build(
		m.titleField("Title", "What needs to be done?"),
		huh.NewText().
			Title("Description").
			Placeholder("Optional details...").
			Value(&m.fb.description),
	)
	return m.form.Init()
}

// StartEditTitle opens a title editor prefilled with current.
func (m *Model) StartEditTitle(target Target, current string) tea.Cmd {
	m.reset(KindEditTitle, target, fmt.Sprintf("Edit task #%d", target.TaskID))
	m.fb.title = current
	m.form = m.build(m.titleField("Title", ""))
	return m.form.Init()
}

// StartEditDescription opens a description editor prefilled with current.
// An empty value clears the description.
func (m *Model) StartEditDescription(target Target, current string) tea.Cmd {
	m.reset(KindEditDescription, target, fmt.Sprintf("Describe task #%d", target.TaskID))
	m.fb.description = current
	m.form = m.build(
		huh.NewText().
			Title("Description").
			Value(&m.fb.description),
	)
	return m.form.Init()
}

// StartNewSubtask opens a title prompt for a subtask of the target task.
func (m *Model) StartNewSubtask(target Target) tea.Cmd {
	m.reset(KindNewSubtask, target, fmt.Sprintf("New subtask for #%d", target.TaskID))
	m.form = m.build(m.titleField("Subtask", "Next step..."))
	return m.form.Init()
}

// StartNewTag opens a prompt for a tag name.
func (m *Model) StartNewTag() tea.Cmd {
	m.reset(KindNewTag, Target{}, "New tag")
	m.form = m.build(
		huh.NewInput().
			Title("Name").
			Placeholder("feature-epic").
			Value(&m.fb.title).
			Validate(validateRequired("Name")),
		huh.NewInput().
			Title("Description").
			Placeholder("Optional").
			Value(&m.fb.description),
	)
	return m.form.Init()
}

// StartConfirm opens a yes/no prompt of the given confirmation kind.
func (m *Model) StartConfirm(kind Kind, target Target, question string) tea.Cmd {
	m.reset(kind, target, "Confirm")
	m.form = m.build(
		huh.NewConfirm().
			Title(question).
			Affirmative("Yes").
			Negative("No").
			Value(&m.fb.confirmed),
	)
	return m.form.Init()
}

// Update handles messages for the open form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
		m.form = nil
		return m, func() tea.Msg { return CancelMsg{} }
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.form = nil
		return m, m.handleSubmit()
	case huh.StateAborted:
		m.form = nil
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the open form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.Current.Accent).
		MarginBottom(1)

	content := titleStyle.Render(m.heading) + "\n" + m.form.View()

	return theme.FocusedPanelStyle.
		Padding(1, 2).
		Width(m.formWidth() + 4).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) reset(kind Kind, target Target, heading string) {
	m.kind = kind
	m.target = target
	m.heading = heading
	m.fb.title = ""
	m.fb.description = ""
	m.fb.confirmed = false
}

func (m *Model) titleField(title, placeholder string) huh.Field {
	return huh.NewInput().
		Title(title).
		Placeholder(placeholder).
		Value(&m.fb.title).
		Validate(validateRequired(title))
}

func (m *Model) build(fields ...huh.Field) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(fields...),
	).WithWidth(m.formWidth()).WithShowHelp(false)
}

func (m Model) handleSubmit() tea.Cmd {
	msg := SubmittedMsg{
		Kind:        m.kind,
		Target:      m.target,
		Title:       strings.TrimSpace(m.fb.title),
		Description: strings.TrimSpace(m.fb.description),
		Confirmed:   m.fb.confirmed,
	}
	return func() tea.Msg { return msg }
}

func (m Model) formWidth() int {
	w := m.width - 8
	if w < 30 {
		w = 30
	}
	if w > 72 {
		w = 72
	}
	return w
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

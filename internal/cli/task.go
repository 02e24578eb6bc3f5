package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nhle/pulse/internal/model"
	"github.com/nhle/pulse/internal/tasks"
	"github.com/nhle/pulse/internal/theme"
)

func addCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add [title]",
		Short: "Create a new task (prompts when no title is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			description, _ := cmd.Flags().GetString("description")
			tag := opts.tag

			var title string
			if len(args) > 0 {
				title = args[0]
			} else {
				p := &addPrompt{Tag: tag}
				if err := p.run(); err != nil {
					if errors.Is(err, huh.ErrUserAborted) {
						fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
						return nil
					}
					return err
				}
				title, description, tag = p.Title, p.Description, p.Tag
			}

			return opts.withManager(cmd, func(m *tasks.Manager) error {
				task, err := m.CreateTask(cmd.Context(), title, description, tag)
				if errors.Is(err, tasks.ErrInvalid) {
					return fmt.Errorf("task title is required")
				}
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "✓ Created task #%d: %q (%s)\n", task.ID, task.Title, task.Tag)
				if task.Description != "" {
					fmt.Fprintf(out, "  Description: %s\n", task.Description)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringP("description", "d", "", "Task description")
	return cmd
}

// addPrompt holds the interactive add form values. It is heap-allocated so
// the huh fields can keep pointers into it.
type addPrompt struct {
	Title       string
	Description string
	Tag         string
}

func (p *addPrompt) run() error {
	if p.Tag == "" {
		p.Tag = "base"
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Task title").
				Value(&p.Title).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("title is required")
					}
					return nil
				}),
			huh.NewText().
				Title("Description (optional)").
				Value(&p.Description),
			huh.NewInput().
				Title("Tag").
				Value(&p.Tag),
		),
	).Run()
}

func listCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks (open ones unless --all or --status)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rawStatus, _ := cmd.Flags().GetString("status")
			all, _ := cmd.Flags().GetBool("all")
			withSubtasks, _ := cmd.Flags().GetBool("subtasks")

			var status model.Status
			if rawStatus != "" {
				st, err := parseStatus(rawStatus)
				if err != nil {
					return err
				}
				status = st
			}

			return opts.withManager(cmd, func(m *tasks.Manager) error {
				list, err := m.ListTasks(cmd.Context(), opts.tag, status)
				if err != nil {
					return err
				}
				if status == "" && !all {
					open := list[:0]
					for _, t := range list {
						if t.Status.Open() {
							open = append(open, t)
						}
					}
					list = open
				}

				view := listView{Tag: opts.tag, Status: status, All: all, WithSubtasks: withSubtasks}
				fmt.Fprintln(cmd.OutOrStdout(), FormatTaskList(list, view))
				return nil
			})
		},
	}
	cmd.Flags().StringP("status", "s", "", "Filter by status (pending, inprogress, done)")
	cmd.Flags().BoolP("all", "a", false, "Include completed tasks")
	cmd.Flags().Bool("subtasks", false, "Show subtasks")
	return cmd
}

func showCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a task with its subtasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return opts.withManager(cmd, func(m *tasks.Manager) error {
				task, err := m.GetTask(cmd.Context(), id, opts.tag)
				if err != nil {
					return taskError(err, id, opts.tag)
				}
				fmt.Fprintln(cmd.OutOrStdout(), FormatTaskDetail(*task))
				return nil
			})
		},
	}
}

func updateCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id|id.subtask>",
		Short: "Update a task or subtask; --tag moves a task to another tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.Contains(args[0], ".") {
				return updateSubtask(cmd, opts, args[0])
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var u model.TaskUpdate
			if cmd.Flags().Changed("title") {
				v, _ := cmd.Flags().GetString("title")
				u.Title = &v
			}
			if cmd.Flags().Changed("description") {
				v, _ := cmd.Flags().GetString("description")
				u.Description = &v
			}
			if cmd.Flags().Changed("tag") {
				v := opts.tag
				u.Tag = &v
			}
			if u.Empty() {
				return fmt.Errorf("at least one of --title, --description or --tag must be given")
			}

			return opts.withManager(cmd, func(m *tasks.Manager) error {
				task, err := m.UpdateTask(cmd.Context(), id, u)
				if err != nil {
					return taskError(err, id, "")
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "✓ Updated task #%d:\n", task.ID)
				if u.Title != nil {
					fmt.Fprintf(out, "  Title: %s\n", task.Title)
				}
				if u.Description != nil {
					desc := task.Description
					if desc == "" {
						desc = "(none)"
					}
					fmt.Fprintf(out, "  Description: %s\n", desc)
				}
				if u.Tag != nil {
					fmt.Fprintf(out, "  Tag: %s\n", task.Tag)
				}
				return nil
			})
		},
	}
	cmd.Flags().String("title", "", "New title")
	cmd.Flags().StringP("description", "d", "", "New description")
	return cmd
}

func updateSubtask(cmd *cobra.Command, opts *options, ref string) error {
	parentID, subtaskID, err := parseSubtaskRef(ref)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("title") {
		return fmt.Errorf("--title is required to update a subtask")
	}
	title, _ := cmd.Flags().GetString("title")

	return opts.withManager(cmd, func(m *tasks.Manager) error {
		st, err := m.UpdateSubtask(cmd.Context(), parentID, subtaskID, model.SubtaskUpdate{Title: &title}, opts.tag)
		if err != nil {
			return subtaskError(err, parentID, subtaskID)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✓ Updated subtask %d.%d:\n", parentID, st.ID)
		fmt.Fprintf(out, "  Title: %s\n", st.Title)
		return nil
	})
}

func statusCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <id> <pending|inprogress|done>",
		Short: "Change task status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			status, err := parseStatus(args[1])
			if err != nil {
				return err
			}
			cascade, _ := cmd.Flags().GetBool("complete-subtasks")

			return opts.withManager(cmd, func(m *tasks.Manager) error {
				task, err := m.UpdateTaskStatus(cmd.Context(), id, status, opts.tag,
					model.StatusOptions{CompleteSubtasks: cascade})
				if err != nil {
					return taskError(err, id, opts.tag)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s Task #%d status updated to %s\n", theme.StatusIcon(status), task.ID, status)
				fmt.Fprintf(out, "   %s\n", task.Title)
				if done, total := task.SubtaskProgress(); total > 0 && status == model.StatusDone {
					fmt.Fprintf(out, "   %d/%d subtasks completed\n", done, total)
				}
				return nil
			})
		},
	}
	cmd.Flags().Bool("complete-subtasks", false, "Also mark every subtask done")
	return cmd
}

func nextCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Show the next task to work on",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withManager(cmd, func(m *tasks.Manager) error {
				task, err := m.GetNextTask(cmd.Context(), opts.tag)
				if isMissing(err) {
					if opts.tag != "" {
						fmt.Fprintf(cmd.OutOrStdout(), "No pending tasks found for tag %q.\n", opts.tag)
					} else {
						fmt.Fprintln(cmd.OutOrStdout(), "No pending tasks found.")
					}
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), FormatNextTask(*task))
				return nil
			})
		},
	}
}

func deleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task and its subtasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return opts.withManager(cmd, func(m *tasks.Manager) error {
				ok, err := m.DeleteTask(cmd.Context(), id, opts.tag)
				if err != nil {
					return taskError(err, id, opts.tag)
				}
				if !ok {
					return taskError(tasks.ErrNotFound, id, opts.tag)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Task #%d deleted successfully.\n", id)
				return nil
			})
		},
	}
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimPrefix(s, "#"))
	if err != nil {
		return 0, fmt.Errorf("invalid task ID %q: must be a number", s)
	}
	return id, nil
}

// parseSubtaskRef splits "task.subtask" into its two ids.
func parseSubtaskRef(s string) (int, int, error) {
	parent, sub, ok := strings.Cut(s, ".")
	if !ok {
		return 0, 0, fmt.Errorf("invalid subtask reference %q: use task.subtask, e.g. 1.2", s)
	}
	parentID, err1 := strconv.Atoi(parent)
	subtaskID, err2 := strconv.Atoi(sub)
	if err1 != nil || err2 != nil {
		return 0, 0, fmt.Errorf("invalid subtask reference %q: use task.subtask, e.g. 1.2", s)
	}
	return parentID, subtaskID, nil
}

func parseStatus(s string) (model.Status, error) {
	st, ok := model.ParseStatus(s)
	if !ok {
		return "", fmt.Errorf("invalid status %q: use pending, inprogress or done", s)
	}
	return st, nil
}

// isMissing reports a lookup miss that is not rejected input.
func isMissing(err error) bool {
	return errors.Is(err, tasks.ErrNotFound) && !errors.Is(err, tasks.ErrInvalid)
}

// taskError turns a lookup miss into a user-facing message.
func taskError(err error, id int, tag string) error {
	if !isMissing(err) {
		return err
	}
	if tag != "" {
		return fmt.Errorf("task #%d not found in tag %q", id, tag)
	}
	return fmt.Errorf("task #%d not found", id)
}

func subtaskError(err error, parentID, subtaskID int) error {
	if !isMissing(err) {
		return err
	}
	return fmt.Errorf("subtask %d.%d not found", parentID, subtaskID)
}

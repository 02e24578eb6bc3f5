package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/pulse/internal/model"
	"github.com/nhle/pulse/internal/tasks"
	"github.com/nhle/pulse/internal/theme"
)

func subtaskCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subtask",
		Short: "Manage subtasks",
	}
	cmd.AddCommand(subtaskAddCmd(opts))
	cmd.AddCommand(subtaskListCmd(opts))
	cmd.AddCommand(subtaskStatusCmd(opts))
	cmd.AddCommand(subtaskDeleteCmd(opts))
	cmd.AddCommand(subtaskMoveCmd(opts))
	return cmd
}

func subtaskAddCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "add <parent-id> <title...>",
		Short: "Add a subtask",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			parentID, err := parseID(args[0])
			if err != nil {
				return err
			}
			title := strings.Join(args[1:], " ")
			if strings.TrimSpace(title) == "" {
				return fmt.Errorf("subtask title is required")
			}

			return opts.withManager(cmd, func(m *tasks.Manager) error {
				st, err := m.AddSubtask(cmd.Context(), parentID, title, opts.tag)
				if err != nil {
					return taskError(err, parentID, opts.tag)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Added subtask %d.%d: %q\n", parentID, st.ID, st.Title)
				return nil
			})
		},
	}
}

func subtaskListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list <parent-id>",
		Short: "List the subtasks of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parentID, err := parseID(args[0])
			if err != nil {
				return err
			}
			return opts.withManager(cmd, func(m *tasks.Manager) error {
				task, err := m.GetTask(cmd.Context(), parentID, opts.tag)
				if err != nil {
					return taskError(err, parentID, opts.tag)
				}
				fmt.Fprintln(cmd.OutOrStdout(), FormatSubtaskList(*task))
				return nil
			})
		},
	}
}

func subtaskStatusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status <task.subtask> <pending|inprogress|done>",
		Short: "Change subtask status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			parentID, subtaskID, err := parseSubtaskRef(args[0])
			if err != nil {
				return err
			}
			status, err := parseStatus(args[1])
			if err != nil {
				return err
			}
			return opts.withManager(cmd, func(m *tasks.Manager) error {
				st, err := m.UpdateSubtaskStatus(cmd.Context(), parentID, subtaskID, status, opts.tag)
				if err != nil {
					return subtaskError(err, parentID, subtaskID)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s Subtask %d.%d status updated to %s\n", theme.StatusIcon(status), parentID, subtaskID, status)
				fmt.Fprintf(out, "   %s\n", st.Title)
				return nil
			})
		},
	}
}

func subtaskDeleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <task.subtask>",
		Short: "Delete a subtask",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parentID, subtaskID, err := parseSubtaskRef(args[0])
			if err != nil {
				return err
			}
			return opts.withManager(cmd, func(m *tasks.Manager) error {
				ok, err := m.DeleteSubtask(cmd.Context(), parentID, subtaskID, opts.tag)
				if err != nil {
					return err
				}
				if !ok {
					return subtaskError(tasks.ErrNotFound, parentID, subtaskID)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Subtask %d.%d deleted successfully.\n", parentID, subtaskID)
				return nil
			})
		},
	}
}

func subtaskMoveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "move <task.subtask> <position>",
		Short: "Move a subtask to a 1-based position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			parentID, subtaskID, err := parseSubtaskRef(args[0])
			if err != nil {
				return err
			}
			pos, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid position %q: must be a number", args[1])
			}

			return opts.withManager(cmd, func(m *tasks.Manager) error {
				task, err := m.GetTask(cmd.Context(), parentID, opts.tag)
				if err != nil {
					return taskError(err, parentID, opts.tag)
				}
				from := positionOf(task.Subtasks, subtaskID)
				if from < 0 {
					return subtaskError(tasks.ErrNotFound, parentID, subtaskID)
				}
				if pos < 1 || pos > len(task.Subtasks) {
					return fmt.Errorf("position %d out of range 1-%d", pos, len(task.Subtasks))
				}

				subs, err := m.ReorderSubtasks(cmd.Context(), parentID, from, pos-1, task.Tag)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "✓ Moved subtask %d.%d to position %d\n", parentID, subtaskID, pos)
				for _, st := range subs {
					fmt.Fprintf(out, "   %s\n", subtaskLine(parentID, st))
				}
				return nil
			})
		},
	}
}

// positionOf returns the index of subtask id in display order, or -1.
func positionOf(subs []model.Subtask, id int) int {
	sorted := make([]model.Subtask, len(subs))
	copy(sorted, subs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })
	for i, st := range sorted {
		if st.ID == id {
			return i
		}
	}
	return -1
}

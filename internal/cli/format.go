package cli

import (
	"fmt"
	"strings"

	"github.com/nhle/pulse/internal/model"
	"github.com/nhle/pulse/internal/tagname"
	"github.com/nhle/pulse/internal/theme"
)

// FormatTagList renders tag summaries. Without all, only tags that still
// have PENDING or INPROGRESS tasks are listed.
func FormatTagList(tags []model.TagDetails, all bool) string {
	var b strings.Builder
	if all {
		b.WriteString("All tags:\n")
		for _, d := range tags {
			fmt.Fprintf(&b, "  %s (%d tasks)%s\n", d.Tag, d.TaskCount, descSuffix(d.Description))
		}
		if len(tags) == 0 {
			b.WriteString("  No tags found.\n")
		}
		return strings.TrimRight(b.String(), "\n")
	}

	b.WriteString("Tags with open tasks:\n")
	found := false
	for _, d := range tags {
		if d.OpenCount == 0 {
			continue
		}
		fmt.Fprintf(&b, "  %s (%d open)%s\n", d.Tag, d.OpenCount, descSuffix(d.Description))
		found = true
	}
	if !found {
		b.WriteString("  No tags with open tasks found.\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func descSuffix(desc string) string {
	if desc == "" {
		return ""
	}
	return " - " + desc
}

// listView describes what a task listing was filtered by.
type listView struct {
	Tag          string
	Status       model.Status
	All          bool
	WithSubtasks bool
}

func (v listView) qualifier() string {
	switch {
	case v.Status != "":
		return fmt.Sprintf(" [%s]", v.Status)
	case v.All:
		return ""
	default:
		return " [pending/in-progress]"
	}
}

// FormatTaskList renders tasks for the list command. Without a tag the
// tasks are grouped under their tag, tags in alphabetical order.
func FormatTaskList(list []model.Task, v listView) string {
	if len(list) == 0 {
		switch {
		case v.Status != "":
			return fmt.Sprintf("No tasks found with status %q.", v.Status)
		case v.All:
			return "No tasks found."
		default:
			return "No pending or in-progress tasks found. Use --all to see completed tasks."
		}
	}

	var b strings.Builder
	if v.Tag != "" {
		fmt.Fprintf(&b, "Tasks (%s)%s:\n\n", v.Tag, v.qualifier())
		for _, t := range list {
			writeTask(&b, t, "", v.WithSubtasks)
		}
	} else {
		fmt.Fprintf(&b, "Tasks%s:\n\n", v.qualifier())
		var order []string
		groups := map[string][]model.Task{}
		for _, t := range list {
			if _, ok := groups[t.Tag]; !ok {
				order = append(order, t.Tag)
			}
			groups[t.Tag] = append(groups[t.Tag], t)
		}
		for i, tag := range tagname.SortForDisplay(order, "") {
			if i > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "%s:\n", tag)
			for _, t := range groups[tag] {
				writeTask(&b, t, "  ", v.WithSubtasks)
			}
		}
	}

	plural := "s"
	if len(list) == 1 {
		plural = ""
	}
	suffix := ""
	if !v.All && v.Status == "" {
		suffix = " (pending/in-progress)"
	}
	fmt.Fprintf(&b, "\nTotal: %d task%s%s", len(list), plural, suffix)
	return b.String()
}

func writeTask(b *strings.Builder, t model.Task, indent string, withSubtasks bool) {
	fmt.Fprintf(b, "%s%s #%d: %s\n", indent, theme.StatusIcon(t.Status), t.ID, t.Title)
	if t.Description != "" {
		fmt.Fprintf(b, "%s   %s\n", indent, t.Description)
	}
	if withSubtasks {
		for _, st := range t.Subtasks {
			fmt.Fprintf(b, "%s   %s\n", indent, subtaskLine(t.ID, st))
		}
	}
}

func subtaskLine(parentID int, st model.Subtask) string {
	return fmt.Sprintf("%s %d.%d: %s", theme.StatusIcon(st.Status), parentID, st.ID, st.Title)
}

// FormatTaskDetail renders a single task with all of its subtasks.
func FormatTaskDetail(t model.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s #%d: %s\n", theme.StatusIcon(t.Status), t.ID, t.Title)
	fmt.Fprintf(&b, "   Tag: %s\n", t.Tag)
	fmt.Fprintf(&b, "   Status: %s\n", t.Status)
	if t.Description != "" {
		fmt.Fprintf(&b, "   Description: %s\n", t.Description)
	}
	if len(t.Subtasks) > 0 {
		done, total := t.SubtaskProgress()
		fmt.Fprintf(&b, "   Subtasks: %d/%d completed\n", done, total)
		for _, st := range t.Subtasks {
			fmt.Fprintf(&b, "     %s\n", subtaskLine(t.ID, st))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatNextTask renders the next task and only its unfinished subtasks.
func FormatNextTask(t model.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s Next task: #%d %s\n", theme.StatusIcon(t.Status), t.ID, t.Title)
	fmt.Fprintf(&b, "   Tag: %s\n", t.Tag)
	fmt.Fprintf(&b, "   Status: %s\n", t.Status)
	if t.Description != "" {
		fmt.Fprintf(&b, "   Description: %s\n", t.Description)
	}
	if len(t.Subtasks) > 0 {
		done, total := t.SubtaskProgress()
		fmt.Fprintf(&b, "   Subtasks: %d/%d completed\n", done, total)
		if done < total {
			b.WriteString("   Incomplete subtasks:\n")
			for _, st := range t.Subtasks {
				if st.Status != model.StatusDone {
					fmt.Fprintf(&b, "     %s\n", subtaskLine(t.ID, st))
				}
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatSubtaskList renders the subtasks of a task with a progress line.
func FormatSubtaskList(t model.Task) string {
	if len(t.Subtasks) == 0 {
		return fmt.Sprintf("Task #%d has no subtasks.", t.ID)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Subtasks for task #%d: %s\n\n", t.ID, t.Title)
	for _, st := range t.Subtasks {
		fmt.Fprintf(&b, "%s\n", subtaskLine(t.ID, st))
	}
	done, total := t.SubtaskProgress()
	fmt.Fprintf(&b, "\nProgress: %d/%d completed", done, total)
	return b.String()
}

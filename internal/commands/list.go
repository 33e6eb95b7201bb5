package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/balkashynov/pulse/internal/models"
	"github.com/balkashynov/pulse/internal/parser"
	"github.com/balkashynov/pulse/internal/tasks"
	"github.com/balkashynov/pulse/internal/tui"
)

var listCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List tasks",
	Long:    "List tasks with optional filters for status, priority and tag. Use -i for the interactive browser.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		filter, err := listFilter(cmd)
		if err != nil {
			return err
		}

		all, err := pulse.Tasks.List(ctx, filter)
		if err != nil {
			return fmt.Errorf("error fetching tasks: %w", err)
		}
		blocked, err := blockedSet(ctx, all)
		if err != nil {
			return err
		}

		if interactive, _ := cmd.Flags().GetBool("interactive"); interactive {
			return tui.RunListTUI(ctx, all, blocked, pulse.Tasks)
		}

		if len(all) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No tasks found. Use 'pulse add \"task description\"' to create your first task.")
			return nil
		}
		printTaskTable(cmd.OutOrStdout(), all, blocked)
		return nil
	},
}

func listFilter(cmd *cobra.Command) (tasks.Filter, error) {
	var f tasks.Filter
	if status, _ := cmd.Flags().GetString("status"); status != "" {
		f.Status = models.Status(status)
		if !f.Status.Valid() {
			return f, fmt.Errorf("%w: %q", tasks.ErrInvalidStatus, status)
		}
	}
	if priority, _ := cmd.Flags().GetString("priority"); priority != "" {
		p, ok := parser.NormalizePriority(priority)
		if !ok {
			return f, fmt.Errorf("%w: %q", tasks.ErrInvalidPriority, priority)
		}
		f.Priority = p
	}
	f.Tag, _ = cmd.Flags().GetString("tag")
	if open, _ := cmd.Flags().GetBool("open"); open {
		completed := false
		f.Completed = &completed
	}
	return f, nil
}

// blockedSet marks tasks that still wait on a gating prerequisite
func blockedSet(ctx context.Context, ts []models.Task) (map[string]bool, error) {
	blocked := make(map[string]bool)
	for _, t := range ts {
		if t.Completed || len(t.Dependencies) == 0 {
			continue
		}
		ok, err := pulse.Tasks.CanComplete(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		blocked[t.ID] = !ok
	}
	return blocked, nil
}

func printTaskTable(w io.Writer, ts []models.Task, blocked map[string]bool) {
	fmt.Fprintf(w, "%-8s %-11s %-40s %-8s %-7s %s\n", "ID", "STATUS", "TITLE", "PRIORITY", "LOGGED", "TAGS")
	fmt.Fprintln(w, strings.Repeat("-", 90))

	for _, t := range ts {
		status := string(t.Status)
		if blocked[t.ID] {
			status = "blocked"
		}

		title := t.Title
		if len(title) > 38 {
			title = title[:35] + "..."
		}
		if n := len(t.Subtasks); n > 0 {
			title = fmt.Sprintf("%s [%d/%d]", title, completedSubtasks(t), n)
		}

		fmt.Fprintf(w, "%-8s %-11s %-40s %-8s %-7s %s\n",
			models.ShortID(t.ID),
			status,
			title,
			t.Priority,
			formatMinutes(t.ActualDuration),
			strings.Join(t.Tags, ","))
	}
}

func completedSubtasks(t models.Task) int {
	n := 0
	for _, st := range t.Subtasks {
		if st.Completed {
			n++
		}
	}
	return n
}

func init() {
	listCmd.Flags().StringP("status", "s", "", "Filter by status: pending, in_progress, completed, cancelled")
	listCmd.Flags().StringP("priority", "p", "", "Filter by priority")
	listCmd.Flags().StringP("tag", "t", "", "Filter by tag")
	listCmd.Flags().Bool("open", false, "Show only tasks that are not completed")
	listCmd.Flags().BoolP("interactive", "i", false, "Browse tasks in the interactive UI")
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/balkashynov/pulse/internal/models"
	"github.com/balkashynov/pulse/internal/parser"
	"github.com/balkashynov/pulse/internal/tasks"
	"github.com/balkashynov/pulse/internal/tui"
)

var editCmd = &cobra.Command{
	Use:   "edit <task-id>",
	Short: "Edit an existing task",
	Long: `Edit an existing task. Only the flags you pass are changed.

Usage:
  pulse edit 1a2b --title "New title" --priority high
  pulse edit 1a2b --due none      - Clear the due date
  pulse edit 1a2b                 - Show the task`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		task, err := resolveTask(cmd, args[0])
		if err != nil {
			return err
		}

		var p tasks.Patch
		changed := false
		flags := cmd.Flags()

		if flags.Changed("title") {
			title, _ := flags.GetString("title")
			p.Title = &title
			changed = true
		}
		if flags.Changed("note") {
			note, _ := flags.GetString("note")
			p.Description = &note
			changed = true
		}
		if flags.Changed("priority") {
			raw, _ := flags.GetString("priority")
			priority, ok := parser.NormalizePriority(raw)
			if !ok {
				return fmt.Errorf("%w: %q", tasks.ErrInvalidPriority, raw)
			}
			p.Priority = &priority
			changed = true
		}
		if flags.Changed("status") {
			raw, _ := flags.GetString("status")
			status := models.Status(raw)
			p.Status = &status
			changed = true
		}
		if flags.Changed("tags") {
			p.Tags, _ = flags.GetStringSlice("tags")
			if p.Tags == nil {
				p.Tags = []string{}
			}
			changed = true
		}
		if flags.Changed("due") {
			raw, _ := flags.GetString("due")
			if raw == "none" || raw == "" {
				p.ClearDue = true
			} else {
				due, err := parser.ParseDueDateAt(raw, pulse.Now())
				if err != nil {
					return fmt.Errorf("error parsing due date: %w", err)
				}
				p.Due = due
			}
			changed = true
		}
		if flags.Changed("estimate") {
			estimate, _ := flags.GetInt("estimate")
			p.EstimatedDuration = &estimate
			changed = true
		}

		if changed {
			task, err = pulse.Tasks.Update(cmd.Context(), task.ID, p)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✏️  Updated task %s\n", models.ShortID(task.ID))
		}
		fmt.Fprintln(cmd.OutOrStdout(), tui.RenderTask(task, pulse.Now()))
		return nil
	},
}

func init() {
	editCmd.Flags().String("title", "", "New title")
	editCmd.Flags().StringP("note", "n", "", "New description")
	editCmd.Flags().StringP("priority", "p", "", "Priority: low, medium, high, urgent or 1-4")
	editCmd.Flags().StringP("status", "s", "", "Status: pending, in_progress, completed, cancelled")
	editCmd.Flags().StringSliceP("tags", "t", nil, "Replace tags")
	editCmd.Flags().String("due", "", "Due date, or 'none' to clear")
	editCmd.Flags().Int("estimate", 0, "Estimated duration in minutes")
}

package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/balkashynov/pulse/internal/models"
	"github.com/balkashynov/pulse/internal/tasks"
)

var doneCmd = &cobra.Command{
	Use:   "done [task-id]",
	Short: "Mark a task as completed",
	Long:  "Mark a task as completed. Tasks with unfinished blocking prerequisites cannot be completed.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		task, err := resolveTask(cmd, args[0])
		if err != nil {
			return err
		}
		if task.Completed {
			return fmt.Errorf("task %s is already completed", models.ShortID(task.ID))
		}

		task, err = pulse.Tasks.ToggleCompletion(cmd.Context(), task.ID)
		var unmet *tasks.DependencyUnmetError
		if errors.As(err, &unmet) {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "⛔ Blocked by unfinished tasks:")
			for _, id := range unmet.Missing {
				if pre, err := pulse.Tasks.Get(cmd.Context(), id); err == nil {
					fmt.Fprintf(out, "   %s  %s\n", models.ShortID(id), pre.Title)
				} else {
					fmt.Fprintf(out, "   %s  (deleted)\n", models.ShortID(id))
				}
			}
			return err
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✅ Marked task %s as done: %s\n", models.ShortID(task.ID), task.Title)
		if task.CompletedAt != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Completed at: %s\n", task.CompletedAt.Format("15:04:05"))
		}
		return nil
	},
}

var undoneCmd = &cobra.Command{
	Use:   "undone [task-id]",
	Short: "Mark a completed task back to pending",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		task, err := resolveTask(cmd, args[0])
		if err != nil {
			return err
		}
		if !task.Completed {
			return fmt.Errorf("task %s is not completed", models.ShortID(task.ID))
		}

		task, err = pulse.Tasks.ToggleCompletion(cmd.Context(), task.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "↩️  Marked task %s back to %s: %s\n", models.ShortID(task.ID), task.Status, task.Title)
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:     "rm [task-id]",
	Aliases: []string{"delete"},
	Short:   "Delete a task",
	Long:    "Delete a task. Tasks that depended on it keep the dependency, which stays unmet until removed.",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		task, err := resolveTask(cmd, args[0])
		if err != nil {
			return err
		}
		dependents, err := pulse.Tasks.BlockedTasks(cmd.Context(), task.ID)
		if err != nil {
			return err
		}
		if err := pulse.Tasks.Delete(cmd.Context(), task.ID); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "🗑️  Deleted task %s: %s\n", models.ShortID(task.ID), task.Title)
		if len(dependents) > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "⚠️  %d task(s) still depend on it; remove those dependencies with 'pulse dep rm'.\n", len(dependents))
		}
		return nil
	},
}

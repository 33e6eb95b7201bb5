package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/balkashynov/pulse/internal/models"
	"github.com/balkashynov/pulse/internal/tasks"
)

func setStatus(cmd *cobra.Command, ref string, status models.Status) (*models.Task, error) {
	task, err := resolveTask(cmd, ref)
	if err != nil {
		return nil, err
	}
	return pulse.Tasks.Update(cmd.Context(), task.ID, tasks.Patch{Status: &status})
}

var cancelCmd = &cobra.Command{
	Use:     "cancel [task-id]",
	Aliases: []string{"archive"},
	Short:   "Cancel a task without completing it",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		task, err := setStatus(cmd, args[0], models.StatusCancelled)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "🗃️  Cancelled task %s: %s\n", models.ShortID(task.ID), task.Title)
		return nil
	},
}

var reopenCmd = &cobra.Command{
	Use:     "reopen [task-id]",
	Aliases: []string{"unarchive"},
	Short:   "Move a cancelled or completed task back to pending",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		task, err := setStatus(cmd, args[0], models.StatusPending)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "📤 Reopened task %s: %s\n", models.ShortID(task.ID), task.Title)
		fmt.Fprintf(cmd.OutOrStdout(), "Status: %s\n", task.Status)
		return nil
	},
}

package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/balkashynov/pulse/internal/models"
	"github.com/balkashynov/pulse/internal/tasks"
)

var depCmd = &cobra.Command{
	Use:   "dep",
	Short: "Manage task dependencies",
}

var depAddCmd = &cobra.Command{
	Use:   "add <task-id> <prerequisite-id>",
	Short: "Make a task depend on another",
	Long: `Make a task depend on another.

Types:
  blocks    - prerequisite must be completed first (default)
  requires  - same gating as blocks
  suggests  - advisory only, never blocks completion`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		task, err := resolveTask(cmd, args[0])
		if err != nil {
			return err
		}
		pre, err := resolveTask(cmd, args[1])
		if err != nil {
			return err
		}
		typ, _ := cmd.Flags().GetString("type")

		dep, err := pulse.Tasks.AddDependency(cmd.Context(), task.ID, pre.ID, models.DependencyType(typ))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "🔗 %s now %s on %s (dependency %s)\n",
			task.Title, verbFor(dep.Type), pre.Title, models.ShortID(dep.ID))
		return nil
	},
}

func verbFor(t models.DependencyType) string {
	switch t {
	case models.DependencySuggests:
		return "follows a suggestion"
	case models.DependencyRequires:
		return "requires completion"
	}
	return "waits"
}

var depRmCmd = &cobra.Command{
	Use:   "rm <task-id> <dependency-id>",
	Short: "Remove a dependency",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		task, err := resolveTask(cmd, args[0])
		if err != nil {
			return err
		}
		ids := make([]string, len(task.Dependencies))
		for i, d := range task.Dependencies {
			ids[i] = d.ID
		}
		depID, err := matchPrefix(ids, args[1])
		if err != nil {
			return fmt.Errorf("%w: %s", tasks.ErrDependencyNotFound, args[1])
		}
		if err := pulse.Tasks.RemoveDependency(cmd.Context(), task.ID, depID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✂️  Removed dependency %s from %s\n", models.ShortID(depID), task.Title)
		return nil
	},
}

var depLsCmd = &cobra.Command{
	Use:   "ls <task-id>",
	Short: "Show what a task depends on",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		task, err := resolveTask(cmd, args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(task.Dependencies) == 0 {
			fmt.Fprintf(out, "%s has no dependencies.\n", task.Title)
			return nil
		}

		unmet, err := pulse.Tasks.UnmetDependencies(cmd.Context(), task.ID)
		if err != nil {
			return err
		}
		pending := make(map[string]bool, len(unmet))
		for _, d := range unmet {
			pending[d.ID] = true
		}

		fmt.Fprintf(out, "%-8s %-9s %-8s %-9s %s\n", "DEP", "TYPE", "TASK", "STATE", "TITLE")
		fmt.Fprintln(out, strings.Repeat("-", 60))
		for _, d := range task.Dependencies {
			title := "(deleted)"
			if pre, err := pulse.Tasks.Get(cmd.Context(), d.DependsOnTaskID); err == nil {
				title = pre.Title
			}
			state := "met"
			switch {
			case pending[d.ID]:
				state = "unmet"
			case !d.Type.Gating():
				state = "advisory"
			}
			fmt.Fprintf(out, "%-8s %-9s %-8s %-9s %s\n",
				models.ShortID(d.ID), d.Type, models.ShortID(d.DependsOnTaskID), state, title)
		}
		return nil
	},
}

var blockedCmd = &cobra.Command{
	Use:   "blocked <task-id>",
	Short: "Show tasks waiting on a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		task, err := resolveTask(cmd, args[0])
		if err != nil {
			return err
		}
		dependents, err := pulse.Tasks.BlockedTasks(cmd.Context(), task.ID)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(dependents) == 0 {
			fmt.Fprintf(out, "Nothing is waiting on %s.\n", task.Title)
			return nil
		}
		fmt.Fprintf(out, "Waiting on %s:\n", task.Title)
		for _, t := range dependents {
			fmt.Fprintf(out, "  %s  %s\n", models.ShortID(t.ID), t.Title)
		}
		return nil
	},
}

var subtaskCmd = &cobra.Command{
	Use:   "subtask",
	Short: "Manage subtasks",
}

var subtaskAddCmd = &cobra.Command{
	Use:   "add <task-id> <title>",
	Short: "Add a subtask",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		task, err := resolveTask(cmd, args[0])
		if err != nil {
			return err
		}
		st, err := pulse.Tasks.AddSubtask(cmd.Context(), task.ID, strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "➕ Added subtask %s to %s: %s\n", models.ShortID(st.ID), task.Title, st.Title)
		return nil
	},
}

var subtaskToggleCmd = &cobra.Command{
	Use:   "toggle <task-id> <subtask-id>",
	Short: "Check or uncheck a subtask",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		task, err := resolveTask(cmd, args[0])
		if err != nil {
			return err
		}
		ids := make([]string, len(task.Subtasks))
		for i, st := range task.Subtasks {
			ids[i] = st.ID
		}
		id, err := matchPrefix(ids, args[1])
		if err != nil {
			return fmt.Errorf("%w: %s", tasks.ErrSubtaskNotFound, args[1])
		}
		st, err := pulse.Tasks.ToggleSubtask(cmd.Context(), task.ID, id)
		if err != nil {
			return err
		}
		mark := "[ ]"
		if st.Completed {
			mark = "[x]"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", mark, st.Title)
		return nil
	},
}

func init() {
	depAddCmd.Flags().String("type", string(models.DependencyBlocks), "Dependency type: blocks, requires, suggests")
	depCmd.AddCommand(depAddCmd, depRmCmd, depLsCmd)
	subtaskCmd.AddCommand(subtaskAddCmd, subtaskToggleCmd)
}

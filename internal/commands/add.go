package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/balkashynov/pulse/internal/models"
	"github.com/balkashynov/pulse/internal/parser"
	"github.com/balkashynov/pulse/internal/tasks"
)

var addCmd = &cobra.Command{
	Use:   "add [task description]",
	Short: "Add a new task",
	Long: `Add a new task with optional metadata.

Smart parsing syntax:
  #tag1,tag2  - Tags (comma-separated or individual)
  +priority   - Priority (low/medium/high/urgent or 1-4)
  due:3days   - Due date (dd/mm/yyyy, yyyy-mm-dd, X days, X hours, X weeks)
  after:ID    - Blocked by other tasks (id prefixes, comma-separated)

Example:
  pulse add "Deploy release #ops +high due:tomorrow after:1a2b3c4d"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		parsed := parser.ParseTitleAt(strings.Join(args, " "), pulse.Now())
		if len(parsed.Errors) > 0 {
			return fmt.Errorf("could not parse task: %s", strings.Join(parsed.Errors, "; "))
		}

		req := tasks.CreateRequest{
			Title:    parsed.Title,
			Tags:     parsed.Tags,
			Priority: parsed.Priority,
			Due:      parsed.DueDate,
		}

		// Flags take precedence over parsed data
		if flagTags, _ := cmd.Flags().GetStringSlice("tags"); len(flagTags) > 0 {
			req.Tags = flagTags
		}
		if flagPriority, _ := cmd.Flags().GetString("priority"); flagPriority != "" {
			p, ok := parser.NormalizePriority(flagPriority)
			if !ok {
				return fmt.Errorf("%w: %q", tasks.ErrInvalidPriority, flagPriority)
			}
			req.Priority = p
		}
		if flagDue, _ := cmd.Flags().GetString("due"); flagDue != "" {
			due, err := parser.ParseDueDateAt(flagDue, pulse.Now())
			if err != nil {
				return fmt.Errorf("error parsing due date: %w", err)
			}
			req.Due = due
		}
		if estimate, _ := cmd.Flags().GetInt("estimate"); estimate > 0 {
			req.EstimatedDuration = &estimate
		}
		req.Description, _ = cmd.Flags().GetString("note")
		req.Subtasks, _ = cmd.Flags().GetStringSlice("subtask")

		// Resolve prerequisites before creating so a bad reference leaves nothing behind
		var prereqs []*models.Task
		for _, ref := range parsed.After {
			t, err := resolveTask(cmd, ref)
			if err != nil {
				return err
			}
			prereqs = append(prereqs, t)
		}

		task, err := pulse.Tasks.Create(ctx, req)
		if err != nil {
			return fmt.Errorf("error creating task: %w", err)
		}
		for _, pre := range prereqs {
			if _, err := pulse.Tasks.AddDependency(ctx, task.ID, pre.ID, models.DependencyBlocks); err != nil {
				return fmt.Errorf("task created but dependency on %s failed: %w", models.ShortID(pre.ID), err)
			}
		}
		if len(prereqs) > 0 {
			task, err = pulse.Tasks.Get(ctx, task.ID)
			if err != nil {
				return err
			}
		}

		printCreated(cmd.OutOrStdout(), task)
		return nil
	},
}

func printCreated(w io.Writer, task *models.Task) {
	fmt.Fprintf(w, "Created task %s: %s\n", models.ShortID(task.ID), task.Title)
	if len(task.Tags) > 0 {
		fmt.Fprintf(w, "  Tags: %s\n", strings.Join(task.Tags, ", "))
	}
	fmt.Fprintf(w, "  Priority: %s\n", task.Priority)
	if task.Due != nil {
		fmt.Fprintf(w, "  Due: %s\n", parser.FormatDueDateAt(task.Due, pulse.Now()))
	}
	if task.EstimatedDuration != nil {
		fmt.Fprintf(w, "  Estimate: %s\n", formatMinutes(*task.EstimatedDuration))
	}
	for _, st := range task.Subtasks {
		fmt.Fprintf(w, "  [ ] %s\n", st.Title)
	}
	for _, dep := range task.Dependencies {
		fmt.Fprintf(w, "  After: %s (%s)\n", models.ShortID(dep.DependsOnTaskID), dep.Type)
	}
}

func init() {
	addCmd.Flags().StringSliceP("tags", "t", []string{}, "Comma-separated tags")
	addCmd.Flags().StringP("priority", "p", "", "Priority: low, medium, high, urgent or 1-4")
	addCmd.Flags().String("due", "", "Due date: dd/mm/yyyy, yyyy-mm-dd, X days, X hours, X weeks")
	addCmd.Flags().Int("estimate", 0, "Estimated duration in minutes")
	addCmd.Flags().StringP("note", "n", "", "Description")
	addCmd.Flags().StringSlice("subtask", nil, "Subtask titles (repeatable)")
}

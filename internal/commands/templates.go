package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/balkashynov/pulse/internal/models"
	"github.com/balkashynov/pulse/internal/parser"
	"github.com/balkashynov/pulse/internal/tasks"
)

var templateCmd = &cobra.Command{
	Use:     "template",
	Aliases: []string{"tpl"},
	Short:   "Manage reusable task templates",
}

var templateAddCmd = &cobra.Command{
	Use:   "add <name> [title]",
	Short: "Create a template",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tpl := models.Template{
			Name:  args[0],
			Title: strings.Join(args[1:], " "),
		}
		tpl.Description, _ = cmd.Flags().GetString("note")
		tpl.Tags, _ = cmd.Flags().GetStringSlice("tags")
		tpl.Subtasks, _ = cmd.Flags().GetStringSlice("subtask")
		if raw, _ := cmd.Flags().GetString("priority"); raw != "" {
			p, ok := parser.NormalizePriority(raw)
			if !ok {
				return fmt.Errorf("%w: %q", tasks.ErrInvalidPriority, raw)
			}
			tpl.Priority = p
		}

		stored, err := pulse.Tasks.AddTemplate(cmd.Context(), tpl)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "📐 Saved template %s (%s)\n", stored.Name, models.ShortID(stored.ID))
		return nil
	},
}

var templateImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Import templates from a YAML file",
	Long: `Import templates from a YAML file. Either all templates are stored or none.

Format:
  templates:
    - name: weekly-review
      title: Weekly review
      priority: high
      tags: [review]
      subtasks: [Inbox zero, Plan next week]`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		imported, err := pulse.Tasks.ImportTemplates(cmd.Context(), f)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "📥 Imported %d template(s)\n", len(imported))
		for _, t := range imported {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s  %s\n", models.ShortID(t.ID), t.Name)
		}
		return nil
	},
}

var templateLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, err := pulse.Tasks.Templates(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(all) == 0 {
			fmt.Fprintln(out, "No templates yet. Use 'pulse template add' or 'pulse template import'.")
			return nil
		}
		fmt.Fprintf(out, "%-8s %-20s %-30s %-8s %s\n", "ID", "NAME", "TITLE", "PRIORITY", "SUBTASKS")
		fmt.Fprintln(out, strings.Repeat("-", 80))
		for _, t := range all {
			fmt.Fprintf(out, "%-8s %-20s %-30s %-8s %d\n", models.ShortID(t.ID), t.Name, t.Title, t.Priority, len(t.Subtasks))
		}
		return nil
	},
}

var templateUseCmd = &cobra.Command{
	Use:   "use <name-or-id>",
	Short: "Create a task from a template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref := args[0]
		if all, err := pulse.Tasks.Templates(cmd.Context()); err == nil {
			ids := make([]string, len(all))
			for i, t := range all {
				ids[i] = t.ID
			}
			if id, err := matchPrefix(ids, ref); err == nil {
				ref = id
			}
		}

		task, err := pulse.Tasks.CreateFromTemplate(cmd.Context(), ref)
		if err != nil {
			return err
		}
		printCreated(cmd.OutOrStdout(), task)
		return nil
	},
}

func init() {
	templateAddCmd.Flags().StringP("note", "n", "", "Description copied to each task")
	templateAddCmd.Flags().StringP("priority", "p", "", "Priority: low, medium, high, urgent or 1-4")
	templateAddCmd.Flags().StringSliceP("tags", "t", nil, "Comma-separated tags")
	templateAddCmd.Flags().StringSlice("subtask", nil, "Subtask titles (repeatable)")
	templateCmd.AddCommand(templateAddCmd, templateImportCmd, templateLsCmd, templateUseCmd)
}

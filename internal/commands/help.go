package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var helpCmd = &cobra.Command{
	Use:         "help [command]",
	Short:       "Show comprehensive help for pulse",
	Long:        `Display detailed help for all pulse commands and flags.`,
	Annotations: map[string]string{skipApp: ""},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			target, _, err := rootCmd.Find(args)
			if err != nil {
				return err
			}
			return target.Help()
		}
		showCustomHelp(cmd.OutOrStdout())
		return nil
	},
}

type helpSection struct {
	title    string
	commands []helpCommand
}

type helpCommand struct {
	name        string
	description string
	examples    []string
	flags       []helpFlag
}

type helpFlag struct {
	name        string
	description string
}

const helpBanner = `
██████╗ ██╗   ██╗██╗     ███████╗███████╗
██╔══██╗██║   ██║██║     ██╔════╝██╔════╝
██████╔╝██║   ██║██║     ███████╗█████╗
██╔═══╝ ██║   ██║██║     ╚════██║██╔══╝
██║     ╚██████╔╝███████╗███████║███████╗
╚═╝      ╚═════╝ ╚══════╝╚══════╝╚══════╝

pulse - tasks, time tracking, habits and productivity analytics
`

var helpSections = []helpSection{
	{
		title: "TASKS",
		commands: []helpCommand{
			{
				name:        "add <task>",
				description: "Create a new task with smart parsing",
				flags: []helpFlag{
					{"-t, --tags", "Comma-separated tags"},
					{"-p, --priority", "low|medium|high|urgent or 1-4"},
					{"--due", "Due date (2025-12-15, 15/12/2025, 3days, tomorrow)"},
					{"--estimate", "Estimated minutes"},
					{"--note", "Description"},
					{"--subtask", "Subtask title (repeatable)"},
				},
				examples: []string{
					`pulse add "Fix login bug #frontend +high due:2days"`,
					`pulse add "Deploy release after:1a2b3c4d"`,
				},
			},
			{
				name:        "ls",
				description: "List tasks; blocked tasks are marked",
				flags: []helpFlag{
					{"--status", "pending|in_progress|completed|cancelled"},
					{"--priority", "Filter by priority"},
					{"--tag", "Filter by tag"},
					{"--open", "Only unfinished tasks"},
					{"-i, --interactive", "Browse and toggle tasks in a TUI"},
				},
			},
			{name: "search <query>", description: "Ranked search over titles, notes and tags", flags: []helpFlag{{"--json", "JSON output"}, {"--limit", "Maximum results"}}},
			{name: "edit <id>", description: "Change title, note, priority, status, tags, due or estimate"},
			{name: "done <id>", description: "Complete a task; refused while blocking prerequisites are open"},
			{name: "undone <id>", description: "Reopen a completed task"},
			{name: "cancel <id> / reopen <id>", description: "Cancel or restore a task"},
			{name: "rm <id>", description: "Delete a task and its dependency edges"},
		},
	},
	{
		title: "DEPENDENCIES & SUBTASKS",
		commands: []helpCommand{
			{name: "dep add <task> <prerequisite>", description: "Add a dependency", flags: []helpFlag{{"--type", "blocks|requires|suggests"}}},
			{name: "dep rm <task> <dep-id>", description: "Remove a dependency"},
			{name: "dep ls <task>", description: "Show dependencies and whether they are met"},
			{name: "blocked <task>", description: "List tasks waiting on a task"},
			{name: "subtask add|toggle", description: "Manage a task's checklist"},
			{name: "template add|import|ls|use", description: "Reusable task templates (YAML import)"},
		},
	},
	{
		title: "TIME TRACKING",
		commands: []helpCommand{
			{name: "start <id>", description: "Start tracking; opens the interactive timer", flags: []helpFlag{{"--no-ui", "Start without the timer"}, {"--notes", "Session notes"}}},
			{name: "pause [id] / resume <id>", description: "Pause and resume a session"},
			{name: "stop [id]", description: "Stop the session and log its minutes"},
			{name: "status", description: "Show the running session"},
			{name: "timesheet", description: "Weekly hours per task", flags: []helpFlag{{"--weeks-ago", "Show an earlier week"}}},
		},
	},
	{
		title: "HABITS & ANALYTICS",
		commands: []helpCommand{
			{name: "habit add|ls|toggle|rate", description: "Daily habits with streaks"},
			{name: "checkin", description: "Record mood, energy and sleep", flags: []helpFlag{{"--mood/--energy", "1-5"}, {"--sleep", "Hours slept"}}},
			{name: "event add|ls", description: "Calendar events counted in the daily score"},
			{name: "score", description: "Compute and record today's productivity score", flags: []helpFlag{{"--dry-run", "Compute only"}, {"--history", "List recorded days"}}},
			{name: "correlation", description: "Correlate habit completion with productivity", flags: []helpFlag{{"--days", "Window size"}}},
			{name: "serve", description: "Serve the HTTP API", flags: []helpFlag{{"--addr", "Listen address"}}},
		},
	},
}

func showCustomHelp(w io.Writer) {
	fmt.Fprint(w, helpBanner)
	for _, section := range helpSections {
		fmt.Fprintf(w, "\n%s:\n\n", section.title)
		for _, c := range section.commands {
			fmt.Fprintf(w, "  %-30s %s\n", c.name, c.description)
			for _, f := range c.flags {
				fmt.Fprintf(w, "    %-28s %s\n", f.name, f.description)
			}
			if len(c.examples) > 0 {
				fmt.Fprintln(w, "\n    Examples:")
				for _, ex := range c.examples {
					fmt.Fprintf(w, "      %s\n", ex)
				}
				fmt.Fprintln(w)
			}
		}
	}
	fmt.Fprintf(w, "\n%s\n", strings.TrimSpace(`
Commands accept any unique prefix of a task id.
Use "pulse help <command>" for the full flag list of a command.`))
}

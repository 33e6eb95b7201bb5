package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/balkashynov/pulse/internal/models"
	"github.com/balkashynov/pulse/internal/tracking"
	"github.com/balkashynov/pulse/internal/tui"
)

var startCmd = &cobra.Command{
	Use:   "start [task-id]",
	Short: "Start tracking time on a task",
	Long: `Start tracking time on a task. Opens interactive timer by default, use --no-ui for simple start.
Only one session can be active at a time.

Examples:
  pulse start 1a2b          # Start timer with interactive UI
  pulse start 1a2b --no-ui  # Start timer without UI`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		task, err := resolveTask(cmd, args[0])
		if err != nil {
			return err
		}
		notes, _ := cmd.Flags().GetString("notes")

		entry, err := pulse.Ledger.Start(cmd.Context(), task.ID, notes)
		if err != nil {
			return err
		}

		if noUI, _ := cmd.Flags().GetBool("no-ui"); noUI {
			fmt.Fprintf(cmd.OutOrStdout(), "⏱️  Started tracking time for %s: %s\n", models.ShortID(task.ID), task.Title)
			fmt.Fprintf(cmd.OutOrStdout(), "Started at: %s\n", entry.StartTime.Format("15:04:05"))
			return nil
		}
		return tui.RunTimerTUI(cmd.Context(), pulse.Ledger, entry, task, cmd.OutOrStdout())
	},
}

// activeTask picks the task named in args, or the one being tracked
func activeTask(cmd *cobra.Command, args []string) (string, string, error) {
	if len(args) == 1 {
		task, err := resolveTask(cmd, args[0])
		if err != nil {
			return "", "", err
		}
		return task.ID, task.Title, nil
	}

	entry, ok := pulse.Ledger.Active(cmd.Context())
	if !ok {
		return "", "", tracking.ErrNoActiveSession
	}
	title := "(deleted task)"
	if task, err := pulse.Tasks.Get(cmd.Context(), entry.TaskID); err == nil {
		title = task.Title
	}
	return entry.TaskID, title, nil
}

var stopCmd = &cobra.Command{
	Use:   "stop [task-id]",
	Short: "Stop tracking time",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		taskID, title, err := activeTask(cmd, args)
		if err != nil {
			return err
		}
		entry, err := pulse.Ledger.Stop(cmd.Context(), taskID)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "⏹️  Stopped tracking time for %s: %s\n", models.ShortID(taskID), title)
		fmt.Fprintf(cmd.OutOrStdout(), "Session duration: %s\n", formatMinutes(entry.Minutes()))
		return nil
	},
}

var pauseCmd = &cobra.Command{
	Use:   "pause [task-id]",
	Short: "Pause tracking; resume later with 'pulse resume'",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		taskID, title, err := activeTask(cmd, args)
		if err != nil {
			return err
		}
		entry, err := pulse.Ledger.Pause(cmd.Context(), taskID)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "⏸️  Paused %s: %s after %s\n", models.ShortID(taskID), title, formatMinutes(entry.Minutes()))
		return nil
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume [task-id]",
	Short: "Resume a paused task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		task, err := resolveTask(cmd, args[0])
		if err != nil {
			return err
		}
		entry, err := pulse.Ledger.Resume(cmd.Context(), task.ID)
		if err != nil {
			return err
		}

		if noUI, _ := cmd.Flags().GetBool("no-ui"); noUI {
			fmt.Fprintf(cmd.OutOrStdout(), "▶️  Resumed %s: %s\n", models.ShortID(task.ID), task.Title)
			return nil
		}
		return tui.RunTimerTUI(cmd.Context(), pulse.Ledger, entry, task, cmd.OutOrStdout())
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current time tracking status",
	RunE: func(cmd *cobra.Command, args []string) error {
		entry, ok := pulse.Ledger.Active(cmd.Context())
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "No active time tracking session")
			return nil
		}
		elapsed, _ := pulse.Ledger.Elapsed(cmd.Context())

		title := "(deleted task)"
		logged := 0
		if task, err := pulse.Tasks.Get(cmd.Context(), entry.TaskID); err == nil {
			title = task.Title
			logged = task.ActualDuration
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "⏱️  Currently tracking %s: %s\n", models.ShortID(entry.TaskID), title)
		fmt.Fprintf(out, "Started at: %s\n", entry.StartTime.Format("15:04:05"))
		fmt.Fprintf(out, "Elapsed time: %s\n", formatDuration(elapsed))
		if logged > 0 {
			fmt.Fprintf(out, "Logged before: %s\n", formatMinutes(logged))
		}
		return nil
	},
}

func init() {
	startCmd.Flags().Bool("no-ui", false, "Start timer without interactive UI")
	startCmd.Flags().String("notes", "", "Notes for the session")
	resumeCmd.Flags().Bool("no-ui", false, "Resume without interactive UI")
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d.Hours() >= 1 {
		return fmt.Sprintf("%.1fh", d.Hours())
	} else if d.Minutes() >= 1 {
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
	return fmt.Sprintf("%.0fs", d.Seconds())
}

// formatMinutes formats whole minutes as 1h05m or 45m
func formatMinutes(minutes int) string {
	if minutes >= 60 {
		return fmt.Sprintf("%dh%02dm", minutes/60, minutes%60)
	}
	return fmt.Sprintf("%dm", minutes)
}

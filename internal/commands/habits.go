package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/balkashynov/pulse/internal/habits"
	"github.com/balkashynov/pulse/internal/models"
)

var habitCmd = &cobra.Command{
	Use:   "habit",
	Short: "Track daily habits",
}

var habitAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a habit",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, _ := cmd.Flags().GetString("category")
		target, _ := cmd.Flags().GetInt("target")

		h, err := pulse.Habits.Create(cmd.Context(), strings.Join(args, " "), category, target)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "🌱 Created habit %s: %s (target %d)\n", models.ShortID(h.ID), h.Name, h.Target)
		return nil
	},
}

var habitLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List habits with today's state",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := pulse.Habits.Refresh(cmd.Context()); err != nil {
			return err
		}
		all, err := pulse.Habits.List(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(all) == 0 {
			fmt.Fprintln(out, "No habits yet. Use 'pulse habit add <name>' to create one.")
			return nil
		}

		fmt.Fprintf(out, "%-8s %-5s %-24s %-12s %-8s %s\n", "ID", "TODAY", "NAME", "CATEGORY", "STREAK", "BEST")
		fmt.Fprintln(out, strings.Repeat("-", 70))
		for _, h := range all {
			mark := "[ ]"
			if h.CompletedToday {
				mark = "[x]"
			}
			fmt.Fprintf(out, "%-8s %-5s %-24s %-12s %-8d %d\n",
				models.ShortID(h.ID), mark, h.Name, h.Category, h.Streak, h.LongestStreak)
		}

		rate, err := pulse.Habits.CompletionRate(cmd.Context(), habits.PeriodDay)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nToday: %d%% complete\n", rate)
		return nil
	},
}

var habitToggleCmd = &cobra.Command{
	Use:   "toggle <habit>",
	Short: "Mark or unmark a habit for today",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := resolveHabit(cmd, strings.Join(args, " "))
		if err != nil {
			return err
		}
		h, err = pulse.Habits.ToggleToday(cmd.Context(), h.ID)
		if err != nil {
			return err
		}
		if h.CompletedToday {
			fmt.Fprintf(cmd.OutOrStdout(), "✅ %s done today (streak %d, best %d)\n", h.Name, h.Streak, h.LongestStreak)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "↩️  %s unmarked for today\n", h.Name)
		}
		return nil
	},
}

var habitRateCmd = &cobra.Command{
	Use:   "rate",
	Short: "Show the habit completion rate",
	RunE: func(cmd *cobra.Command, args []string) error {
		period, _ := cmd.Flags().GetString("period")
		rate, err := pulse.Habits.CompletionRate(cmd.Context(), habits.Period(period))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Habit completion (%s): %d%%\n", period, rate)
		return nil
	},
}

var checkinCmd = &cobra.Command{
	Use:   "checkin",
	Short: "Record a daily wellness checkin",
	Long: `Record mood and energy (1-5) and hours slept (0-12).

If the day has no productivity record yet, the checkin also provides a
sample for the habit correlation.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		var c models.WellnessCheckin
		c.Mood, _ = flags.GetInt("mood")
		c.Energy, _ = flags.GetInt("energy")
		c.SleepHours, _ = flags.GetFloat64("sleep")
		c.Date, _ = flags.GetString("date")
		overwrite, _ := flags.GetBool("overwrite")

		saved, err := pulse.Habits.AddCheckin(cmd.Context(), c, overwrite)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "📝 Checkin for %s: mood %d, energy %d, sleep %.1fh (score %d)\n",
			saved.Date, saved.Mood, saved.Energy, saved.SleepHours, habits.CheckinScore(*saved))
		return nil
	},
}

func init() {
	habitAddCmd.Flags().StringP("category", "c", "general", "Category")
	habitAddCmd.Flags().Int("target", 1, "Times per day")
	habitRateCmd.Flags().String("period", string(habits.PeriodDay), "Period: day, week, month")
	habitCmd.AddCommand(habitAddCmd, habitLsCmd, habitToggleCmd, habitRateCmd)

	checkinCmd.Flags().Int("mood", 0, "Mood 1-5")
	checkinCmd.Flags().Int("energy", 0, "Energy 1-5")
	checkinCmd.Flags().Float64("sleep", 0, "Hours slept 0-12")
	checkinCmd.Flags().String("date", "", "Day as YYYY-MM-DD (default today)")
	checkinCmd.Flags().Bool("overwrite", false, "Replace an existing checkin for the day")
	checkinCmd.MarkFlagRequired("mood")
	checkinCmd.MarkFlagRequired("energy")
}

package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/balkashynov/pulse/internal/models"
	"github.com/balkashynov/pulse/internal/productivity"
	"github.com/balkashynov/pulse/internal/server"
	"github.com/balkashynov/pulse/internal/tui"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Record calendar events",
}

var eventAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a calendar event",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		at := pulse.Now()
		if raw, _ := cmd.Flags().GetString("at"); raw != "" {
			parsed, err := time.ParseInLocation("2006-01-02 15:04", raw, at.Location())
			if err != nil {
				return fmt.Errorf("invalid --at %q, use YYYY-MM-DD HH:MM", raw)
			}
			at = parsed
		}

		ev, err := pulse.Events.CreateEvent(cmd.Context(), strings.Join(args, " "), at)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "📅 Added event #%d: %s at %s\n", ev.ID, ev.Title, ev.StartsAt.In(at.Location()).Format("2006-01-02 15:04"))
		return nil
	},
}

var eventLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List events of a day",
	RunE: func(cmd *cobra.Command, args []string) error {
		day, err := dayFlag(cmd)
		if err != nil {
			return err
		}
		events, err := pulse.Events.EventsOnDate(cmd.Context(), day)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintf(out, "No events on %s.\n", models.DayKey(day))
			return nil
		}
		for _, ev := range events {
			fmt.Fprintf(out, "%s  %s\n", ev.StartsAt.In(day.Location()).Format("15:04"), ev.Title)
		}
		return nil
	},
}

// dayFlag reads --date, defaulting to today
func dayFlag(cmd *cobra.Command) (time.Time, error) {
	now := pulse.Now()
	raw, _ := cmd.Flags().GetString("date")
	if raw == "" {
		return now, nil
	}
	return models.ParseDay(raw, now.Location())
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Compute and record the daily productivity score",
	Long: `Compute the productivity score for a day and append it to the log.

Each day is recorded once; running it again shows the stored record.
Use --dry-run to compute without recording, or --history to list past days.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		jsonOutput, _ := cmd.Flags().GetBool("json")

		if history, _ := cmd.Flags().GetBool("history"); history {
			points := pulse.Points.Points(ctx)
			if jsonOutput {
				return writeJSON(out, points)
			}
			if len(points) == 0 {
				fmt.Fprintln(out, "No productivity records yet. Run 'pulse score' at the end of a day.")
				return nil
			}
			fmt.Fprintf(out, "%-10s  %5s  %5s  %5s  %6s  %6s\n", "DATE", "SCORE", "TASKS", "FOCUS", "HABITS", "EVENTS")
			for _, p := range points {
				fmt.Fprintf(out, "%-10s  %5d  %5d  %5s  %5d%%  %6d\n",
					p.Date, p.ProductivityScore, p.TasksCompleted, formatMinutes(p.FocusMinutes), p.HabitsScore, p.EventsCount)
			}
			return nil
		}

		day, err := dayFlag(cmd)
		if err != nil {
			return err
		}

		var point models.ProductivityDataPoint
		if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
			point, err = pulse.Aggregator.Compute(ctx, day)
		} else {
			point, err = pulse.Aggregator.Run(ctx, day)
			if errors.Is(err, productivity.ErrPointExists) {
				stored, _ := pulse.Points.Get(ctx, models.DayKey(day))
				point, err = stored, nil
				if !jsonOutput {
					fmt.Fprintf(out, "Already recorded %s:\n", stored.Date)
				}
			}
		}
		if err != nil {
			return err
		}

		if jsonOutput {
			return writeJSON(out, point)
		}
		fmt.Fprintln(out, tui.RenderScore(point))
		return nil
	},
}

var correlationCmd = &cobra.Command{
	Use:   "correlation",
	Short: "Correlate habit completion with productivity",
	RunE: func(cmd *cobra.Command, args []string) error {
		days, _ := cmd.Flags().GetInt("days")
		if days == 0 {
			days = pulse.Config.Correlation.WindowDays
		}

		summary, err := pulse.Correlation.Correlate(cmd.Context(), days)
		if err != nil {
			return err
		}
		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			return writeJSON(cmd.OutOrStdout(), summary)
		}
		fmt.Fprintln(cmd.OutOrStdout(), tui.RenderCorrelation(summary))
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = pulse.Config.Server.Addr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		fmt.Fprintf(cmd.OutOrStdout(), "🚀 Serving pulse API on %s\n", addr)
		return server.New(pulse).ListenAndServe(ctx, addr)
	},
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	eventAddCmd.Flags().String("at", "", "Start as 'YYYY-MM-DD HH:MM' (default now)")
	eventLsCmd.Flags().String("date", "", "Day as YYYY-MM-DD (default today)")
	eventCmd.AddCommand(eventAddCmd, eventLsCmd)

	scoreCmd.Flags().String("date", "", "Day as YYYY-MM-DD (default today)")
	scoreCmd.Flags().Bool("dry-run", false, "Compute without recording")
	scoreCmd.Flags().Bool("history", false, "List recorded days, newest first")
	scoreCmd.Flags().Bool("json", false, "Output as JSON")

	correlationCmd.Flags().Int("days", 0, "Trailing window in days (default from config)")
	correlationCmd.Flags().Bool("json", false, "Output as JSON")

	serveCmd.Flags().String("addr", "", "Listen address (default from config)")
}

package commands

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/balkashynov/pulse/internal/models"
)

var timesheetCmd = &cobra.Command{
	Use:   "timesheet",
	Short: "Show a weekly timesheet of tracked time",
	Long: `Show a weekly timesheet of tracked time grouped by task and day.

Hours are rounded up per task and day. Weekdays are always shown,
weekend days only when something was tracked.

Example output:
  Task                    Mon  Tue  Wed  Thu  Fri    Total
  1a2b3c4d Fix login bug    2    3    1    -    -        6
  5e6f7a8b Add feature      -    1    2    4    1        8
  Total                     2    4    3    4    1       14`,
	RunE: func(cmd *cobra.Command, args []string) error {
		weeksAgo, _ := cmd.Flags().GetInt("weeks-ago")
		weekStart := getWeekStart(pulse.Now()).AddDate(0, 0, -7*weeksAgo)
		entries := pulse.Ledger.EntriesBetween(cmd.Context(), weekStart, weekStart.AddDate(0, 0, 7))

		if len(entries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No time tracked this week.")
			return nil
		}

		titles := make(map[string]string)
		for _, e := range entries {
			if _, ok := titles[e.TaskID]; ok {
				continue
			}
			titles[e.TaskID] = "(deleted)"
			if t, err := pulse.Tasks.Get(cmd.Context(), e.TaskID); err == nil {
				titles[e.TaskID] = t.Title
			}
		}

		writeTimesheet(cmd.OutOrStdout(), buildTimesheet(entries, titles), weekStart)
		return nil
	},
}

// timesheet holds tracked hours per task row and weekday
type timesheet struct {
	rows       []string
	hours      map[string]map[time.Weekday]float64
	activeDays map[time.Weekday]bool
}

// getWeekStart returns the start of the calendar week (Monday) for the given time
func getWeekStart(t time.Time) time.Time {
	daysFromMonday := (int(t.Weekday()) + 6) % 7
	return models.StartOfDay(t.AddDate(0, 0, -daysFromMonday))
}

func buildTimesheet(entries []models.TimeEntry, titles map[string]string) timesheet {
	ts := timesheet{
		hours:      make(map[string]map[time.Weekday]float64),
		activeDays: make(map[time.Weekday]bool),
	}
	for _, e := range entries {
		if e.EndTime == nil {
			continue
		}
		key := models.ShortID(e.TaskID) + " " + titles[e.TaskID]
		if ts.hours[key] == nil {
			ts.hours[key] = make(map[time.Weekday]float64)
			ts.rows = append(ts.rows, key)
		}
		day := e.StartTime.Weekday()
		ts.hours[key][day] += e.EndTime.Sub(e.StartTime).Hours()
		ts.activeDays[day] = true
	}
	sort.Strings(ts.rows)
	return ts
}

// writeTimesheet outputs the formatted timesheet table
func writeTimesheet(w io.Writer, ts timesheet, weekStart time.Time) {
	dayNames := []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
	weekdays := []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday}

	var daysToShow []int
	for i, weekday := range weekdays {
		if i < 5 || ts.activeDays[weekday] {
			daysToShow = append(daysToShow, i)
		}
	}

	nameWidth := 20
	for _, row := range ts.rows {
		nameWidth = max(nameWidth, len(row))
	}
	nameWidth = min(nameWidth, 40)

	const dayWidth, totalWidth = 3, 5

	separator := func() {
		fmt.Fprint(w, strings.Repeat("-", nameWidth))
		for range daysToShow {
			fmt.Fprint(w, "  "+strings.Repeat("-", dayWidth))
		}
		fmt.Fprintln(w, "  "+strings.Repeat("-", totalWidth))
	}

	fmt.Fprintf(w, "%-*s", nameWidth, "Task")
	for _, i := range daysToShow {
		fmt.Fprintf(w, "  %*s", dayWidth, dayNames[i])
	}
	fmt.Fprintf(w, "  %*s\n", totalWidth, "Total")
	separator()

	dayTotals := make(map[time.Weekday]int)
	grandTotal := 0
	for _, row := range ts.rows {
		name := row
		if len(name) > nameWidth {
			name = name[:nameWidth-3] + "..."
		}
		fmt.Fprintf(w, "%-*s", nameWidth, name)

		rowTotal := 0
		for _, i := range daysToShow {
			hours := ts.hours[row][weekdays[i]]
			if hours <= 0 {
				fmt.Fprintf(w, "  %*s", dayWidth, "-")
				continue
			}
			rounded := int(math.Ceil(hours))
			fmt.Fprintf(w, "  %*d", dayWidth, rounded)
			dayTotals[weekdays[i]] += rounded
			rowTotal += rounded
		}
		fmt.Fprintf(w, "  %*d\n", totalWidth, rowTotal)
		grandTotal += rowTotal
	}
	separator()

	fmt.Fprintf(w, "%-*s", nameWidth, "Total")
	for _, i := range daysToShow {
		fmt.Fprintf(w, "  %*d", dayWidth, dayTotals[weekdays[i]])
	}
	fmt.Fprintf(w, "  %*d\n", totalWidth, grandTotal)

	fmt.Fprintf(w, "\nWeek of %s to %s\n",
		weekStart.Format("Jan 2"),
		weekStart.AddDate(0, 0, 6).Format("Jan 2, 2006"))
}

func init() {
	timesheetCmd.Flags().Int("weeks-ago", 0, "Show an earlier week (1 = last week)")
}

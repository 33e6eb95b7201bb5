package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/balkashynov/pulse/internal/correlation"
	"github.com/balkashynov/pulse/internal/models"
	"github.com/balkashynov/pulse/internal/parser"
)

var logoLines = []string{
	"█▀█ █ █ █   █▀ █▀▀",
	"█▀▀ █▄█ █▄▄ ▄█ ██▄",
}

var (
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondaryText))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDisabledText))
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(ColorBorder)).
			Padding(0, 1)
)

func colored(color, s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(s)
}

func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 3 || len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}

// formatMinutes renders whole minutes as 1h05m or 45m
func formatMinutes(minutes int) string {
	if minutes >= 60 {
		return fmt.Sprintf("%dh%02dm", minutes/60, minutes%60)
	}
	return fmt.Sprintf("%dm", minutes)
}

func statusBadge(t *models.Task) (icon, color string) {
	switch {
	case t.Completed:
		return "✅", ColorSuccess
	case t.Status == models.StatusInProgress:
		return "▶", ColorAccentBright
	case t.Status == models.StatusCancelled:
		return "▪", ColorDisabledText
	}
	return "○", ColorSecondaryText
}

func priorityColor(p models.Priority) string {
	switch p {
	case models.PriorityUrgent:
		return ColorPriorityUrgent
	case models.PriorityHigh:
		return ColorPriorityHigh
	case models.PriorityMedium:
		return ColorPriorityMedium
	}
	return ColorPriorityLow
}

// detailLines describes a task, one attribute per line
func detailLines(t *models.Task, now time.Time) []string {
	icon, color := statusBadge(t)
	lines := []string{
		fmt.Sprintf("%s Status: %s", icon, lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Bold(true).Render(string(t.Status))),
		"Priority: " + colored(priorityColor(t.Priority), string(t.Priority)),
	}

	tags := mutedStyle.Render("none")
	if len(t.Tags) > 0 {
		tags = colored(ColorAccentBright, "#"+strings.Join(t.Tags, " #"))
	}
	lines = append(lines, "Tags: "+tags)

	due := mutedStyle.Render("none")
	if t.Due != nil {
		due = colored(ColorWarning, parser.FormatDueDateAt(t.Due, now))
	}
	lines = append(lines, "Due: "+due)

	gating := 0
	for _, d := range t.Dependencies {
		if d.Type.Gating() {
			gating++
		}
	}
	if len(t.Dependencies) > 0 {
		lines = append(lines, fmt.Sprintf("Depends on: %d (%d gating)", len(t.Dependencies), gating))
	}

	if len(t.Subtasks) > 0 {
		done := 0
		for _, st := range t.Subtasks {
			if st.Completed {
				done++
			}
		}
		lines = append(lines, fmt.Sprintf("Subtasks: %d/%d", done, len(t.Subtasks)))
	}

	logged := formatMinutes(t.ActualDuration)
	if t.EstimatedDuration != nil {
		logged += " of " + formatMinutes(*t.EstimatedDuration) + " estimated"
	}
	lines = append(lines, "Logged: "+logged)
	lines = append(lines, labelStyle.Render("Created: "+t.CreatedAt.Format("Jan 02, 2006")))
	return lines
}

// RenderTask renders a task card with its details
func RenderTask(t *models.Task, now time.Time) string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ColorPrimaryText)).
		Render(t.Title)
	id := colored(ColorAccentMain, models.ShortID(t.ID))
	body := append([]string{id + "  " + title, ""}, detailLines(t, now)...)
	if t.Description != "" {
		body = append(body, "", lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color(ColorSecondaryText)).Render(t.Description))
	}
	return boxStyle.Render(strings.Join(body, "\n"))
}

func scoreColor(score int) string {
	switch {
	case score >= 70:
		return ColorScoreHigh
	case score >= 40:
		return ColorScoreMid
	}
	return ColorScoreLow
}

// bar renders value out of 100 as a fixed width gauge
func bar(value, width int) string {
	filled := min(width, max(0, value*width/100))
	return strings.Repeat("█", filled) + mutedStyle.Render(strings.Repeat("░", width-filled))
}

// RenderScore renders one day's productivity record
func RenderScore(p models.ProductivityDataPoint) string {
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ColorAccentBright)).
		Render("Productivity · " + p.Date)
	score := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(scoreColor(p.ProductivityScore))).
		Render(fmt.Sprintf("%3d", p.ProductivityScore))

	lines := []string{
		header,
		"",
		score + " " + colored(scoreColor(p.ProductivityScore), bar(p.ProductivityScore, 30)),
		"",
		labelStyle.Render("Tasks completed: ") + fmt.Sprint(p.TasksCompleted),
		labelStyle.Render("Focus:           ") + formatMinutes(p.FocusMinutes),
		labelStyle.Render("Habits:          ") + fmt.Sprintf("%d%%", p.HabitsScore),
		labelStyle.Render("Events:          ") + fmt.Sprint(p.EventsCount),
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

// RenderCorrelation renders a correlation summary with its daily series
func RenderCorrelation(s correlation.Summary) string {
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ColorAccentBright)).
		Render(fmt.Sprintf("Habits vs productivity · last %d days", s.Days))

	color := ColorSecondaryText
	switch s.Direction {
	case correlation.DirectionPositive:
		color = ColorSuccess
	case correlation.DirectionNegative:
		color = ColorError
	}

	lines := []string{
		header,
		"",
		fmt.Sprintf("r = %s  %s", colored(color, fmt.Sprintf("%.2f", s.Coefficient)),
			labelStyle.Render(fmt.Sprintf("%s %s", s.Strength, s.Direction))),
	}

	if len(s.Series) < 2 {
		lines = append(lines, "", mutedStyle.Render("Not enough data yet. Record a few more days."))
		return boxStyle.Render(strings.Join(lines, "\n"))
	}

	lines = append(lines, "", labelStyle.Render("date        habits              productivity"))
	for _, p := range s.Series {
		lines = append(lines, fmt.Sprintf("%s  %3d %s  %3d %s",
			p.Date, p.Habits, bar(p.Habits, 12), p.Productivity, bar(p.Productivity, 12)))
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

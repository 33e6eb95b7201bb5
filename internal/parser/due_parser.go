package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/balkashynov/pulse/internal/models"
)

var (
	dateRegex     = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	relativeRegex = regexp.MustCompile(`^(\d+)\s*(h|hour|hours|d|day|days|w|week|weeks)$`)
)

// ParseDueDate parses various due date formats
// Supported formats:
// - dd/mm/yyyy (e.g., "15/12/2025")
// - yyyy-mm-dd (e.g., "2025-12-15")
// - today, tomorrow
// - X days (e.g., "3 days", "3days", "3d")
// - X hours (e.g., "24 hours", "24h")
// - X weeks (e.g., "2 weeks", "2w")
func ParseDueDate(input string) (*time.Time, error) {
	return ParseDueDateAt(input, time.Now())
}

// ParseDueDateAt is ParseDueDate with relative formats resolved against now
func ParseDueDateAt(input string, now time.Time) (*time.Time, error) {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return nil, nil
	}

	switch input {
	case "today":
		return endOfDay(now, 0), nil
	case "tomorrow":
		return endOfDay(now, 1), nil
	}

	if d, err := models.ParseDay(input, now.Location()); err == nil {
		return endOfDay(d, 0), nil
	}

	// Try dd/mm/yyyy format
	if dueDate, err := parseDateFormat(input, now.Location()); err == nil {
		return dueDate, nil
	}

	// Try relative time formats
	if dueDate, err := parseRelativeTime(input, now); err == nil {
		return dueDate, nil
	}

	return nil, fmt.Errorf("invalid date format. Use: dd/mm/yyyy, yyyy-mm-dd, today, tomorrow, X days, X hours, or X weeks")
}

// endOfDay returns 23:59:59 of the day offset days after t
func endOfDay(t time.Time, days int) *time.Time {
	d := models.StartOfDay(t).AddDate(0, 0, days).Add(23*time.Hour + 59*time.Minute + 59*time.Second)
	return &d
}

// parseDateFormat parses dd/mm/yyyy format
func parseDateFormat(input string, loc *time.Location) (*time.Time, error) {
	matches := dateRegex.FindStringSubmatch(input)
	if len(matches) != 4 {
		return nil, fmt.Errorf("invalid date format")
	}

	day, _ := strconv.Atoi(matches[1])
	month, _ := strconv.Atoi(matches[2])
	year, _ := strconv.Atoi(matches[3])

	// Validate date ranges
	if day < 1 || day > 31 {
		return nil, fmt.Errorf("day must be between 1 and 31")
	}
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("month must be between 1 and 12")
	}
	if year < 2000 || year > 2100 {
		return nil, fmt.Errorf("year must be between 2000 and 2100")
	}

	dueDate := time.Date(year, time.Month(month), day, 23, 59, 59, 0, loc)

	// Check if date is valid (handles leap years, etc.)
	if dueDate.Day() != day || dueDate.Month() != time.Month(month) {
		return nil, fmt.Errorf("invalid date")
	}

	return &dueDate, nil
}

// parseRelativeTime parses relative time formats like "3 days", "24h", etc.
func parseRelativeTime(input string, now time.Time) (*time.Time, error) {
	matches := relativeRegex.FindStringSubmatch(input)
	if len(matches) != 3 {
		return nil, fmt.Errorf("invalid relative time format")
	}

	amount, err := strconv.Atoi(matches[1])
	if err != nil {
		return nil, fmt.Errorf("invalid number")
	}

	switch matches[2] {
	case "h", "hour", "hours":
		if amount < 1 || amount > 8760 { // Max 1 year in hours
			return nil, fmt.Errorf("hours must be between 1 and 8760")
		}
		dueDate := now.Add(time.Duration(amount) * time.Hour)
		return &dueDate, nil

	case "d", "day", "days":
		if amount < 1 || amount > 365 {
			return nil, fmt.Errorf("days must be between 1 and 365")
		}
		return endOfDay(now, amount), nil

	case "w", "week", "weeks":
		if amount < 1 || amount > 52 {
			return nil, fmt.Errorf("weeks must be between 1 and 52")
		}
		return endOfDay(now, amount*7), nil
	}
	return nil, fmt.Errorf("unsupported time unit")
}

// FormatDueDate formats a due date for display
func FormatDueDate(dueDate *time.Time) string {
	return FormatDueDateAt(dueDate, time.Now())
}

// FormatDueDateAt formats a due date relative to now
func FormatDueDateAt(dueDate *time.Time, now time.Time) string {
	if dueDate == nil {
		return ""
	}

	// Calculate calendar days difference
	today := models.StartOfDay(now)
	dueDay := models.StartOfDay(dueDate.In(now.Location()))
	daysDiff := int(dueDay.Sub(today).Hours() / 24)

	// Always show the actual date to avoid confusion
	dateStr := dueDate.Format("02/01/2006")

	switch {
	case daysDiff < 0:
		return fmt.Sprintf("⚠️ OVERDUE (%s)", dateStr)
	case daysDiff == 0:
		return fmt.Sprintf("🔥 Due today (%s)", dateStr)
	case daysDiff == 1:
		return fmt.Sprintf("📅 Due tomorrow (%s)", dateStr)
	case daysDiff <= 7:
		return fmt.Sprintf("📅 Due %s (in %d days)", dateStr, daysDiff)
	}
	return fmt.Sprintf("📅 Due %s", dateStr)
}

package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/balkashynov/pulse/internal/models"
)

// ParsedTask represents a task parsed from natural language
type ParsedTask struct {
	Title    string
	Tags     []string
	Priority models.Priority
	DueDate  *time.Time
	// After holds task references the new task should be blocked by
	After  []string
	Errors []string
}

var (
	tagRegex      = regexp.MustCompile(`#([a-zA-Z0-9_,-]+)`)
	priorityRegex = regexp.MustCompile(`(?:^|\s)\+([a-zA-Z0-9]+)`)
	dueRegex      = regexp.MustCompile(`due:([^\s]+)`)
	afterRegex    = regexp.MustCompile(`after:([a-zA-Z0-9_,-]+)`)
)

// ParseTitle extracts metadata from a task title using natural syntax
// Syntax: "Task title #tag1,tag2 +priority due:3days after:1a2b3c"
func ParseTitle(input string) ParsedTask {
	return ParseTitleAt(input, time.Now())
}

// ParseTitleAt is ParseTitle with relative due dates resolved against now
func ParseTitleAt(input string, now time.Time) ParsedTask {
	result := ParsedTask{
		Title:  input,
		Tags:   []string{},
		After:  []string{},
		Errors: []string{},
	}

	// Extract tags (#tag1,tag2 or #tag1 #tag2)
	for _, match := range tagRegex.FindAllStringSubmatch(input, -1) {
		result.Tags = append(result.Tags, splitList(match[1])...)
	}
	input = tagRegex.ReplaceAllString(input, "")

	// Extract prerequisites (after:ref1,ref2)
	for _, match := range afterRegex.FindAllStringSubmatch(input, -1) {
		result.After = append(result.After, splitList(match[1])...)
	}
	input = afterRegex.ReplaceAllString(input, "")

	// Extract priority (+high, +4, +urgent, etc.)
	if m := priorityRegex.FindStringSubmatch(input); len(m) > 1 {
		if p, ok := NormalizePriority(m[1]); ok {
			result.Priority = p
		} else {
			result.Errors = append(result.Errors, "Invalid priority '"+m[1]+"'. Use: low, medium, high, urgent or 1-4")
		}
		input = priorityRegex.ReplaceAllString(input, " ")
	}

	// Extract due date (due:3days, due:15/12/2025, due:2025-12-15)
	if m := dueRegex.FindStringSubmatch(input); len(m) > 1 {
		dueDate, err := ParseDueDateAt(m[1], now)
		if err != nil {
			result.Errors = append(result.Errors, "Invalid due date '"+m[1]+"': "+err.Error())
		} else {
			result.DueDate = dueDate
		}
		input = dueRegex.ReplaceAllString(input, "")
	}

	// Clean up the title (remove extra spaces)
	result.Title = strings.Join(strings.Fields(input), " ")
	if result.Title == "" {
		result.Errors = append(result.Errors, "Title is empty after removing metadata")
	}

	return result
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// NormalizePriority converts a priority word or number to its canonical form
func NormalizePriority(priority string) (models.Priority, bool) {
	switch strings.ToLower(strings.TrimSpace(priority)) {
	case "1", "low":
		return models.PriorityLow, true
	case "2", "medium", "med":
		return models.PriorityMedium, true
	case "3", "high":
		return models.PriorityHigh, true
	case "4", "urgent":
		return models.PriorityUrgent, true
	}
	return "", false
}

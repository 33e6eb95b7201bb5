package models

import (
	"time"
)

// Priority of a task
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether p is one of the known priorities
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Status of a task
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Valid reports whether s is one of the known statuses
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Task represents a todo item
type Task struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Title             string     `json:"title"`
	Description       string     `json:"description,omitempty"`
	Completed         bool       `json:"completed"`
	Priority          Priority   `json:"priority"`
	Status            Status     `json:"status"`
	Tags              []string   `json:"tags"`
	Due               *time.Time `json:"due,omitempty"`
	EstimatedDuration *int       `json:"estimated_duration,omitempty"` // minutes
	ActualDuration    int        `json:"actual_duration"`              // minutes, sum of closed time entries
	CompletedAt       *time.Time `json:"completed_at,omitempty"`

	// Relationships
	Subtasks     []Subtask    `json:"subtasks"`
	Dependencies []Dependency `json:"dependencies"`
}

// Subtask is a checklist item nested in a task
type Subtask struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// Template is a reusable bundle used to create tasks
type Template struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description,omitempty" yaml:"description"`
	Priority    Priority `json:"priority" yaml:"priority"`
	Tags        []string `json:"tags" yaml:"tags"`
	Subtasks    []string `json:"subtasks" yaml:"subtasks"`
}

// ShortID returns the display prefix of an id
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

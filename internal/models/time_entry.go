package models

import (
	"time"
)

// TimeEntry represents a time tracking session on a task
type TimeEntry struct {
	ID        string     `json:"id"`
	TaskID    string     `json:"task_id"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Duration  *int       `json:"duration,omitempty"` // minutes, set on close
	Notes     string     `json:"notes,omitempty"`
	IsActive  bool       `json:"is_active"`
	Paused    bool       `json:"paused,omitempty"` // closed by pause, eligible for resume
}

// Minutes returns the closed duration or 0 while the entry is still open
func (e TimeEntry) Minutes() int {
	if e.Duration == nil {
		return 0
	}
	return *e.Duration
}

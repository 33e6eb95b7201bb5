package models

import "time"

// ProductivityDataPoint is one day's aggregated productivity record.
// Immutable once appended to the log.
type ProductivityDataPoint struct {
	Date              string `json:"date"` // YYYY-MM-DD
	TasksCompleted    int    `json:"tasks_completed"`
	FocusMinutes      int    `json:"focus_minutes"`
	HabitsScore       int    `json:"habits_score"`
	EventsCount       int    `json:"events_count"`
	ProductivityScore int    `json:"productivity_score"`
}

// FocusSession is a closed focus/tracking session as seen by the aggregator
type FocusSession struct {
	StartTime       time.Time `json:"start_time"`
	DurationSeconds int       `json:"duration_seconds"`
}

// WearableSample is one day of wearable data
type WearableSample struct {
	Steps      int     `json:"steps"`
	SleepHours float64 `json:"sleep_hours"`
}

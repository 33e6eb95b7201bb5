package models

import "time"

// Habit is a recurring daily practice
type Habit struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Category       string    `json:"category"`
	Target         int       `json:"target"`
	Current        int       `json:"current"`
	Streak         int       `json:"streak"`
	LongestStreak  int       `json:"longest_streak"`
	CompletedToday bool      `json:"completed_today"`
	CompletedDates []string  `json:"completed_dates"` // YYYY-MM-DD
	CreatedAt      time.Time `json:"created_at"`
}

// WellnessCheckin is a daily self-report
type WellnessCheckin struct {
	ID         string  `json:"id"`
	Date       string  `json:"date"`   // YYYY-MM-DD
	Mood       int     `json:"mood"`   // 1-5
	Energy     int     `json:"energy"` // 1-5
	SleepHours float64 `json:"sleep_hours"`
}

// CorrelationSample pairs a day's habit score with a productivity score
// synthesized from a wellness checkin.
type CorrelationSample struct {
	Date              string `json:"date"`
	HabitScore        int    `json:"habit_score"`
	ProductivityScore int    `json:"productivity_score"`
}

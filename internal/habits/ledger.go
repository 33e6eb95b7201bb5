package habits

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/balkashynov/pulse/internal/db"
	"github.com/balkashynov/pulse/internal/models"
)

// StateKey is the KV key the habit ledger persists under
const StateKey = "habits"

var (
	ErrHabitNotFound  = errors.New("habit not found")
	ErrInvalidCheckin = errors.New("invalid checkin")
	ErrInvalidPeriod  = errors.New("invalid period")
	ErrEmptyName      = errors.New("habit name must not be empty")
)

// Period selects the habit set a completion rate is computed over
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// window returns the trailing creation window for p
func (p Period) window() (time.Duration, error) {
	switch p {
	case PeriodDay:
		return 0, nil
	case PeriodWeek:
		return 7 * 24 * time.Hour, nil
	case PeriodMonth:
		return 30 * 24 * time.Hour, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidPeriod, p)
}

// PointLookup reports whether an aggregated productivity point exists for
// a day. The productivity log satisfies it.
type PointLookup interface {
	Has(ctx context.Context, date string) bool
}

type state struct {
	Habits   map[string]*models.Habit   `json:"habits"`
	Checkins []models.WellnessCheckin   `json:"checkins"`
	Samples  []models.CorrelationSample `json:"samples"`
}

// Ledger owns habits, wellness checkins and the correlation samples
// synthesized from checkins
type Ledger struct {
	mu     sync.RWMutex
	st     state
	doc    db.Document[state]
	points PointLookup
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Ledger
type Option func(*Ledger)

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(lg *Ledger) {
		if l != nil {
			lg.logger = l
		}
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(lg *Ledger) {
		if now != nil {
			lg.now = now
		}
	}
}

// WithPointLookup lets checkins skip synthesis for days that already have
// an aggregated productivity point
func WithPointLookup(p PointLookup) Option {
	return func(lg *Ledger) {
		lg.points = p
	}
}

// New loads the ledger from kv. A nil kv keeps everything in memory.
func New(ctx context.Context, kv db.KV, opts ...Option) (*Ledger, error) {
	l := &Ledger{
		doc:    db.NewDocument[state](kv, StateKey),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}

	st, _, err := l.doc.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading habits: %w", err)
	}
	l.st = normalize(st)
	return l, nil
}

func normalize(st state) state {
	if st.Habits == nil {
		st.Habits = make(map[string]*models.Habit)
	}
	return st
}

// apply mutates a copy of the state and swaps it in once persisted.
// Callers hold l.mu.
func (l *Ledger) apply(ctx context.Context, fn func(st *state) error) error {
	next, err := db.Clone(l.st)
	if err != nil {
		return fmt.Errorf("copying habit state: %w", err)
	}
	next = normalize(next)

	if err := fn(&next); err != nil {
		return err
	}
	if err := l.doc.Save(ctx, next); err != nil {
		return fmt.Errorf("persisting habits: %w", err)
	}
	l.st = next
	return nil
}

// Create adds a habit. A target below 1 becomes 1.
func (l *Ledger) Create(ctx context.Context, name, category string, target int) (*models.Habit, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if target < 1 {
		target = 1
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	h := models.Habit{
		ID:             uuid.New().String(),
		Name:           name,
		Category:       strings.TrimSpace(category),
		Target:         target,
		CompletedDates: []string{},
		CreatedAt:      l.now(),
	}
	err := l.apply(ctx, func(st *state) error {
		st.Habits[h.ID] = &h
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.Debug("habit created", slog.String("habit_id", h.ID), slog.String("name", h.Name))
	return copyHabit(&h), nil
}

// Get returns a habit with CompletedToday evaluated for the current day
func (l *Ledger) Get(ctx context.Context, id string) (*models.Habit, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	h, ok := l.st.Habits[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHabitNotFound, id)
	}
	today, yesterday := dayKeys(l.now())
	c := copyHabit(h)
	rollover(c, today, yesterday)
	return c, nil
}

// List returns all habits ordered by creation time, with CompletedToday
// evaluated for the current day
func (l *Ledger) List(ctx context.Context) ([]models.Habit, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	today, yesterday := dayKeys(l.now())
	out := make([]models.Habit, 0, len(l.st.Habits))
	for _, h := range l.st.Habits {
		c := copyHabit(h)
		rollover(c, today, yesterday)
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Refresh re-derives CompletedToday and Current for every habit after the
// day rolls over
func (l *Ledger) Refresh(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	today, yesterday := dayKeys(l.now())
	return l.apply(ctx, func(st *state) error {
		for _, h := range st.Habits {
			rollover(h, today, yesterday)
		}
		return nil
	})
}

// ToggleToday flips today's completion. Marking bumps current (up to
// target) and extends the streak when yesterday was completed, otherwise
// starts a new one; unmarking drops current and resets the streak.
// Past days are never recomputed.
func (l *Ledger) ToggleToday(ctx context.Context, id string) (*models.Habit, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	today, yesterday := dayKeys(l.now())
	var toggled *models.Habit
	err := l.apply(ctx, func(st *state) error {
		h, ok := st.Habits[id]
		if !ok {
			return fmt.Errorf("%w: %s", ErrHabitNotFound, id)
		}
		rollover(h, today, yesterday)

		if contains(h.CompletedDates, today) {
			h.CompletedDates = remove(h.CompletedDates, today)
			h.Current = clamp(h.Current-1, 0, h.Target)
			h.Streak = 0
			h.CompletedToday = false
		} else {
			h.CompletedDates = append(h.CompletedDates, today)
			h.Current = clamp(h.Current+1, 0, h.Target)
			if contains(h.CompletedDates, yesterday) {
				h.Streak++
			} else {
				h.Streak = 1
			}
			if h.Streak > h.LongestStreak {
				h.LongestStreak = h.Streak
			}
			h.CompletedToday = true
		}
		toggled = h
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.Debug("habit toggled", slog.String("habit_id", id), slog.Bool("completed_today", toggled.CompletedToday))
	return copyHabit(toggled), nil
}

// CompletionRate returns the rounded percentage of habits completed today.
// For week and month only habits created inside the trailing window are
// counted, but they are still judged by today's completion alone.
func (l *Ledger) CompletionRate(ctx context.Context, period Period) (int, error) {
	window, err := period.window()
	if err != nil {
		return 0, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.completionRate(window), nil
}

func (l *Ledger) completionRate(window time.Duration) int {
	now := l.now()
	today := models.DayKey(now)
	cutoff := now.Add(-window)

	total, done := 0, 0
	for _, h := range l.st.Habits {
		if window > 0 && h.CreatedAt.Before(cutoff) {
			continue
		}
		total++
		if contains(h.CompletedDates, today) {
			done++
		}
	}
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(done) / float64(total) * 100))
}

// RateOn returns the rounded percentage of habits that existed by the end
// of day and were completed on it. For today it equals the day rate.
func (l *Ledger) RateOn(ctx context.Context, day time.Time) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.rateOn(day), nil
}

func (l *Ledger) rateOn(day time.Time) int {
	key := models.DayKey(day)
	end := models.StartOfDay(day).AddDate(0, 0, 1)

	total, done := 0, 0
	for _, h := range l.st.Habits {
		if !h.CreatedAt.Before(end) {
			continue
		}
		total++
		if contains(h.CompletedDates, key) {
			done++
		}
	}
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(done) / float64(total) * 100))
}

// rollover resets the per-day fields of a habit not completed on today.
// A streak survives only while today or yesterday is completed.
func rollover(h *models.Habit, today, yesterday string) {
	h.CompletedToday = contains(h.CompletedDates, today)
	if h.CompletedToday {
		return
	}
	h.Current = 0
	if !contains(h.CompletedDates, yesterday) {
		h.Streak = 0
	}
}

// dayKeys returns the day keys of now and the day before
func dayKeys(now time.Time) (string, string) {
	return models.DayKey(now), models.DayKey(now.AddDate(0, 0, -1))
}

func copyHabit(h *models.Habit) *models.Habit {
	c := *h
	c.CompletedDates = append([]string{}, h.CompletedDates...)
	return &c
}

func contains(days []string, day string) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}

func remove(days []string, day string) []string {
	out := days[:0]
	for _, d := range days {
		if d != day {
			out = append(out, d)
		}
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

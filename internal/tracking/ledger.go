package tracking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/balkashynov/pulse/internal/db"
	"github.com/balkashynov/pulse/internal/models"
	"github.com/balkashynov/pulse/internal/tasks"
)

// StateKey is the KV key the ledger persists under
const StateKey = "time_entries"

var (
	ErrSessionAlreadyActive = errors.New("session already active")
	ErrNoActiveSession      = errors.New("no active session")
	ErrNoPausedSession      = errors.New("no paused session")
)

// TaskBook is the part of the task store the ledger writes durations to
type TaskBook interface {
	Exists(ctx context.Context, id string) bool
	RecordDuration(ctx context.Context, id string, minutes int) error
}

type state struct {
	Entries []models.TimeEntry `json:"entries"`
}

// Ledger is an append-only log of time entries with at most one active
// entry across all tasks.
type Ledger struct {
	mu     sync.Mutex
	st     state
	doc    db.Document[state]
	tasks  TaskBook
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

// New loads the ledger from kv. book may be nil, in which case task ids
// are not checked and durations are not recorded anywhere.
func New(ctx context.Context, kv db.KV, book TaskBook, opts ...Option) (*Ledger, error) {
	l := &Ledger{
		doc:    db.NewDocument[state](kv, StateKey),
		tasks:  book,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}

	st, _, err := l.doc.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading time entries: %w", err)
	}
	l.st = st
	return l, nil
}

// activeIndex returns the index of the active entry or -1. Callers hold l.mu.
func (l *Ledger) activeIndex() int {
	for i := range l.st.Entries {
		if l.st.Entries[i].IsActive {
			return i
		}
	}
	return -1
}

// Start opens a new active entry for taskID. The active check and the
// append happen under one lock.
func (l *Ledger) Start(ctx context.Context, taskID, notes string) (*models.TimeEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.open(ctx, taskID, notes)
}

func (l *Ledger) open(ctx context.Context, taskID, notes string) (*models.TimeEntry, error) {
	if i := l.activeIndex(); i >= 0 {
		return nil, fmt.Errorf("%w for task %s, stop it first", ErrSessionAlreadyActive, l.st.Entries[i].TaskID)
	}
	if l.tasks != nil && !l.tasks.Exists(ctx, taskID) {
		return nil, fmt.Errorf("%w: %s", tasks.ErrTaskNotFound, taskID)
	}

	entry := models.TimeEntry{
		ID:        uuid.New().String(),
		TaskID:    taskID,
		StartTime: l.now(),
		Notes:     notes,
		IsActive:  true,
	}

	next := state{Entries: append(append([]models.TimeEntry{}, l.st.Entries...), entry)}
	if err := l.doc.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("persisting time entries: %w", err)
	}
	l.st = next

	l.logger.Debug("time tracking started", slog.String("task_id", taskID), slog.String("entry_id", entry.ID))
	return &entry, nil
}

// Stop closes the active entry of taskID and adds its minutes to the task
func (l *Ledger) Stop(ctx context.Context, taskID string) (*models.TimeEntry, error) {
	return l.close(ctx, taskID, false)
}

// Pause closes the active entry like Stop and marks it resumable
func (l *Ledger) Pause(ctx context.Context, taskID string) (*models.TimeEntry, error) {
	return l.close(ctx, taskID, true)
}

func (l *Ledger) close(ctx context.Context, taskID string, paused bool) (*models.TimeEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.activeIndex()
	if i < 0 || l.st.Entries[i].TaskID != taskID {
		return nil, fmt.Errorf("%w for task %s", ErrNoActiveSession, taskID)
	}

	next := state{Entries: append([]models.TimeEntry{}, l.st.Entries...)}
	entry := next.Entries[i]
	end := l.now()
	minutes := durationMinutes(entry.StartTime, end)
	entry.EndTime = &end
	entry.Duration = &minutes
	entry.IsActive = false
	entry.Paused = paused
	next.Entries[i] = entry

	if err := l.doc.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("persisting time entries: %w", err)
	}

	if l.tasks != nil {
		err := l.tasks.RecordDuration(ctx, taskID, minutes)
		switch {
		case errors.Is(err, tasks.ErrTaskNotFound):
			// the task was deleted while tracked; the entry still closes
			l.logger.Warn("closed entry for missing task", slog.String("task_id", taskID))
		case err != nil:
			if rbErr := l.doc.Save(ctx, l.st); rbErr != nil {
				l.logger.Error("failed to roll back time entries", slog.String("error", rbErr.Error()))
			}
			return nil, fmt.Errorf("recording duration: %w", err)
		}
	}
	l.st = next

	l.logger.Debug("time tracking stopped",
		slog.String("task_id", taskID),
		slog.Int("minutes", minutes),
		slog.Bool("paused", paused))
	return &entry, nil
}

// durationMinutes rounds the elapsed time to whole minutes
func durationMinutes(start, end time.Time) int {
	minutes := int(math.Round(end.Sub(start).Minutes()))
	if minutes < 0 {
		return 0
	}
	return minutes
}

// Resume opens a new entry for a task whose last entry was paused
func (l *Ledger) Resume(ctx context.Context, taskID string) (*models.TimeEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if i := l.activeIndex(); i >= 0 {
		return nil, fmt.Errorf("%w for task %s, stop it first", ErrSessionAlreadyActive, l.st.Entries[i].TaskID)
	}

	last := -1
	for i := range l.st.Entries {
		if l.st.Entries[i].TaskID == taskID {
			last = i
		}
	}
	if last < 0 || !l.st.Entries[last].Paused {
		return nil, fmt.Errorf("%w for task %s", ErrNoPausedSession, taskID)
	}

	return l.open(ctx, taskID, l.st.Entries[last].Notes)
}

// TotalTime sums the minutes of closed entries for taskID
func (l *Ledger) TotalTime(ctx context.Context, taskID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	total := 0
	for _, e := range l.st.Entries {
		if e.TaskID == taskID && !e.IsActive {
			total += e.Minutes()
		}
	}
	return total
}

// Active returns the active entry, if any
func (l *Ledger) Active(ctx context.Context) (*models.TimeEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.activeIndex()
	if i < 0 {
		return nil, false
	}
	entry := l.st.Entries[i]
	return &entry, true
}

// Elapsed returns how long the active entry has been running
func (l *Ledger) Elapsed(ctx context.Context) (time.Duration, bool) {
	entry, ok := l.Active(ctx)
	if !ok {
		return 0, false
	}
	return l.now().Sub(entry.StartTime), true
}

// Entries returns all entries for taskID in the order they were opened
func (l *Ledger) Entries(ctx context.Context, taskID string) []models.TimeEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := []models.TimeEntry{}
	for _, e := range l.st.Entries {
		if e.TaskID == taskID {
			out = append(out, e)
		}
	}
	return out
}

// EntriesBetween returns closed entries that started in [from, to)
func (l *Ledger) EntriesBetween(ctx context.Context, from, to time.Time) []models.TimeEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := []models.TimeEntry{}
	for _, e := range l.st.Entries {
		if e.IsActive {
			continue
		}
		if !e.StartTime.Before(from) && e.StartTime.Before(to) {
			out = append(out, e)
		}
	}
	return out
}

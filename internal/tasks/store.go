package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/balkashynov/pulse/internal/db"
	"github.com/balkashynov/pulse/internal/models"
)

// StateKey is the KV key the task store persists under
const StateKey = "tasks"

var (
	ErrTaskNotFound       = errors.New("task not found")
	ErrSubtaskNotFound    = errors.New("subtask not found")
	ErrDependencyNotFound = errors.New("dependency not found")
	ErrTemplateNotFound   = errors.New("template not found")
	ErrInvalidDependency  = errors.New("invalid dependency")
	ErrDependencyCycle    = errors.New("dependency would create a cycle")
	ErrDependencyUnmet    = errors.New("dependency unmet")
	ErrEmptyTitle         = errors.New("title must not be empty")
	ErrInvalidPriority    = errors.New("invalid priority")
	ErrInvalidStatus      = errors.New("invalid status")
)

// DependencyUnmetError lists the prerequisites that block completion
type DependencyUnmetError struct {
	TaskID  string
	Missing []string
}

func (e *DependencyUnmetError) Error() string {
	return fmt.Sprintf("task %s has unmet dependencies: %s", e.TaskID, strings.Join(e.Missing, ", "))
}

func (e *DependencyUnmetError) Unwrap() error {
	return ErrDependencyUnmet
}

type state struct {
	Tasks     map[string]*models.Task     `json:"tasks"`
	Templates map[string]*models.Template `json:"templates"`
}

// Store owns tasks, their subtasks and dependency edges
type Store struct {
	mu           sync.RWMutex
	st           state
	doc          db.Document[state]
	logger       *slog.Logger
	now          func() time.Time
	detectCycles bool
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithCycleDetection toggles rejection of gating dependency cycles
func WithCycleDetection(enabled bool) Option {
	return func(s *Store) {
		s.detectCycles = enabled
	}
}

// New loads the store from kv. A nil kv keeps everything in memory.
func New(ctx context.Context, kv db.KV, opts ...Option) (*Store, error) {
	s := &Store{
		doc:          db.NewDocument[state](kv, StateKey),
		logger:       slog.Default(),
		now:          time.Now,
		detectCycles: true,
	}
	for _, opt := range opts {
		opt(s)
	}

	st, _, err := s.doc.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading tasks: %w", err)
	}
	s.st = normalize(st)
	return s, nil
}

func normalize(st state) state {
	if st.Tasks == nil {
		st.Tasks = make(map[string]*models.Task)
	}
	if st.Templates == nil {
		st.Templates = make(map[string]*models.Template)
	}
	return st
}

// apply runs fn against a copy of the state and swaps it in only once it
// has been persisted. Callers must hold s.mu.
func (s *Store) apply(ctx context.Context, fn func(st *state) error) error {
	next, err := db.Clone(s.st)
	if err != nil {
		return fmt.Errorf("copying task state: %w", err)
	}
	next = normalize(next)

	if err := fn(&next); err != nil {
		return err
	}
	if err := s.doc.Save(ctx, next); err != nil {
		return fmt.Errorf("persisting tasks: %w", err)
	}
	s.st = next
	return nil
}

// CreateRequest holds the data needed to create a new task
type CreateRequest struct {
	Title             string
	Description       string
	Priority          models.Priority
	Tags              []string
	Due               *time.Time
	EstimatedDuration *int
	Subtasks          []string
}

// Create creates a new task
func (s *Store) Create(ctx context.Context, req CreateRequest) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var created *models.Task
	err := s.apply(ctx, func(st *state) error {
		t, err := s.newTask(req)
		if err != nil {
			return err
		}
		st.Tasks[t.ID] = t
		created = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("task created", slog.String("task_id", created.ID), slog.String("title", created.Title))
	return copyTask(created), nil
}

func (s *Store) newTask(req CreateRequest) (*models.Task, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrEmptyTitle
	}

	priority := req.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !priority.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPriority, priority)
	}

	now := s.now()
	t := &models.Task{
		ID:                uuid.New().String(),
		CreatedAt:         now,
		UpdatedAt:         now,
		Title:             title,
		Description:       req.Description,
		Priority:          priority,
		Status:            models.StatusPending,
		Tags:              normalizeTags(req.Tags),
		Due:               req.Due,
		EstimatedDuration: req.EstimatedDuration,
		Subtasks:          []models.Subtask{},
		Dependencies:      []models.Dependency{},
	}
	for _, title := range req.Subtasks {
		title = strings.TrimSpace(title)
		if title == "" {
			continue
		}
		t.Subtasks = append(t.Subtasks, models.Subtask{ID: uuid.New().String(), Title: title})
	}
	return t, nil
}

// normalizeTags trims, drops empties and de-duplicates while keeping order
func normalizeTags(tags []string) []string {
	out := []string{}
	seen := make(map[string]bool)
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

// Get retrieves a task by ID
func (s *Store) Get(ctx context.Context, id string) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.st.Tasks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	return copyTask(t), nil
}

// Exists reports whether a task with id is stored
func (s *Store) Exists(ctx context.Context, id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.st.Tasks[id]
	return ok
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Status    models.Status
	Priority  models.Priority
	Tag       string
	Completed *bool
}

func (f Filter) match(t *models.Task) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.Completed != nil && t.Completed != *f.Completed {
		return false
	}
	if f.Tag != "" {
		found := false
		for _, tag := range t.Tags {
			if tag == f.Tag {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// List returns tasks matching f ordered by creation time
func (s *Store) List(ctx context.Context, f Filter) ([]models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Task{}
	for _, t := range s.st.Tasks {
		if f.match(t) {
			out = append(out, *copyTask(t))
		}
	}
	sortTasks(out)
	return out, nil
}

func sortTasks(ts []models.Task) {
	sort.Slice(ts, func(i, j int) bool {
		if ts[i].CreatedAt.Equal(ts[j].CreatedAt) {
			return ts[i].ID < ts[j].ID
		}
		return ts[i].CreatedAt.Before(ts[j].CreatedAt)
	})
}

// Patch describes a partial update. Nil fields are left unchanged.
type Patch struct {
	Title             *string
	Description       *string
	Priority          *models.Priority
	Status            *models.Status
	Tags              []string // nil leaves tags unchanged
	Due               *time.Time
	ClearDue          bool
	EstimatedDuration *int
}

// Update applies p to the task. Moving a task to completed is gated like
// ToggleCompletion.
func (s *Store) Update(ctx context.Context, id string, p Patch) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var updated *models.Task
	err := s.apply(ctx, func(st *state) error {
		t, ok := st.Tasks[id]
		if !ok {
			return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
		}

		if p.Title != nil {
			title := strings.TrimSpace(*p.Title)
			if title == "" {
				return ErrEmptyTitle
			}
			t.Title = title
		}
		if p.Description != nil {
			t.Description = *p.Description
		}
		if p.Priority != nil {
			if !p.Priority.Valid() {
				return fmt.Errorf("%w: %q", ErrInvalidPriority, *p.Priority)
			}
			t.Priority = *p.Priority
		}
		if p.Tags != nil {
			t.Tags = normalizeTags(p.Tags)
		}
		if p.ClearDue {
			t.Due = nil
		} else if p.Due != nil {
			t.Due = p.Due
		}
		if p.EstimatedDuration != nil {
			t.EstimatedDuration = p.EstimatedDuration
		}
		if p.Status != nil {
			if !p.Status.Valid() {
				return fmt.Errorf("%w: %q", ErrInvalidStatus, *p.Status)
			}
			switch {
			case *p.Status == models.StatusCompleted && !t.Completed:
				if err := s.complete(st, t); err != nil {
					return err
				}
			case *p.Status != models.StatusCompleted:
				if t.Completed {
					s.reopen(t)
				}
				t.Status = *p.Status
			}
		}

		t.UpdatedAt = s.now()
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return copyTask(updated), nil
}

// Delete removes a task. Dependencies pointing at it are left in place and
// stay unmet until removed.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.apply(ctx, func(st *state) error {
		if _, ok := st.Tasks[id]; !ok {
			return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
		}
		delete(st.Tasks, id)
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Debug("task deleted", slog.String("task_id", id))
	return nil
}

// RecordDuration adds closed time-entry minutes to the task's actual duration
func (s *Store) RecordDuration(ctx context.Context, id string, minutes int) error {
	if minutes < 0 {
		return fmt.Errorf("negative duration %d", minutes)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.apply(ctx, func(st *state) error {
		t, ok := st.Tasks[id]
		if !ok {
			return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
		}
		t.ActualDuration += minutes
		t.UpdatedAt = s.now()
		return nil
	})
}

// CompletedOn counts tasks whose completion time falls on day's calendar date
func (s *Store) CompletedOn(ctx context.Context, day time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, t := range s.st.Tasks {
		if t.Completed && t.CompletedAt != nil && models.SameDay(day, *t.CompletedAt) {
			count++
		}
	}
	return count, nil
}

func copyTask(t *models.Task) *models.Task {
	c := *t
	c.Tags = append([]string{}, t.Tags...)
	c.Subtasks = append([]models.Subtask{}, t.Subtasks...)
	c.Dependencies = append([]models.Dependency{}, t.Dependencies...)
	return &c
}

package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/balkashynov/pulse/internal/models"
)

// AddDependency makes taskID depend on dependsOnID. Adding an edge that
// already exists returns the stored edge.
func (s *Store) AddDependency(ctx context.Context, taskID, dependsOnID string, typ models.DependencyType) (*models.Dependency, error) {
	if taskID == dependsOnID {
		return nil, fmt.Errorf("%w: task %s cannot depend on itself", ErrInvalidDependency, taskID)
	}
	if !typ.Valid() {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidDependency, typ)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var dep models.Dependency
	err := s.apply(ctx, func(st *state) error {
		t, ok := st.Tasks[taskID]
		if !ok {
			return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
		}
		if _, ok := st.Tasks[dependsOnID]; !ok {
			return fmt.Errorf("%w: %s", ErrTaskNotFound, dependsOnID)
		}

		for _, existing := range t.Dependencies {
			if existing.DependsOnTaskID == dependsOnID && existing.Type == typ {
				dep = existing
				return nil
			}
		}

		if s.detectCycles && typ.Gating() && reaches(st, dependsOnID, taskID) {
			return fmt.Errorf("%w: %s already depends on %s", ErrDependencyCycle, dependsOnID, taskID)
		}

		dep = models.Dependency{
			ID:              uuid.New().String(),
			TaskID:          taskID,
			DependsOnTaskID: dependsOnID,
			Type:            typ,
			CreatedAt:       s.now(),
		}
		t.Dependencies = append(t.Dependencies, dep)
		t.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("dependency added",
		slog.String("task_id", taskID),
		slog.String("depends_on", dependsOnID),
		slog.String("type", string(typ)))
	return &dep, nil
}

// reaches walks gating edges from start and reports whether target is
// reachable, i.e. start already (transitively) depends on target.
func reaches(st *state, start, target string) bool {
	visited := make(map[string]bool)
	stack := []string{start}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == target {
			return true
		}
		if visited[id] {
			continue
		}
		visited[id] = true

		t, ok := st.Tasks[id]
		if !ok {
			continue
		}
		for _, d := range t.Dependencies {
			if d.Type.Gating() && !visited[d.DependsOnTaskID] {
				stack = append(stack, d.DependsOnTaskID)
			}
		}
	}
	return false
}

// RemoveDependency deletes a dependency edge from taskID
func (s *Store) RemoveDependency(ctx context.Context, taskID, dependencyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.apply(ctx, func(st *state) error {
		t, ok := st.Tasks[taskID]
		if !ok {
			return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
		}
		for i, d := range t.Dependencies {
			if d.ID == dependencyID {
				t.Dependencies = append(t.Dependencies[:i], t.Dependencies[i+1:]...)
				t.UpdatedAt = s.now()
				return nil
			}
		}
		return fmt.Errorf("%w: %s", ErrDependencyNotFound, dependencyID)
	})
}

// CanComplete reports whether every direct gating prerequisite of the task
// is completed. Missing prerequisites count as unmet.
func (s *Store) CanComplete(ctx context.Context, id string) (bool, error) {
	unmet, err := s.UnmetDependencies(ctx, id)
	if err != nil {
		return false, err
	}
	return len(unmet) == 0, nil
}

// UnmetDependencies returns the direct gating dependencies whose
// prerequisite is not completed
func (s *Store) UnmetDependencies(ctx context.Context, id string) ([]models.Dependency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.st.Tasks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	return unmetDependencies(&s.st, t), nil
}

func unmetDependencies(st *state, t *models.Task) []models.Dependency {
	unmet := []models.Dependency{}
	for _, d := range t.Dependencies {
		if !d.Type.Gating() {
			continue
		}
		prereq, ok := st.Tasks[d.DependsOnTaskID]
		if !ok || !prereq.Completed {
			unmet = append(unmet, d)
		}
	}
	return unmet
}

// ToggleCompletion flips the completed flag. Completing fails with a
// DependencyUnmetError while a gating prerequisite is open; reopening
// always succeeds.
func (s *Store) ToggleCompletion(ctx context.Context, id string) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var toggled *models.Task
	err := s.apply(ctx, func(st *state) error {
		t, ok := st.Tasks[id]
		if !ok {
			return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
		}
		if t.Completed {
			s.reopen(t)
		} else if err := s.complete(st, t); err != nil {
			return err
		}
		t.UpdatedAt = s.now()
		toggled = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("task toggled", slog.String("task_id", id), slog.Bool("completed", toggled.Completed))
	return copyTask(toggled), nil
}

func (s *Store) complete(st *state, t *models.Task) error {
	if unmet := unmetDependencies(st, t); len(unmet) > 0 {
		missing := make([]string, 0, len(unmet))
		for _, d := range unmet {
			missing = append(missing, d.DependsOnTaskID)
		}
		return &DependencyUnmetError{TaskID: t.ID, Missing: missing}
	}

	now := s.now()
	t.Completed = true
	t.Status = models.StatusCompleted
	t.CompletedAt = &now
	return nil
}

func (s *Store) reopen(t *models.Task) {
	t.Completed = false
	t.Status = models.StatusPending
	t.CompletedAt = nil
}

// BlockedTasks returns tasks that have a gating dependency on id
func (s *Store) BlockedTasks(ctx context.Context, id string) ([]models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.st.Tasks[id]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}

	blocked := []models.Task{}
	for _, t := range s.st.Tasks {
		for _, d := range t.Dependencies {
			if d.Type.Gating() && d.DependsOnTaskID == id {
				blocked = append(blocked, *copyTask(t))
				break
			}
		}
	}
	sortTasks(blocked)
	return blocked, nil
}

package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/balkashynov/pulse/internal/models"
)

// AddSubtask appends a checklist item to a task
func (s *Store) AddSubtask(ctx context.Context, taskID, title string) (*models.Subtask, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sub := models.Subtask{ID: uuid.New().String(), Title: title}
	err := s.apply(ctx, func(st *state) error {
		t, ok := st.Tasks[taskID]
		if !ok {
			return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
		}
		t.Subtasks = append(t.Subtasks, sub)
		t.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// ToggleSubtask flips a subtask's completed flag
func (s *Store) ToggleSubtask(ctx context.Context, taskID, subtaskID string) (*models.Subtask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var toggled models.Subtask
	err := s.apply(ctx, func(st *state) error {
		t, ok := st.Tasks[taskID]
		if !ok {
			return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
		}
		for i := range t.Subtasks {
			if t.Subtasks[i].ID == subtaskID {
				t.Subtasks[i].Completed = !t.Subtasks[i].Completed
				t.UpdatedAt = s.now()
				toggled = t.Subtasks[i]
				return nil
			}
		}
		return fmt.Errorf("%w: %s", ErrSubtaskNotFound, subtaskID)
	})
	if err != nil {
		return nil, err
	}
	return &toggled, nil
}

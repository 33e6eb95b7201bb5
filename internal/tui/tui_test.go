package tui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/balkashynov/pulse/internal/correlation"
	"github.com/balkashynov/pulse/internal/models"
	"github.com/balkashynov/pulse/internal/tasks"
)

type fakeController struct {
	stopped, paused string
	minutes         int
}

func (f *fakeController) Stop(_ context.Context, taskID string) (*models.TimeEntry, error) {
	f.stopped = taskID
	return &models.TimeEntry{TaskID: taskID, Duration: &f.minutes}, nil
}

func (f *fakeController) Pause(_ context.Context, taskID string) (*models.TimeEntry, error) {
	f.paused = taskID
	return &models.TimeEntry{TaskID: taskID, Duration: &f.minutes, Paused: true}, nil
}

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestTimerModelKeys(t *testing.T) {
	start := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	now := func() time.Time { return start.Add(90 * time.Second) }
	entry := &models.TimeEntry{ID: "e1", TaskID: "t1", StartTime: start, IsActive: true}
	task := &models.Task{ID: "t1", Title: "write report"}

	tests := []struct {
		key  tea.KeyMsg
		want TimerAction
	}{
		{keyPress("s"), ActionStop},
		{keyPress("p"), ActionPause},
		{keyPress("q"), ActionDetach},
		{tea.KeyMsg{Type: tea.KeyEsc}, ActionDetach},
	}
	for _, tt := range tests {
		m := NewTimerModel(entry, task, now)
		if m.elapsedTime != 90*time.Second {
			t.Fatalf("Expected 90s elapsed, got %v", m.elapsedTime)
		}
		updated, cmd := m.Update(tt.key)
		if cmd == nil {
			t.Errorf("%s: expected quit command", tt.key)
		}
		if got := updated.(TimerModel).Action(); got != tt.want {
			t.Errorf("%s: expected action %d, got %d", tt.key, tt.want, got)
		}
	}
}

func TestApplyTimerAction(t *testing.T) {
	ctx := context.Background()
	task := &models.Task{ID: "0123456789ab", Title: "write report"}

	ctrl := &fakeController{minutes: 65}
	var out bytes.Buffer
	if err := ApplyTimerAction(ctx, ctrl, ActionStop, task, &out); err != nil {
		t.Fatal(err)
	}
	if ctrl.stopped != task.ID {
		t.Errorf("Expected stop for %s, got %q", task.ID, ctrl.stopped)
	}
	if !strings.Contains(out.String(), "1h05m") {
		t.Errorf("Expected duration in output, got %q", out.String())
	}

	out.Reset()
	if err := ApplyTimerAction(ctx, ctrl, ActionPause, task, &out); err != nil {
		t.Fatal(err)
	}
	if ctrl.paused != task.ID || !strings.Contains(out.String(), "pulse resume 01234567") {
		t.Errorf("Expected pause with resume hint, got %q", out.String())
	}

	out.Reset()
	ctrl = &fakeController{}
	if err := ApplyTimerAction(ctx, ctrl, ActionDetach, task, &out); err != nil {
		t.Fatal(err)
	}
	if ctrl.stopped != "" || ctrl.paused != "" {
		t.Error("Expected detach to leave the entry running")
	}
}

func TestRenderBigClock(t *testing.T) {
	short := renderBigClock(5 * time.Minute)
	long := renderBigClock(2*time.Hour + 5*time.Minute)
	if lines := strings.Count(short, "\n"); lines != 4 {
		t.Errorf("Expected 5 clock rows, got %d", lines+1)
	}
	if len(long) <= len(short) {
		t.Error("Expected hour digits to widen the clock")
	}
}

type fakeToggler struct {
	err error
}

func (f fakeToggler) ToggleCompletion(_ context.Context, id string) (*models.Task, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Task{ID: id, Title: "done", Completed: true, Status: models.StatusCompleted}, nil
}

func sampleTasks() []models.Task {
	return []models.Task{
		{ID: "aaaa1111", Title: "Write report", Tags: []string{"work"}},
		{ID: "bbbb2222", Title: "Review PR", Tags: []string{"work", "code"}},
		{ID: "cccc3333", Title: "Buy milk", Tags: []string{"home"}},
	}
}

func TestListModelSearch(t *testing.T) {
	m := NewListModel(context.Background(), sampleTasks(), nil, nil)
	if len(m.visible) != 3 {
		t.Fatalf("Expected 3 visible tasks, got %d", len(m.visible))
	}

	updated, _ := m.Update(keyPress("/"))
	m = updated.(ListModel)
	if m.focus != FocusSearch {
		t.Fatal("Expected search focus")
	}
	for _, r := range "#work" {
		updated, _ = m.Update(keyPress(string(r)))
		m = updated.(ListModel)
	}
	if len(m.visible) != 2 {
		t.Errorf("Expected 2 tasks tagged work, got %d", len(m.visible))
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(ListModel)
	if m.focus != FocusTable || len(m.visible) != 3 {
		t.Errorf("Expected cleared search, got focus %d with %d tasks", m.focus, len(m.visible))
	}
}

func TestListModelNavigation(t *testing.T) {
	m := NewListModel(context.Background(), sampleTasks(), nil, nil)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 14})
	m = updated.(ListModel)
	if m.tasksPerPage != 3 {
		t.Fatalf("Expected 3 tasks per page, got %d", m.tasksPerPage)
	}

	for i := 0; i < 5; i++ {
		updated, _ = m.Update(keyPress("j"))
		m = updated.(ListModel)
	}
	if m.selectedTask != 2 {
		t.Errorf("Expected selection to stop at last task, got %d", m.selectedTask)
	}
	if !strings.Contains(m.View(), "Buy milk") {
		t.Error("Expected selected task in view")
	}
}

func TestListModelToggle(t *testing.T) {
	ctx := context.Background()
	m := NewListModel(ctx, sampleTasks(), map[string]bool{"aaaa1111": true}, fakeToggler{
		err: &tasks.DependencyUnmetError{TaskID: "aaaa1111", Missing: []string{"x", "y"}},
	})
	updated, _ := m.Update(keyPress("d"))
	m = updated.(ListModel)
	if m.status != "Blocked by 2 unfinished task(s)" {
		t.Errorf("Expected blocked status, got %q", m.status)
	}

	m = NewListModel(ctx, sampleTasks(), nil, fakeToggler{})
	updated, _ = m.Update(keyPress("d"))
	m = updated.(ListModel)
	if !m.visible[0].Completed || !m.all[0].Completed {
		t.Error("Expected toggled task to be completed")
	}

	m = NewListModel(ctx, sampleTasks(), nil, fakeToggler{err: errors.New("boom")})
	updated, _ = m.Update(keyPress("d"))
	if got := updated.(ListModel).status; got != "Error: boom" {
		t.Errorf("Expected error status, got %q", got)
	}
}

func TestRenderers(t *testing.T) {
	point := models.ProductivityDataPoint{Date: "2025-03-14", TasksCompleted: 3, FocusMinutes: 95, HabitsScore: 50, ProductivityScore: 49}
	out := RenderScore(point)
	for _, want := range []string{"2025-03-14", "49", "1h35m", "50%"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in score view", want)
		}
	}

	empty := RenderCorrelation(correlation.Summary{Days: 7, Strength: correlation.StrengthVeryWeak, Direction: correlation.DirectionNeutral})
	if !strings.Contains(empty, "Not enough data") {
		t.Error("Expected insufficient data hint")
	}

	full := RenderCorrelation(correlation.Summary{
		Coefficient: 0.99,
		Strength:    correlation.StrengthStrong,
		Direction:   correlation.DirectionPositive,
		Days:        30,
		Series: []correlation.Pair{
			{Date: "2025-03-13", Habits: 40, Productivity: 50},
			{Date: "2025-03-14", Habits: 80, Productivity: 90},
		},
	})
	for _, want := range []string{"0.99", "strong positive", "2025-03-13"} {
		if !strings.Contains(full, want) {
			t.Errorf("Expected %q in correlation view", want)
		}
	}

	due := time.Date(2025, 3, 15, 23, 59, 59, 0, time.UTC)
	card := RenderTask(&models.Task{ID: "0123456789ab", Title: "Ship", Priority: models.PriorityHigh, Tags: []string{"ops"}, Due: &due},
		time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC))
	for _, want := range []string{"01234567", "Ship", "#ops", "Due tomorrow"} {
		if !strings.Contains(card, want) {
			t.Errorf("Expected %q in task card", want)
		}
	}
}

package tasks

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/balkashynov/pulse/internal/db"
	"github.com/balkashynov/pulse/internal/models"
)

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

type failingKV struct {
	*db.MemoryKV
	fail bool
}

func (f *failingKV) Save(ctx context.Context, key string, value []byte) error {
	if f.fail {
		return errors.New("disk full")
	}
	return f.MemoryKV.Save(ctx, key, value)
}

func newTestStore(t *testing.T, kv db.KV) *Store {
	t.Helper()

	s, err := New(context.Background(), kv, WithClock(func() time.Time { return fixedNow }))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s
}

func mustCreate(t *testing.T, s *Store, title string) *models.Task {
	t.Helper()

	task, err := s.Create(context.Background(), CreateRequest{Title: title})
	if err != nil {
		t.Fatalf("Create(%q) failed: %v", title, err)
	}
	return task
}

func TestCreateDefaults(t *testing.T) {
	s := newTestStore(t, nil)

	task, err := s.Create(context.Background(), CreateRequest{
		Title:    "  Write report  ",
		Tags:     []string{"work", " work", "", "writing"},
		Subtasks: []string{"outline", " ", "draft"},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if task.Title != "Write report" {
		t.Errorf("Expected trimmed title, got %q", task.Title)
	}
	if task.Priority != models.PriorityMedium {
		t.Errorf("Expected medium priority, got %s", task.Priority)
	}
	if task.Status != models.StatusPending {
		t.Errorf("Expected pending status, got %s", task.Status)
	}
	if strings.Join(task.Tags, ",") != "work,writing" {
		t.Errorf("Expected de-duplicated tags, got %v", task.Tags)
	}
	if len(task.Subtasks) != 2 {
		t.Errorf("Expected 2 subtasks, got %d", len(task.Subtasks))
	}
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	s := newTestStore(t, nil)

	tests := []struct {
		name string
		req  CreateRequest
		want error
	}{
		{"empty title", CreateRequest{Title: "   "}, ErrEmptyTitle},
		{"bad priority", CreateRequest{Title: "x", Priority: "critical"}, ErrInvalidPriority},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Create(context.Background(), tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestGatingDependencyBlocksCompletion(t *testing.T) {
	for _, typ := range []models.DependencyType{models.DependencyBlocks, models.DependencyRequires} {
		t.Run(string(typ), func(t *testing.T) {
			ctx := context.Background()
			s := newTestStore(t, nil)
			prereq := mustCreate(t, s, "prereq")
			task := mustCreate(t, s, "task")

			if _, err := s.AddDependency(ctx, task.ID, prereq.ID, typ); err != nil {
				t.Fatalf("AddDependency failed: %v", err)
			}

			ok, err := s.CanComplete(ctx, task.ID)
			if err != nil || ok {
				t.Fatalf("Expected CanComplete false, got %v (%v)", ok, err)
			}

			_, err = s.ToggleCompletion(ctx, task.ID)
			if !errors.Is(err, ErrDependencyUnmet) {
				t.Fatalf("Expected ErrDependencyUnmet, got %v", err)
			}
			var unmet *DependencyUnmetError
			if !errors.As(err, &unmet) || len(unmet.Missing) != 1 || unmet.Missing[0] != prereq.ID {
				t.Errorf("Expected missing prerequisite %s, got %+v", prereq.ID, unmet)
			}

			got, _ := s.Get(ctx, task.ID)
			if got.Completed || got.Status != models.StatusPending {
				t.Errorf("Expected no state change after failed toggle, got %+v", got)
			}

			if _, err := s.ToggleCompletion(ctx, prereq.ID); err != nil {
				t.Fatalf("Completing prerequisite failed: %v", err)
			}

			done, err := s.ToggleCompletion(ctx, task.ID)
			if err != nil {
				t.Fatalf("Expected completion to succeed, got %v", err)
			}
			if !done.Completed || done.Status != models.StatusCompleted || done.CompletedAt == nil {
				t.Errorf("Expected completed task, got %+v", done)
			}
		})
	}
}

func TestSuggestsNeverBlocks(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)
	prereq := mustCreate(t, s, "prereq")
	task := mustCreate(t, s, "task")

	if _, err := s.AddDependency(ctx, task.ID, prereq.ID, models.DependencySuggests); err != nil {
		t.Fatalf("AddDependency failed: %v", err)
	}

	if _, err := s.ToggleCompletion(ctx, task.ID); err != nil {
		t.Errorf("Expected suggests dependency not to gate, got %v", err)
	}
}

func TestSelfDependencyRejected(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)
	task := mustCreate(t, s, "task")

	for _, typ := range []models.DependencyType{models.DependencyBlocks, models.DependencyRequires, models.DependencySuggests} {
		_, err := s.AddDependency(ctx, task.ID, task.ID, typ)
		if !errors.Is(err, ErrInvalidDependency) {
			t.Errorf("%s: expected ErrInvalidDependency, got %v", typ, err)
		}
	}

	got, _ := s.Get(ctx, task.ID)
	if len(got.Dependencies) != 0 {
		t.Errorf("Expected dependency set unchanged, got %d edges", len(got.Dependencies))
	}
}

func TestDuplicateDependencyReturnsExisting(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)
	a := mustCreate(t, s, "a")
	b := mustCreate(t, s, "b")

	first, err := s.AddDependency(ctx, a.ID, b.ID, models.DependencyBlocks)
	if err != nil {
		t.Fatalf("AddDependency failed: %v", err)
	}
	second, err := s.AddDependency(ctx, a.ID, b.ID, models.DependencyBlocks)
	if err != nil {
		t.Fatalf("AddDependency failed: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("Expected the existing edge, got a new one")
	}
}

func TestGatingCycleRejected(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)
	a := mustCreate(t, s, "a")
	b := mustCreate(t, s, "b")
	c := mustCreate(t, s, "c")

	if _, err := s.AddDependency(ctx, a.ID, b.ID, models.DependencyBlocks); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddDependency(ctx, b.ID, c.ID, models.DependencyRequires); err != nil {
		t.Fatal(err)
	}

	_, err := s.AddDependency(ctx, c.ID, a.ID, models.DependencyBlocks)
	if !errors.Is(err, ErrDependencyCycle) {
		t.Fatalf("Expected ErrDependencyCycle, got %v", err)
	}

	// advisory edges cannot deadlock completion
	if _, err := s.AddDependency(ctx, c.ID, a.ID, models.DependencySuggests); err != nil {
		t.Errorf("Expected suggests edge to be allowed, got %v", err)
	}
}

func TestCycleAllowedWhenDetectionDisabled(t *testing.T) {
	ctx := context.Background()
	s, err := New(ctx, nil, WithCycleDetection(false))
	if err != nil {
		t.Fatal(err)
	}
	a := mustCreate(t, s, "a")
	b := mustCreate(t, s, "b")

	if _, err := s.AddDependency(ctx, a.ID, b.ID, models.DependencyBlocks); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddDependency(ctx, b.ID, a.ID, models.DependencyBlocks); err != nil {
		t.Fatalf("Expected cycle to be accepted, got %v", err)
	}

	if ok, _ := s.CanComplete(ctx, a.ID); ok {
		t.Error("Expected a to be deadlocked")
	}
}

func TestReopenAlwaysSucceeds(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)
	prereq := mustCreate(t, s, "prereq")
	task := mustCreate(t, s, "task")

	s.ToggleCompletion(ctx, prereq.ID)
	s.AddDependency(ctx, task.ID, prereq.ID, models.DependencyBlocks)
	if _, err := s.ToggleCompletion(ctx, task.ID); err != nil {
		t.Fatal(err)
	}

	reopened, err := s.ToggleCompletion(ctx, prereq.ID)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	if reopened.Completed || reopened.CompletedAt != nil {
		t.Errorf("Expected reopened prerequisite, got %+v", reopened)
	}

	// dependents keep their state
	got, _ := s.Get(ctx, task.ID)
	if !got.Completed {
		t.Error("Expected dependent to stay completed")
	}
}

func TestDeletedPrerequisiteStaysUnmet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)
	prereq := mustCreate(t, s, "prereq")
	task := mustCreate(t, s, "task")
	s.AddDependency(ctx, task.ID, prereq.ID, models.DependencyRequires)

	if err := s.Delete(ctx, prereq.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if ok, _ := s.CanComplete(ctx, task.ID); ok {
		t.Error("Expected dependency on deleted task to be unmet")
	}

	got, _ := s.Get(ctx, task.ID)
	if err := s.RemoveDependency(ctx, task.ID, got.Dependencies[0].ID); err != nil {
		t.Fatalf("RemoveDependency failed: %v", err)
	}
	if ok, _ := s.CanComplete(ctx, task.ID); !ok {
		t.Error("Expected task to be completable after removing the edge")
	}
}

func TestBlockedTasks(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)
	prereq := mustCreate(t, s, "prereq")
	blocked := mustCreate(t, s, "blocked")
	required := mustCreate(t, s, "required")
	suggested := mustCreate(t, s, "suggested")

	s.AddDependency(ctx, blocked.ID, prereq.ID, models.DependencyBlocks)
	s.AddDependency(ctx, required.ID, prereq.ID, models.DependencyRequires)
	s.AddDependency(ctx, suggested.ID, prereq.ID, models.DependencySuggests)

	got, err := s.BlockedTasks(ctx, prereq.ID)
	if err != nil {
		t.Fatalf("BlockedTasks failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 blocked tasks, got %d", len(got))
	}
	for _, task := range got {
		if task.ID == suggested.ID {
			t.Error("suggests edge must not count as blocking")
		}
	}
}

func TestSubtasks(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)
	task := mustCreate(t, s, "task")

	sub, err := s.AddSubtask(ctx, task.ID, "step one")
	if err != nil {
		t.Fatalf("AddSubtask failed: %v", err)
	}

	toggled, err := s.ToggleSubtask(ctx, task.ID, sub.ID)
	if err != nil {
		t.Fatalf("ToggleSubtask failed: %v", err)
	}
	if !toggled.Completed {
		t.Error("Expected subtask to be completed")
	}

	if _, err := s.ToggleSubtask(ctx, task.ID, "missing"); !errors.Is(err, ErrSubtaskNotFound) {
		t.Errorf("Expected ErrSubtaskNotFound, got %v", err)
	}
}

func TestUpdateToCompletedIsGated(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)
	prereq := mustCreate(t, s, "prereq")
	task := mustCreate(t, s, "task")
	s.AddDependency(ctx, task.ID, prereq.ID, models.DependencyBlocks)

	completed := models.StatusCompleted
	if _, err := s.Update(ctx, task.ID, Patch{Status: &completed}); !errors.Is(err, ErrDependencyUnmet) {
		t.Fatalf("Expected ErrDependencyUnmet, got %v", err)
	}

	inProgress := models.StatusInProgress
	title := "renamed"
	got, err := s.Update(ctx, task.ID, Patch{Status: &inProgress, Title: &title})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got.Status != models.StatusInProgress || got.Title != "renamed" {
		t.Errorf("Unexpected task after update: %+v", got)
	}
}

func TestTemplates(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)

	yamlDoc := `
templates:
  - name: weekly-review
    title: Weekly review
    priority: high
    tags: [review, planning]
    subtasks: [Inbox zero, Plan next week]
  - name: standup
`
	imported, err := s.ImportTemplates(ctx, strings.NewReader(yamlDoc))
	if err != nil {
		t.Fatalf("ImportTemplates failed: %v", err)
	}
	if len(imported) != 2 {
		t.Fatalf("Expected 2 templates, got %d", len(imported))
	}

	task, err := s.CreateFromTemplate(ctx, "weekly-review")
	if err != nil {
		t.Fatalf("CreateFromTemplate failed: %v", err)
	}
	if task.Title != "Weekly review" || task.Priority != models.PriorityHigh {
		t.Errorf("Unexpected task from template: %+v", task)
	}
	if len(task.Subtasks) != 2 || len(task.Tags) != 2 {
		t.Errorf("Expected subtasks and tags from template, got %+v", task)
	}

	standup, err := s.CreateFromTemplate(ctx, "standup")
	if err != nil {
		t.Fatalf("CreateFromTemplate failed: %v", err)
	}
	if standup.Title != "standup" {
		t.Errorf("Expected title to default to name, got %q", standup.Title)
	}

	if _, err := s.CreateFromTemplate(ctx, "missing"); !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("Expected ErrTemplateNotFound, got %v", err)
	}
}

func TestImportTemplatesAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)

	yamlDoc := `
templates:
  - name: ok
  - name: bad
    priority: extreme
`
	if _, err := s.ImportTemplates(ctx, strings.NewReader(yamlDoc)); !errors.Is(err, ErrInvalidPriority) {
		t.Fatalf("Expected ErrInvalidPriority, got %v", err)
	}
	tpls, _ := s.Templates(ctx)
	if len(tpls) != 0 {
		t.Errorf("Expected no templates stored, got %d", len(tpls))
	}
}

func TestCompletedOnAndRecordDuration(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)
	a := mustCreate(t, s, "a")
	mustCreate(t, s, "b")

	s.ToggleCompletion(ctx, a.ID)
	count, err := s.CompletedOn(ctx, fixedNow)
	if err != nil || count != 1 {
		t.Errorf("Expected 1 completed task today, got %d (%v)", count, err)
	}
	count, _ = s.CompletedOn(ctx, fixedNow.AddDate(0, 0, -1))
	if count != 0 {
		t.Errorf("Expected 0 completed yesterday, got %d", count)
	}

	if err := s.RecordDuration(ctx, a.ID, 25); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordDuration(ctx, a.ID, 5); err != nil {
		t.Fatal(err)
	}
	got, _ := s.Get(ctx, a.ID)
	if got.ActualDuration != 30 {
		t.Errorf("Expected 30 minutes, got %d", got.ActualDuration)
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := db.NewMemoryKV()
	s := newTestStore(t, kv)

	a := mustCreate(t, s, "a")
	b := mustCreate(t, s, "b")
	s.AddDependency(ctx, b.ID, a.ID, models.DependencyRequires)
	s.AddSubtask(ctx, a.ID, "sub")
	s.RecordDuration(ctx, a.ID, 12)

	reloaded := newTestStore(t, kv)
	got, err := reloaded.Get(ctx, b.ID)
	if err != nil {
		t.Fatalf("Get after reload failed: %v", err)
	}
	if len(got.Dependencies) != 1 || got.Dependencies[0].DependsOnTaskID != a.ID {
		t.Errorf("Expected dependency to survive reload, got %+v", got.Dependencies)
	}
	gotA, _ := reloaded.Get(ctx, a.ID)
	if gotA.ActualDuration != 12 || len(gotA.Subtasks) != 1 {
		t.Errorf("Expected duration and subtask to survive reload, got %+v", gotA)
	}
}

func TestFailedSaveLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	kv := &failingKV{MemoryKV: db.NewMemoryKV()}
	s := newTestStore(t, kv)
	task := mustCreate(t, s, "task")

	kv.fail = true
	if _, err := s.ToggleCompletion(ctx, task.ID); err == nil {
		t.Fatal("Expected save failure to surface")
	}

	got, _ := s.Get(ctx, task.ID)
	if got.Completed {
		t.Error("Expected in-memory state to be unchanged after a failed save")
	}
}

func TestReturnedTasksAreCopies(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)
	task, _ := s.Create(ctx, CreateRequest{Title: "task", Tags: []string{"a"}})

	task.Tags[0] = "mutated"
	got, _ := s.Get(ctx, task.ID)
	if got.Tags[0] != "a" {
		t.Errorf("Expected stored tags to be isolated, got %v", got.Tags)
	}
}

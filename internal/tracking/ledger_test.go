package tracking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/balkashynov/pulse/internal/db"
	"github.com/balkashynov/pulse/internal/models"
	"github.com/balkashynov/pulse/internal/tasks"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	clock  *testClock
	tasks  *tasks.Store
	ledger *Ledger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	clock := &testClock{t: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)}
	kv := db.NewMemoryKV()

	store, err := tasks.New(ctx, kv, tasks.WithClock(clock.Now))
	if err != nil {
		t.Fatalf("tasks.New failed: %v", err)
	}
	ledger, err := New(ctx, kv, store, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return &fixture{clock: clock, tasks: store, ledger: ledger}
}

func (f *fixture) task(t *testing.T, title string) *models.Task {
	t.Helper()
	task, err := f.tasks.Create(context.Background(), tasks.CreateRequest{Title: title})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return task
}

func countActive(entries []models.TimeEntry) int {
	n := 0
	for _, e := range entries {
		if e.IsActive {
			n++
		}
	}
	return n
}

func TestStartStop(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	task := f.task(t, "write")

	entry, err := f.ledger.Start(ctx, task.ID, "first pass")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !entry.IsActive || entry.EndTime != nil || entry.Duration != nil {
		t.Errorf("Expected open active entry, got %+v", entry)
	}

	f.clock.Advance(25*time.Minute + 31*time.Second)

	closed, err := f.ledger.Stop(ctx, task.ID)
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if closed.IsActive || closed.EndTime == nil {
		t.Errorf("Expected closed entry, got %+v", closed)
	}
	if closed.Minutes() != 26 {
		t.Errorf("Expected rounded duration 26, got %d", closed.Minutes())
	}

	got, _ := f.tasks.Get(ctx, task.ID)
	if got.ActualDuration != 26 {
		t.Errorf("Expected actual duration 26, got %d", got.ActualDuration)
	}
}

func TestStartWhileActiveFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.task(t, "a")
	b := f.task(t, "b")

	if _, err := f.ledger.Start(ctx, a.ID, ""); err != nil {
		t.Fatal(err)
	}

	for _, id := range []string{a.ID, b.ID} {
		if _, err := f.ledger.Start(ctx, id, ""); !errors.Is(err, ErrSessionAlreadyActive) {
			t.Errorf("Expected ErrSessionAlreadyActive, got %v", err)
		}
	}

	// the prior session is never closed implicitly
	active, ok := f.ledger.Active(ctx)
	if !ok || active.TaskID != a.ID {
		t.Errorf("Expected a to remain active, got %+v", active)
	}
}

func TestStopErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.task(t, "a")
	b := f.task(t, "b")

	if _, err := f.ledger.Stop(ctx, a.ID); !errors.Is(err, ErrNoActiveSession) {
		t.Errorf("Expected ErrNoActiveSession, got %v", err)
	}

	f.ledger.Start(ctx, a.ID, "")
	if _, err := f.ledger.Stop(ctx, b.ID); !errors.Is(err, ErrNoActiveSession) {
		t.Errorf("Expected ErrNoActiveSession for another task, got %v", err)
	}
}

func TestStartUnknownTask(t *testing.T) {
	f := newFixture(t)
	if _, err := f.ledger.Start(context.Background(), "nope", ""); !errors.Is(err, tasks.ErrTaskNotFound) {
		t.Errorf("Expected ErrTaskNotFound, got %v", err)
	}
}

func TestPauseResumeOpensNewEntry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	task := f.task(t, "deep work")

	first, _ := f.ledger.Start(ctx, task.ID, "chapter 1")
	f.clock.Advance(20 * time.Minute)
	if _, err := f.ledger.Pause(ctx, task.ID); err != nil {
		t.Fatalf("Pause failed: %v", err)
	}

	f.clock.Advance(10 * time.Minute)
	resumed, err := f.ledger.Resume(ctx, task.ID)
	if err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if resumed.ID == first.ID {
		t.Error("Expected resume to open a new entry")
	}
	if resumed.Notes != "chapter 1" {
		t.Errorf("Expected notes carried over, got %q", resumed.Notes)
	}

	f.clock.Advance(15 * time.Minute)
	f.ledger.Stop(ctx, task.ID)

	if total := f.ledger.TotalTime(ctx, task.ID); total != 35 {
		t.Errorf("Expected total 35 minutes, got %d", total)
	}
	got, _ := f.tasks.Get(ctx, task.ID)
	if got.ActualDuration != 35 {
		t.Errorf("Expected actual duration 35, got %d", got.ActualDuration)
	}
	if n := len(f.ledger.Entries(ctx, task.ID)); n != 2 {
		t.Errorf("Expected 2 entries, got %d", n)
	}
}

func TestResumeErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.task(t, "a")
	b := f.task(t, "b")

	if _, err := f.ledger.Resume(ctx, a.ID); !errors.Is(err, ErrNoPausedSession) {
		t.Errorf("Expected ErrNoPausedSession, got %v", err)
	}

	f.ledger.Start(ctx, a.ID, "")
	f.ledger.Stop(ctx, a.ID)
	if _, err := f.ledger.Resume(ctx, a.ID); !errors.Is(err, ErrNoPausedSession) {
		t.Errorf("Expected ErrNoPausedSession after a plain stop, got %v", err)
	}

	f.ledger.Start(ctx, a.ID, "")
	f.ledger.Pause(ctx, a.ID)
	f.ledger.Start(ctx, b.ID, "")
	if _, err := f.ledger.Resume(ctx, a.ID); !errors.Is(err, ErrSessionAlreadyActive) {
		t.Errorf("Expected ErrSessionAlreadyActive, got %v", err)
	}
}

func TestDurationAccountingHasNoDrift(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	task := f.task(t, "task")

	spans := []time.Duration{
		29 * time.Second,
		30 * time.Second,
		90 * time.Second,
		7*time.Minute + 44*time.Second,
		time.Hour + 29*time.Second,
	}
	for _, d := range spans {
		f.ledger.Start(ctx, task.ID, "")
		f.clock.Advance(d)
		if _, err := f.ledger.Stop(ctx, task.ID); err != nil {
			t.Fatal(err)
		}
	}

	sum := 0
	for _, e := range f.ledger.Entries(ctx, task.ID) {
		sum += e.Minutes()
	}
	got, _ := f.tasks.Get(ctx, task.ID)
	if got.ActualDuration != sum {
		t.Errorf("Expected actual duration %d to equal entry sum %d", got.ActualDuration, sum)
	}
	if total := f.ledger.TotalTime(ctx, task.ID); total != sum {
		t.Errorf("Expected TotalTime %d, got %d", sum, total)
	}
}

func TestActiveEntryContributesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	task := f.task(t, "task")

	f.ledger.Start(ctx, task.ID, "")
	f.clock.Advance(time.Hour)

	if total := f.ledger.TotalTime(ctx, task.ID); total != 0 {
		t.Errorf("Expected 0 while active, got %d", total)
	}
	if elapsed, ok := f.ledger.Elapsed(ctx); !ok || elapsed != time.Hour {
		t.Errorf("Expected 1h elapsed, got %v (%v)", elapsed, ok)
	}
}

func TestStopAfterTaskDeleted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	task := f.task(t, "task")

	f.ledger.Start(ctx, task.ID, "")
	f.tasks.Delete(ctx, task.ID)
	f.clock.Advance(5 * time.Minute)

	entry, err := f.ledger.Stop(ctx, task.ID)
	if err != nil {
		t.Fatalf("Expected stop to succeed for deleted task, got %v", err)
	}
	if entry.IsActive {
		t.Error("Expected entry to be closed")
	}
}

func TestConcurrentStartsYieldOneActive(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	const workers = 32
	ids := make([]string, workers)
	for i := range ids {
		ids[i] = f.task(t, "task").ID
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	started := 0
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := f.ledger.Start(ctx, id, ""); err == nil {
				mu.Lock()
				started++
				mu.Unlock()
			} else if !errors.Is(err, ErrSessionAlreadyActive) {
				t.Errorf("unexpected error: %v", err)
			}
		}(id)
	}
	wg.Wait()

	if started != 1 {
		t.Errorf("Expected exactly one start to succeed, got %d", started)
	}

	var all []models.TimeEntry
	for _, id := range ids {
		all = append(all, f.ledger.Entries(ctx, id)...)
	}
	if n := countActive(all); n != 1 {
		t.Errorf("Expected one active entry, got %d", n)
	}
}

func TestClosedSessionsOnDate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	task := f.task(t, "task")

	f.ledger.Start(ctx, task.ID, "")
	f.clock.Advance(10*time.Minute + 45*time.Second)
	f.ledger.Stop(ctx, task.ID)

	// still open sessions are not reported
	f.ledger.Start(ctx, task.ID, "")

	sessions, err := f.ledger.ClosedSessionsOnDate(ctx, f.clock.Now())
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 1 {
		t.Fatalf("Expected 1 session, got %d", len(sessions))
	}
	if sessions[0].DurationSeconds != 645 {
		t.Errorf("Expected 645 seconds, got %d", sessions[0].DurationSeconds)
	}

	other, _ := f.ledger.ClosedSessionsOnDate(ctx, f.clock.Now().AddDate(0, 0, 1))
	if len(other) != 0 {
		t.Errorf("Expected no sessions tomorrow, got %d", len(other))
	}
}

func TestLedgerReload(t *testing.T) {
	ctx := context.Background()
	kv := db.NewMemoryKV()

	ledger, _ := New(ctx, kv, nil)
	if _, err := ledger.Start(ctx, "t1", ""); err != nil {
		t.Fatal(err)
	}

	reloaded, err := New(ctx, kv, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := reloaded.Start(ctx, "t2", ""); !errors.Is(err, ErrSessionAlreadyActive) {
		t.Errorf("Expected active session to survive reload, got %v", err)
	}
}

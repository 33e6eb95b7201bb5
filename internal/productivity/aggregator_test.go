package productivity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/balkashynov/pulse/internal/db"
	"github.com/balkashynov/pulse/internal/models"
)

type stubSources struct {
	completed int
	sessions  []models.FocusSession
	rate      int
	events    int
	err       error
}

func (s *stubSources) CompletedOn(ctx context.Context, day time.Time) (int, error) {
	return s.completed, s.err
}

func (s *stubSources) ClosedSessionsOnDate(ctx context.Context, day time.Time) ([]models.FocusSession, error) {
	return s.sessions, nil
}

func (s *stubSources) RateOn(ctx context.Context, day time.Time) (int, error) {
	return s.rate, nil
}

func (s *stubSources) CountEventsOnDate(ctx context.Context, day time.Time) (int, error) {
	return s.events, nil
}

type stubFeed struct {
	sample models.WearableSample
	ok     bool
	calls  int
}

func (f *stubFeed) TryFetch(ctx context.Context, day time.Time) (models.WearableSample, bool) {
	f.calls++
	return f.sample, f.ok
}

// blockingFeed waits for its context, like a wearable API that never answers
type blockingFeed struct{}

func (blockingFeed) TryFetch(ctx context.Context, day time.Time) (models.WearableSample, bool) {
	<-ctx.Done()
	return models.WearableSample{}, false
}

var testDay = time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

func newAggregator(t *testing.T, src *stubSources, feed WearableFeed, opts ...Option) *Aggregator {
	t.Helper()
	log, err := NewLog(context.Background(), db.NewMemoryKV())
	if err != nil {
		t.Fatalf("NewLog failed: %v", err)
	}
	return NewAggregator(Sources{
		Tasks:    src,
		Focus:    src,
		Habits:   src,
		Events:   src,
		Wearable: feed,
	}, log, opts...)
}

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		in   ScoreInput
		want int
	}{
		{"example day", ScoreInput{TasksCompleted: 4, FocusMinutes: 60, HabitsScore: 80}, 51},
		{"nothing", ScoreInput{}, 0},
		{"saturated", ScoreInput{TasksCompleted: 10, FocusMinutes: 120, HabitsScore: 100}, 100},
		{"tasks saturate at ten", ScoreInput{TasksCompleted: 15}, 50},
		{"focus saturates at two hours", ScoreInput{FocusMinutes: 500}, 30},
		{"habit score clamped", ScoreInput{HabitsScore: 250}, 20},
		{"sleep boost", ScoreInput{TasksCompleted: 4, FocusMinutes: 60, HabitsScore: 80,
			Wearable: &Wearable{SleepHours: 8}}, 59},
		{"short sleep adds nothing", ScoreInput{TasksCompleted: 4, FocusMinutes: 60, HabitsScore: 80,
			Wearable: &Wearable{SleepHours: 4}}, 51},
		{"steps boost capped", ScoreInput{TasksCompleted: 4, FocusMinutes: 60, HabitsScore: 80,
			Wearable: &Wearable{Steps: 50000}}, 61},
		{"steps floored", ScoreInput{TasksCompleted: 4, FocusMinutes: 60, HabitsScore: 80,
			Wearable: &Wearable{Steps: 7999}}, 54},
		{"boost clamped to 100", ScoreInput{TasksCompleted: 10, FocusMinutes: 120, HabitsScore: 100,
			Wearable: &Wearable{Steps: 20000, SleepHours: 9}}, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.in); got != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestScoreTaskSaturation(t *testing.T) {
	ten := Score(ScoreInput{TasksCompleted: 10, FocusMinutes: 30, HabitsScore: 40})
	fifteen := Score(ScoreInput{TasksCompleted: 15, FocusMinutes: 30, HabitsScore: 40})
	if ten != fifteen {
		t.Errorf("Expected 15 tasks to score like 10, got %d vs %d", fifteen, ten)
	}
}

func TestComputeExampleDay(t *testing.T) {
	src := &stubSources{
		completed: 4,
		// 59s of the second session is dropped by per-session flooring
		sessions: []models.FocusSession{
			{StartTime: testDay.Add(9 * time.Hour), DurationSeconds: 40 * 60},
			{StartTime: testDay.Add(14 * time.Hour), DurationSeconds: 20*60 + 59},
			// started the previous evening
			{StartTime: testDay.Add(-time.Hour), DurationSeconds: 3600},
		},
		rate:   80,
		events: 3,
	}
	a := newAggregator(t, src, nil)

	point, err := a.Compute(context.Background(), testDay)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	want := models.ProductivityDataPoint{
		Date:              "2025-03-14",
		TasksCompleted:    4,
		FocusMinutes:      60,
		HabitsScore:       80,
		EventsCount:       3,
		ProductivityScore: 51,
	}
	if point != want {
		t.Errorf("Expected %+v, got %+v", want, point)
	}
}

func TestComputeFailOpenWearable(t *testing.T) {
	src := &stubSources{completed: 4, rate: 80,
		sessions: []models.FocusSession{{StartTime: testDay, DurationSeconds: 3600}}}

	t.Run("not ok", func(t *testing.T) {
		feed := &stubFeed{ok: false, sample: models.WearableSample{Steps: 20000, SleepHours: 9}}
		point, err := newAggregator(t, src, feed).Compute(context.Background(), testDay)
		if err != nil {
			t.Fatal(err)
		}
		if point.ProductivityScore != 51 {
			t.Errorf("Expected unadjusted 51, got %d", point.ProductivityScore)
		}
		if feed.calls != 1 {
			t.Errorf("Expected 1 fetch, got %d", feed.calls)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		a := newAggregator(t, src, blockingFeed{}, WithWearableTimeout(20*time.Millisecond))
		point, err := a.Compute(context.Background(), testDay)
		if err != nil {
			t.Fatal(err)
		}
		if point.ProductivityScore != 51 {
			t.Errorf("Expected unadjusted 51, got %d", point.ProductivityScore)
		}
	})

	t.Run("ok", func(t *testing.T) {
		feed := &stubFeed{ok: true, sample: models.WearableSample{Steps: 4000, SleepHours: 7.5}}
		point, _ := newAggregator(t, src, feed).Compute(context.Background(), testDay)
		// 51 + round(1.5*4) + 2
		if point.ProductivityScore != 59 {
			t.Errorf("Expected 59, got %d", point.ProductivityScore)
		}
	})
}

func TestComputeSourceError(t *testing.T) {
	src := &stubSources{err: errors.New("disk on fire")}
	if _, err := newAggregator(t, src, nil).Compute(context.Background(), testDay); err == nil {
		t.Error("Expected error from task source")
	}
}

func TestRunAppendsOnce(t *testing.T) {
	ctx := context.Background()
	src := &stubSources{completed: 2, rate: 50}
	a := newAggregator(t, src, nil)

	point, err := a.Run(ctx, testDay)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !a.Log().Has(ctx, "2025-03-14") {
		t.Error("Expected point in log")
	}

	src.completed = 9
	if _, err := a.Run(ctx, testDay); !errors.Is(err, ErrPointExists) {
		t.Errorf("Expected ErrPointExists, got %v", err)
	}
	stored, _ := a.Log().Get(ctx, "2025-03-14")
	if stored != point {
		t.Errorf("Expected stored point to stay %+v, got %+v", point, stored)
	}
}

func TestLogOrdering(t *testing.T) {
	ctx := context.Background()
	kv := db.NewMemoryKV()
	log, _ := NewLog(ctx, kv)

	for _, d := range []string{"2025-03-12", "2025-03-10", "2025-03-11"} {
		if err := log.Append(ctx, models.ProductivityDataPoint{Date: d}); err != nil {
			t.Fatal(err)
		}
	}
	if err := log.Append(ctx, models.ProductivityDataPoint{Date: "yesterday"}); err == nil {
		t.Error("Expected invalid date to be rejected")
	}

	points := log.Points(ctx)
	if points[0].Date != "2025-03-12" || points[2].Date != "2025-03-10" {
		t.Errorf("Expected most recent first, got %v", points)
	}

	between := log.Between(ctx, "2025-03-11", "2025-03-12")
	if len(between) != 2 || between[0].Date != "2025-03-11" {
		t.Errorf("Expected chronological window of 2, got %v", between)
	}

	reloaded, _ := NewLog(ctx, kv)
	if n := len(reloaded.Points(ctx)); n != 3 {
		t.Errorf("Expected 3 points after reload, got %d", n)
	}
}

func TestHTTPWearableFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/samples/2025-03-14":
			fmt.Fprint(w, `{"steps": 8421, "sleep_hours": 7.25}`)
		case "/samples/2025-03-15":
			fmt.Fprint(w, `not json`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	feed := NewHTTPWearableFeed(srv.URL+"/", nil)
	ctx := context.Background()

	sample, ok := feed.TryFetch(ctx, testDay)
	if !ok {
		t.Fatal("Expected sample")
	}
	if sample.Steps != 8421 || sample.SleepHours != 7.25 {
		t.Errorf("Unexpected sample %+v", sample)
	}

	if _, ok := feed.TryFetch(ctx, testDay.AddDate(0, 0, 1)); ok {
		t.Error("Expected bad JSON to be reported as unavailable")
	}
	if _, ok := feed.TryFetch(ctx, testDay.AddDate(0, 0, 2)); ok {
		t.Error("Expected 404 to be reported as unavailable")
	}

	if NewHTTPWearableFeed("", nil) != nil {
		t.Error("Expected nil feed for empty base URL")
	}
}

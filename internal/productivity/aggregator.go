package productivity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/balkashynov/pulse/internal/models"
)

// DefaultWearableTimeout bounds the wearable fetch when none is configured
const DefaultWearableTimeout = 3 * time.Second

// TaskCounter counts tasks completed on a day
type TaskCounter interface {
	CompletedOn(ctx context.Context, day time.Time) (int, error)
}

// FocusSource lists closed focus sessions that started on a day
type FocusSource interface {
	ClosedSessionsOnDate(ctx context.Context, day time.Time) ([]models.FocusSession, error)
}

// HabitRater reports the habit completion rate of a day
type HabitRater interface {
	RateOn(ctx context.Context, day time.Time) (int, error)
}

// EventSource counts calendar events on a day
type EventSource interface {
	CountEventsOnDate(ctx context.Context, day time.Time) (int, error)
}

// Sources are the collaborators an Aggregator reads from. Events and
// Wearable are optional.
type Sources struct {
	Tasks    TaskCounter
	Focus    FocusSource
	Habits   HabitRater
	Events   EventSource
	Wearable WearableFeed
}

// Aggregator turns a day's signals into a ProductivityDataPoint
type Aggregator struct {
	src             Sources
	log             *Log
	logger          *slog.Logger
	wearableTimeout time.Duration
}

// Option configures an Aggregator
type Option func(*Aggregator)

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithWearableTimeout bounds each wearable fetch
func WithWearableTimeout(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.wearableTimeout = d
		}
	}
}

// NewAggregator returns an aggregator appending to log
func NewAggregator(src Sources, log *Log, opts ...Option) *Aggregator {
	a := &Aggregator{
		src:             src,
		log:             log,
		logger:          slog.Default(),
		wearableTimeout: DefaultWearableTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Compute builds the data point for day without recording it
func (a *Aggregator) Compute(ctx context.Context, day time.Time) (models.ProductivityDataPoint, error) {
	point := models.ProductivityDataPoint{Date: models.DayKey(day)}

	completed, err := a.src.Tasks.CompletedOn(ctx, day)
	if err != nil {
		return point, fmt.Errorf("counting completed tasks: %w", err)
	}

	sessions, err := a.src.Focus.ClosedSessionsOnDate(ctx, day)
	if err != nil {
		return point, fmt.Errorf("listing focus sessions: %w", err)
	}
	focusMinutes := 0
	for _, s := range sessions {
		if models.SameDay(day, s.StartTime) {
			focusMinutes += s.DurationSeconds / 60
		}
	}

	habitsScore, err := a.src.Habits.RateOn(ctx, day)
	if err != nil {
		return point, fmt.Errorf("rating habits: %w", err)
	}
	habitsScore = clamp(habitsScore, 0, 100)

	events := 0
	if a.src.Events != nil {
		events, err = a.src.Events.CountEventsOnDate(ctx, day)
		if err != nil {
			return point, fmt.Errorf("counting events: %w", err)
		}
	}

	in := ScoreInput{
		TasksCompleted: completed,
		FocusMinutes:   focusMinutes,
		HabitsScore:    habitsScore,
		Wearable:       a.wearable(ctx, day),
	}

	point.TasksCompleted = completed
	point.FocusMinutes = focusMinutes
	point.HabitsScore = habitsScore
	point.EventsCount = events
	point.ProductivityScore = Score(in)
	return point, nil
}

// wearable fetches the day's sample under a timeout; nil means no adjustment
func (a *Aggregator) wearable(ctx context.Context, day time.Time) *Wearable {
	if a.src.Wearable == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, a.wearableTimeout)
	defer cancel()

	sample, ok := a.src.Wearable.TryFetch(ctx, day)
	if !ok {
		return nil
	}
	return &Wearable{Steps: sample.Steps, SleepHours: sample.SleepHours}
}

// Run computes the point for day and appends it to the log
func (a *Aggregator) Run(ctx context.Context, day time.Time) (models.ProductivityDataPoint, error) {
	key := models.DayKey(day)
	if a.log.Has(ctx, key) {
		return models.ProductivityDataPoint{}, fmt.Errorf("%w: %s", ErrPointExists, key)
	}

	point, err := a.Compute(ctx, day)
	if err != nil {
		return point, err
	}
	if err := a.log.Append(ctx, point); err != nil {
		return point, err
	}

	a.logger.Info("productivity recorded",
		slog.String("date", point.Date),
		slog.Int("score", point.ProductivityScore))
	return point, nil
}

// Log returns the data point log the aggregator appends to
func (a *Aggregator) Log() *Log {
	return a.log
}

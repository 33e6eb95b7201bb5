package correlation

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/balkashynov/pulse/internal/models"
)

// DefaultWindowDays is the trailing window used when a caller passes 0
const DefaultWindowDays = 30

// PointSource provides recorded productivity points between two days
type PointSource interface {
	Between(ctx context.Context, from, to string) []models.ProductivityDataPoint
}

// SampleSource provides correlation samples synthesized from checkins
type SampleSource interface {
	Samples(ctx context.Context) []models.CorrelationSample
}

// Pair is one day of the correlated series
type Pair struct {
	Date         string `json:"date"`
	Habits       int    `json:"habits"`
	Productivity int    `json:"productivity"`
}

// Summary is the result of a correlation over a trailing window
type Summary struct {
	Coefficient float64   `json:"coefficient"`
	Strength    Strength  `json:"strength"`
	Direction   Direction `json:"direction"`
	Days        int       `json:"days"`
	Series      []Pair    `json:"series"`
}

// Engine correlates habit adherence with productivity. It only reads.
type Engine struct {
	points  PointSource
	samples SampleSource
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine returns an engine over points and samples; either may be nil
func NewEngine(points PointSource, samples SampleSource, opts ...Option) *Engine {
	e := &Engine{
		points:  points,
		samples: samples,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Correlate computes Pearson r over days in [today-days, today]. Recorded
// productivity points win over synthesized samples for the same day.
func (e *Engine) Correlate(ctx context.Context, days int) (Summary, error) {
	if days < 0 {
		return Summary{}, fmt.Errorf("window must not be negative, got %d", days)
	}
	if days == 0 {
		days = DefaultWindowDays
	}

	now := e.now()
	from := models.DayKey(now.AddDate(0, 0, -days))
	to := models.DayKey(now)

	byDate := make(map[string]Pair)
	if e.samples != nil {
		for _, s := range e.samples.Samples(ctx) {
			if s.Date >= from && s.Date <= to {
				byDate[s.Date] = Pair{Date: s.Date, Habits: s.HabitScore, Productivity: s.ProductivityScore}
			}
		}
	}
	if e.points != nil {
		for _, p := range e.points.Between(ctx, from, to) {
			byDate[p.Date] = Pair{Date: p.Date, Habits: p.HabitsScore, Productivity: p.ProductivityScore}
		}
	}

	series := make([]Pair, 0, len(byDate))
	for _, p := range byDate {
		series = append(series, p)
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Date < series[j].Date })

	xs := make([]float64, len(series))
	ys := make([]float64, len(series))
	for i, p := range series {
		xs[i] = float64(p.Habits)
		ys[i] = float64(p.Productivity)
	}

	r := Pearson(xs, ys)
	strength, direction := Classify(r)

	e.logger.Debug("correlation computed",
		slog.Int("days", days),
		slog.Int("points", len(series)),
		slog.Float64("r", r))

	return Summary{
		Coefficient: r,
		Strength:    strength,
		Direction:   direction,
		Days:        days,
		Series:      series,
	}, nil
}

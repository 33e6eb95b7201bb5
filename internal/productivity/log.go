package productivity

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/balkashynov/pulse/internal/db"
	"github.com/balkashynov/pulse/internal/models"
)

// LogKey is the KV key the data point log persists under
const LogKey = "productivity_points"

var ErrPointExists = errors.New("productivity point already recorded for this day")

// Log is the append-only record of daily data points
type Log struct {
	mu     sync.RWMutex
	points []models.ProductivityDataPoint
	doc    db.Document[[]models.ProductivityDataPoint]
}

// NewLog loads the log from kv. A nil kv keeps it in memory.
func NewLog(ctx context.Context, kv db.KV) (*Log, error) {
	l := &Log{doc: db.NewDocument[[]models.ProductivityDataPoint](kv, LogKey)}

	points, _, err := l.doc.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading productivity log: %w", err)
	}
	l.points = points
	return l, nil
}

// Append records p. A day can only be recorded once.
func (l *Log) Append(ctx context.Context, p models.ProductivityDataPoint) error {
	if _, err := models.ParseDay(p.Date, nil); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.has(p.Date) {
		return fmt.Errorf("%w: %s", ErrPointExists, p.Date)
	}

	next := append(append([]models.ProductivityDataPoint{}, l.points...), p)
	if err := l.doc.Save(ctx, next); err != nil {
		return fmt.Errorf("persisting productivity log: %w", err)
	}
	l.points = next
	return nil
}

func (l *Log) has(date string) bool {
	for _, p := range l.points {
		if p.Date == date {
			return true
		}
	}
	return false
}

// Has reports whether date was recorded
func (l *Log) Has(ctx context.Context, date string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.has(date)
}

// Get returns the point recorded for date
func (l *Log) Get(ctx context.Context, date string) (models.ProductivityDataPoint, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, p := range l.points {
		if p.Date == date {
			return p, true
		}
	}
	return models.ProductivityDataPoint{}, false
}

// Points returns every point, most recent day first
func (l *Log) Points(ctx context.Context) []models.ProductivityDataPoint {
	out := l.sorted()
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Between returns points with from <= date <= to in chronological order.
// Both bounds are YYYY-MM-DD.
func (l *Log) Between(ctx context.Context, from, to string) []models.ProductivityDataPoint {
	out := []models.ProductivityDataPoint{}
	for _, p := range l.sorted() {
		if p.Date >= from && p.Date <= to {
			out = append(out, p)
		}
	}
	return out
}

func (l *Log) sorted() []models.ProductivityDataPoint {
	l.mu.RLock()
	out := append([]models.ProductivityDataPoint{}, l.points...)
	l.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/balkashynov/pulse/internal/config"
	"github.com/balkashynov/pulse/internal/correlation"
	"github.com/balkashynov/pulse/internal/db"
	"github.com/balkashynov/pulse/internal/habits"
	"github.com/balkashynov/pulse/internal/productivity"
	"github.com/balkashynov/pulse/internal/tasks"
	"github.com/balkashynov/pulse/internal/tracking"
)

// App holds every store and service over one database
type App struct {
	Config      *config.Config
	Logger      *slog.Logger
	Tasks       *tasks.Store
	Ledger      *tracking.Ledger
	Habits      *habits.Ledger
	Events      *db.EventStore
	Points      *productivity.Log
	Aggregator  *productivity.Aggregator
	Correlation *correlation.Engine

	// Now is the clock every component was built with
	Now func() time.Time

	gdb *gorm.DB
}

// Options override parts of the wiring, mostly for tests
type Options struct {
	Logger *slog.Logger
	Clock  func() time.Time
}

// Open opens cfg.DBPath and wires all components on top of it
func Open(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	gdb, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	a, err := build(ctx, cfg, opts, gdb)
	if err != nil {
		db.Close(gdb)
		return nil, err
	}
	return a, nil
}

func build(ctx context.Context, cfg *config.Config, opts Options, gdb *gorm.DB) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = cfg.NewLogger()
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	kv := db.NewKVStore(gdb)

	taskStore, err := tasks.New(ctx, kv,
		tasks.WithLogger(logger),
		tasks.WithClock(now),
		tasks.WithCycleDetection(cfg.Tasks.DetectCycles))
	if err != nil {
		return nil, fmt.Errorf("opening task store: %w", err)
	}

	ledger, err := tracking.New(ctx, kv, taskStore,
		tracking.WithLogger(logger),
		tracking.WithClock(now))
	if err != nil {
		return nil, fmt.Errorf("opening time ledger: %w", err)
	}

	points, err := productivity.NewLog(ctx, kv)
	if err != nil {
		return nil, err
	}

	habitLedger, err := habits.New(ctx, kv,
		habits.WithLogger(logger),
		habits.WithClock(now),
		habits.WithPointLookup(points))
	if err != nil {
		return nil, fmt.Errorf("opening habit ledger: %w", err)
	}

	events := db.NewEventStore(gdb)

	src := productivity.Sources{
		Tasks:  taskStore,
		Focus:  ledger,
		Habits: habitLedger,
		Events: events,
	}
	if feed := productivity.NewHTTPWearableFeed(cfg.Wearable.URL, logger); feed != nil {
		src.Wearable = feed
	}
	aggregator := productivity.NewAggregator(src, points,
		productivity.WithLogger(logger),
		productivity.WithWearableTimeout(cfg.Wearable.Timeout))

	engine := correlation.NewEngine(points, habitLedger,
		correlation.WithLogger(logger),
		correlation.WithClock(now))

	return &App{
		Config:      cfg,
		Logger:      logger,
		Tasks:       taskStore,
		Ledger:      ledger,
		Habits:      habitLedger,
		Events:      events,
		Points:      points,
		Aggregator:  aggregator,
		Correlation: engine,
		Now:         now,
		gdb:         gdb,
	}, nil
}

// Close releases the database
func (a *App) Close() error {
	return db.Close(a.gdb)
}

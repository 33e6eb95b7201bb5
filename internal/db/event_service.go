package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// EventStore serves calendar events
type EventStore struct {
	db *gorm.DB
}

// NewEventStore wraps an open database
func NewEventStore(gdb *gorm.DB) *EventStore {
	return &EventStore{db: gdb}
}

// CreateEvent stores a new event
func (s *EventStore) CreateEvent(ctx context.Context, title string, startsAt time.Time) (*Event, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("event title must not be empty")
	}

	event := Event{Title: title, StartsAt: startsAt.UTC()}
	if err := s.db.WithContext(ctx).Create(&event).Error; err != nil {
		return nil, fmt.Errorf("creating event: %w", err)
	}
	return &event, nil
}

// EventsOnDate returns events starting on the calendar day of day
func (s *EventStore) EventsOnDate(ctx context.Context, day time.Time) ([]Event, error) {
	from, to := dayBounds(day)

	var events []Event
	err := s.db.WithContext(ctx).
		Where("starts_at >= ? AND starts_at < ?", from, to).
		Order("starts_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	return events, nil
}

// CountEventsOnDate counts events starting on the calendar day of day
func (s *EventStore) CountEventsOnDate(ctx context.Context, day time.Time) (int, error) {
	from, to := dayBounds(day)

	var count int64
	err := s.db.WithContext(ctx).
		Model(&Event{}).
		Where("starts_at >= ? AND starts_at < ?", from, to).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("counting events: %w", err)
	}
	return int(count), nil
}

func dayBounds(day time.Time) (time.Time, time.Time) {
	// Stored times are UTC so text comparison in sqlite stays ordered
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return from.UTC(), from.AddDate(0, 0, 1).UTC()
}

package habits

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/balkashynov/pulse/internal/models"
)

// AddCheckin records a wellness checkin. With overwrite set, an existing
// checkin for the same date is replaced; otherwise both are kept.
// If no correlation data exists for the date yet, a sample is synthesized
// from the habit rate on that date and the checkin.
func (l *Ledger) AddCheckin(ctx context.Context, c models.WellnessCheckin, overwrite bool) (*models.WellnessCheckin, error) {
	if c.Date == "" {
		c.Date = models.DayKey(l.now())
	}
	if err := validateCheckin(c); err != nil {
		return nil, err
	}
	day, _ := models.ParseDay(c.Date, l.now().Location())

	l.mu.Lock()
	defer l.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	habitScore := l.rateOn(day)
	hasPoint := l.points != nil && l.points.Has(ctx, c.Date)

	var synthesized bool
	err := l.apply(ctx, func(st *state) error {
		replaced := false
		if overwrite {
			for i := range st.Checkins {
				if st.Checkins[i].Date == c.Date {
					st.Checkins[i] = c
					replaced = true
					break
				}
			}
		}
		if !replaced {
			st.Checkins = append(st.Checkins, c)
		}

		if hasPoint || hasSample(st.Samples, c.Date) {
			return nil
		}
		st.Samples = append(st.Samples, models.CorrelationSample{
			Date:              c.Date,
			HabitScore:        habitScore,
			ProductivityScore: CheckinScore(c),
		})
		synthesized = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.Debug("checkin recorded", slog.String("date", c.Date), slog.Bool("synthesized_sample", synthesized))
	return &c, nil
}

func validateCheckin(c models.WellnessCheckin) error {
	if _, err := models.ParseDay(c.Date, nil); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCheckin, err)
	}
	if c.Mood < 1 || c.Mood > 5 {
		return fmt.Errorf("%w: mood must be between 1 and 5", ErrInvalidCheckin)
	}
	if c.Energy < 1 || c.Energy > 5 {
		return fmt.Errorf("%w: energy must be between 1 and 5", ErrInvalidCheckin)
	}
	if c.SleepHours < 0 || c.SleepHours > 12 {
		return fmt.Errorf("%w: sleep hours must be between 0 and 12", ErrInvalidCheckin)
	}
	return nil
}

// CheckinScore estimates a 0-100 productivity score from a checkin:
// mood and energy weigh 40 each, sleep up to 8 hours weighs 20.
func CheckinScore(c models.WellnessCheckin) int {
	sleep := math.Min(c.SleepHours, 8)
	score := float64(c.Mood)/5*40 + float64(c.Energy)/5*40 + sleep/8*20
	return clamp(int(math.Round(score)), 0, 100)
}

func hasSample(samples []models.CorrelationSample, date string) bool {
	for _, s := range samples {
		if s.Date == date {
			return true
		}
	}
	return false
}

// Checkins returns checkins ordered by date
func (l *Ledger) Checkins(ctx context.Context) []models.WellnessCheckin {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := append([]models.WellnessCheckin{}, l.st.Checkins...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// Samples returns synthesized correlation samples ordered by date
func (l *Ledger) Samples(ctx context.Context) []models.CorrelationSample {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := append([]models.CorrelationSample{}, l.st.Samples...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

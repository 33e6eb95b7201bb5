package tracking

import (
	"context"
	"time"

	"github.com/balkashynov/pulse/internal/models"
)

// ClosedSessionsOnDate reports closed entries that started on day's
// calendar date as focus sessions.
func (l *Ledger) ClosedSessionsOnDate(ctx context.Context, day time.Time) ([]models.FocusSession, error) {
	from := models.StartOfDay(day)
	entries := l.EntriesBetween(ctx, from, from.AddDate(0, 0, 1))

	sessions := make([]models.FocusSession, 0, len(entries))
	for _, e := range entries {
		if e.EndTime == nil {
			continue
		}
		sessions = append(sessions, models.FocusSession{
			StartTime:       e.StartTime,
			DurationSeconds: int(e.EndTime.Sub(e.StartTime).Seconds()),
		})
	}
	return sessions, nil
}

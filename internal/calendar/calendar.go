// Package calendar provides a database-backed calendar for self-contained
// deployments that do not delegate to an external calendar service. Events
// booked by the engine land here, and free/busy queries answer from the
// same table, so availability reflects what the engine itself has booked.
package calendar

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/schedflow/schedflow/pkg/gcal"
	"github.com/schedflow/schedflow/pkg/models"
)

type Calendar struct {
	db *sqlx.DB
}

var (
	_ gcal.CalendarFreeBusy     = (*Calendar)(nil)
	_ gcal.CalendarEventCreator = (*Calendar)(nil)
)

func New(db *sqlx.DB) *Calendar {
	return &Calendar{db: db}
}

// QueryBusy returns the busy intervals overlapping [timeMin, timeMax),
// earliest first. This is a single-calendar store; the calendar id is
// accepted for contract compatibility and ignored.
func (c *Calendar) QueryBusy(ctx context.Context, timeMin, timeMax time.Time, _ string) ([]models.BusyInterval, error) {
	var rows []busyRow
	err := c.db.SelectContext(ctx, &rows, `
		SELECT start_time, end_time FROM events
		WHERE start_time < $2 AND end_time > $1
		ORDER BY start_time`,
		timeMin, timeMax)
	if err != nil {
		return nil, &gcal.TransportError{Op: "calendar.freebusy", Transient: true, Err: err}
	}
	busy := make([]models.BusyInterval, 0, len(rows))
	for _, r := range rows {
		busy = append(busy, models.BusyInterval{Start: r.Start, End: r.End})
	}
	return busy, nil
}

type busyRow struct {
	Start time.Time `db:"start_time"`
	End   time.Time `db:"end_time"`
}

// CreateEvent inserts the event and returns its generated id.
func (c *Calendar) CreateEvent(ctx context.Context, ev gcal.Event) (string, error) {
	id := uuid.NewString()
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO events (id, summary, attendees, start_time, end_time, timezone)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		id, ev.Summary, pq.Array(ev.Attendees), ev.Start, ev.End, ev.Timezone)
	if err != nil {
		return "", errors.Wrapf(err, "insert event %q", ev.Summary)
	}
	return id, nil
}

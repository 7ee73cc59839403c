// Package gcal defines the contracts for the external mail, calendar and
// contact collaborators the scheduling engine drives. Implementations wrap
// the real transports (Gmail, Google Calendar, SMTP); the engine itself only
// depends on these interfaces.
package gcal

import (
	"context"
	"time"

	"github.com/schedflow/schedflow/pkg/models"
)

// Message is a single message within a mail thread.
type Message struct {
	ID      string
	From    string
	Snippet string // reply-text snippet used for slot extraction
	Date    time.Time
}

// Event is an outbound calendar event.
type Event struct {
	Summary   string
	Attendees []string
	Start     time.Time
	End       time.Time
	Timezone  string
}

// MailSender dispatches an email and reports the thread it started.
type MailSender interface {
	Send(ctx context.Context, to, subject, body string) (threadID string, err error)
}

// MailThreadReader fetches all messages of a thread, oldest first.
type MailThreadReader interface {
	GetThread(ctx context.Context, threadID string) ([]Message, error)
}

// CalendarFreeBusy queries busy intervals for a calendar within a window.
type CalendarFreeBusy interface {
	QueryBusy(ctx context.Context, timeMin, timeMax time.Time, calendarID string) ([]models.BusyInterval, error)
}

// CalendarEventCreator inserts an event and returns its ID.
type CalendarEventCreator interface {
	CreateEvent(ctx context.Context, ev Event) (eventID string, err error)
}

// ContactResolver maps a fuzzy name or exact email to a known address using
// a most-recent-match policy. Returns ErrContactNotFound when nothing
// matches.
type ContactResolver interface {
	Resolve(ctx context.Context, nameOrEmail string) (string, error)
}

package mail

import (
	"context"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/schedflow/schedflow/pkg/gcal"
)

// Inbox is the thread registry for SMTP deployments. SMTP has no thread
// API, so each outbound send seeds a thread row here and inbound replies
// are appended by the mail webhook; the poller reads the thread back
// through the MailThreadReader contract.
type Inbox struct {
	db *sqlx.DB
}

var _ gcal.MailThreadReader = (*Inbox)(nil)

func NewInbox(db *sqlx.DB) *Inbox {
	return &Inbox{db: db}
}

// Record appends a message to a thread.
func (ib *Inbox) Record(ctx context.Context, threadID string, msg gcal.Message) error {
	received := msg.Date
	if received.IsZero() {
		received = time.Now()
	}
	_, err := ib.db.ExecContext(ctx, `
		INSERT INTO thread_messages (thread_id, sender, snippet, received_at)
		VALUES ($1, $2, $3, $4)`,
		threadID, msg.From, msg.Snippet, received)
	if err != nil {
		return errors.Wrapf(err, "record message on thread %s", threadID)
	}
	return nil
}

// GetThread returns the thread's messages oldest first; an unknown thread
// yields an empty slice, not an error.
func (ib *Inbox) GetThread(ctx context.Context, threadID string) ([]gcal.Message, error) {
	var rows []messageRow
	err := ib.db.SelectContext(ctx, &rows, `
		SELECT id, sender, snippet, received_at FROM thread_messages
		WHERE thread_id = $1 ORDER BY id`,
		threadID)
	if err != nil {
		return nil, &gcal.TransportError{Op: "inbox.get_thread", Transient: true, Err: err}
	}
	msgs := make([]gcal.Message, 0, len(rows))
	for _, r := range rows {
		msgs = append(msgs, gcal.Message{
			ID:      strconv.FormatInt(r.ID, 10),
			From:    r.Sender,
			Snippet: r.Snippet,
			Date:    r.ReceivedAt,
		})
	}
	return msgs, nil
}

type messageRow struct {
	ID         int64     `db:"id"`
	Sender     string    `db:"sender"`
	Snippet    string    `db:"snippet"`
	ReceivedAt time.Time `db:"received_at"`
}

// WrapSender couples a sender with the inbox so replies line up behind the
// availability message we sent: the outbound body becomes the first message
// of its thread.
func (ib *Inbox) WrapSender(next gcal.MailSender) gcal.MailSender {
	return &recordingSender{next: next, rec: ib}
}

type threadRecorder interface {
	Record(ctx context.Context, threadID string, msg gcal.Message) error
}

type recordingSender struct {
	next gcal.MailSender
	rec  threadRecorder
}

func (r *recordingSender) Send(ctx context.Context, to, subject, body string) (string, error) {
	threadID, err := r.next.Send(ctx, to, subject, body)
	if err != nil {
		return "", err
	}
	if err := r.rec.Record(ctx, threadID, gcal.Message{ID: threadID, Snippet: body}); err != nil {
		return "", err
	}
	return threadID, nil
}

package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/schedflow/schedflow/pkg/extract"
	"github.com/schedflow/schedflow/pkg/gcal"
	"github.com/schedflow/schedflow/pkg/models"
	"github.com/schedflow/schedflow/pkg/slots"
	"github.com/schedflow/schedflow/pkg/storage"
)

// Logger defines the logging interface for the scheduling services.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Collaborators bundles the external capabilities the scheduler drives.
type Collaborators struct {
	Mail     gcal.MailSender
	Threads  gcal.MailThreadReader
	FreeBusy gcal.CalendarFreeBusy
	Events   gcal.CalendarEventCreator
	Contacts gcal.ContactResolver
	Creds    gcal.CredentialProvider
}

// Config carries the scheduling policy knobs.
type Config struct {
	HorizonDays int              // availability window in days, default 3
	CalendarID  string           // free/busy calendar, default "primary"
	Timezone    string           // fixed operating timezone for created events
	Now         func() time.Time // injectable clock for tests
}

func (c *Config) applyDefaults() {
	if c.HorizonDays <= 0 {
		c.HorizonDays = 3
	}
	if c.CalendarID == "" {
		c.CalendarID = "primary"
	}
	if c.Timezone == "" {
		c.Timezone = "America/Los_Angeles"
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

// DataIntegrityError marks a task that is missing fields required by its
// current status. Logged and skipped, never silently repaired.
type DataIntegrityError struct {
	TaskID  string
	Missing string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("task %s: missing %s", e.TaskID, e.Missing)
}

// attendeeFromSummary recovers an attendee name from phrasing like
// "catch-up with Bob".
var attendeeFromSummary = regexp.MustCompile(`[Ww]ith\s+(.+)$`)

// Scheduler is the scheduling state machine. Advance is its single entry
// point: given an external trigger it decides the next task state, performs
// the required collaborator calls and returns the user-facing response.
// Store writes happen only after the external action they depend on
// succeeded.
type Scheduler struct {
	store     storage.Store
	collab    Collaborators
	extractor *extract.Extractor
	cfg       Config
	logger    Logger
}

func NewScheduler(store storage.Store, collab Collaborators, cfg Config, logger Logger) *Scheduler {
	cfg.applyDefaults()
	return &Scheduler{
		store:     store,
		collab:    collab,
		extractor: extract.New(),
		cfg:       cfg,
		logger:    logger,
	}
}

// Advance processes one trigger to completion and returns the reply to show
// the user. Transport and auth failures propagate as errors; ambiguous or
// missing input comes back as a clarifying prompt, never a raw error.
func (s *Scheduler) Advance(ctx context.Context, trigger models.Trigger) (string, error) {
	switch trigger.Kind {
	case models.NewRequestTriggerKind:
		if trigger.Request == nil {
			return "", errors.New("new request trigger without request payload")
		}
		return s.handleNewRequest(ctx, trigger.ConversationID, *trigger.Request)
	case models.UserReplyTriggerKind:
		return s.handleUserReply(ctx, trigger.ConversationID, trigger.Text)
	default:
		return "", errors.Errorf("unknown trigger kind %q", trigger.Kind)
	}
}

func (s *Scheduler) handleNewRequest(ctx context.Context, conversationID string, req models.EventRequest) (string, error) {
	if _, err := s.collab.Creds.Token(ctx); err != nil {
		return "", err
	}

	attendees := req.Attendees
	if len(attendees) == 0 {
		if m := attendeeFromSummary.FindStringSubmatch(req.Summary); m != nil {
			attendees = []string{strings.TrimSpace(m[1])}
			s.logger.Infof("extracted attendee %q from summary", attendees[0])
		}
	}
	if len(attendees) == 0 {
		return "Who should attend this meeting? Please provide a name or email.", nil
	}

	resolved := make([]string, 0, len(attendees))
	for _, name := range attendees {
		if strings.Contains(name, "@") {
			resolved = append(resolved, name)
			continue
		}
		addr, err := s.collab.Contacts.Resolve(ctx, name)
		if err == nil {
			s.logger.Infof("resolved %q to %s", name, addr)
			resolved = append(resolved, addr)
			continue
		}
		if !errors.Is(err, gcal.ErrContactNotFound) {
			return "", errors.Wrapf(err, "resolve attendee %q", name)
		}
		// First unresolvable attendee wins: park the request and ask.
		req.Attendees = attendees
		task := models.Task{
			ID:             uuid.NewString(),
			TaskType:       models.ScheduleEventTaskType,
			ConversationID: conversationID,
			Status:         models.AwaitingContactStatus,
			Params:         models.TaskParams{OriginalArgs: &req, CreatorEmail: req.CreatorEmail},
			CreatedAt:      s.cfg.Now(),
			UpdatedAt:      s.cfg.Now(),
		}
		if err := s.saveTask(task); err != nil {
			return "", err
		}
		s.logger.Infof("parked task %s awaiting contact for %q", task.ID, name)
		return fmt.Sprintf("I don't have an email for '%s'. Could you please provide it?", name), nil
	}
	req.Attendees = resolved

	if req.Start != "" {
		if err := s.createEvent(ctx, req); err != nil {
			return "", err
		}
		return fmt.Sprintf("✅ Event '%s' scheduled on %s.", req.Summary, req.Start), nil
	}

	return s.sendAvailabilityAndPark(ctx, conversationID, req, nil)
}

func (s *Scheduler) handleUserReply(ctx context.Context, conversationID, text string) (string, error) {
	pending, err := s.store.FindContactTask(conversationID)
	if errors.Is(err, storage.ErrNotFound) {
		return "There's nothing waiting on you right now. Ask me to schedule a meeting to get started.", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "look up pending contact task")
	}

	addr := strings.TrimSpace(text)
	if !strings.Contains(addr, "@") {
		// Re-prompt without mutating state.
		return "That doesn't look like an email address. Please send a valid one, e.g. alice@example.com.", nil
	}

	orig := pending.Params.OriginalArgs
	if orig == nil || orig.Summary == "" {
		return "", &DataIntegrityError{TaskID: pending.ID, Missing: "original_args.summary"}
	}

	req := models.EventRequest{
		Summary:      orig.Summary,
		Attendees:    []string{addr},
		CreatorEmail: orig.CreatorEmail,
	}
	return s.sendAvailabilityAndPark(ctx, conversationID, req, &pending)
}

// sendAvailabilityAndPark computes free slots over the horizon, emails them
// to the first attendee and persists the waiting_for_slot task carrying the
// resulting thread ID. When answering a pending awaiting_contact task the
// existing row transitions in place instead of a new one being created; that
// transition happens exactly once and never reverts.
func (s *Scheduler) sendAvailabilityAndPark(ctx context.Context, conversationID string, req models.EventRequest, pending *models.Task) (string, error) {
	now := s.cfg.Now()
	busy, err := s.collab.FreeBusy.QueryBusy(ctx, now, now.AddDate(0, 0, s.cfg.HorizonDays), s.cfg.CalendarID)
	if err != nil {
		return "", errors.Wrap(err, "free/busy query")
	}
	free := slots.Plan(busy, s.cfg.HorizonDays, now)

	toAddr := strings.Join(req.Attendees, ", ")
	threadID, err := s.collab.Mail.Send(ctx,
		toAddr,
		fmt.Sprintf("Availability for %s", req.Summary),
		availabilityBody(free, s.cfg.HorizonDays),
	)
	if err != nil {
		return "", errors.Wrap(err, "send availability email")
	}
	s.logger.Infof("sent availability email for %q, thread %s", req.Summary, threadID)

	params := models.TaskParams{
		OriginalArgs: &req,
		ThreadID:     threadID,
		CreatorEmail: req.CreatorEmail,
	}
	if pending != nil {
		if err := s.updateTask(pending.ID, models.WaitingForSlotStatus, params); err != nil {
			return "", err
		}
		return fmt.Sprintf("✅ Thanks! Emailed availability to %s—will schedule once they reply.", toAddr), nil
	}

	task := models.Task{
		ID:             uuid.NewString(),
		TaskType:       models.ScheduleEventTaskType,
		ConversationID: conversationID,
		Status:         models.WaitingForSlotStatus,
		Params:         params,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.saveTask(task); err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Emailed availability to %s—will schedule once they reply.", toAddr), nil
}

// createEvent inserts a calendar event for the request, prepending the
// creator to the attendee list. Start/End accept RFC3339 or any parseable
// layout; a missing end defaults to start plus one hour, and past parses are
// rolled forward.
func (s *Scheduler) createEvent(ctx context.Context, req models.EventRequest) error {
	now := s.cfg.Now()
	start, err := parseEventTime(req.Start, now)
	if err != nil {
		return errors.Wrapf(err, "parse start %q", req.Start)
	}
	end := start.Add(slots.SlotDuration)
	if req.End != "" {
		if end, err = parseEventTime(req.End, now); err != nil {
			return errors.Wrapf(err, "parse end %q", req.End)
		}
	}

	attendees := req.Attendees
	if req.CreatorEmail != "" {
		attendees = append([]string{req.CreatorEmail}, attendees...)
	}

	eventID, err := s.collab.Events.CreateEvent(ctx, gcal.Event{
		Summary:   req.Summary,
		Attendees: attendees,
		Start:     start,
		End:       end,
		Timezone:  s.cfg.Timezone,
	})
	if err != nil {
		return errors.Wrap(err, "create calendar event")
	}
	s.logger.Infof("created event %s: %q at %s", eventID, req.Summary, start.Format(time.RFC3339))
	return nil
}

func parseEventTime(value string, ref time.Time) (time.Time, error) {
	if t, err := time.ParseInLocation(time.RFC3339, value, ref.Location()); err == nil {
		return extract.EnsureFuture(t, ref), nil
	}
	t, err := dateparse.ParseIn(value, ref.Location())
	if err != nil {
		return time.Time{}, err
	}
	return extract.EnsureFuture(t, ref), nil
}

// availabilityBody renders the candidate slots the way the outbound offer
// email presents them.
func availabilityBody(free []time.Time, horizonDays int) string {
	lines := []string{fmt.Sprintf("Hi,\nHere are my available slots for the next %d days:", horizonDays)}
	for _, t := range free {
		lines = append(lines, fmt.Sprintf("- %s", t.Format("Monday, January 02 at 03:04 PM")))
	}
	lines = append(lines, "\nPlease let me know which works for you.\nThanks!")
	return strings.Join(lines, "\n")
}

// saveTask persists a new task within a transaction, rolling back on error.
func (s *Scheduler) saveTask(task models.Task) (err error) {
	txStore, err := s.store.Begin()
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer func() {
		if err != nil {
			if rollbackErr := txStore.Rollback(); rollbackErr != nil {
				s.logger.Errorf("failed to rollback: %v (original error: %v)", rollbackErr, err)
			}
			return
		}
		if commitErr := txStore.Commit(); commitErr != nil {
			s.logger.Errorf("failed to commit: %v", commitErr)
			err = commitErr
		}
	}()
	if err = txStore.SaveTask(task); err != nil {
		return errors.Wrapf(err, "save task %s", task.ID)
	}
	return nil
}

func (s *Scheduler) updateTask(id string, status models.TaskStatus, params models.TaskParams) (err error) {
	txStore, err := s.store.Begin()
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer func() {
		if err != nil {
			if rollbackErr := txStore.Rollback(); rollbackErr != nil {
				s.logger.Errorf("failed to rollback: %v (original error: %v)", rollbackErr, err)
			}
			return
		}
		if commitErr := txStore.Commit(); commitErr != nil {
			s.logger.Errorf("failed to commit: %v", commitErr)
			err = commitErr
		}
	}()
	if err = txStore.UpdateTask(id, status, params); err != nil {
		return errors.Wrapf(err, "update task %s", id)
	}
	return nil
}

package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/schedflow/schedflow/pkg/extract"
	"github.com/schedflow/schedflow/pkg/gcal"
	"github.com/schedflow/schedflow/pkg/models"
	"github.com/schedflow/schedflow/pkg/slots"
)

const (
	// DefaultPollInterval is how often reply threads are re-checked.
	DefaultPollInterval = 60 * time.Second

	// Bounded retry for transient transport faults on poller-originated
	// calls. Fixed delay, no backoff.
	transportRetryLimit = 3
	transportRetryDelay = 2 * time.Second
)

// Poller is the background loop that drives waiting_for_slot tasks forward:
// fetch the reply thread, extract a slot, book the event, mark the task
// completed. One task's failure never blocks the rest of the cycle.
type Poller struct {
	sched    *Scheduler
	interval time.Duration
	logger   Logger
	cron     *cron.Cron

	// cycleMu keeps cycles from overlapping: a cycle slower than the poll
	// interval would otherwise run concurrently with the next tick, and
	// both could book an event for the same task before either reaches the
	// status swap.
	cycleMu sync.Mutex
}

func NewPoller(sched *Scheduler, interval time.Duration, logger Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		sched:    sched,
		interval: interval,
		logger:   logger,
	}
}

// Start schedules RunCycle on the poll interval and returns immediately.
// The loop stops when ctx is cancelled; process shutdown is the only other
// termination path.
func (p *Poller) Start(ctx context.Context) error {
	p.cron = cron.New()
	_, err := p.cron.AddFunc(fmt.Sprintf("@every %s", p.interval), func() {
		if err := p.RunCycle(ctx); err != nil {
			p.logger.Errorf("poll cycle: %v", err)
		}
	})
	if err != nil {
		return errors.Wrap(err, "schedule poll cycle")
	}
	p.cron.Start()
	p.logger.Infof("poller started, interval %s", p.interval)

	go func() {
		<-ctx.Done()
		p.cron.Stop()
		p.logger.Infof("poller stopped")
	}()
	return nil
}

// RunCycle processes every waiting_for_slot task once. At most one cycle
// runs at a time; a tick arriving while the previous cycle is still working
// is dropped. The cycle is skipped entirely when no usable credential is
// available yet.
func (p *Poller) RunCycle(ctx context.Context) error {
	if !p.cycleMu.TryLock() {
		p.logger.Warnf("previous poll cycle still running, skipping this tick")
		return nil
	}
	defer p.cycleMu.Unlock()

	if _, err := p.sched.collab.Creds.Token(ctx); err != nil {
		p.logger.Warnf("skipping poll cycle, no credential: %v", err)
		return nil
	}

	tasks, err := p.sched.store.ListTasksByStatus(models.WaitingForSlotStatus)
	if err != nil {
		return errors.Wrap(err, "list waiting_for_slot tasks")
	}
	for _, task := range tasks {
		if err := p.processTask(ctx, task); err != nil {
			// Per-task isolation: log and keep going.
			p.logger.Errorf("task %s: %v", task.ID, err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return nil
}

func (p *Poller) processTask(ctx context.Context, task models.Task) error {
	threadID := task.Params.ThreadID
	orig := task.Params.OriginalArgs
	if threadID == "" {
		return &DataIntegrityError{TaskID: task.ID, Missing: "thread_id"}
	}
	if orig == nil || orig.Summary == "" {
		return &DataIntegrityError{TaskID: task.ID, Missing: "original_args.summary"}
	}

	var msgs []gcal.Message
	err := p.withRetry(ctx, "threads.get", func() error {
		var err error
		msgs, err = p.sched.collab.Threads.GetThread(ctx, threadID)
		return err
	})
	if err != nil {
		return errors.Wrapf(err, "fetch thread %s", threadID)
	}
	if len(msgs) <= 1 {
		// Only our outbound message so far; leave the task untouched.
		p.logger.Infof("no reply yet for thread %s", threadID)
		return nil
	}

	reply := msgs[len(msgs)-1].Snippet
	now := p.sched.cfg.Now()
	start, err := p.sched.extractor.Extract(reply, now)
	if errors.Is(err, extract.ErrNoSlot) {
		// Recoverable: retried on the next cycle, no user-visible error.
		p.logger.Infof("could not parse a slot from thread %s, will retry", threadID)
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "extract slot from thread %s", threadID)
	}

	p.logger.Infof("scheduling %q at %s", orig.Summary, start.Format(time.RFC3339))
	req := models.EventRequest{
		Summary:      orig.Summary,
		Attendees:    orig.Attendees,
		Start:        start.Format(time.RFC3339),
		End:          start.Add(slots.SlotDuration).Format(time.RFC3339),
		CreatorEmail: task.Params.CreatorEmail,
	}
	if err := p.withRetry(ctx, "events.insert", func() error {
		return p.sched.createEvent(ctx, req)
	}); err != nil {
		return err
	}

	// Event exists; only now commit the completion. The swap is atomic so a
	// concurrent writer cannot complete the same task twice.
	ok, err := p.sched.store.SwapStatus(task.ID, models.WaitingForSlotStatus, models.CompletedTaskStatus)
	if err != nil {
		return errors.Wrapf(err, "complete task %s", task.ID)
	}
	if !ok {
		p.logger.Warnf("task %s was completed concurrently", task.ID)
	}
	return nil
}

// withRetry runs fn up to transportRetryLimit times, sleeping a fixed delay
// between attempts, but only for transient transport faults. Everything else
// propagates immediately.
func (p *Poller) withRetry(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= transportRetryLimit; attempt++ {
		err = fn()
		if err == nil || !gcal.IsTransient(err) {
			return err
		}
		p.logger.Warnf("transient fault on %s (attempt %d/%d): %v", op, attempt, transportRetryLimit, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(transportRetryDelay):
		}
	}
	return err
}

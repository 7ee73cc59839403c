package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

type TaskStatus string

const (
	PendingTaskStatus     TaskStatus = "pending"
	AwaitingContactStatus TaskStatus = "awaiting_contact"
	WaitingForSlotStatus  TaskStatus = "waiting_for_slot"
	CompletedTaskStatus   TaskStatus = "completed"
)

const ScheduleEventTaskType = "schedule_event"

// Task represents a unit of deferred scheduling work.
type Task struct {
	ID             string     `json:"id" db:"id"`                           // UUID, assigned at creation, immutable
	TaskType       string     `json:"task_type" db:"task_type"`             // Workflow tag (e.g. "schedule_event")
	ConversationID string     `json:"conversation_id" db:"conversation_id"` // Session the task belongs to
	Status         TaskStatus `json:"status" db:"status"`
	Params         TaskParams `json:"parameters" db:"parameters"` // JSONB column
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"` // Refreshed on every mutation
}

// TaskParams holds workflow-specific data attached to a task. For
// schedule_event tasks OriginalArgs carries the pending request; ThreadID is
// set once the availability email has gone out.
type TaskParams struct {
	OriginalArgs *EventRequest `json:"original_args,omitempty"`
	ThreadID     string        `json:"thread_id,omitempty"`
	CreatorEmail string        `json:"creator_email,omitempty"`
}

// Value implements driver.Valuer so the params land in a JSONB column.
func (p TaskParams) Value() (driver.Value, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, errors.Wrap(err, "marshal task params")
	}
	return b, nil
}

// Scan implements sql.Scanner for reading the JSONB column back.
func (p *TaskParams) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	case nil:
		*p = TaskParams{}
		return nil
	default:
		return errors.Errorf("unsupported scan type %T for TaskParams", src)
	}
}

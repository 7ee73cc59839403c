package storage

import (
	"github.com/pkg/errors"

	"github.com/schedflow/schedflow/pkg/models"
)

// ErrNotFound is returned by lookups that match no task.
var ErrNotFound = errors.New("not found")

// Store defines the persistence operations for scheduling tasks. All writes
// are durable before the call returns; the scheduler and the poller rely on
// persisted status to avoid reprocessing.
type Store interface {
	Begin() (Store, error)
	Commit() error
	Rollback() error
	Close() error

	// SaveTask persists a task. Saving an ID that already exists replaces
	// the stored row, so a repeated save is harmless.
	SaveTask(t models.Task) error
	// GetTask retrieves a task by ID, ErrNotFound when absent.
	GetTask(id string) (models.Task, error)
	// ListTasksByStatus returns all tasks in the given status, oldest first.
	ListTasksByStatus(status models.TaskStatus) ([]models.Task, error)
	// FindContactTask returns the awaiting_contact task for a conversation,
	// ErrNotFound when the conversation has none.
	FindContactTask(conversationID string) (models.Task, error)
	// UpdateTask replaces status and parameters, refreshing updated_at.
	UpdateTask(id string, status models.TaskStatus, params models.TaskParams) error
	// SwapStatus transitions status from->to atomically, refreshing
	// updated_at. Returns false without error when the task is no longer in
	// the from status, so concurrent writers cannot complete a task twice.
	SwapStatus(id string, from, to models.TaskStatus) (bool, error)
}

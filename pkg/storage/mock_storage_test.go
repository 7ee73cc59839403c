package storage_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schedflow/schedflow/pkg/models"
	"github.com/schedflow/schedflow/pkg/storage"
)

func newTask(id, conv string, status models.TaskStatus) models.Task {
	return models.Task{
		ID:             id,
		TaskType:       models.ScheduleEventTaskType,
		ConversationID: conv,
		Status:         status,
		Params: models.TaskParams{
			OriginalArgs: &models.EventRequest{Summary: "Sync with Bob"},
		},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func TestMockStore(t *testing.T) {
	t.Run("SaveAndGet", func(t *testing.T) {
		store := storage.NewMockStore()
		task := newTask("t1", "c1", models.WaitingForSlotStatus)
		require.NoError(t, store.SaveTask(task))

		got, err := store.GetTask("t1")
		require.NoError(t, err)
		assert.Equal(t, "Sync with Bob", got.Params.OriginalArgs.Summary)

		_, err = store.GetTask("missing")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("ResaveReplacesExistingRow", func(t *testing.T) {
		store := storage.NewMockStore()
		require.NoError(t, store.SaveTask(newTask("t1", "c1", models.PendingTaskStatus)))
		require.NoError(t, store.SaveTask(newTask("t1", "c1", models.WaitingForSlotStatus)))

		got, err := store.GetTask("t1")
		require.NoError(t, err)
		assert.Equal(t, models.WaitingForSlotStatus, got.Status)

		tasks, err := store.ListTasksByStatus(models.WaitingForSlotStatus)
		require.NoError(t, err)
		assert.Len(t, tasks, 1)
	})

	t.Run("ListByStatus", func(t *testing.T) {
		store := storage.NewMockStore()
		require.NoError(t, store.SaveTask(newTask("t1", "c1", models.WaitingForSlotStatus)))
		require.NoError(t, store.SaveTask(newTask("t2", "c2", models.AwaitingContactStatus)))
		require.NoError(t, store.SaveTask(newTask("t3", "c3", models.WaitingForSlotStatus)))

		waiting, err := store.ListTasksByStatus(models.WaitingForSlotStatus)
		require.NoError(t, err)
		assert.Len(t, waiting, 2)
	})

	t.Run("FindContactTaskScopedToConversation", func(t *testing.T) {
		store := storage.NewMockStore()
		require.NoError(t, store.SaveTask(newTask("t1", "c1", models.AwaitingContactStatus)))
		require.NoError(t, store.SaveTask(newTask("t2", "c2", models.AwaitingContactStatus)))

		got, err := store.FindContactTask("c2")
		require.NoError(t, err)
		assert.Equal(t, "t2", got.ID)

		_, err = store.FindContactTask("c3")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("UpdateTaskRefreshesTimestamp", func(t *testing.T) {
		store := storage.NewMockStore()
		task := newTask("t1", "c1", models.AwaitingContactStatus)
		task.UpdatedAt = time.Now().Add(-time.Hour)
		require.NoError(t, store.SaveTask(task))

		params := models.TaskParams{ThreadID: "thread-9"}
		require.NoError(t, store.UpdateTask("t1", models.WaitingForSlotStatus, params))

		got, err := store.GetTask("t1")
		require.NoError(t, err)
		assert.Equal(t, models.WaitingForSlotStatus, got.Status)
		assert.Equal(t, "thread-9", got.Params.ThreadID)
		assert.True(t, got.UpdatedAt.After(task.UpdatedAt))
	})

	t.Run("SwapStatus", func(t *testing.T) {
		store := storage.NewMockStore()
		require.NoError(t, store.SaveTask(newTask("t1", "c1", models.WaitingForSlotStatus)))

		ok, err := store.SwapStatus("t1", models.WaitingForSlotStatus, models.CompletedTaskStatus)
		require.NoError(t, err)
		assert.True(t, ok)

		// losing swap: status already moved on
		ok, err = store.SwapStatus("t1", models.WaitingForSlotStatus, models.CompletedTaskStatus)
		require.NoError(t, err)
		assert.False(t, ok)

		_, err = store.SwapStatus("missing", models.WaitingForSlotStatus, models.CompletedTaskStatus)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

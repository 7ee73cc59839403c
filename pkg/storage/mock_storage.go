package storage

import (
	"sync"
	"time"

	"github.com/schedflow/schedflow/pkg/models"
)

// mockStore implements Store with in-memory storage. Safe for concurrent use
// so service tests can drive the poller and the scheduler against it.
type mockStore struct {
	mu    sync.Mutex
	tasks []models.Task
}

// NewMockStore returns an empty in-memory store.
func NewMockStore() Store {
	return &mockStore{}
}

func (m *mockStore) Begin() (Store, error) { return m, nil }
func (m *mockStore) Commit() error         { return nil }
func (m *mockStore) Rollback() error       { return nil }
func (m *mockStore) Close() error          { return nil }

func (m *mockStore) SaveTask(t models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.tasks {
		if existing.ID == t.ID {
			m.tasks[i] = t
			return nil
		}
	}
	m.tasks = append(m.tasks, t)
	return nil
}

func (m *mockStore) GetTask(id string) (models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return models.Task{}, ErrNotFound
}

func (m *mockStore) ListTasksByStatus(status models.TaskStatus) ([]models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Task
	for _, t := range m.tasks {
		if t.Status == status {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockStore) FindContactTask(conversationID string) (models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tasks {
		if t.ConversationID == conversationID && t.Status == models.AwaitingContactStatus {
			return t, nil
		}
	}
	return models.Task{}, ErrNotFound
}

func (m *mockStore) UpdateTask(id string, status models.TaskStatus, params models.TaskParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.tasks {
		if t.ID == id {
			m.tasks[i].Status = status
			m.tasks[i].Params = params
			m.tasks[i].UpdatedAt = time.Now()
			return nil
		}
	}
	return ErrNotFound
}

func (m *mockStore) SwapStatus(id string, from, to models.TaskStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.tasks {
		if t.ID == id {
			if t.Status != from {
				return false, nil
			}
			m.tasks[i].Status = to
			m.tasks[i].UpdatedAt = time.Now()
			return true, nil
		}
	}
	return false, ErrNotFound
}

package storage

import (
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/schedflow/schedflow/pkg/models"
	"github.com/schedflow/schedflow/pkg/storage"
)

type DBInterface interface {
	Get(dest interface{}, query string, args ...interface{}) error
	Select(dest interface{}, query string, args ...interface{}) error
	QueryRowx(query string, args ...interface{}) *sqlx.Row
	Exec(query string, args ...interface{}) (sql.Result, error)
}

type PostgresStore struct {
	db DBInterface
}

func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := sqlx.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreWithDB wraps an already-connected handle, for callers
// that share one connection pool across several components.
func NewPostgresStoreWithDB(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Begin() (storage.Store, error) {
	if db, ok := s.db.(*sqlx.DB); ok {
		tx, err := db.Beginx()
		if err != nil {
			return nil, err
		}
		return &PostgresStore{db: tx}, nil
	}
	return nil, fmt.Errorf("cannot begin transaction on unknown type")
}

func (s *PostgresStore) Commit() error {
	if tx, ok := s.db.(*sqlx.Tx); ok {
		return tx.Commit()
	}
	return fmt.Errorf("cannot commit: not a transaction")
}

func (s *PostgresStore) Rollback() error {
	if tx, ok := s.db.(*sqlx.Tx); ok {
		return tx.Rollback()
	}
	return fmt.Errorf("cannot rollback: not a transaction")
}

func (s *PostgresStore) Close() error {
	if db, ok := s.db.(*sqlx.DB); ok {
		return db.Close()
	}
	return nil // No-op for *sqlx.Tx
}

// SaveTask persists a task row. A repeated save for the same ID replaces
// the row instead of failing; created_at keeps its original value.
func (s *PostgresStore) SaveTask(t models.Task) error {
	_, err := s.db.Exec(`
		INSERT INTO tasks (id, task_type, conversation_id, status, parameters, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			task_type = EXCLUDED.task_type,
			conversation_id = EXCLUDED.conversation_id,
			status = EXCLUDED.status,
			parameters = EXCLUDED.parameters,
			updated_at = EXCLUDED.updated_at`,
		t.ID, t.TaskType, t.ConversationID, t.Status, t.Params, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save task %s: %w", t.ID, err)
	}
	return nil
}

// GetTask retrieves a task by ID.
func (s *PostgresStore) GetTask(id string) (models.Task, error) {
	var task models.Task
	err := s.db.Get(&task, "SELECT * FROM tasks WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return models.Task{}, storage.ErrNotFound
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("get task %s: %w", id, err)
	}
	return task, nil
}

// ListTasksByStatus returns all tasks in the given status, oldest first.
func (s *PostgresStore) ListTasksByStatus(status models.TaskStatus) ([]models.Task, error) {
	tasks := []models.Task{}
	err := s.db.Select(&tasks, "SELECT * FROM tasks WHERE status = $1 ORDER BY created_at", status)
	if err != nil {
		return nil, fmt.Errorf("list tasks by status %s: %w", status, err)
	}
	return tasks, nil
}

// FindContactTask returns the awaiting_contact task for a conversation.
func (s *PostgresStore) FindContactTask(conversationID string) (models.Task, error) {
	var task models.Task
	err := s.db.Get(&task, `
		SELECT * FROM tasks
		WHERE conversation_id = $1 AND status = $2
		ORDER BY created_at LIMIT 1`,
		conversationID, models.AwaitingContactStatus)
	if err == sql.ErrNoRows {
		return models.Task{}, storage.ErrNotFound
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("find contact task for %s: %w", conversationID, err)
	}
	return task, nil
}

// UpdateTask replaces status and parameters, refreshing updated_at.
func (s *PostgresStore) UpdateTask(id string, status models.TaskStatus, params models.TaskParams) error {
	res, err := s.db.Exec(`
		UPDATE tasks
		SET status = $1, parameters = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $3`,
		status, params, id)
	if err != nil {
		return fmt.Errorf("update task %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// SwapStatus performs the from->to transition atomically. The WHERE clause
// on the current status is what keeps a concurrent poller pass and a user
// transition from both claiming the same task.
func (s *PostgresStore) SwapStatus(id string, from, to models.TaskStatus) (bool, error) {
	res, err := s.db.Exec(`
		UPDATE tasks
		SET status = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2 AND status = $3`,
		to, id, from)
	if err != nil {
		return false, fmt.Errorf("swap status of task %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		if _, getErr := s.GetTask(id); getErr != nil {
			return false, getErr
		}
		return false, nil
	}
	return true, nil
}

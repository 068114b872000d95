package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TaskService handles task persistence. Every read and write is scoped to an owner:
// a lookup that finds the row but under a different owner reports ErrForbidden.
type TaskService struct {
	db *sql.DB
}

func NewTaskService(db *sql.DB) *TaskService {
	return &TaskService{db: db}
}

// TaskFilter narrows List results. Zero values mean "no filter".
type TaskFilter struct {
	Status         string
	FolderID       string
	Search         string
	IncludeDeleted bool
}

func (s *TaskService) List(userID string, filter TaskFilter) ([]Task, error) {
	query := `SELECT id, user_id, title, description, status, priority, due_date, folder_id, team_id,
	                 is_deleted, deleted_at, created_at, updated_at
	          FROM tasks WHERE user_id = ?`
	args := []any{userID}

	if !filter.IncludeDeleted {
		query += ` AND is_deleted = 0`
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	if filter.FolderID != "" {
		query += ` AND folder_id = ?`
		args = append(args, filter.FolderID)
	}
	if filter.Search != "" {
		query += ` AND title LIKE ?`
		args = append(args, "%"+filter.Search+"%")
	}
	query += ` ORDER BY created_at`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// TaskCreate carries the fields a caller may set on creation.
type TaskCreate struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
	FolderID    *string    `json:"folderId"`
	TeamID      *string    `json:"teamId"`
}

func (s *TaskService) Create(userID string, in TaskCreate) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
		FolderID:    in.FolderID,
		TeamID:      in.TeamID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if task.Status == "" {
		task.Status = StatusTodo
	}
	if task.Priority == "" {
		task.Priority = PriorityMedium
	}

	_, err := s.db.Exec(
		`INSERT INTO tasks (id, user_id, title, description, status, priority, due_date, folder_id, team_id,
		                    is_deleted, deleted_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, NULL, ?, ?)`,
		task.ID, task.UserID, task.Title, task.Description, task.Status, task.Priority,
		task.DueDate, task.FolderID, task.TeamID, task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert task: %w", err)
	}
	return task, nil
}

func (s *TaskService) Get(id, userID string) (*Task, error) {
	task, err := s.getAnyOwner(id)
	if err != nil {
		return nil, err
	}
	if task.UserID != userID {
		return nil, ErrForbidden
	}
	return task, nil
}

// TaskUpdate is a partial update. Nil fields are left untouched; ClearDueDate
// distinguishes "unset the due date" from "leave it alone".
type TaskUpdate struct {
	Title        *string    `json:"title"`
	Description  *string    `json:"description"`
	Status       *string    `json:"status"`
	Priority     *string    `json:"priority"`
	DueDate      *time.Time `json:"dueDate"`
	ClearDueDate bool       `json:"-"`
	FolderID     *string    `json:"folderId"`
	TeamID       *string    `json:"teamId"`
}

func (s *TaskService) Update(id, userID string, patch TaskUpdate) (*Task, error) {
	task, err := s.Get(id, userID)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Status != nil {
		task.Status = *patch.Status
	}
	if patch.Priority != nil {
		task.Priority = *patch.Priority
	}
	if patch.DueDate != nil {
		task.DueDate = patch.DueDate
	} else if patch.ClearDueDate {
		task.DueDate = nil
	}
	if patch.FolderID != nil {
		task.FolderID = patch.FolderID
	}
	if patch.TeamID != nil {
		task.TeamID = patch.TeamID
	}
	task.UpdatedAt = time.Now().UTC()

	_, err = s.db.Exec(
		`UPDATE tasks SET title = ?, description = ?, status = ?, priority = ?, due_date = ?,
		                  folder_id = ?, team_id = ?, updated_at = ?
		 WHERE id = ?`,
		task.Title, task.Description, task.Status, task.Priority, task.DueDate,
		task.FolderID, task.TeamID, task.UpdatedAt, task.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return task, nil
}

// SoftDelete marks the task deleted so it moves to the trash.
func (s *TaskService) SoftDelete(id, userID string) (*Task, error) {
	task, err := s.Get(id, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	task.IsDeleted = true
	task.DeletedAt = &now
	task.UpdatedAt = now

	_, err = s.db.Exec(
		`UPDATE tasks SET is_deleted = 1, deleted_at = ?, updated_at = ? WHERE id = ?`,
		now, now, task.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to soft-delete task: %w", err)
	}
	return task, nil
}

// Restore clears the soft-delete marker.
func (s *TaskService) Restore(id, userID string) (*Task, error) {
	task, err := s.Get(id, userID)
	if err != nil {
		return nil, err
	}

	task.IsDeleted = false
	task.DeletedAt = nil
	task.UpdatedAt = time.Now().UTC()

	_, err = s.db.Exec(
		`UPDATE tasks SET is_deleted = 0, deleted_at = NULL, updated_at = ? WHERE id = ?`,
		task.UpdatedAt, task.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to restore task: %w", err)
	}
	return task, nil
}

// Delete removes the row permanently.
func (s *TaskService) Delete(id, userID string) error {
	if _, err := s.Get(id, userID); err != nil {
		return err
	}
	if _, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

func (s *TaskService) getAnyOwner(id string) (*Task, error) {
	row := s.db.QueryRow(
		`SELECT id, user_id, title, description, status, priority, due_date, folder_id, team_id,
		        is_deleted, deleted_at, created_at, updated_at
		 FROM tasks WHERE id = ?`, id)
	return scanTask(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*Task, error) {
	var t Task
	err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Status, &t.Priority,
		&t.DueDate, &t.FolderID, &t.TeamID, &t.IsDeleted, &t.DeletedAt, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan task: %w", err)
	}
	return &t, nil
}

package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/homeboardhq/homeboard/internal/model"
)

// ErrVersionConflict is returned when a conditional update's expected sync
// version no longer matches the stored row.
var ErrVersionConflict = errors.New("sync version conflict")

type TaskStore struct {
	db *sql.DB
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

func scanTask(scanner interface{ Scan(...any) error }) (*model.Task, error) {
	var t model.Task
	var assigneeID sql.NullString
	var dueDate, completedAt sql.NullTime

	err := scanner.Scan(
		&t.ID, &t.FamilyID, &t.Title, &t.Description, &assigneeID, &t.CreatorID,
		&dueDate, &completedAt, &t.Status, &t.Category, &t.Priority,
		&t.SyncVersion, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if assigneeID.Valid {
		t.AssigneeID = &assigneeID.String
	}
	if dueDate.Valid {
		t.DueDate = &dueDate.Time
	}
	if completedAt.Valid {
		t.CompletedAt = &completedAt.Time
	}
	return &t, nil
}

const taskCols = `id, family_id, title, description, assignee_id, creator_id, due_date, completed_at, status, category, priority, sync_version, created_at, updated_at`

func (s *TaskStore) Create(familyID, title, description string, assigneeID *string, creatorID string, dueDate *time.Time, category model.TaskCategory, priority model.Priority) (*model.Task, error) {
	var aID sql.NullString
	if assigneeID != nil {
		aID = sql.NullString{String: *assigneeID, Valid: true}
	}
	var due sql.NullTime
	if dueDate != nil {
		due = sql.NullTime{Time: dueDate.UTC(), Valid: true}
	}

	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO tasks (id, family_id, title, description, assignee_id, creator_id, due_date, status, category, priority) VALUES (?, ?, ?, ?, ?, ?, ?, 'pending', ?, ?)`,
		id, familyID, title, description, aID, creatorID, due, category, priority,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return s.GetByID(familyID, id)
}

func (s *TaskStore) GetByID(familyID, id string) (*model.Task, error) {
	row := s.db.QueryRow(`SELECT `+taskCols+` FROM tasks WHERE id = ? AND family_id = ?`, id, familyID)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// ListByDueRange returns tasks whose due date falls in [start, end).
func (s *TaskStore) ListByDueRange(familyID string, start, end time.Time) ([]model.Task, error) {
	rows, err := s.db.Query(
		`SELECT `+taskCols+` FROM tasks WHERE family_id = ? AND due_date >= ? AND due_date < ? ORDER BY due_date ASC, created_at ASC`,
		familyID, start.UTC(), end.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks by due range: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// Update applies a partial change set to the task and bumps its sync version
// by exactly 1. When ch.ExpectedVersion is set and does not match the stored
// row, or another writer lands between the read and the write, it returns
// ErrVersionConflict.
func (s *TaskStore) Update(familyID, id string, ch model.TaskChanges) (*model.Task, error) {
	existing, err := s.GetByID(familyID, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}
	if ch.ExpectedVersion != nil && *ch.ExpectedVersion != existing.SyncVersion {
		return nil, ErrVersionConflict
	}

	merged := existing.Clone()
	merged.Apply(ch, time.Now().UTC())

	var aID sql.NullString
	if merged.AssigneeID != nil {
		aID = sql.NullString{String: *merged.AssigneeID, Valid: true}
	}
	var due, completed sql.NullTime
	if merged.DueDate != nil {
		due = sql.NullTime{Time: merged.DueDate.UTC(), Valid: true}
	}
	if merged.CompletedAt != nil {
		completed = sql.NullTime{Time: merged.CompletedAt.UTC(), Valid: true}
	}

	result, err := s.db.Exec(
		`UPDATE tasks SET title = ?, description = ?, assignee_id = ?, due_date = ?, completed_at = ?, status = ?, priority = ?, sync_version = ?, updated_at = ?
		 WHERE id = ? AND family_id = ? AND sync_version = ?`,
		merged.Title, merged.Description, aID, due, completed, merged.Status, merged.Priority,
		merged.SyncVersion, merged.UpdatedAt,
		id, familyID, existing.SyncVersion,
	)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		// Row existed a moment ago, so a concurrent writer advanced the version.
		return nil, ErrVersionConflict
	}
	return s.GetByID(familyID, id)
}

func (s *TaskStore) Delete(familyID, id string) error {
	_, err := s.db.Exec(`DELETE FROM tasks WHERE id = ? AND family_id = ?`, id, familyID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

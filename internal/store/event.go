package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/homeboardhq/homeboard/internal/model"
)

type EventStore struct {
	db *sql.DB
}

func NewEventStore(db *sql.DB) *EventStore {
	return &EventStore{db: db}
}

func scanEvent(scanner interface{ Scan(...any) error }) (*model.Event, error) {
	var e model.Event
	var assigneeID sql.NullString

	err := scanner.Scan(
		&e.ID, &e.FamilyID, &e.Title, &e.Description, &assigneeID, &e.CreatorID,
		&e.StartDatetime, &e.EndDatetime, &e.Status, &e.SyncVersion,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if assigneeID.Valid {
		e.AssigneeID = &assigneeID.String
	}
	return &e, nil
}

const eventCols = `id, family_id, title, description, assignee_id, creator_id, start_datetime, end_datetime, status, sync_version, created_at, updated_at`

func (s *EventStore) Create(familyID, title, description string, assigneeID *string, creatorID string, start, end time.Time) (*model.Event, error) {
	var aID sql.NullString
	if assigneeID != nil {
		aID = sql.NullString{String: *assigneeID, Valid: true}
	}

	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO events (id, family_id, title, description, assignee_id, creator_id, start_datetime, end_datetime, status) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'scheduled')`,
		id, familyID, title, description, aID, creatorID, start.UTC(), end.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	return s.GetByID(familyID, id)
}

func (s *EventStore) GetByID(familyID, id string) (*model.Event, error) {
	row := s.db.QueryRow(`SELECT `+eventCols+` FROM events WHERE id = ? AND family_id = ?`, id, familyID)
	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// ListByStartRange returns events whose start falls in [start, end).
func (s *EventStore) ListByStartRange(familyID string, start, end time.Time) ([]model.Event, error) {
	rows, err := s.db.Query(
		`SELECT `+eventCols+` FROM events WHERE family_id = ? AND start_datetime >= ? AND start_datetime < ? ORDER BY start_datetime ASC`,
		familyID, start.UTC(), end.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list events by start range: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func (s *EventStore) Update(familyID, id, title, description string, assigneeID *string, start, end time.Time, status model.EventStatus) (*model.Event, error) {
	var aID sql.NullString
	if assigneeID != nil {
		aID = sql.NullString{String: *assigneeID, Valid: true}
	}

	_, err := s.db.Exec(
		`UPDATE events SET title = ?, description = ?, assignee_id = ?, start_datetime = ?, end_datetime = ?, status = ?, sync_version = sync_version + 1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND family_id = ?`,
		title, description, aID, start.UTC(), end.UTC(), status, id, familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	return s.GetByID(familyID, id)
}

func (s *EventStore) Delete(familyID, id string) error {
	_, err := s.db.Exec(`DELETE FROM events WHERE id = ? AND family_id = ?`, id, familyID)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

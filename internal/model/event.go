package model

import "time"

type EventStatus string

const (
	EventStatusScheduled  EventStatus = "scheduled"
	EventStatusInProgress EventStatus = "in_progress"
	EventStatusCompleted  EventStatus = "completed"
	EventStatusCancelled  EventStatus = "cancelled"
)

func (s EventStatus) Valid() bool {
	switch s {
	case EventStatusScheduled, EventStatusInProgress, EventStatusCompleted, EventStatusCancelled:
		return true
	}
	return false
}

type Event struct {
	ID            string      `json:"id"`
	FamilyID      string      `json:"family_id"`
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	AssigneeID    *string     `json:"assignee_id"`
	CreatorID     string      `json:"creator_id"`
	StartDatetime time.Time   `json:"start_datetime"`
	EndDatetime   time.Time   `json:"end_datetime"`
	Status        EventStatus `json:"status"`
	SyncVersion   int64       `json:"sync_version"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`

	Assignee *FamilyMember `json:"assignee,omitempty"`
}

func (e *Event) Clone() *Event {
	c := *e
	if e.AssigneeID != nil {
		v := *e.AssigneeID
		c.AssigneeID = &v
	}
	if e.Assignee != nil {
		v := *e.Assignee
		c.Assignee = &v
	}
	return &c
}

package model

import (
	"strings"
	"time"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

type TaskCategory string

const (
	CategoryTask  TaskCategory = "task"
	CategoryEvent TaskCategory = "event"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// ProvisionalIDPrefix marks client-synthesized task ids that have not yet been
// confirmed by the store. Persisted ids are plain UUIDs and never carry it.
const ProvisionalIDPrefix = "tmp_"

// IsProvisionalID reports whether id was synthesized locally for an
// optimistic insert.
func IsProvisionalID(id string) bool {
	return strings.HasPrefix(id, ProvisionalIDPrefix)
}

type Task struct {
	ID          string       `json:"id"`
	FamilyID    string       `json:"family_id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	AssigneeID  *string      `json:"assignee_id"`
	CreatorID   string       `json:"creator_id"`
	DueDate     *time.Time   `json:"due_date"`
	CompletedAt *time.Time   `json:"completed_at"`
	Status      TaskStatus   `json:"status"`
	Category    TaskCategory `json:"category"`
	Priority    Priority     `json:"priority"`
	SyncVersion int64        `json:"sync_version"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`

	// Populated on reads that join family_members; nil on writes.
	Assignee *FamilyMember `json:"assignee,omitempty"`
	Creator  *FamilyMember `json:"creator,omitempty"`
}

// Clone returns a deep copy. Cached dashboard entries hand out copies so an
// optimistic edit never aliases a snapshot.
func (t *Task) Clone() *Task {
	c := *t
	if t.AssigneeID != nil {
		v := *t.AssigneeID
		c.AssigneeID = &v
	}
	if t.DueDate != nil {
		v := *t.DueDate
		c.DueDate = &v
	}
	if t.CompletedAt != nil {
		v := *t.CompletedAt
		c.CompletedAt = &v
	}
	if t.Assignee != nil {
		v := *t.Assignee
		c.Assignee = &v
	}
	if t.Creator != nil {
		v := *t.Creator
		c.Creator = &v
	}
	return &c
}

package model

import "time"

// TaskInput carries the fields for a new task. Status is always pending on
// create; the store issues the id and stamps timestamps.
type TaskInput struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	AssigneeID  *string      `json:"assignee_id"`
	CreatorID   string       `json:"creator_id"`
	DueDate     *time.Time   `json:"due_date"`
	Category    TaskCategory `json:"category"`
	Priority    Priority     `json:"priority"`
}

// TaskChanges is a partial update payload. A nil field is absent; the Clear
// flags distinguish "set to null" from "leave alone" for the nullable columns.
type TaskChanges struct {
	Title         *string     `json:"title"`
	Description   *string     `json:"description"`
	AssigneeID    *string     `json:"assignee_id"`
	ClearAssignee bool        `json:"clear_assignee"`
	DueDate       *time.Time  `json:"due_date"`
	ClearDueDate  bool        `json:"clear_due_date"`
	Status        *TaskStatus `json:"status"`
	Priority      *Priority   `json:"priority"`
	CompletedAt   *time.Time  `json:"completed_at"`

	// ExpectedVersion, when set, makes the persisted update conditional on the
	// stored sync_version and fails with a conflict on mismatch.
	ExpectedVersion *int64 `json:"expected_version"`
}

// Apply merges ch into t. The same merge runs on the optimistic (cached) copy
// and on the persisted row, so both sides derive completed_at identically:
// a transition into completed synthesizes completed_at (unless the caller
// supplied one), a transition out of completed always clears it. The sync
// version advances by exactly 1 and updated_at is stamped with now.
func (t *Task) Apply(ch TaskChanges, now time.Time) {
	if ch.Title != nil {
		t.Title = *ch.Title
	}
	if ch.Description != nil {
		t.Description = *ch.Description
	}
	if ch.ClearAssignee {
		t.AssigneeID = nil
		t.Assignee = nil
	} else if ch.AssigneeID != nil {
		v := *ch.AssigneeID
		t.AssigneeID = &v
		t.Assignee = nil
	}
	if ch.ClearDueDate {
		t.DueDate = nil
	} else if ch.DueDate != nil {
		v := *ch.DueDate
		t.DueDate = &v
	}
	if ch.Priority != nil {
		t.Priority = *ch.Priority
	}

	if ch.Status != nil {
		prev := t.Status
		t.Status = *ch.Status
		switch {
		case *ch.Status == TaskStatusCompleted && prev != TaskStatusCompleted:
			if ch.CompletedAt != nil {
				v := *ch.CompletedAt
				t.CompletedAt = &v
			} else {
				v := now
				t.CompletedAt = &v
			}
		case *ch.Status != TaskStatusCompleted:
			t.CompletedAt = nil
		}
	} else if ch.CompletedAt != nil && t.Status == TaskStatusCompleted {
		v := *ch.CompletedAt
		t.CompletedAt = &v
	}

	t.SyncVersion++
	t.UpdatedAt = now
}

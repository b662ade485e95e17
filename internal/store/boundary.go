package store

import (
	"context"
	"fmt"
	"time"

	"github.com/homeboardhq/homeboard/internal/model"
)

// Boundary bundles the stores behind the data-access surface the weekly
// dashboard core consumes. The SQL stores are local and synchronous, so the
// context is accepted for the boundary contract but not threaded further.
type Boundary struct {
	tasks   *TaskStore
	events  *EventStore
	members *FamilyMemberStore
}

func NewBoundary(tasks *TaskStore, events *EventStore, members *FamilyMemberStore) *Boundary {
	return &Boundary{tasks: tasks, events: events, members: members}
}

func (b *Boundary) TasksForFamily(_ context.Context, familyID string, start, end time.Time) ([]model.Task, error) {
	return b.tasks.ListByDueRange(familyID, start, end)
}

func (b *Boundary) EventsForFamily(_ context.Context, familyID string, start, end time.Time) ([]model.Event, error) {
	return b.events.ListByStartRange(familyID, start, end)
}

func (b *Boundary) FamilyMembers(_ context.Context, familyID string) ([]model.FamilyMember, error) {
	return b.members.List(familyID)
}

func (b *Boundary) CreateTask(_ context.Context, familyID string, in model.TaskInput) (*model.Task, error) {
	return b.tasks.Create(familyID, in.Title, in.Description, in.AssigneeID, in.CreatorID, in.DueDate, in.Category, in.Priority)
}

func (b *Boundary) UpdateTask(_ context.Context, familyID, id string, ch model.TaskChanges) (*model.Task, error) {
	t, err := b.tasks.Update(familyID, id, ch)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("task %s not found", id)
	}
	return t, nil
}

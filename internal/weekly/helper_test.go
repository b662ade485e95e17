package weekly

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/homeboardhq/homeboard/internal/model"
)

// fakeBoundary is an in-memory DataAccess with injectable failures and hooks
// that fire during boundary calls, which lets tests observe the cache while a
// mutation is in flight.
type fakeBoundary struct {
	mu      sync.Mutex
	tasks   map[string]*model.Task
	events  []model.Event
	members []model.FamilyMember

	fetchErr  error
	createErr error
	updateErr error

	fetches  int
	onCreate func()
	onUpdate func()
}

func newFakeBoundary() *fakeBoundary {
	return &fakeBoundary{tasks: make(map[string]*model.Task)}
}

func (b *fakeBoundary) addTask(t *model.Task) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tasks[t.ID] = t.Clone()
}

func (b *fakeBoundary) TasksForFamily(_ context.Context, familyID string, start, end time.Time) ([]model.Task, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fetches++
	if b.fetchErr != nil {
		return nil, b.fetchErr
	}
	var out []model.Task
	for _, t := range b.tasks {
		if t.FamilyID != familyID || t.DueDate == nil {
			continue
		}
		if !t.DueDate.Before(start) && t.DueDate.Before(end) {
			out = append(out, *t.Clone())
		}
	}
	return out, nil
}

func (b *fakeBoundary) EventsForFamily(_ context.Context, familyID string, start, end time.Time) ([]model.Event, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fetchErr != nil {
		return nil, b.fetchErr
	}
	var out []model.Event
	for i := range b.events {
		e := b.events[i]
		if e.FamilyID != familyID {
			continue
		}
		if !e.StartDatetime.Before(start) && e.StartDatetime.Before(end) {
			out = append(out, *e.Clone())
		}
	}
	return out, nil
}

func (b *fakeBoundary) FamilyMembers(_ context.Context, familyID string) ([]model.FamilyMember, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fetchErr != nil {
		return nil, b.fetchErr
	}
	var out []model.FamilyMember
	for _, m := range b.members {
		if m.FamilyID == familyID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (b *fakeBoundary) CreateTask(_ context.Context, familyID string, in model.TaskInput) (*model.Task, error) {
	if b.onCreate != nil {
		b.onCreate()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.createErr != nil {
		return nil, b.createErr
	}
	now := time.Now()
	t := &model.Task{
		ID:          uuid.NewString(),
		FamilyID:    familyID,
		Title:       in.Title,
		Description: in.Description,
		AssigneeID:  in.AssigneeID,
		CreatorID:   in.CreatorID,
		DueDate:     in.DueDate,
		Status:      model.TaskStatusPending,
		Category:    in.Category,
		Priority:    in.Priority,
		SyncVersion: 1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	b.tasks[t.ID] = t.Clone()
	return t, nil
}

func (b *fakeBoundary) UpdateTask(_ context.Context, familyID, id string, ch model.TaskChanges) (*model.Task, error) {
	if b.onUpdate != nil {
		b.onUpdate()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.updateErr != nil {
		return nil, b.updateErr
	}
	t, ok := b.tasks[id]
	if !ok || t.FamilyID != familyID {
		return nil, fmt.Errorf("task %s not found", id)
	}
	merged := t.Clone()
	merged.Apply(ch, time.Now())
	b.tasks[id] = merged
	return merged.Clone(), nil
}

func (b *fakeBoundary) fetchCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fetches
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// testClock is a settable clock shared by the cache, fetcher, and mutator in
// a test.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock(t time.Time) *testClock {
	return &testClock{t: t}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func strPtr(s string) *string { return &s }

func taskFixture(familyID, title string, due *time.Time, status model.TaskStatus) *model.Task {
	now := time.Now()
	return &model.Task{
		ID:          uuid.NewString(),
		FamilyID:    familyID,
		Title:       title,
		CreatorID:   "m1",
		DueDate:     due,
		Status:      status,
		Category:    model.CategoryTask,
		Priority:    model.PriorityMedium,
		SyncVersion: 1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

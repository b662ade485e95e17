package weekly

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/homeboardhq/homeboard/internal/model"
)

// Mutator wraps task create and update with optimistic cache edits: matching
// cached weeks are rewritten before the boundary call resolves, with enough
// state recorded to restore every touched entry if the call fails. Mutator
// shares the cache's lock, so the snapshot-apply sequence is atomic with
// respect to reads and to other mutations.
type Mutator struct {
	cache    *Cache
	boundary DataAccess
	logger   *slog.Logger
	now      func() time.Time
}

func NewMutator(cache *Cache, boundary DataAccess, logger *slog.Logger) *Mutator {
	return &Mutator{
		cache:    cache,
		boundary: boundary,
		logger:   logger,
		now:      time.Now,
	}
}

// snapshot captures one cache entry before an optimistic edit. generation is
// the value the edit wrote; restore only applies while it still matches.
type snapshot struct {
	key        string
	data       *Dashboard
	generation uint64
}

// restore puts every snapshotted entry back, skipping any entry that a newer
// write reached after the snapshot was taken. The skipped entry is marked
// stale instead so the next read reconciles it against the store.
func (m *Mutator) restore(snaps []snapshot) {
	m.cache.mu.Lock()
	defer m.cache.mu.Unlock()

	for _, s := range snaps {
		e, ok := m.cache.entries[s.key]
		if !ok {
			continue
		}
		if e.generation != s.generation {
			e.stale = true
			if m.logger != nil {
				m.logger.Debug("rollback skipped, entry advanced", "key", s.key)
			}
			continue
		}
		e.data = s.data
		e.generation++
	}
}

// UpdateTask applies a partial change set to a task. Every cached week of the
// family is scanned for the id; matches are edited in place with recomputed
// aggregates before the boundary call is issued. On success all of the
// family's cached weeks are marked stale so the next read converges on the
// authoritative row; on failure the pre-edit state is restored exactly and
// the error is returned to the caller.
func (m *Mutator) UpdateTask(ctx context.Context, familyID, taskID string, ch model.TaskChanges) (*model.Task, error) {
	if familyID == "" {
		return nil, ErrNoFamily
	}

	now := m.now()
	snaps := m.applyUpdate(familyID, taskID, ch, now)

	updated, err := m.boundary.UpdateTask(ctx, familyID, taskID, ch)
	if err != nil {
		m.restore(snaps)
		return nil, fmt.Errorf("update task: %w", err)
	}

	// One extra round trip on the next read buys eventual consistency without
	// merging the authoritative response into every cached aggregate.
	m.cache.Invalidate(familyID)
	return updated, nil
}

// applyUpdate performs the optimistic phase of UpdateTask and returns the
// rollback snapshots. An empty result means the task was not cached anywhere
// and the update degrades to a plain round trip.
func (m *Mutator) applyUpdate(familyID, taskID string, ch model.TaskChanges, now time.Time) []snapshot {
	prefix := familyID + "@"

	m.cache.mu.Lock()
	defer m.cache.mu.Unlock()

	var snaps []snapshot
	for key, e := range m.cache.entries {
		if e.data == nil || !strings.HasPrefix(key, prefix) {
			continue
		}

		for di := range e.data.Days {
			day := &e.data.Days[di]
			for ti := range day.Tasks {
				if day.Tasks[ti].ID != taskID {
					continue
				}

				snaps = append(snaps, snapshot{key: key, data: e.data.Clone(), generation: e.generation + 1})

				task := &day.Tasks[ti]
				wasCompleted := task.Status == model.TaskStatusCompleted
				task.Apply(ch, now)
				nowCompleted := task.Status == model.TaskStatusCompleted

				// Full recount of the bucket; a counter adjustment could drift
				// across repeated edits.
				day.Recount()

				// The summary moves by the classification delta of this one
				// task, captured before the edit, so the week totals update
				// without rescanning every bucket.
				sum := &e.data.Summary
				switch {
				case !wasCompleted && nowCompleted:
					sum.CompletedTasks++
					sum.PendingTasks--
				case wasCompleted && !nowCompleted:
					sum.CompletedTasks--
					sum.PendingTasks++
				}
				sum.RecomputeRate()

				e.generation++
			}
		}
	}
	return snaps
}

// CreateTask inserts a provisional copy of the task into the cached week its
// due date falls in (today's week when it has none), then issues the boundary
// create. On success the provisional record is replaced in place by the
// authoritative one wherever it still appears; on failure the insert is
// rolled back. The provisional id is prefixed and random, so it can never
// collide with a persisted id.
func (m *Mutator) CreateTask(ctx context.Context, familyID string, in model.TaskInput) (*model.Task, error) {
	if familyID == "" {
		return nil, ErrNoFamily
	}

	now := m.now()
	provisional := &model.Task{
		ID:          model.ProvisionalIDPrefix + uuid.NewString(),
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

	target := now
	if in.DueDate != nil {
		target = *in.DueDate
	}
	snaps := m.applyCreate(familyID, provisional, target)

	created, err := m.boundary.CreateTask(ctx, familyID, in)
	if err != nil {
		m.restore(snaps)
		return nil, fmt.Errorf("create task: %w", err)
	}

	m.confirmCreate(familyID, provisional.ID, created)
	return created, nil
}

func (m *Mutator) applyCreate(familyID string, provisional *model.Task, target time.Time) []snapshot {
	key := Key(familyID, target)

	m.cache.mu.Lock()
	defer m.cache.mu.Unlock()

	e, ok := m.cache.entries[key]
	if !ok || e.data == nil {
		return nil
	}
	di := e.data.dayIndex(target)
	if di < 0 {
		return nil
	}

	snap := snapshot{key: key, data: e.data.Clone(), generation: e.generation + 1}

	day := &e.data.Days[di]
	day.Tasks = append(day.Tasks, *provisional.Clone())
	day.TaskCount++

	sum := &e.data.Summary
	sum.TotalTasks++
	sum.PendingTasks++
	sum.RecomputeRate()

	e.generation++
	return []snapshot{snap}
}

// confirmCreate swaps the provisional record for the authoritative one in
// every cached week where it still appears. The bucket is not moved even if
// the server computed a different due date; the entry stays put until the
// next refetch repairs placement.
func (m *Mutator) confirmCreate(familyID, provisionalID string, created *model.Task) {
	prefix := familyID + "@"

	m.cache.mu.Lock()
	defer m.cache.mu.Unlock()

	for key, e := range m.cache.entries {
		if e.data == nil || !strings.HasPrefix(key, prefix) {
			continue
		}
		for di := range e.data.Days {
			day := &e.data.Days[di]
			for ti := range day.Tasks {
				if day.Tasks[ti].ID == provisionalID {
					day.Tasks[ti] = *created.Clone()
					day.Recount()
					e.generation++
				}
			}
		}
	}
}

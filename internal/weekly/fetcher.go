package weekly

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/homeboardhq/homeboard/internal/model"
)

var (
	// ErrNotAuthenticated is returned when an operation runs without a session.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrNoFamily is returned for an authenticated caller with no family; it is
	// distinct from ErrNotAuthenticated and from data errors.
	ErrNoFamily = errors.New("no family associated with account")
)

// DataAccess is the boundary to the authoritative store. Every call is scoped
// to a single family; cross-family access is the boundary's job to reject.
// Range parameters are half-open: [start, end).
type DataAccess interface {
	TasksForFamily(ctx context.Context, familyID string, start, end time.Time) ([]model.Task, error)
	EventsForFamily(ctx context.Context, familyID string, start, end time.Time) ([]model.Event, error)
	FamilyMembers(ctx context.Context, familyID string) ([]model.FamilyMember, error)
	CreateTask(ctx context.Context, familyID string, in model.TaskInput) (*model.Task, error)
	UpdateTask(ctx context.Context, familyID, id string, ch model.TaskChanges) (*model.Task, error)
}

// Fetcher retrieves one week of tasks, events, and roster and assembles the
// dashboard. The three fetches run concurrently; if any fails the whole fetch
// fails, never returning partial data.
type Fetcher struct {
	boundary DataAccess
	now      func() time.Time
}

func NewFetcher(boundary DataAccess) *Fetcher {
	return &Fetcher{boundary: boundary, now: time.Now}
}

func (f *Fetcher) FetchWeek(ctx context.Context, familyID string, at time.Time) (*Dashboard, error) {
	if familyID == "" {
		return nil, ErrNoFamily
	}

	weekStart := StartOf(at)
	weekEnd := weekStart.AddDate(0, 0, 7)

	var (
		tasks   []model.Task
		events  []model.Event
		members []model.FamilyMember
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tasks, err = f.boundary.TasksForFamily(gctx, familyID, weekStart, weekEnd)
		return err
	})
	g.Go(func() error {
		var err error
		events, err = f.boundary.EventsForFamily(gctx, familyID, weekStart, weekEnd)
		return err
	})
	g.Go(func() error {
		var err error
		members, err = f.boundary.FamilyMembers(gctx, familyID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch week %s: %w", KeyDate(weekStart), err)
	}

	return Build(familyID, weekStart, tasks, events, members, f.now()), nil
}

package weekly

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const prefetchTimeout = 10 * time.Second

// Navigator tracks the "current week" pointer for one family and drives the
// cache around it. Pointer moves are synchronous; the data for the new week
// is fetched asynchronously through the cache, and the weeks on either side
// are prefetched so a single step in either direction is usually a cache hit.
type Navigator struct {
	cache    *Cache
	familyID string
	now      func() time.Time

	mu      sync.Mutex
	current time.Time
}

func NewNavigator(cache *Cache, familyID string) *Navigator {
	n := &Navigator{
		cache:    cache,
		familyID: familyID,
		now:      time.Now,
	}
	n.current = n.now()
	cache.Acquire(familyID, n.current)
	return n
}

// Week returns the raw pointer. Callers normalize with StartOf when they need
// the canonical week identity.
func (n *Navigator) Week() time.Time {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

func (n *Navigator) Previous() time.Time {
	return n.move(func(cur time.Time) time.Time { return cur.AddDate(0, 0, -7) })
}

func (n *Navigator) Next() time.Time {
	return n.move(func(cur time.Time) time.Time { return cur.AddDate(0, 0, 7) })
}

// Current resets the pointer to now.
func (n *Navigator) Current() time.Time {
	return n.move(func(time.Time) time.Time { return n.now() })
}

func (n *Navigator) GoTo(date time.Time) time.Time {
	return n.move(func(time.Time) time.Time { return date })
}

func (n *Navigator) move(step func(time.Time) time.Time) time.Time {
	n.mu.Lock()
	prev := n.current
	n.current = step(n.current)
	cur := n.current
	n.mu.Unlock()

	n.cache.Acquire(n.familyID, cur)
	n.cache.Release(n.familyID, prev)
	n.prefetch(cur)
	return cur
}

// prefetch warms the pointed-at week and its neighbors. A fetch that loses a
// race with further navigation still lands in its own key's entry, which is
// harmless; the GC sweep reclaims slots nobody reads.
func (n *Navigator) prefetch(at time.Time) {
	for _, offset := range []int{0, -7, 7} {
		go func(t time.Time) {
			ctx, cancel := context.WithTimeout(context.Background(), prefetchTimeout)
			defer cancel()
			n.cache.Get(ctx, n.familyID, t)
		}(at.AddDate(0, 0, offset))
	}
}

// Fetch returns the dashboard for the pointed-at week.
func (n *Navigator) Fetch(ctx context.Context) (*Dashboard, error) {
	return n.cache.Get(ctx, n.familyID, n.Week())
}

// Close detaches the navigator's reader on the current week.
func (n *Navigator) Close() {
	n.mu.Lock()
	cur := n.current
	n.mu.Unlock()
	n.cache.Release(n.familyID, cur)
}

// Title renders the pointed-at week for display: the week containing now is
// labeled "This Week", any other week becomes a date range compacted when the
// start and end share a month or year.
func (n *Navigator) Title() string {
	return WeekTitle(n.Week(), n.now())
}

// WeekTitle formats the week containing at, relative to now.
func WeekTitle(at, now time.Time) string {
	start := StartOf(at)
	if start.Equal(StartOf(now)) {
		return "This Week"
	}

	end := start.AddDate(0, 0, 6)
	switch {
	case start.Month() == end.Month() && start.Year() == end.Year():
		return fmt.Sprintf("%s – %d, %d", start.Format("Jan 2"), end.Day(), end.Year())
	case start.Year() == end.Year():
		return fmt.Sprintf("%s – %s, %d", start.Format("Jan 2"), end.Format("Jan 2"), end.Year())
	default:
		return fmt.Sprintf("%s – %s", start.Format("Jan 2, 2006"), end.Format("Jan 2, 2006"))
	}
}

package weekly

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekTitle(t *testing.T) {
	now := time.Date(2024, 1, 17, 10, 0, 0, 0, time.UTC) // week of Jan 15

	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{"current week", now.AddDate(0, 0, 2), "This Week"},
		{"same month", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), "Jan 1 – 7, 2024"},
		{"cross month", time.Date(2024, 1, 29, 0, 0, 0, 0, time.UTC), "Jan 29 – Feb 4, 2024"},
		{"cross year", time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC), "Dec 30, 2024 – Jan 5, 2025"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WeekTitle(tt.at, now))
		})
	}
}

func TestNavigatorMoves(t *testing.T) {
	c := newTestCache(newFakeBoundary(), newTestClock(testWeekStart))
	nav := NewNavigator(c, "fam1")
	defer nav.Close()

	start := StartOf(nav.Week())

	nav.Next()
	assert.True(t, StartOf(nav.Week()).Equal(start.AddDate(0, 0, 7)))

	nav.Previous()
	nav.Previous()
	assert.True(t, StartOf(nav.Week()).Equal(start.AddDate(0, 0, -7)))

	target := time.Date(2030, 6, 12, 0, 0, 0, 0, time.UTC)
	nav.GoTo(target)
	assert.True(t, StartOf(nav.Week()).Equal(StartOf(target)))

	nav.Current()
	assert.True(t, StartOf(nav.Week()).Equal(StartOf(time.Now())))
}

func (c *Cache) readersFor(familyID string, at time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[Key(familyID, at)]
	if !ok {
		return 0
	}
	return e.readers
}

func TestNavigatorReaderLifecycle(t *testing.T) {
	c := newTestCache(newFakeBoundary(), newTestClock(testWeekStart))
	nav := NewNavigator(c, "fam1")

	here := nav.Week()
	require.Equal(t, 1, c.readersFor("fam1", here))

	nav.Next()
	assert.Equal(t, 0, c.readersFor("fam1", here), "the old week is released on move")
	assert.Equal(t, 1, c.readersFor("fam1", here.AddDate(0, 0, 7)))

	nav.Close()
	assert.Equal(t, 0, c.readersFor("fam1", here.AddDate(0, 0, 7)))
}

func TestNavigatorPrefetchWarmsNeighbors(t *testing.T) {
	c := newTestCache(newFakeBoundary(), newTestClock(testWeekStart))
	nav := NewNavigator(c, "fam1")
	defer nav.Close()

	cur := nav.Next()

	warm := func(at time.Time) bool {
		d, _, ok := c.Peek("fam1", at)
		return ok && d != nil
	}
	assert.Eventually(t, func() bool {
		return warm(cur) && warm(cur.AddDate(0, 0, -7)) && warm(cur.AddDate(0, 0, 7))
	}, 2*time.Second, 10*time.Millisecond, "the pointed-at week and both neighbors get fetched")
}

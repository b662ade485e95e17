package weekly

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homeboardhq/homeboard/internal/model"
)

func newTestCache(b *fakeBoundary, clk *testClock) *Cache {
	f := NewFetcher(b)
	f.now = clk.Now
	c := NewCache(f, Config{}, discardLogger())
	c.now = clk.Now
	return c
}

func TestGetFreshHitSkipsBoundary(t *testing.T) {
	b := newFakeBoundary()
	due := testWeekStart.Add(9 * time.Hour)
	b.addTask(taskFixture("fam1", "dishes", &due, model.TaskStatusPending))

	clk := newTestClock(testWeekStart)
	c := newTestCache(b, clk)

	d1, err := c.Get(context.Background(), "fam1", testWeekStart)
	require.NoError(t, err)
	require.Equal(t, 1, d1.Summary.TotalTasks)

	d2, err := c.Get(context.Background(), "fam1", testWeekStart.AddDate(0, 0, 2))
	require.NoError(t, err)
	assert.Equal(t, 1, d2.Summary.TotalTasks)
	assert.Equal(t, 1, b.fetchCount(), "second read of the same week must be a cache hit")
}

func TestGetRefetchesWhenStale(t *testing.T) {
	b := newFakeBoundary()
	clk := newTestClock(testWeekStart)
	c := newTestCache(b, clk)

	_, err := c.Get(context.Background(), "fam1", testWeekStart)
	require.NoError(t, err)
	require.Equal(t, 1, b.fetchCount())

	c.Invalidate("fam1")
	_, err = c.Get(context.Background(), "fam1", testWeekStart)
	require.NoError(t, err)
	assert.Equal(t, 2, b.fetchCount())
}

func TestGetRefetchesAfterFreshWindow(t *testing.T) {
	b := newFakeBoundary()
	clk := newTestClock(testWeekStart)
	c := newTestCache(b, clk)

	_, err := c.Get(context.Background(), "fam1", testWeekStart)
	require.NoError(t, err)

	clk.Advance(DefaultFreshFor + time.Second)
	_, err = c.Get(context.Background(), "fam1", testWeekStart)
	require.NoError(t, err)
	assert.Equal(t, 2, b.fetchCount())
}

func TestGetKeepsLastGoodOnRefetchFailure(t *testing.T) {
	b := newFakeBoundary()
	due := testWeekStart.Add(9 * time.Hour)
	b.addTask(taskFixture("fam1", "dishes", &due, model.TaskStatusPending))

	clk := newTestClock(testWeekStart)
	c := newTestCache(b, clk)

	_, err := c.Get(context.Background(), "fam1", testWeekStart)
	require.NoError(t, err)

	b.mu.Lock()
	b.fetchErr = errors.New("store down")
	b.mu.Unlock()
	c.Invalidate("fam1")

	d, err := c.Get(context.Background(), "fam1", testWeekStart)
	require.Error(t, err, "the fetch failure must surface")
	require.NotNil(t, d, "the previous value stays available")
	assert.Equal(t, 1, d.Summary.TotalTasks)
}

func TestGetRetriesAfterInitialFailure(t *testing.T) {
	b := newFakeBoundary()
	b.fetchErr = errors.New("store down")

	clk := newTestClock(testWeekStart)
	c := newTestCache(b, clk)

	d, err := c.Get(context.Background(), "fam1", testWeekStart)
	require.Error(t, err)
	assert.Nil(t, d, "nothing to fall back to on a cold key")

	b.mu.Lock()
	b.fetchErr = nil
	b.mu.Unlock()

	d, err = c.Get(context.Background(), "fam1", testWeekStart)
	require.NoError(t, err, "a failed key is retried, not poisoned")
	require.NotNil(t, d)
}

func TestPeek(t *testing.T) {
	b := newFakeBoundary()
	clk := newTestClock(testWeekStart)
	c := newTestCache(b, clk)

	_, _, ok := c.Peek("fam1", testWeekStart)
	assert.False(t, ok, "peek never fetches")
	assert.Equal(t, 0, b.fetchCount())

	_, err := c.Get(context.Background(), "fam1", testWeekStart)
	require.NoError(t, err)

	d, fetchErr, ok := c.Peek("fam1", testWeekStart)
	assert.True(t, ok)
	assert.NoError(t, fetchErr)
	require.NotNil(t, d)
}

func TestInvalidateScopedToFamily(t *testing.T) {
	b := newFakeBoundary()
	clk := newTestClock(testWeekStart)
	c := newTestCache(b, clk)

	_, err := c.Get(context.Background(), "fam1", testWeekStart)
	require.NoError(t, err)
	_, err = c.Get(context.Background(), "fam2", testWeekStart)
	require.NoError(t, err)
	require.Equal(t, 2, b.fetchCount())

	c.Invalidate("fam1")

	_, err = c.Get(context.Background(), "fam2", testWeekStart)
	require.NoError(t, err)
	assert.Equal(t, 2, b.fetchCount(), "fam2 stays fresh")

	_, err = c.Get(context.Background(), "fam1", testWeekStart)
	require.NoError(t, err)
	assert.Equal(t, 3, b.fetchCount())
}

func TestSweepEvictsIdleEntries(t *testing.T) {
	b := newFakeBoundary()
	clk := newTestClock(testWeekStart)
	c := newTestCache(b, clk)

	_, err := c.Get(context.Background(), "fam1", testWeekStart)
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())

	// Fresh entries survive a sweep.
	assert.Equal(t, 0, c.Sweep())

	clk.Advance(DefaultEvictAfter + time.Second)
	assert.Equal(t, 1, c.Sweep())
	assert.Equal(t, 0, c.Len())
}

func TestSweepSparesHeldEntries(t *testing.T) {
	b := newFakeBoundary()
	clk := newTestClock(testWeekStart)
	c := newTestCache(b, clk)

	_, err := c.Get(context.Background(), "fam1", testWeekStart)
	require.NoError(t, err)
	c.Acquire("fam1", testWeekStart)

	clk.Advance(DefaultEvictAfter + time.Second)
	assert.Equal(t, 0, c.Sweep(), "a held entry never evicts")
	require.Equal(t, 1, c.Len())

	c.Release("fam1", testWeekStart)
	assert.Equal(t, 0, c.Sweep(), "release restarts the idle clock")

	clk.Advance(DefaultEvictAfter + time.Second)
	assert.Equal(t, 1, c.Sweep())
}

func TestGetNoFamily(t *testing.T) {
	c := newTestCache(newFakeBoundary(), newTestClock(testWeekStart))
	_, err := c.Get(context.Background(), "", testWeekStart)
	assert.ErrorIs(t, err, ErrNoFamily)
}

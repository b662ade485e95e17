package weekly

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	DefaultFreshFor   = 5 * time.Minute
	DefaultEvictAfter = 10 * time.Minute
)

// Config controls the cache's staleness and eviction windows.
type Config struct {
	// FreshFor is how long a fetched dashboard is served without refetching.
	FreshFor time.Duration
	// EvictAfter is how long an entry survives after its last reader detaches.
	EvictAfter time.Duration
}

func (c Config) withDefaults() Config {
	if c.FreshFor <= 0 {
		c.FreshFor = DefaultFreshFor
	}
	if c.EvictAfter <= 0 {
		c.EvictAfter = DefaultEvictAfter
	}
	return c
}

type entry struct {
	data      *Dashboard
	fetchErr  error
	fetchedAt time.Time
	stale     bool

	// generation advances on every write to data. Rollbacks restore an entry
	// only when its generation still matches the one the mutation wrote, so a
	// late rollback never stomps a newer write.
	generation uint64

	readers int
	touched time.Time
}

// Cache is a keyed store of assembled weekly dashboards. Reads are
// read-through: a missing or stale key triggers a fetch, a fresh key is
// served without touching the boundary. A key whose last fetch failed keeps
// its previous data and is retried on the next read.
type Cache struct {
	cfg     Config
	fetcher *Fetcher
	logger  *slog.Logger
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
	group   singleflight.Group
}

func NewCache(fetcher *Fetcher, cfg Config, logger *slog.Logger) *Cache {
	return &Cache{
		cfg:     cfg.withDefaults(),
		fetcher: fetcher,
		logger:  logger,
		now:     time.Now,
		entries: make(map[string]*entry),
	}
}

// caller must hold c.mu.
func (c *Cache) ensure(key string) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	e.touched = c.now()
	return e
}

// Get returns the dashboard for the week containing at. Concurrent requests
// for the same key share one fetch. When a refetch fails but a previous value
// exists, the previous value is returned together with the error so a
// rendered view keeps its data.
func (c *Cache) Get(ctx context.Context, familyID string, at time.Time) (*Dashboard, error) {
	if familyID == "" {
		return nil, ErrNoFamily
	}
	key := Key(familyID, at)

	c.mu.Lock()
	if e, ok := c.entries[key]; ok && e.data != nil && !e.stale && c.now().Sub(e.fetchedAt) < c.cfg.FreshFor {
		e.touched = c.now()
		d := e.data.Clone()
		c.mu.Unlock()
		return d, nil
	}
	c.mu.Unlock()

	_, err, _ := c.group.Do(key, func() (any, error) {
		d, err := c.fetcher.FetchWeek(ctx, familyID, at)

		c.mu.Lock()
		defer c.mu.Unlock()
		e := c.ensure(key)
		if err != nil {
			e.fetchErr = err
			return nil, err
		}
		e.data = d
		e.fetchedAt = c.now()
		e.stale = false
		e.fetchErr = nil
		e.generation++
		return nil, nil
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.ensure(key)
	if e.data == nil {
		return nil, err
	}
	return e.data.Clone(), err
}

// Peek returns the cached dashboard without triggering a fetch. ok reports
// whether an entry exists at all; fetchErr carries the entry's last fetch
// failure, if any.
func (c *Cache) Peek(familyID string, at time.Time) (data *Dashboard, fetchErr error, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, found := c.entries[Key(familyID, at)]
	if !found {
		return nil, nil, false
	}
	if e.data != nil {
		data = e.data.Clone()
	}
	return data, e.fetchErr, true
}

// Acquire registers a reader on the week containing at, holding its entry
// alive. Every Acquire must be paired with a Release.
func (c *Cache) Acquire(familyID string, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensure(Key(familyID, at)).readers++
}

// Release detaches a reader. The entry becomes eligible for eviction
// EvictAfter after the last reader detaches.
func (c *Cache) Release(familyID string, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[Key(familyID, at)]
	if !ok {
		return
	}
	if e.readers > 0 {
		e.readers--
	}
	e.touched = c.now()
}

// Invalidate marks every cached week of the family stale. The next read of
// each key refetches from the boundary; the cached data stays available until
// that read completes.
func (c *Cache) Invalidate(familyID string) {
	prefix := familyID + "@"
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range c.entries {
		if strings.HasPrefix(key, prefix) {
			e.stale = true
		}
	}
}

// Sweep evicts entries with no readers whose last access is older than the
// eviction window. It returns how many entries were removed.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	evicted := 0
	for key, e := range c.entries {
		if e.readers == 0 && now.Sub(e.touched) > c.cfg.EvictAfter {
			delete(c.entries, key)
			evicted++
		}
	}
	if evicted > 0 && c.logger != nil {
		c.logger.Debug("cache sweep", "evicted", evicted, "remaining", len(c.entries))
	}
	return evicted
}

// Len reports the number of live entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

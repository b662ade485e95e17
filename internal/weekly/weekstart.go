// Package weekly assembles, caches, and optimistically mutates the weekly
// family dashboard. It sits between the HTTP layer and the data-access
// boundary: reads go through a keyed week cache, task writes are applied to
// cached weeks before the boundary call resolves and rolled back if it fails.
package weekly

import "time"

// StartOf returns midnight on the Monday of the week containing t, in t's
// location. It is idempotent: StartOf(StartOf(t)) == StartOf(t).
func StartOf(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// KeyDate renders the canonical week-start identifier for t.
func KeyDate(t time.Time) string {
	return StartOf(t).Format("2006-01-02")
}

// Key builds the cache key for a family and any point inside a week. Two
// dates in the same calendar week collapse to the same key.
func Key(familyID string, t time.Time) string {
	return familyID + "@" + KeyDate(t)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

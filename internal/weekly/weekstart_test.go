package weekly

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStartOf(t *testing.T) {
	// 2024-01-15 is a Monday.
	monday := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"monday midnight", monday, monday},
		{"monday afternoon", monday.Add(14 * time.Hour), monday},
		{"wednesday", time.Date(2024, 1, 17, 9, 30, 0, 0, time.UTC), monday},
		{"sunday rolls back six days", time.Date(2024, 1, 21, 23, 59, 0, 0, time.UTC), monday},
		{"next monday is its own week", time.Date(2024, 1, 22, 0, 0, 0, 0, time.UTC), monday.AddDate(0, 0, 7)},
		{"year boundary", time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC), time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, StartOf(tt.in).Equal(tt.want), "StartOf(%v) = %v, want %v", tt.in, StartOf(tt.in), tt.want)
		})
	}
}

func TestStartOfIdempotent(t *testing.T) {
	in := time.Date(2024, 3, 9, 18, 45, 0, 0, time.UTC)
	once := StartOf(in)
	assert.True(t, StartOf(once).Equal(once))
}

func TestKeyCollapsesWithinWeek(t *testing.T) {
	tue := time.Date(2024, 1, 16, 8, 0, 0, 0, time.UTC)
	sat := time.Date(2024, 1, 20, 22, 0, 0, 0, time.UTC)

	assert.Equal(t, "fam1@2024-01-15", Key("fam1", tue))
	assert.Equal(t, Key("fam1", tue), Key("fam1", sat))
	assert.NotEqual(t, Key("fam1", tue), Key("fam2", tue))
	assert.NotEqual(t, Key("fam1", tue), Key("fam1", tue.AddDate(0, 0, 7)))
}

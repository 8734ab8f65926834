package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeriveStatus(t *testing.T) {
	start := time.Date(2025, 12, 25, 15, 0, 0, 0, time.UTC)
	canceled := start.Add(-48 * time.Hour)

	tests := []struct {
		name       string
		date       time.Time
		canceledAt *time.Time
		now        time.Time
		want       Status
	}{
		{
			name: "before the event date",
			date: start,
			now:  start.Add(-time.Minute),
			want: StatusUpcoming,
		},
		{
			name: "exactly at the event date",
			date: start,
			now:  start,
			want: StatusOngoing,
		},
		{
			name: "just inside the 24h window",
			date: start,
			now:  start.Add(24*time.Hour - time.Millisecond),
			want: StatusOngoing,
		},
		{
			name: "exactly 24h after the start",
			date: start,
			now:  start.Add(24 * time.Hour),
			want: StatusPast,
		},
		{
			name: "long after the event",
			date: start,
			now:  start.Add(30 * 24 * time.Hour),
			want: StatusPast,
		},
		{
			name:       "canceled overrides upcoming",
			date:       start,
			canceledAt: &canceled,
			now:        start.Add(-time.Hour),
			want:       StatusCanceled,
		},
		{
			name:       "canceled overrides past",
			date:       start,
			canceledAt: &canceled,
			now:        start.Add(72 * time.Hour),
			want:       StatusCanceled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveStatus(tt.date, tt.canceledAt, tt.now)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeriveStatusIsTotal(t *testing.T) {
	// Sweep a range of clocks around the event date and make sure exactly
	// one of the four statuses always comes back.
	date := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	valid := map[Status]bool{
		StatusUpcoming: true,
		StatusOngoing:  true,
		StatusPast:     true,
		StatusCanceled: true,
	}

	for offset := -72 * time.Hour; offset <= 72*time.Hour; offset += time.Hour {
		now := date.Add(offset)
		assert.True(t, valid[DeriveStatus(date, nil, now)])

		mark := now
		assert.Equal(t, StatusCanceled, DeriveStatus(date, &mark, now))
	}
}

package dateutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func saoPaulo(t *testing.T) *time.Location {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)
	return loc
}

func TestDaysBetween(t *testing.T) {
	loc := saoPaulo(t)

	tests := []struct {
		name string
		a, b time.Time
		want int
	}{
		{
			name: "same instant",
			a:    time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC),
			b:    time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC),
			want: 0,
		},
		{
			name: "full week",
			a:    time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC),
			b:    time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC),
			want: 7,
		},
		{
			// 23:30 local on the 9th is 02:30 UTC on the 10th. A raw UTC
			// comparison would report 0 days; locally it is 1.
			name: "late evening crosses UTC midnight",
			a:    time.Date(2024, 6, 10, 2, 30, 0, 0, time.UTC),
			b:    time.Date(2024, 6, 10, 20, 0, 0, 0, time.UTC),
			want: 1,
		},
		{
			name: "negative when reversed",
			a:    time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC),
			b:    time.Date(2024, 6, 8, 12, 0, 0, 0, time.UTC),
			want: -2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysBetween(tt.a, tt.b, loc))
		})
	}
}

func TestSameDay(t *testing.T) {
	loc := saoPaulo(t)

	a := time.Date(2024, 6, 10, 2, 30, 0, 0, time.UTC)  // 9th, 23:30 local
	b := time.Date(2024, 6, 10, 20, 0, 0, 0, time.UTC)  // 10th local
	c := time.Date(2024, 6, 10, 2, 59, 0, 0, time.UTC)  // 9th, 23:59 local

	assert.False(t, SameDay(a, b, loc))
	assert.True(t, SameDay(a, c, loc))
}

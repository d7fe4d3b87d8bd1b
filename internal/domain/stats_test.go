package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func daySet(days ...CalendarDay) map[CalendarDay]struct{} {
	set := make(map[CalendarDay]struct{}, len(days))
	for _, d := range days {
		set[d] = struct{}{}
	}
	return set
}

func TestCurrentStreak(t *testing.T) {
	today := DateOf(2025, time.March, 10)

	tests := []struct {
		name string
		days map[CalendarDay]struct{}
		want int
	}{
		{"no days", daySet(), 0},
		{"today only", daySet(today), 1},
		{"yesterday keeps streak alive", daySet(today.Add(-1), today.Add(-2)), 2},
		{"three consecutive ending today", daySet(today, today.Add(-1), today.Add(-2)), 3},
		{"gap stops the walk", daySet(today, today.Add(-1), today.Add(-2), today.Add(-4)), 3},
		{"two days ago is broken", daySet(today.Add(-2), today.Add(-3)), 0},
		{
			"long run ending three days ago is broken",
			daySet(today.Add(-3), today.Add(-4), today.Add(-5), today.Add(-6), today.Add(-7)),
			0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CurrentStreak(tt.days, today))
		})
	}
}

func TestLongestStreak(t *testing.T) {
	d := DateOf(2025, time.January, 1)

	assert.Equal(t, 0, LongestStreak(daySet()))
	assert.Equal(t, 1, LongestStreak(daySet(d, d.Add(2), d.Add(4))))
	assert.Equal(t, 4, LongestStreak(daySet(d, d.Add(1), d.Add(3), d.Add(4), d.Add(5), d.Add(6))))
	// Runs that cross a month boundary count as one.
	assert.Equal(t, 3, LongestStreak(daySet(d.Add(-1), d, d.Add(1))))
}

func TestCountDaysIn(t *testing.T) {
	d := DateOf(2025, time.February, 27)
	days := daySet(d, d.Add(1), d.Add(2), d.Add(3))

	assert.Equal(t, 2, CountDaysIn(days, MonthRange(d)))
}

func TestMonthLabel(t *testing.T) {
	assert.Equal(t, "2025-09", MonthLabel(DateOf(2025, time.September, 18)))
}

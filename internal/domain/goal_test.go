package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGoalPeriod_Window(t *testing.T) {
	today := DateOf(2025, time.October, 15) // Wednesday

	tests := []struct {
		period   GoalPeriod
		from, to string
	}{
		{PeriodDay, "2025-10-15", "2025-10-15"},
		{PeriodWeek, "2025-10-12", "2025-10-18"},
		{PeriodMonth, "2025-10-01", "2025-10-31"},
		{PeriodYear, "2025-01-01", "2025-12-31"},
	}

	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			w := tt.period.Window(today)
			assert.Equal(t, tt.from, w.From.String())
			assert.Equal(t, tt.to, w.To.String())
		})
	}
}

func TestNewGoalProgress(t *testing.T) {
	goal := &Goal{Type: GoalBooksPerMonth, Target: 3, Period: PeriodMonth}

	tests := []struct {
		current    int
		percentage int
		complete   bool
	}{
		{0, 0, false},
		{1, 33, false},
		{2, 67, false},
		{3, 100, true},
		{4, 100, true},
	}

	for _, tt := range tests {
		p := NewGoalProgress(goal, DayRange{}, tt.current)
		assert.Equal(t, tt.percentage, p.Percentage, "current=%d", tt.current)
		assert.Equal(t, tt.complete, p.IsComplete, "current=%d", tt.current)
	}
}

func TestNewGoalProgress_ZeroTarget(t *testing.T) {
	p := NewGoalProgress(&Goal{Target: 0}, DayRange{}, 5)

	assert.Equal(t, 0, p.Percentage)
	assert.False(t, p.IsComplete)
}

func TestGoalType_Valid(t *testing.T) {
	assert.True(t, GoalReadingStreak.Valid())
	assert.False(t, GoalType("minutes-per-day").Valid())
	assert.True(t, PeriodWeek.Valid())
	assert.False(t, GoalPeriod("decade").Valid())
}

package domain

import (
	"math"
	"time"
)

// GoalType selects what a goal measures.
type GoalType string

// Goal types.
const (
	GoalDailyReading  GoalType = "daily-reading"
	GoalBooksPerMonth GoalType = "books-per-month"
	GoalBooksPerYear  GoalType = "books-per-year"
	GoalReadingStreak GoalType = "reading-streak"
	GoalPagesPerDay   GoalType = "pages-per-day"
)

// Valid returns true if the type is a recognized value.
func (t GoalType) Valid() bool {
	switch t {
	case GoalDailyReading, GoalBooksPerMonth, GoalBooksPerYear, GoalReadingStreak, GoalPagesPerDay:
		return true
	default:
		return false
	}
}

// GoalPeriod is the calendar window a goal is measured over.
type GoalPeriod string

// Goal periods.
const (
	PeriodDay   GoalPeriod = "day"
	PeriodWeek  GoalPeriod = "week"
	PeriodMonth GoalPeriod = "month"
	PeriodYear  GoalPeriod = "year"
)

// Valid returns true if the period is a recognized value.
func (p GoalPeriod) Valid() bool {
	switch p {
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodYear:
		return true
	default:
		return false
	}
}

// Window returns the full calendar window containing today. Weeks run Sunday
// through Saturday. Unknown periods fall back to the single day.
func (p GoalPeriod) Window(today CalendarDay) DayRange {
	switch p {
	case PeriodWeek:
		start := today.WeekStart()
		return DayRange{From: start, To: start.Add(6)}
	case PeriodMonth:
		return MonthRange(today)
	case PeriodYear:
		return DayRange{From: today.YearStart(), To: today.YearEnd()}
	default:
		return DayRange{From: today, To: today}
	}
}

// Goal is a reading target. Progress is computed live, never stored.
type Goal struct {
	Record
	Type      GoalType   `json:"type"`
	Target    int        `json:"target"`
	Period    GoalPeriod `json:"period"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	Active    bool       `json:"active"`
}

// GoalProgress is a goal's standing in its current window.
type GoalProgress struct {
	Goal       *Goal    `json:"goal"`
	Window     DayRange `json:"window"`
	Current    int      `json:"current"`
	Percentage int      `json:"percentage"`
	IsComplete bool     `json:"is_complete"`
}

// NewGoalProgress derives percentage and completion from the current value.
// Percentage is rounded and capped at 100.
func NewGoalProgress(goal *Goal, window DayRange, current int) GoalProgress {
	percentage := 0
	if goal.Target > 0 {
		percentage = int(math.Round(float64(current) / float64(goal.Target) * 100))
		percentage = min(percentage, 100)
	}
	return GoalProgress{
		Goal:       goal,
		Window:     window,
		Current:    current,
		Percentage: percentage,
		IsComplete: goal.Target > 0 && current >= goal.Target,
	}
}

package domain

import (
	"slices"
	"time"
)

// ReadingStats is the dashboard summary.
type ReadingStats struct {
	ActiveDaysTotal         int `json:"active_days_total"`
	ActiveDaysThisMonth     int `json:"active_days_this_month"`
	CompletedBooksTotal     int `json:"completed_books_total"`
	CompletedBooksThisMonth int `json:"completed_books_this_month"`
	CurrentStreak           int `json:"current_streak"`
	LongestStreak           int `json:"longest_streak"`
	TotalPagesRead          int `json:"total_pages_read"`
	PagesReadThisMonth      int `json:"pages_read_this_month"`
	BooksInProgress         int `json:"books_in_progress"`
}

// MonthlyStats summarizes one calendar month.
type MonthlyStats struct {
	Month          string `json:"month"` // YYYY-MM
	Year           int    `json:"year"`
	MonthNumber    int    `json:"month_number"`
	ActiveDays     int    `json:"active_days"`
	BooksCompleted int    `json:"books_completed"`
	PagesRead      int    `json:"pages_read"`
}

// WeeklyReadingDays counts distinct reading days in a Sunday-start week.
type WeeklyReadingDays struct {
	Week CalendarDay `json:"week"`
	Days int         `json:"days"`
}

// MonthLabel formats a month start as YYYY-MM.
func MonthLabel(d CalendarDay) string {
	y, m, _ := d.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
}

// SortedDays returns the days of the set in ascending order.
func SortedDays(days map[CalendarDay]struct{}) []CalendarDay {
	out := make([]CalendarDay, 0, len(days))
	for d := range days {
		out = append(out, d)
	}
	slices.Sort(out)
	return out
}

// CurrentStreak counts consecutive reading days ending at the most recent one.
// The streak is only alive if the most recent day is today or yesterday.
func CurrentStreak(days map[CalendarDay]struct{}, today CalendarDay) int {
	if len(days) == 0 {
		return 0
	}

	latest := CalendarDay(0)
	first := true
	for d := range days {
		if first || d > latest {
			latest = d
			first = false
		}
	}
	if latest != today && latest != today.Add(-1) {
		return 0
	}

	streak := 1
	for check := latest.Add(-1); ; check = check.Add(-1) {
		if _, ok := days[check]; !ok {
			break
		}
		streak++
	}
	return streak
}

// LongestStreak returns the longest run of consecutive reading days.
func LongestStreak(days map[CalendarDay]struct{}) int {
	sorted := SortedDays(days)
	if len(sorted) == 0 {
		return 0
	}

	longest, run := 1, 1
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1].Add(1) {
			run++
		} else {
			run = 1
		}
		longest = max(longest, run)
	}
	return longest
}

// CountDaysIn counts the days of the set inside r.
func CountDaysIn(days map[CalendarDay]struct{}, r DayRange) int {
	n := 0
	for d := range days {
		if r.Contains(d) {
			n++
		}
	}
	return n
}

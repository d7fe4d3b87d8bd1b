package domain

import (
	"fmt"
	"time"
)

const isoDate = "2006-01-02"

// CalendarDay identifies a local calendar date as the number of days since
// 1970-01-01. Two instants on the same local date always map to the same value,
// so day-granularity comparisons never touch timestamps.
type CalendarDay int32

// DayOf returns the calendar day t falls on in loc. A nil loc uses t's own location.
func DayOf(t time.Time, loc *time.Location) CalendarDay {
	if loc != nil {
		t = t.In(loc)
	}
	y, m, d := t.Date()
	return DateOf(y, m, d)
}

// DateOf builds a CalendarDay from a year, month and day. Out of range values
// normalize the way time.Date does.
func DateOf(year int, month time.Month, day int) CalendarDay {
	secs := time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Unix()
	days := secs / 86400
	if secs%86400 != 0 && secs < 0 {
		days--
	}
	return CalendarDay(days)
}

// ParseDay parses an ISO date (YYYY-MM-DD).
func ParseDay(s string) (CalendarDay, error) {
	t, err := time.Parse(isoDate, s)
	if err != nil {
		return 0, fmt.Errorf("parse day %q: %w", s, err)
	}
	return DateOf(t.Date()), nil
}

func (d CalendarDay) utc() time.Time {
	return time.Unix(int64(d)*86400, 0).UTC()
}

// Date returns the year, month and day.
func (d CalendarDay) Date() (year int, month time.Month, day int) {
	return d.utc().Date()
}

// Time returns local midnight of the day in loc.
func (d CalendarDay) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	y, m, day := d.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, loc)
}

// Add returns the day n days later (earlier for negative n).
func (d CalendarDay) Add(n int) CalendarDay {
	return d + CalendarDay(n)
}

// Weekday returns the day of the week.
func (d CalendarDay) Weekday() time.Weekday {
	// 1970-01-01 was a Thursday.
	w := (int(d) + 4) % 7
	if w < 0 {
		w += 7
	}
	return time.Weekday(w)
}

// WeekStart returns the Sunday on or before d.
func (d CalendarDay) WeekStart() CalendarDay {
	return d.Add(-int(d.Weekday()))
}

// MonthStart returns the first day of d's month.
func (d CalendarDay) MonthStart() CalendarDay {
	y, m, _ := d.Date()
	return DateOf(y, m, 1)
}

// MonthEnd returns the last day of d's month.
func (d CalendarDay) MonthEnd() CalendarDay {
	y, m, _ := d.Date()
	return DateOf(y, m+1, 1).Add(-1)
}

// YearStart returns January 1st of d's year.
func (d CalendarDay) YearStart() CalendarDay {
	y, _, _ := d.Date()
	return DateOf(y, time.January, 1)
}

// YearEnd returns December 31st of d's year.
func (d CalendarDay) YearEnd() CalendarDay {
	y, _, _ := d.Date()
	return DateOf(y, time.December, 31)
}

// AddMonths returns the first day of the month n months from d's month.
func (d CalendarDay) AddMonths(n int) CalendarDay {
	y, m, _ := d.Date()
	return DateOf(y, m+time.Month(n), 1)
}

// String returns the ISO date.
func (d CalendarDay) String() string {
	return d.utc().Format(isoDate)
}

// MarshalText encodes the day as an ISO date.
func (d CalendarDay) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText decodes an ISO date.
func (d *CalendarDay) UnmarshalText(b []byte) error {
	parsed, err := ParseDay(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DayRange is an inclusive span of calendar days.
type DayRange struct {
	From CalendarDay `json:"from"`
	To   CalendarDay `json:"to"`
}

// Contains reports whether d lies within the range.
func (r DayRange) Contains(d CalendarDay) bool {
	return d >= r.From && d <= r.To
}

// Days returns the number of days in the range.
func (r DayRange) Days() int {
	if r.To < r.From {
		return 0
	}
	return int(r.To-r.From) + 1
}

// MonthRange returns the full calendar month containing d.
func MonthRange(d CalendarDay) DayRange {
	return DayRange{From: d.MonthStart(), To: d.MonthEnd()}
}

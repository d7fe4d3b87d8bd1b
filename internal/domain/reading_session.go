package domain

import "time"

// ReadingSession records that a book was read on a given day.
type ReadingSession struct {
	Record
	BookID string    `json:"book_id"`
	Date   time.Time `json:"date"`
	// Day is Date's calendar day, fixed when the session is built.
	Day             CalendarDay `json:"day"`
	PagesRead       *int        `json:"pages_read,omitempty"`
	StartPage       *int        `json:"start_page,omitempty"`
	EndPage         *int        `json:"end_page,omitempty"`
	DurationMinutes *int        `json:"duration_minutes,omitempty"`
	Notes           string      `json:"notes,omitempty"`
	Source          Source      `json:"source"`
}

// SetDate sets Date and recomputes Day in loc.
func (s *ReadingSession) SetDate(date time.Time, loc *time.Location) {
	s.Date = date
	s.Day = DayOf(date, loc)
}

// Pages returns PagesRead, treating unset as zero.
func (s *ReadingSession) Pages() int {
	if s.PagesRead == nil {
		return 0
	}
	return *s.PagesRead
}

// DistinctDays returns the set of days the sessions cover.
func DistinctDays(sessions []*ReadingSession) map[CalendarDay]struct{} {
	days := make(map[CalendarDay]struct{}, len(sessions))
	for _, s := range sessions {
		days[s.Day] = struct{}{}
	}
	return days
}

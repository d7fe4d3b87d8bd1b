package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayOf_UsesLocalCalendarDate(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 02:30 UTC on March 2 is still March 1 in New York.
	instant := time.Date(2025, 3, 2, 2, 30, 0, 0, time.UTC)

	assert.Equal(t, "2025-03-02", DayOf(instant, time.UTC).String())
	assert.Equal(t, "2025-03-01", DayOf(instant, ny).String())
}

func TestDayOf_SameDayDifferentTimes(t *testing.T) {
	morning := time.Date(2025, 6, 10, 0, 0, 1, 0, time.UTC)
	night := time.Date(2025, 6, 10, 23, 59, 59, 0, time.UTC)

	assert.Equal(t, DayOf(morning, time.UTC), DayOf(night, time.UTC))
}

func TestDateOf_Epoch(t *testing.T) {
	assert.Equal(t, CalendarDay(0), DateOf(1970, time.January, 1))
	assert.Equal(t, CalendarDay(-1), DateOf(1969, time.December, 31))
	assert.Equal(t, "1969-12-31", CalendarDay(-1).String())
}

func TestCalendarDay_Weekday(t *testing.T) {
	assert.Equal(t, time.Thursday, DateOf(1970, time.January, 1).Weekday())
	assert.Equal(t, time.Wednesday, DateOf(1969, time.December, 31).Weekday())
	assert.Equal(t, time.Sunday, DateOf(2025, time.March, 2).Weekday())
}

func TestCalendarDay_Boundaries(t *testing.T) {
	d := DateOf(2024, time.February, 14) // Wednesday, leap year

	assert.Equal(t, "2024-02-11", d.WeekStart().String())
	assert.Equal(t, "2024-02-01", d.MonthStart().String())
	assert.Equal(t, "2024-02-29", d.MonthEnd().String())
	assert.Equal(t, "2024-01-01", d.YearStart().String())
	assert.Equal(t, "2024-12-31", d.YearEnd().String())
	assert.Equal(t, "2023-12-01", d.AddMonths(-2).String())
	assert.Equal(t, "2025-01-01", d.AddMonths(11).String())

	sunday := DateOf(2024, time.February, 11)
	assert.Equal(t, sunday, sunday.WeekStart())
}

func TestCalendarDay_TimeRoundTrip(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	d := DateOf(2025, time.July, 4)
	midnight := d.Time(tokyo)

	assert.Equal(t, 0, midnight.Hour())
	assert.Equal(t, d, DayOf(midnight, tokyo))
}

func TestCalendarDay_TextEncoding(t *testing.T) {
	type wrapper struct {
		Day CalendarDay `json:"day"`
	}

	data, err := json.Marshal(wrapper{Day: DateOf(2025, time.January, 31)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"day":"2025-01-31"}`, string(data))

	var w wrapper
	require.NoError(t, json.Unmarshal(data, &w))
	assert.Equal(t, DateOf(2025, time.January, 31), w.Day)

	assert.Error(t, json.Unmarshal([]byte(`{"day":"31/01/2025"}`), &w))
}

func TestDayRange(t *testing.T) {
	r := MonthRange(DateOf(2025, time.April, 15))

	assert.Equal(t, 30, r.Days())
	assert.True(t, r.Contains(DateOf(2025, time.April, 1)))
	assert.True(t, r.Contains(DateOf(2025, time.April, 30)))
	assert.False(t, r.Contains(DateOf(2025, time.May, 1)))
	assert.Equal(t, 0, DayRange{From: 5, To: 4}.Days())
}

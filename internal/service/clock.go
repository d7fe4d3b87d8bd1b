package service

import (
	"errors"
	"time"

	"github.com/readtrack/readtrack-server/internal/domain"
	domainerrors "github.com/readtrack/readtrack-server/internal/errors"
	"github.com/readtrack/readtrack-server/internal/store"
)

// Clock supplies the current time and the location calendar days are computed in.
type Clock struct {
	Now      func() time.Time
	Location *time.Location
}

// SystemClock reads the wall clock and computes days in loc (time.Local when nil).
func SystemClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.Local
	}
	return Clock{Now: time.Now, Location: loc}
}

// Today returns the current calendar day.
func (c Clock) Today() domain.CalendarDay {
	return domain.DayOf(c.Now(), c.Location)
}

// DayOf returns the calendar day t falls on.
func (c Clock) DayOf(t time.Time) domain.CalendarDay {
	return domain.DayOf(t, c.Location)
}

// storeError converts store sentinels into coded domain errors.
func storeError(err error, what, id string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return domainerrors.NotFoundf("%s %s not found", what, id)
	case errors.Is(err, store.ErrAlreadyExists):
		return domainerrors.Conflictf("%s %s already exists", what, id)
	default:
		return err
	}
}

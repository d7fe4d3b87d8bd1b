package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBook_SetStatus(t *testing.T) {
	t1 := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	t2 := t1.Add(48 * time.Hour)

	b := &Book{Status: StatusWantToRead}

	b.SetStatus(StatusReading, t1)
	require.NotNil(t, b.StartedAt)
	assert.Equal(t, t1, *b.StartedAt)

	b.SetStatus(StatusPaused, t2)
	b.SetStatus(StatusReading, t2)
	assert.Equal(t, t1, *b.StartedAt, "started_at is only set once")
	assert.Nil(t, b.CompletedAt)

	b.SetStatus(StatusCompleted, t2)
	require.NotNil(t, b.CompletedAt)
	assert.Equal(t, t2, *b.CompletedAt)

	b.SetStatus(StatusCompleted, t2.Add(time.Hour))
	assert.Equal(t, t2, *b.CompletedAt, "re-applying the same status is a no-op")
}

func TestBook_IsCompletedIn(t *testing.T) {
	completed := time.Date(2025, 4, 30, 23, 30, 0, 0, time.UTC)
	b := &Book{Status: StatusCompleted, CompletedAt: &completed}

	assert.True(t, b.IsCompletedIn(MonthRange(DateOf(2025, time.April, 1)), time.UTC))
	assert.False(t, b.IsCompletedIn(MonthRange(DateOf(2025, time.May, 1)), time.UTC))

	b.Status = StatusReading
	assert.False(t, b.IsCompletedIn(MonthRange(DateOf(2025, time.April, 1)), time.UTC))
}

func TestKindleBook_InitialStatus(t *testing.T) {
	epoch := time.Unix(0, 0).UTC()
	recent := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		book KindleBook
		want BookStatus
	}{
		{"finished", KindleBook{PercentComplete: intPtr(100), LastOpenedAt: &recent}, StatusCompleted},
		{"opened recently", KindleBook{LastOpenedAt: &recent}, StatusReading},
		{"some progress", KindleBook{PercentComplete: intPtr(3)}, StatusReading},
		{"epoch placeholder", KindleBook{PercentComplete: intPtr(0), LastOpenedAt: &epoch}, StatusWantToRead},
		{"nothing known", KindleBook{}, StatusWantToRead},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.book.InitialStatus())
		})
	}
}

func TestCountBooks(t *testing.T) {
	books := []*Book{
		{Status: StatusReading},
		{Status: StatusReading},
		{Status: StatusCompleted},
		{Status: StatusWantToRead},
	}

	assert.Equal(t, BookCounts{Total: 4, Reading: 2, Completed: 1, WantToRead: 1}, CountBooks(books))
}

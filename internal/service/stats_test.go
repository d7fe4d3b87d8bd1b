package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readtrack/readtrack-server/internal/domain"
)

// seedHistory builds a journal around "today" (Friday 2024-03-15):
// a three-day run ending today, single days on Mar 1 and Feb 10, and two
// sessions for different books on Jan 2.
func seedHistory(t *testing.T, env *testEnv) (reading, completed *domain.Book) {
	t.Helper()

	reading = env.addBook(t, "Emma", domain.StatusReading)
	completed = env.addBook(t, "Dune", domain.StatusCompleted)

	env.addSession(t, reading.ID, at(time.March, 13, 20), 10)
	env.addSession(t, reading.ID, at(time.March, 14, 20), 10)
	env.addSession(t, reading.ID, at(time.March, 15, 8), 10)
	env.addSession(t, reading.ID, at(time.March, 1, 12), 5)
	env.addSession(t, reading.ID, at(time.February, 10, 12), 20)
	env.addSession(t, reading.ID, at(time.January, 2, 12), 7)
	env.addSession(t, completed.ID, at(time.January, 2, 21), 8)
	return reading, completed
}

func TestStatsService_FullStatsEmpty(t *testing.T) {
	env := newTestEnv(t)

	stats, err := env.stats.FullStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.ReadingStats{}, *stats)
}

func TestStatsService_FullStats(t *testing.T) {
	env := newTestEnv(t)
	seedHistory(t, env)

	stats, err := env.stats.FullStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 6, stats.ActiveDaysTotal)
	assert.Equal(t, 4, stats.ActiveDaysThisMonth)
	assert.Equal(t, 1, stats.CompletedBooksTotal)
	assert.Equal(t, 1, stats.CompletedBooksThisMonth)
	assert.Equal(t, 3, stats.CurrentStreak)
	assert.Equal(t, 3, stats.LongestStreak)
	assert.Equal(t, 70, stats.TotalPagesRead)
	assert.Equal(t, 35, stats.PagesReadThisMonth)
	assert.Equal(t, 1, stats.BooksInProgress)
}

func TestStatsService_CurrentStreakSurvivesUntilEndOfNextDay(t *testing.T) {
	env := newTestEnv(t)
	seedHistory(t, env)
	ctx := context.Background()

	env.clock.Advance(24 * time.Hour)
	streak, err := env.stats.CurrentStreak(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, streak, "yesterday's read keeps the streak alive")

	env.clock.Advance(24 * time.Hour)
	streak, err = env.stats.CurrentStreak(ctx)
	require.NoError(t, err)
	assert.Zero(t, streak)

	longest, err := env.stats.LongestStreak(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, longest)
}

func TestStatsService_ActiveDaysInRange(t *testing.T) {
	env := newTestEnv(t)
	seedHistory(t, env)
	ctx := context.Background()

	all, err := env.stats.ActiveDays(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 6, all)

	january := domain.MonthRange(domain.DateOf(2024, time.January, 1))
	n, err := env.stats.ActiveDays(ctx, &january)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "two sessions on one day count once")
}

func TestStatsService_MonthlyStats(t *testing.T) {
	env := newTestEnv(t)
	seedHistory(t, env)

	months, err := env.stats.MonthlyStats(context.Background(), 3)
	require.NoError(t, err)

	assert.Equal(t, []domain.MonthlyStats{
		{Month: "2024-01", Year: 2024, MonthNumber: 1, ActiveDays: 1, BooksCompleted: 0, PagesRead: 15},
		{Month: "2024-02", Year: 2024, MonthNumber: 2, ActiveDays: 1, BooksCompleted: 0, PagesRead: 20},
		{Month: "2024-03", Year: 2024, MonthNumber: 3, ActiveDays: 4, BooksCompleted: 1, PagesRead: 35},
	}, months)
}

func TestStatsService_MonthlyStatsDefaultsToSixMonths(t *testing.T) {
	env := newTestEnv(t)

	months, err := env.stats.MonthlyStats(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, months, DefaultMonthsBack)
	assert.Equal(t, "2023-10", months[0].Month)
	assert.Equal(t, "2024-03", months[5].Month)
	for _, m := range months {
		assert.Zero(t, m.ActiveDays)
	}
}

func TestStatsService_ReadingDaysPerWeek(t *testing.T) {
	env := newTestEnv(t)
	seedHistory(t, env)

	weeks, err := env.stats.ReadingDaysPerWeek(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []domain.WeeklyReadingDays{
		{Week: domain.DateOf(2023, time.December, 31), Days: 1},
		{Week: domain.DateOf(2024, time.February, 4), Days: 1},
		{Week: domain.DateOf(2024, time.February, 25), Days: 1},
		{Week: domain.DateOf(2024, time.March, 10), Days: 3},
	}, weeks)
}

func TestStatsService_ReadingDaysPerWeekKeepsTwelveMostRecent(t *testing.T) {
	env := newTestEnv(t)
	book := env.addBook(t, "Emma", domain.StatusReading)

	start := at(time.March, 15, 12)
	for i := range 15 {
		env.addSession(t, book.ID, start.AddDate(0, 0, -7*i), 1)
	}

	weeks, err := env.stats.ReadingDaysPerWeek(context.Background())
	require.NoError(t, err)
	require.Len(t, weeks, 12)
	assert.Equal(t, domain.DateOf(2024, time.March, 10), weeks[11].Week)
	assert.True(t, weeks[0].Week < weeks[1].Week)
}

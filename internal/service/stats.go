package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/readtrack/readtrack-server/internal/domain"
	domainerrors "github.com/readtrack/readtrack-server/internal/errors"
	"github.com/readtrack/readtrack-server/internal/store"
)

const (
	// DefaultMonthsBack is the monthly history length when none is given.
	DefaultMonthsBack = 6
	// MaxMonthsBack bounds monthly history requests.
	MaxMonthsBack = 120

	weeksOfHistory = 12
)

// StatsService derives reading statistics from the journal and the shelf.
// Nothing is cached; every call reads the current history.
type StatsService struct {
	store  store.Store
	clock  Clock
	logger *slog.Logger
}

// NewStatsService creates a new stats service.
func NewStatsService(store store.Store, clock Clock, logger *slog.Logger) *StatsService {
	return &StatsService{
		store:  store,
		clock:  clock,
		logger: logger,
	}
}

// FullStats returns the dashboard summary. Empty history yields zeros.
func (s *StatsService) FullStats(ctx context.Context) (*domain.ReadingStats, error) {
	sessions, err := s.store.ListReadingSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	books, err := s.store.ListBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}

	today := s.clock.Today()
	month := domain.MonthRange(today)
	days := domain.DistinctDays(sessions)

	stats := &domain.ReadingStats{
		ActiveDaysTotal:     len(days),
		ActiveDaysThisMonth: domain.CountDaysIn(days, month),
		CurrentStreak:       domain.CurrentStreak(days, today),
		LongestStreak:       domain.LongestStreak(days),
	}

	for _, rs := range sessions {
		stats.TotalPagesRead += rs.Pages()
		if month.Contains(rs.Day) {
			stats.PagesReadThisMonth += rs.Pages()
		}
	}

	for _, b := range books {
		switch b.Status {
		case domain.StatusCompleted:
			stats.CompletedBooksTotal++
			if b.IsCompletedIn(month, s.clock.Location) {
				stats.CompletedBooksThisMonth++
			}
		case domain.StatusReading:
			stats.BooksInProgress++
		}
	}

	return stats, nil
}

// ActiveDays counts distinct reading days, all-time when r is nil.
func (s *StatsService) ActiveDays(ctx context.Context, r *domain.DayRange) (int, error) {
	days, err := s.readingDays(ctx, r)
	if err != nil {
		return 0, err
	}
	return len(days), nil
}

// CurrentStreak returns the streak ending today or yesterday.
func (s *StatsService) CurrentStreak(ctx context.Context) (int, error) {
	days, err := s.readingDays(ctx, nil)
	if err != nil {
		return 0, err
	}
	return domain.CurrentStreak(days, s.clock.Today()), nil
}

// LongestStreak returns the longest run of consecutive reading days.
func (s *StatsService) LongestStreak(ctx context.Context) (int, error) {
	days, err := s.readingDays(ctx, nil)
	if err != nil {
		return 0, err
	}
	return domain.LongestStreak(days), nil
}

func (s *StatsService) readingDays(ctx context.Context, r *domain.DayRange) (map[domain.CalendarDay]struct{}, error) {
	var (
		sessions []*domain.ReadingSession
		err      error
	)
	if r == nil {
		sessions, err = s.store.ListReadingSessions(ctx)
	} else {
		sessions, err = s.store.ListReadingSessionsInRange(ctx, *r)
	}
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return domain.DistinctDays(sessions), nil
}

// MonthlyStats summarizes the last monthsBack calendar months including the
// current one, oldest first.
func (s *StatsService) MonthlyStats(ctx context.Context, monthsBack int) ([]domain.MonthlyStats, error) {
	if monthsBack <= 0 {
		monthsBack = DefaultMonthsBack
	}
	if monthsBack > MaxMonthsBack {
		return nil, domainerrors.Validationf("months must not exceed %d", MaxMonthsBack)
	}

	today := s.clock.Today()
	oldest := today.AddMonths(-(monthsBack - 1))

	sessions, err := s.store.ListReadingSessionsInRange(ctx, domain.DayRange{From: oldest, To: today.MonthEnd()})
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	completed, err := s.store.ListBooksByStatus(ctx, domain.StatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("list completed books: %w", err)
	}

	out := make([]domain.MonthlyStats, 0, monthsBack)
	for i := range monthsBack {
		start := oldest.AddMonths(i)
		window := domain.MonthRange(start)
		y, m, _ := start.Date()

		ms := domain.MonthlyStats{
			Month:       domain.MonthLabel(start),
			Year:        y,
			MonthNumber: int(m),
		}

		days := make(map[domain.CalendarDay]struct{})
		for _, rs := range sessions {
			if window.Contains(rs.Day) {
				days[rs.Day] = struct{}{}
				ms.PagesRead += rs.Pages()
			}
		}
		ms.ActiveDays = len(days)

		for _, b := range completed {
			if b.IsCompletedIn(window, s.clock.Location) {
				ms.BooksCompleted++
			}
		}

		out = append(out, ms)
	}
	return out, nil
}

// ReadingDaysPerWeek returns distinct reading days per Sunday-start week for
// the most recent weeks that had any reading, oldest first, at most 12.
func (s *StatsService) ReadingDaysPerWeek(ctx context.Context) ([]domain.WeeklyReadingDays, error) {
	days, err := s.readingDays(ctx, nil)
	if err != nil {
		return nil, err
	}

	perWeek := make(map[domain.CalendarDay]int)
	for d := range days {
		perWeek[d.WeekStart()]++
	}

	weeks := make([]domain.CalendarDay, 0, len(perWeek))
	for w := range perWeek {
		weeks = append(weeks, w)
	}
	slices.Sort(weeks)
	if len(weeks) > weeksOfHistory {
		weeks = weeks[len(weeks)-weeksOfHistory:]
	}

	out := make([]domain.WeeklyReadingDays, 0, len(weeks))
	for _, w := range weeks {
		out = append(out, domain.WeeklyReadingDays{Week: w, Days: perWeek[w]})
	}
	return out, nil
}

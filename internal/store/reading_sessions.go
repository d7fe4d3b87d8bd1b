package store

import (
	"context"

	"github.com/readtrack/readtrack-server/internal/domain"
)

// CreateReadingSession stores a new reading session.
func (s *BadgerStore) CreateReadingSession(ctx context.Context, session *domain.ReadingSession) error {
	return s.sessions.Create(ctx, session.ID, session)
}

// GetReadingSession retrieves a reading session by ID.
func (s *BadgerStore) GetReadingSession(ctx context.Context, id string) (*domain.ReadingSession, error) {
	return s.sessions.Get(ctx, id)
}

// UpdateReadingSession replaces a reading session.
func (s *BadgerStore) UpdateReadingSession(ctx context.Context, session *domain.ReadingSession) error {
	return s.sessions.Update(ctx, session.ID, session)
}

// DeleteReadingSession deletes a reading session.
func (s *BadgerStore) DeleteReadingSession(ctx context.Context, id string) error {
	return s.sessions.Delete(ctx, id)
}

// ListReadingSessions returns all sessions, newest day first.
func (s *BadgerStore) ListReadingSessions(ctx context.Context) ([]*domain.ReadingSession, error) {
	sessions, err := s.sessions.All(ctx)
	if err != nil {
		return nil, err
	}
	sortSessionsNewestFirst(sessions)
	return sessions, nil
}

// ListReadingSessionsForBook returns a book's sessions, newest day first.
func (s *BadgerStore) ListReadingSessionsForBook(ctx context.Context, bookID string) ([]*domain.ReadingSession, error) {
	sessions, err := s.sessions.ListByIndexPrefix(ctx, "book", bookID+":")
	if err != nil {
		return nil, err
	}
	sortSessionsNewestFirst(sessions)
	return sessions, nil
}

// ListReadingSessionsInRange returns sessions whose day falls in r, newest day first.
func (s *BadgerStore) ListReadingSessionsInRange(ctx context.Context, r domain.DayRange) ([]*domain.ReadingSession, error) {
	if r.To < r.From {
		return nil, nil
	}
	sessions, err := s.sessions.ListByIndexRange(ctx, "day", r.From.String(), r.To.String())
	if err != nil {
		return nil, err
	}
	sortSessionsNewestFirst(sessions)
	return sessions, nil
}

// HasReadingSessionOnDay reports whether the book has any session on day.
func (s *BadgerStore) HasReadingSessionOnDay(ctx context.Context, bookID string, day domain.CalendarDay) (bool, error) {
	return s.sessions.ExistsByIndexPrefix(ctx, "book_day", bookID+":"+day.String()+":")
}

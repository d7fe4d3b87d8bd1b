package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/readtrack/readtrack-server/internal/domain"
	"github.com/readtrack/readtrack-server/internal/store"
)

// readingSessionColumns must match the scan order in scanReadingSession.
const readingSessionColumns = `id, book_id, date, day, pages_read, start_page, end_page,
	duration_minutes, notes, source, created_at, updated_at`

const sessionOrder = ` ORDER BY day DESC, date DESC`

func scanReadingSession(sc scanner) (*domain.ReadingSession, error) {
	var (
		rs                                  domain.ReadingSession
		date, source, createdAt, updatedAt  string
		day                                 int64
		pages, startPage, endPage, duration sql.NullInt64
		notes                               sql.NullString
	)

	err := sc.Scan(
		&rs.ID, &rs.BookID, &date, &day, &pages, &startPage, &endPage,
		&duration, &notes, &source, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	rs.Day = domain.CalendarDay(day)
	rs.PagesRead = intFromNull(pages)
	rs.StartPage = intFromNull(startPage)
	rs.EndPage = intFromNull(endPage)
	rs.DurationMinutes = intFromNull(duration)
	rs.Notes = notes.String
	rs.Source = domain.Source(source)

	if rs.Date, err = parseTime(date); err != nil {
		return nil, err
	}
	if rs.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if rs.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &rs, nil
}

// CreateReadingSession inserts a reading session.
func (s *Store) CreateReadingSession(ctx context.Context, session *domain.ReadingSession) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reading_sessions (`+readingSessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID, session.BookID, formatTime(session.Date), int64(session.Day),
		nullInt(session.PagesRead), nullInt(session.StartPage), nullInt(session.EndPage),
		nullInt(session.DurationMinutes), nullString(session.Notes), string(session.Source),
		formatTime(session.CreatedAt), formatTime(session.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

// GetReadingSession retrieves a reading session by ID.
func (s *Store) GetReadingSession(ctx context.Context, id string) (*domain.ReadingSession, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+readingSessionColumns+` FROM reading_sessions WHERE id = ?`, id)
	rs, err := scanReadingSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return rs, err
}

// UpdateReadingSession replaces a reading session row.
func (s *Store) UpdateReadingSession(ctx context.Context, session *domain.ReadingSession) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE reading_sessions SET
			book_id = ?, date = ?, day = ?, pages_read = ?, start_page = ?, end_page = ?,
			duration_minutes = ?, notes = ?, source = ?, created_at = ?, updated_at = ?
		WHERE id = ?`,
		session.BookID, formatTime(session.Date), int64(session.Day),
		nullInt(session.PagesRead), nullInt(session.StartPage), nullInt(session.EndPage),
		nullInt(session.DurationMinutes), nullString(session.Notes), string(session.Source),
		formatTime(session.CreatedAt), formatTime(session.UpdatedAt),
		session.ID,
	)
	if err != nil {
		return err
	}
	return expectOneRow(result)
}

// DeleteReadingSession deletes a reading session.
func (s *Store) DeleteReadingSession(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM reading_sessions WHERE id = ?`, id)
	return err
}

// ListReadingSessions returns all sessions, newest day first.
func (s *Store) ListReadingSessions(ctx context.Context) ([]*domain.ReadingSession, error) {
	return s.querySessions(ctx, `SELECT `+readingSessionColumns+` FROM reading_sessions`+sessionOrder)
}

// ListReadingSessionsForBook returns a book's sessions, newest day first.
func (s *Store) ListReadingSessionsForBook(ctx context.Context, bookID string) ([]*domain.ReadingSession, error) {
	return s.querySessions(ctx,
		`SELECT `+readingSessionColumns+` FROM reading_sessions WHERE book_id = ?`+sessionOrder, bookID)
}

// ListReadingSessionsInRange returns sessions whose day falls in r, newest day first.
func (s *Store) ListReadingSessionsInRange(ctx context.Context, r domain.DayRange) ([]*domain.ReadingSession, error) {
	return s.querySessions(ctx,
		`SELECT `+readingSessionColumns+` FROM reading_sessions WHERE day BETWEEN ? AND ?`+sessionOrder,
		int64(r.From), int64(r.To))
}

// HasReadingSessionOnDay reports whether the book has any session on day.
func (s *Store) HasReadingSessionOnDay(ctx context.Context, bookID string, day domain.CalendarDay) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM reading_sessions WHERE book_id = ? AND day = ?)`,
		bookID, int64(day),
	).Scan(&exists)
	return exists == 1, err
}

func (s *Store) querySessions(ctx context.Context, query string, args ...any) ([]*domain.ReadingSession, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanReadingSession)
}

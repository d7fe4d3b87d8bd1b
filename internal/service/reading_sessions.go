package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/readtrack/readtrack-server/internal/domain"
	domainerrors "github.com/readtrack/readtrack-server/internal/errors"
	"github.com/readtrack/readtrack-server/internal/id"
	"github.com/readtrack/readtrack-server/internal/store"
	"github.com/readtrack/readtrack-server/internal/validation"
)

// ReadingSessionService manages the reading journal.
type ReadingSessionService struct {
	store     store.Store
	validator *validation.Validator
	clock     Clock
	logger    *slog.Logger
}

// NewReadingSessionService creates a new reading session service.
func NewReadingSessionService(store store.Store, validator *validation.Validator, clock Clock, logger *slog.Logger) *ReadingSessionService {
	return &ReadingSessionService{
		store:     store,
		validator: validator,
		clock:     clock,
		logger:    logger,
	}
}

// CreateSessionInput holds the fields for a new session.
type CreateSessionInput struct {
	BookID          string        `json:"book_id" validate:"required"`
	Date            time.Time     `json:"date" validate:"required"`
	PagesRead       *int          `json:"pages_read,omitempty" validate:"omitempty,gte=0"`
	StartPage       *int          `json:"start_page,omitempty" validate:"omitempty,gte=0"`
	EndPage         *int          `json:"end_page,omitempty" validate:"omitempty,gte=0"`
	DurationMinutes *int          `json:"duration_minutes,omitempty" validate:"omitempty,gte=0"`
	Notes           string        `json:"notes,omitempty" validate:"max=2000"`
	Source          domain.Source `json:"source,omitempty" validate:"book_source"`
}

// Create logs a session for an existing book. When only a page range is
// given, PagesRead is derived from it.
func (s *ReadingSessionService) Create(ctx context.Context, in CreateSessionInput) (*domain.ReadingSession, error) {
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}
	if err := checkPageRange(in.StartPage, in.EndPage); err != nil {
		return nil, err
	}
	if _, err := s.store.GetBook(ctx, in.BookID); err != nil {
		return nil, storeError(err, "book", in.BookID)
	}

	sessionID, err := id.Generate(id.PrefixReadingSession)
	if err != nil {
		return nil, err
	}

	session := &domain.ReadingSession{
		Record:          domain.Record{ID: sessionID},
		BookID:          in.BookID,
		PagesRead:       in.PagesRead,
		StartPage:       in.StartPage,
		EndPage:         in.EndPage,
		DurationMinutes: in.DurationMinutes,
		Notes:           in.Notes,
		Source:          in.Source,
	}
	if session.Source == "" {
		session.Source = domain.SourceManual
	}
	if session.PagesRead == nil && in.StartPage != nil && in.EndPage != nil {
		pages := *in.EndPage - *in.StartPage
		session.PagesRead = &pages
	}
	session.SetDate(in.Date, s.clock.Location)
	session.InitTimestamps(s.clock.Now())

	if err := s.store.CreateReadingSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create reading session: %w", err)
	}

	s.logger.Debug("reading session created", "session_id", session.ID, "book_id", session.BookID, "day", session.Day)
	return session, nil
}

func checkPageRange(start, end *int) error {
	if start != nil && end != nil && *end < *start {
		return domainerrors.ValidationWithDetails("validation failed", map[string]string{
			"end_page": "must be greater than or equal to start_page",
		})
	}
	return nil
}

// Get returns a session by ID.
func (s *ReadingSessionService) Get(ctx context.Context, sessionID string) (*domain.ReadingSession, error) {
	session, err := s.store.GetReadingSession(ctx, sessionID)
	if err != nil {
		return nil, storeError(err, "reading session", sessionID)
	}
	return session, nil
}

// UpdateSessionInput holds the fields that may change. Nil fields are left alone.
type UpdateSessionInput struct {
	Date            *time.Time `json:"date,omitempty"`
	PagesRead       *int       `json:"pages_read,omitempty" validate:"omitempty,gte=0"`
	StartPage       *int       `json:"start_page,omitempty" validate:"omitempty,gte=0"`
	EndPage         *int       `json:"end_page,omitempty" validate:"omitempty,gte=0"`
	DurationMinutes *int       `json:"duration_minutes,omitempty" validate:"omitempty,gte=0"`
	Notes           *string    `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// Update applies in to a session. A new date recomputes its calendar day.
func (s *ReadingSessionService) Update(ctx context.Context, sessionID string, in UpdateSessionInput) (*domain.ReadingSession, error) {
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if in.Date != nil {
		session.SetDate(*in.Date, s.clock.Location)
	}
	if in.PagesRead != nil {
		session.PagesRead = in.PagesRead
	}
	if in.StartPage != nil {
		session.StartPage = in.StartPage
	}
	if in.EndPage != nil {
		session.EndPage = in.EndPage
	}
	if in.DurationMinutes != nil {
		session.DurationMinutes = in.DurationMinutes
	}
	if in.Notes != nil {
		session.Notes = *in.Notes
	}
	if err := checkPageRange(session.StartPage, session.EndPage); err != nil {
		return nil, err
	}
	session.Touch(s.clock.Now())

	if err := s.store.UpdateReadingSession(ctx, session); err != nil {
		return nil, storeError(err, "reading session", sessionID)
	}
	return session, nil
}

// Delete removes a session.
func (s *ReadingSessionService) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.Get(ctx, sessionID); err != nil {
		return err
	}
	return s.store.DeleteReadingSession(ctx, sessionID)
}

// List returns every session, newest day first.
func (s *ReadingSessionService) List(ctx context.Context) ([]*domain.ReadingSession, error) {
	return s.store.ListReadingSessions(ctx)
}

// ListForBook returns a book's sessions, newest day first.
func (s *ReadingSessionService) ListForBook(ctx context.Context, bookID string) ([]*domain.ReadingSession, error) {
	return s.store.ListReadingSessionsForBook(ctx, bookID)
}

// ListInRange returns sessions whose day lies in r, newest day first.
func (s *ReadingSessionService) ListInRange(ctx context.Context, r domain.DayRange) ([]*domain.ReadingSession, error) {
	if r.To < r.From {
		return nil, domainerrors.Validationf("range end %s is before start %s", r.To, r.From)
	}
	return s.store.ListReadingSessionsInRange(ctx, r)
}

// ListOnDay returns the sessions logged on day.
func (s *ReadingSessionService) ListOnDay(ctx context.Context, day domain.CalendarDay) ([]*domain.ReadingSession, error) {
	return s.store.ListReadingSessionsInRange(ctx, domain.DayRange{From: day, To: day})
}

// Recent returns the latest limit sessions.
func (s *ReadingSessionService) Recent(ctx context.Context, limit int) ([]*domain.ReadingSession, error) {
	sessions, err := s.store.ListReadingSessions(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(sessions) > limit {
		sessions = sessions[:limit]
	}
	return sessions, nil
}

// ReadingDaysInMonth returns the distinct days with sessions in the given
// month, ascending.
func (s *ReadingSessionService) ReadingDaysInMonth(ctx context.Context, year int, month time.Month) ([]domain.CalendarDay, error) {
	if month < time.January || month > time.December {
		return nil, domainerrors.Validationf("month %d out of range", month)
	}
	sessions, err := s.store.ListReadingSessionsInRange(ctx, domain.MonthRange(domain.DateOf(year, month, 1)))
	if err != nil {
		return nil, err
	}
	return domain.SortedDays(domain.DistinctDays(sessions)), nil
}

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/readtrack/readtrack-server/internal/domain"
	domainerrors "github.com/readtrack/readtrack-server/internal/errors"
	"github.com/readtrack/readtrack-server/internal/service"
)

func (s *Server) registerSessionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listSessions",
		Method:      http.MethodGet,
		Path:        "/api/v1/sessions",
		Summary:     "List reading sessions",
		Description: "Lists sessions newest first, optionally within an inclusive day range",
		Tags:        []string{"Sessions"},
	}, s.handleListSessions)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createSession",
		Method:        http.MethodPost,
		Path:          "/api/v1/sessions",
		Summary:       "Log reading session",
		Description:   "Records reading for a book on a day",
		Tags:          []string{"Sessions"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateSession)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSession",
		Method:      http.MethodGet,
		Path:        "/api/v1/sessions/{id}",
		Summary:     "Get reading session",
		Tags:        []string{"Sessions"},
	}, s.handleGetSession)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateSession",
		Method:      http.MethodPatch,
		Path:        "/api/v1/sessions/{id}",
		Summary:     "Update reading session",
		Tags:        []string{"Sessions"},
	}, s.handleUpdateSession)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteSession",
		Method:        http.MethodDelete,
		Path:          "/api/v1/sessions/{id}",
		Summary:       "Delete reading session",
		Tags:          []string{"Sessions"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteSession)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCalendarMonth",
		Method:      http.MethodGet,
		Path:        "/api/v1/calendar/{year}/{month}",
		Summary:     "Reading days in a month",
		Description: "Returns the distinct days of the month with at least one session",
		Tags:        []string{"Sessions"},
	}, s.handleGetCalendarMonth)
}

// === DTOs ===

// ListSessionsInput contains parameters for listing sessions.
type ListSessionsInput struct {
	From  string `query:"from" format:"date" doc:"First day, YYYY-MM-DD"`
	To    string `query:"to" format:"date" doc:"Last day, YYYY-MM-DD"`
	Limit int    `query:"limit" minimum:"0" maximum:"1000" doc:"Most recent N sessions (ignored with a range)"`
}

// SessionsResponse contains a list of sessions.
type SessionsResponse struct {
	Sessions []*domain.ReadingSession `json:"sessions" doc:"Reading sessions"`
}

// SessionsOutput wraps a list of sessions for Huma.
type SessionsOutput struct {
	Body SessionsResponse
}

// CreateSessionInput wraps the create session request for Huma.
type CreateSessionInput struct {
	Body service.CreateSessionInput
}

// SessionOutput wraps a session for Huma.
type SessionOutput struct {
	Body *domain.ReadingSession
}

// SessionIDInput identifies a session.
type SessionIDInput struct {
	ID string `path:"id" doc:"Session ID"`
}

// UpdateSessionInput wraps the update session request for Huma.
type UpdateSessionInput struct {
	ID   string `path:"id" doc:"Session ID"`
	Body service.UpdateSessionInput
}

// CalendarMonthInput selects a month.
type CalendarMonthInput struct {
	Year  int `path:"year" minimum:"1970" maximum:"9999" doc:"Year"`
	Month int `path:"month" minimum:"1" maximum:"12" doc:"Month, 1-12"`
}

// CalendarMonthResponse lists reading days.
type CalendarMonthResponse struct {
	Year  int                  `json:"year"`
	Month int                  `json:"month"`
	Days  []domain.CalendarDay `json:"days" doc:"Days with reading, ascending"`
}

// CalendarMonthOutput wraps the calendar response for Huma.
type CalendarMonthOutput struct {
	Body CalendarMonthResponse
}

// === Handlers ===

func (s *Server) handleListSessions(ctx context.Context, input *ListSessionsInput) (*SessionsOutput, error) {
	var (
		sessions []*domain.ReadingSession
		err      error
	)

	switch {
	case input.From != "" || input.To != "":
		r, rangeErr := parseDayRange(input.From, input.To)
		if rangeErr != nil {
			return nil, rangeErr
		}
		sessions, err = s.services.ReadingSession.ListInRange(ctx, r)
	case input.Limit > 0:
		sessions, err = s.services.ReadingSession.Recent(ctx, input.Limit)
	default:
		sessions, err = s.services.ReadingSession.List(ctx)
	}
	if err != nil {
		return nil, err
	}
	return &SessionsOutput{Body: SessionsResponse{Sessions: nonNil(sessions)}}, nil
}

func (s *Server) handleCreateSession(ctx context.Context, input *CreateSessionInput) (*SessionOutput, error) {
	rs, err := s.services.ReadingSession.Create(ctx, input.Body)
	if err != nil {
		return nil, err
	}
	return &SessionOutput{Body: rs}, nil
}

func (s *Server) handleGetSession(ctx context.Context, input *SessionIDInput) (*SessionOutput, error) {
	rs, err := s.services.ReadingSession.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &SessionOutput{Body: rs}, nil
}

func (s *Server) handleUpdateSession(ctx context.Context, input *UpdateSessionInput) (*SessionOutput, error) {
	rs, err := s.services.ReadingSession.Update(ctx, input.ID, input.Body)
	if err != nil {
		return nil, err
	}
	return &SessionOutput{Body: rs}, nil
}

func (s *Server) handleDeleteSession(ctx context.Context, input *SessionIDInput) (*struct{}, error) {
	if err := s.services.ReadingSession.Delete(ctx, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleGetCalendarMonth(ctx context.Context, input *CalendarMonthInput) (*CalendarMonthOutput, error) {
	days, err := s.services.ReadingSession.ReadingDaysInMonth(ctx, input.Year, time.Month(input.Month))
	if err != nil {
		return nil, err
	}
	return &CalendarMonthOutput{Body: CalendarMonthResponse{
		Year:  input.Year,
		Month: input.Month,
		Days:  nonNil(days),
	}}, nil
}

// parseDayRange parses an inclusive range. A missing end means the same day
// as the start, and a missing start means the same day as the end.
func parseDayRange(from, to string) (domain.DayRange, error) {
	if from == "" {
		from = to
	}
	if to == "" {
		to = from
	}

	start, err := domain.ParseDay(from)
	if err != nil {
		return domain.DayRange{}, domainerrors.Validationf("invalid from date %q", from)
	}
	end, err := domain.ParseDay(to)
	if err != nil {
		return domain.DayRange{}, domainerrors.Validationf("invalid to date %q", to)
	}
	return domain.DayRange{From: start, To: end}, nil
}

package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/readtrack/readtrack-server/internal/domain"
)

func (s *Server) registerStatsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getStats",
		Method:      http.MethodGet,
		Path:        "/api/v1/stats",
		Summary:     "Reading stats",
		Description: "Returns active days, completions, streaks and pages",
		Tags:        []string{"Stats"},
	}, s.handleGetStats)

	huma.Register(s.api, huma.Operation{
		OperationID: "getMonthlyStats",
		Method:      http.MethodGet,
		Path:        "/api/v1/stats/monthly",
		Summary:     "Monthly stats",
		Description: "Per-month summaries for the last N months, oldest first",
		Tags:        []string{"Stats"},
	}, s.handleGetMonthlyStats)

	huma.Register(s.api, huma.Operation{
		OperationID: "getWeeklyReadingDays",
		Method:      http.MethodGet,
		Path:        "/api/v1/stats/weekly",
		Summary:     "Reading days per week",
		Description: "Distinct reading days for the 12 most recent weeks with reading, oldest first",
		Tags:        []string{"Stats"},
	}, s.handleGetWeeklyReadingDays)

	huma.Register(s.api, huma.Operation{
		OperationID: "getActiveDays",
		Method:      http.MethodGet,
		Path:        "/api/v1/stats/active-days",
		Summary:     "Active days",
		Description: "Counts distinct reading days, all-time or within an inclusive range",
		Tags:        []string{"Stats"},
	}, s.handleGetActiveDays)
}

// === DTOs ===

// StatsOutput wraps reading stats for Huma.
type StatsOutput struct {
	Body *domain.ReadingStats
}

// MonthlyStatsInput selects the history length.
type MonthlyStatsInput struct {
	Months int `query:"months" minimum:"0" maximum:"120" doc:"Months of history, default 6"`
}

// MonthlyStatsResponse contains per-month summaries.
type MonthlyStatsResponse struct {
	Months []domain.MonthlyStats `json:"months" doc:"Oldest first"`
}

// MonthlyStatsOutput wraps monthly stats for Huma.
type MonthlyStatsOutput struct {
	Body MonthlyStatsResponse
}

// WeeklyReadingDaysResponse contains weekly counts.
type WeeklyReadingDaysResponse struct {
	Weeks []domain.WeeklyReadingDays `json:"weeks" doc:"Oldest first"`
}

// WeeklyReadingDaysOutput wraps weekly counts for Huma.
type WeeklyReadingDaysOutput struct {
	Body WeeklyReadingDaysResponse
}

// ActiveDaysInput bounds the count.
type ActiveDaysInput struct {
	From string `query:"from" format:"date" doc:"First day, YYYY-MM-DD"`
	To   string `query:"to" format:"date" doc:"Last day, YYYY-MM-DD"`
}

// ActiveDaysResponse contains the count.
type ActiveDaysResponse struct {
	ActiveDays int `json:"active_days"`
}

// ActiveDaysOutput wraps the count for Huma.
type ActiveDaysOutput struct {
	Body ActiveDaysResponse
}

// === Handlers ===

func (s *Server) handleGetStats(ctx context.Context, _ *struct{}) (*StatsOutput, error) {
	stats, err := s.services.Stats.FullStats(ctx)
	if err != nil {
		return nil, err
	}
	return &StatsOutput{Body: stats}, nil
}

func (s *Server) handleGetMonthlyStats(ctx context.Context, input *MonthlyStatsInput) (*MonthlyStatsOutput, error) {
	months, err := s.services.Stats.MonthlyStats(ctx, input.Months)
	if err != nil {
		return nil, err
	}
	return &MonthlyStatsOutput{Body: MonthlyStatsResponse{Months: months}}, nil
}

func (s *Server) handleGetWeeklyReadingDays(ctx context.Context, _ *struct{}) (*WeeklyReadingDaysOutput, error) {
	weeks, err := s.services.Stats.ReadingDaysPerWeek(ctx)
	if err != nil {
		return nil, err
	}
	return &WeeklyReadingDaysOutput{Body: WeeklyReadingDaysResponse{Weeks: weeks}}, nil
}

func (s *Server) handleGetActiveDays(ctx context.Context, input *ActiveDaysInput) (*ActiveDaysOutput, error) {
	var window *domain.DayRange
	if input.From != "" || input.To != "" {
		r, err := parseDayRange(input.From, input.To)
		if err != nil {
			return nil, err
		}
		window = &r
	}

	n, err := s.services.Stats.ActiveDays(ctx, window)
	if err != nil {
		return nil, err
	}
	return &ActiveDaysOutput{Body: ActiveDaysResponse{ActiveDays: n}}, nil
}

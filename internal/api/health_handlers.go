package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/readtrack/readtrack-server/internal/domain"
	"github.com/readtrack/readtrack-server/internal/store"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns server health status with component checks",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" doc:"Component status: healthy, degraded, or unhealthy"`
	Latency string `json:"latency,omitempty" doc:"Response time for this component"`
	Message string `json:"message,omitempty" doc:"Additional status information"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status     string                     `json:"status" doc:"Overall status: healthy, degraded, or unhealthy"`
	Components map[string]ComponentHealth `json:"components" doc:"Individual component statuses"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	components := map[string]ComponentHealth{
		"database": s.checkDatabase(ctx),
		"search":   s.checkSearchIndex(),
		"kindle":   s.checkKindleSync(ctx),
	}

	overall := "healthy"
	for _, c := range components {
		switch c.Status {
		case "unhealthy":
			overall = "unhealthy"
		case "degraded":
			if overall == "healthy" {
				overall = "degraded"
			}
		}
	}

	return &HealthOutput{
		Body: HealthResponse{
			Status:     overall,
			Components: components,
		},
	}, nil
}

// checkDatabase verifies the store answers a read.
func (s *Server) checkDatabase(ctx context.Context) ComponentHealth {
	if s.store == nil {
		return ComponentHealth{Status: "degraded", Message: "database not configured"}
	}

	start := time.Now()
	// No settings yet is fine; the store answered.
	_, err := s.store.GetSettings(ctx)
	latency := time.Since(start)

	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return ComponentHealth{
			Status:  "unhealthy",
			Latency: latency.String(),
			Message: "database read failed",
		}
	}
	return ComponentHealth{Status: "healthy", Latency: latency.String()}
}

// checkSearchIndex verifies the Bleve index is accessible. Without an index
// book search scans the store, so a missing index only degrades.
func (s *Server) checkSearchIndex() ComponentHealth {
	if s.services == nil || s.services.SearchIndex == nil {
		return ComponentHealth{Status: "degraded", Message: "search index not configured"}
	}

	start := time.Now()
	count, err := s.services.SearchIndex.DocumentCount()
	latency := time.Since(start)

	if err != nil {
		return ComponentHealth{
			Status:  "unhealthy",
			Latency: latency.String(),
			Message: "search index unreachable",
		}
	}
	return ComponentHealth{
		Status:  "healthy",
		Latency: latency.String(),
		Message: strconv.FormatUint(count, 10) + " books indexed",
	}
}

// checkKindleSync reports the last sync outcome. Missing credentials are not
// a fault; a failed last sync degrades.
func (s *Server) checkKindleSync(ctx context.Context) ComponentHealth {
	if s.services == nil || s.services.KindleSync == nil {
		return ComponentHealth{Status: "healthy", Message: "kindle sync not wired"}
	}

	info, err := s.services.KindleSync.LastSyncInfo(ctx)
	switch {
	case err != nil:
		return ComponentHealth{Status: "unhealthy", Message: "sync state unreadable"}
	case !info.Configured:
		return ComponentHealth{Status: "healthy", Message: "credentials not configured"}
	case info.LastStatus == domain.SyncError:
		return ComponentHealth{Status: "degraded", Message: "last sync failed: " + info.LastError}
	case info.LastSyncAt == nil:
		return ComponentHealth{Status: "healthy", Message: "never synced"}
	default:
		return ComponentHealth{Status: "healthy", Message: "last sync " + info.LastSyncAt.Format(time.RFC3339)}
	}
}

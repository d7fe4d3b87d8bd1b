package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/readtrack/readtrack-server/internal/domain"
	"github.com/readtrack/readtrack-server/internal/service"
)

func (s *Server) registerKindleRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "syncKindle",
		Method:      http.MethodPost,
		Path:        "/api/v1/kindle/sync",
		Summary:     "Sync Kindle library",
		Description: "Runs one reconciliation cycle. The result is returned on failure too, with a status matching its error code",
		Tags:        []string{"Kindle"},
	}, s.handleSyncKindle)

	huma.Register(s.api, huma.Operation{
		OperationID: "getKindleSyncStatus",
		Method:      http.MethodGet,
		Path:        "/api/v1/kindle/status",
		Summary:     "Kindle sync status",
		Description: "Returns the last sync time, its outcome and when the next sync is allowed",
		Tags:        []string{"Kindle"},
	}, s.handleGetKindleSyncStatus)

	huma.Register(s.api, huma.Operation{
		OperationID: "listKindleSyncLogs",
		Method:      http.MethodGet,
		Path:        "/api/v1/kindle/logs",
		Summary:     "Kindle sync logs",
		Description: "Lists sync attempts, newest first",
		Tags:        []string{"Kindle"},
	}, s.handleListKindleSyncLogs)
}

// === DTOs ===

// SyncKindleOutput wraps a sync result for Huma.
type SyncKindleOutput struct {
	Status int
	Body   *service.SyncResult
}

// SyncStatusOutput wraps sync status for Huma.
type SyncStatusOutput struct {
	Body *service.SyncInfo
}

// SyncLogsInput bounds the log list.
type SyncLogsInput struct {
	Limit int `query:"limit" minimum:"0" maximum:"500" default:"20" doc:"Maximum entries; 0 returns all"`
}

// SyncLogsResponse contains sync logs.
type SyncLogsResponse struct {
	Logs []*domain.SyncLog `json:"logs"`
}

// SyncLogsOutput wraps sync logs for Huma.
type SyncLogsOutput struct {
	Body SyncLogsResponse
}

// === Handlers ===

func (s *Server) handleSyncKindle(ctx context.Context, _ *struct{}) (*SyncKindleOutput, error) {
	result := s.services.KindleSync.Sync(ctx)

	status := http.StatusOK
	if !result.Success {
		status = result.ErrorCode.HTTPStatus()
	}
	return &SyncKindleOutput{Status: status, Body: result}, nil
}

func (s *Server) handleGetKindleSyncStatus(ctx context.Context, _ *struct{}) (*SyncStatusOutput, error) {
	info, err := s.services.KindleSync.LastSyncInfo(ctx)
	if err != nil {
		return nil, err
	}
	return &SyncStatusOutput{Body: info}, nil
}

func (s *Server) handleListKindleSyncLogs(ctx context.Context, input *SyncLogsInput) (*SyncLogsOutput, error) {
	logs, err := s.services.KindleSync.RecentLogs(ctx, input.Limit)
	if err != nil {
		return nil, err
	}
	return &SyncLogsOutput{Body: SyncLogsResponse{Logs: nonNil(logs)}}, nil
}

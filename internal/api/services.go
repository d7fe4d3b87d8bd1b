package api

import (
	"github.com/readtrack/readtrack-server/internal/backup"
	"github.com/readtrack/readtrack-server/internal/search"
	"github.com/readtrack/readtrack-server/internal/service"
)

// Services groups all business logic services used by the API server.
type Services struct {
	Book           *service.BookService
	ReadingSession *service.ReadingSessionService
	Stats          *service.StatsService
	Goal           *service.GoalService
	Settings       *service.SettingsService
	KindleSync     *service.KindleSyncService
	SearchIndex    *search.BookIndex // Optional; reported by the health check

	// Backup routes are registered only when both are set.
	Backup  *backup.BackupService
	Restore *backup.RestoreService
}

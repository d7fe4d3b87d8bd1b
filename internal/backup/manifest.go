package backup

import "time"

// FormatVersion is the backup format version. Increment major on breaking changes.
const FormatVersion = "1.0"

// Archive paths.
const (
	manifestPath        = "manifest.json"
	settingsPath        = "settings.json"
	booksPath           = "entities/books.jsonl"
	readingSessionsPath = "entities/reading_sessions.jsonl"
	goalsPath           = "entities/goals.jsonl"
	snapshotsPath       = "kindle/snapshots.jsonl"
	syncLogsPath        = "kindle/sync_logs.jsonl"
)

// Manifest describes backup contents and metadata.
type Manifest struct {
	Version       string    `json:"version"`
	CreatedAt     time.Time `json:"created_at"`
	ServerVersion string    `json:"server_version"`

	Counts EntityCounts `json:"counts"`

	IncludesKindleHistory bool `json:"includes_kindle_history"`
	IncludesSettings      bool `json:"includes_settings"`
}

// EntityCounts tracks entity counts for validation and progress reporting.
type EntityCounts struct {
	Books           int `json:"books"`
	ReadingSessions int `json:"reading_sessions"`
	Goals           int `json:"goals"`
	KindleSnapshots int `json:"kindle_snapshots,omitempty"`
	SyncLogs        int `json:"sync_logs,omitempty"`
}

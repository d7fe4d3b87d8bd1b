package domain

import "time"

// KindleBook is one library item as reported by the Kindle proxy.
type KindleBook struct {
	ASIN            string     `json:"asin"`
	Title           string     `json:"title"`
	Author          string     `json:"author"`
	CoverURL        string     `json:"cover_url,omitempty"`
	PercentComplete *int       `json:"percent_complete,omitempty"`
	LastOpenedAt    *time.Time `json:"last_opened_at,omitempty"`
}

// HasPlausibleLastOpened reports whether LastOpenedAt looks like a real read.
// Kindle reports epoch and other placeholder dates for never-opened items.
func (k KindleBook) HasPlausibleLastOpened() bool {
	return k.LastOpenedAt != nil && PlausibleDate(*k.LastOpenedAt)
}

// Percent returns PercentComplete, treating unset as zero.
func (k KindleBook) Percent() int {
	if k.PercentComplete == nil {
		return 0
	}
	return *k.PercentComplete
}

// InitialStatus derives the shelf status for a book first seen on Kindle:
// fully read is completed, any sign of reading is reading, anything else is
// want-to-read.
func (k KindleBook) InitialStatus() BookStatus {
	switch {
	case k.PercentComplete != nil && *k.PercentComplete == 100:
		return StatusCompleted
	case k.HasPlausibleLastOpened() || k.Percent() > 0:
		return StatusReading
	default:
		return StatusWantToRead
	}
}

// PlausibleDate reports whether t is after 1980.
func PlausibleDate(t time.Time) bool {
	return t.Year() > 1980
}

// KindleSnapshot is a point-in-time capture of the whole Kindle library.
type KindleSnapshot struct {
	ID         string       `json:"id"`
	SnapshotAt time.Time    `json:"snapshot_at"`
	Books      []KindleBook `json:"books"`
}

// KindleCredentials are the opaque values the proxy needs to reach the account.
type KindleCredentials struct {
	Cookies     string `json:"cookies"`
	DeviceToken string `json:"device_token"`
}

// Complete reports whether both values are present.
func (c KindleCredentials) Complete() bool {
	return c.Cookies != "" && c.DeviceToken != ""
}

// SyncStatus is the outcome recorded in a sync log.
type SyncStatus string

// Sync statuses.
const (
	SyncSuccess SyncStatus = "success"
	SyncError   SyncStatus = "error"
	SyncPartial SyncStatus = "partial"
)

// SyncSource names the remote a sync talked to.
type SyncSource string

// Sync sources.
const (
	SyncSourceKindle      SyncSource = "kindle"
	SyncSourceGoogleBooks SyncSource = "google-books"
)

// SyncLog is an append-only record of one sync attempt.
type SyncLog struct {
	ID           string     `json:"id"`
	Source       SyncSource `json:"source"`
	Status       SyncStatus `json:"status"`
	ItemsAdded   int        `json:"items_added"`
	ItemsUpdated int        `json:"items_updated"`
	ErrorMessage string     `json:"error_message,omitempty"`
	SyncedAt     time.Time  `json:"synced_at"`
}

package domain

import "time"

// BookStatus is where a book sits on the user's shelf.
type BookStatus string

// Book statuses.
const (
	StatusWantToRead BookStatus = "want-to-read"
	StatusReading    BookStatus = "reading"
	StatusPaused     BookStatus = "paused"
	StatusCompleted  BookStatus = "completed"
)

// AllStatuses lists every status in display order.
var AllStatuses = []BookStatus{StatusReading, StatusWantToRead, StatusPaused, StatusCompleted}

// Valid returns true if the status is a recognized value.
func (s BookStatus) Valid() bool {
	switch s {
	case StatusWantToRead, StatusReading, StatusPaused, StatusCompleted:
		return true
	default:
		return false
	}
}

// Source records where a book or session came from.
type Source string

// Sources.
const (
	SourceManual Source = "manual"
	SourceKindle Source = "kindle"
)

// Valid returns true if the source is a recognized value.
func (s Source) Valid() bool {
	return s == SourceManual || s == SourceKindle
}

// Book is a title on the user's shelf.
type Book struct {
	Record
	Title         string `json:"title"`
	Author        string `json:"author"`
	CoverURL      string `json:"cover_url,omitempty"`
	ISBN          string `json:"isbn,omitempty"`
	GoogleBooksID string `json:"google_books_id,omitempty"`
	// KindleASIN is unique across books when set.
	KindleASIN string `json:"kindle_asin,omitempty"`

	TotalPages  *int `json:"total_pages,omitempty"`
	CurrentPage *int `json:"current_page,omitempty"`
	// PercentComplete is only reported for Kindle books (0-100).
	PercentComplete *int `json:"percent_complete,omitempty"`

	Status BookStatus `json:"status"`
	Source Source     `json:"source"`

	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	LastReadAt  *time.Time `json:"last_read_at,omitempty"`
}

// SetStatus moves the book to status and fires the transition side effects:
// entering reading stamps StartedAt if it was never set, entering completed
// stamps CompletedAt. Setting the current status again is a no-op.
func (b *Book) SetStatus(status BookStatus, now time.Time) {
	if status == b.Status {
		return
	}
	if status == StatusReading && b.StartedAt == nil {
		b.StartedAt = &now
	}
	if status == StatusCompleted {
		b.CompletedAt = &now
	}
	b.Status = status
}

// IsCompletedIn reports whether the book is completed with a completion day inside r.
func (b *Book) IsCompletedIn(r DayRange, loc *time.Location) bool {
	if b.Status != StatusCompleted || b.CompletedAt == nil {
		return false
	}
	return r.Contains(DayOf(*b.CompletedAt, loc))
}

// BookCounts tallies the shelf by status.
type BookCounts struct {
	Total      int `json:"total"`
	Reading    int `json:"reading"`
	Completed  int `json:"completed"`
	Paused     int `json:"paused"`
	WantToRead int `json:"want_to_read"`
}

// CountBooks tallies books by status.
func CountBooks(books []*Book) BookCounts {
	var c BookCounts
	for _, b := range books {
		c.Total++
		switch b.Status {
		case StatusReading:
			c.Reading++
		case StatusCompleted:
			c.Completed++
		case StatusPaused:
			c.Paused++
		case StatusWantToRead:
			c.WantToRead++
		}
	}
	return c
}

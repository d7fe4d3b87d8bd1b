package kindle

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/readtrack/readtrack-server/internal/domain"
	"github.com/readtrack/readtrack-server/internal/normalize"
)

// Credentials are what the proxy needs to reach a Kindle account.
// An empty ProxyURL falls back to the client's default.
type Credentials struct {
	Cookies     string
	DeviceToken string
	ProxyURL    string
}

type libraryRequest struct {
	Cookies     string `json:"cookies"`
	DeviceToken string `json:"deviceToken"`
}

type libraryResponse struct {
	Books []rawBook `json:"books"`
}

type rawAuthor struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// rawBook keeps the optional detail fields raw so one malformed value drops
// that field for that item instead of failing the whole library.
type rawBook struct {
	ASIN           string          `json:"asin"`
	Title          string          `json:"title"`
	Authors        []rawAuthor     `json:"authors"`
	ImageURL       string          `json:"imageUrl"`
	PercentageRead json.RawMessage `json:"percentageRead"`
	SyncDate       json.RawMessage `json:"syncDate"`
}

const unknownAuthor = "Unknown"

// formatAuthors joins authors as "First Last, First Last". Missing authors,
// and authors with neither name part, read as "Unknown".
func formatAuthors(authors []rawAuthor) string {
	if len(authors) == 0 {
		return unknownAuthor
	}

	names := make([]string, 0, len(authors))
	for _, a := range authors {
		var parts []string
		for _, p := range []string{a.FirstName, a.LastName} {
			if p = normalize.Text(p); p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) == 0 {
			names = append(names, unknownAuthor)
			continue
		}
		names = append(names, strings.Join(parts, " "))
	}
	return strings.Join(names, ", ")
}

// toDomain converts b, returning the names of detail fields that could not be parsed.
func (b rawBook) toDomain() (domain.KindleBook, []string) {
	kb := domain.KindleBook{
		ASIN:     strings.TrimSpace(b.ASIN),
		Title:    normalize.Text(b.Title),
		Author:   formatAuthors(b.Authors),
		CoverURL: b.ImageURL,
	}

	var dropped []string
	if pct, ok := parsePercent(b.PercentageRead); ok {
		kb.PercentComplete = pct
	} else {
		dropped = append(dropped, "percentageRead")
	}
	if ts, ok := parseSyncDate(b.SyncDate); ok {
		kb.LastOpenedAt = ts
	} else {
		dropped = append(dropped, "syncDate")
	}
	return kb, dropped
}

func isAbsent(raw json.RawMessage) bool {
	v := bytes.TrimSpace(raw)
	return len(v) == 0 || bytes.Equal(v, []byte("null"))
}

// parsePercent accepts a JSON number or a numeric string. ok is false only
// when a value is present but unusable.
func parsePercent(raw json.RawMessage) (pct *int, ok bool) {
	if isAbsent(raw) {
		return nil, true
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, false
		}
		if f, err = strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
			return nil, false
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, false
	}
	v := int(math.Round(f))
	return &v, true
}

// parseSyncDate accepts an RFC 3339 string or epoch milliseconds.
func parseSyncDate(raw json.RawMessage) (ts *time.Time, ok bool) {
	if isAbsent(raw) {
		return nil, true
	}

	var t time.Time
	if err := json.Unmarshal(raw, &t); err == nil {
		return &t, true
	}
	var ms int64
	if err := json.Unmarshal(raw, &ms); err == nil {
		t = time.UnixMilli(ms).UTC()
		return &t, true
	}
	return nil, false
}

// Package search provides full-text book search using Bleve.
package search

import (
	"github.com/readtrack/readtrack-server/internal/domain"
	"github.com/readtrack/readtrack-server/internal/normalize"
)

// BookDocument is the indexed form of a book.
//
// Title and Author are analyzed for relevance; the folded variants hold the
// lowercase, accent-free text as a single keyword so substring wildcards
// match across word boundaries.
type BookDocument struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Author       string `json:"author"`
	TitleFolded  string `json:"title_folded"`
	AuthorFolded string `json:"author_folded"`
	Status       string `json:"status"`
	Source       string `json:"source"`
	UpdatedAt    int64  `json:"updated_at"` // Unix millis
}

// ToMap converts the document to a map keyed by the mapping's field names.
func (d *BookDocument) ToMap() map[string]any {
	return map[string]any{
		"id":            d.ID,
		"title":         d.Title,
		"author":        d.Author,
		"title_folded":  d.TitleFolded,
		"author_folded": d.AuthorFolded,
		"status":        d.Status,
		"source":        d.Source,
		"updated_at":    d.UpdatedAt,
	}
}

// BookToDocument converts a book to its index document.
func BookToDocument(book *domain.Book) *BookDocument {
	return &BookDocument{
		ID:           book.ID,
		Title:        book.Title,
		Author:       book.Author,
		TitleFolded:  normalize.Fold(book.Title),
		AuthorFolded: normalize.Fold(book.Author),
		Status:       string(book.Status),
		Source:       string(book.Source),
		UpdatedAt:    book.UpdatedAt.UnixMilli(),
	}
}

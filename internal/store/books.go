package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/readtrack/readtrack-server/internal/domain"
)

// CreateBook stores a new book.
func (s *BadgerStore) CreateBook(ctx context.Context, book *domain.Book) error {
	if err := s.books.Create(ctx, book.ID, book); err != nil {
		return err
	}
	s.indexBook(ctx, book)
	return nil
}

// GetBook retrieves a book by ID.
func (s *BadgerStore) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	return s.books.Get(ctx, id)
}

// GetBookByASIN retrieves the book linked to a Kindle ASIN.
func (s *BadgerStore) GetBookByASIN(ctx context.Context, asin string) (*domain.Book, error) {
	if asin == "" {
		return nil, ErrNotFound
	}
	return s.books.GetByIndex(ctx, "asin", asin)
}

// UpdateBook replaces a book.
func (s *BadgerStore) UpdateBook(ctx context.Context, book *domain.Book) error {
	if err := s.books.Update(ctx, book.ID, book); err != nil {
		return err
	}
	s.indexBook(ctx, book)
	return nil
}

// DeleteBook deletes a book and its reading sessions.
func (s *BadgerStore) DeleteBook(ctx context.Context, id string) error {
	sessions, err := s.ListReadingSessionsForBook(ctx, id)
	if err != nil {
		return fmt.Errorf("list sessions for book %s: %w", id, err)
	}
	for _, rs := range sessions {
		if err := s.sessions.Delete(ctx, rs.ID); err != nil {
			return fmt.Errorf("delete session %s: %w", rs.ID, err)
		}
	}

	if err := s.books.Delete(ctx, id); err != nil {
		return err
	}
	s.unindexBook(ctx, id)
	return nil
}

// ListBooks returns every book, most recently updated first.
func (s *BadgerStore) ListBooks(ctx context.Context) ([]*domain.Book, error) {
	books, err := s.books.All(ctx)
	if err != nil {
		return nil, err
	}
	sortBooksByUpdated(books)
	return books, nil
}

// ListBooksByStatus returns books with the given status, most recently updated first.
func (s *BadgerStore) ListBooksByStatus(ctx context.Context, status domain.BookStatus) ([]*domain.Book, error) {
	books, err := s.books.ListByIndexPrefix(ctx, "status", string(status)+":")
	if err != nil {
		return nil, err
	}
	sortBooksByUpdated(books)
	return books, nil
}

func sortBooksByUpdated(books []*domain.Book) {
	slices.SortStableFunc(books, func(a, b *domain.Book) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
}

func sortSessionsNewestFirst(sessions []*domain.ReadingSession) {
	slices.SortStableFunc(sessions, func(a, b *domain.ReadingSession) int {
		if c := cmp.Compare(b.Day, a.Day); c != 0 {
			return c
		}
		return b.Date.Compare(a.Date)
	})
}

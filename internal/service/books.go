package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/readtrack/readtrack-server/internal/domain"
	domainerrors "github.com/readtrack/readtrack-server/internal/errors"
	"github.com/readtrack/readtrack-server/internal/id"
	"github.com/readtrack/readtrack-server/internal/normalize"
	"github.com/readtrack/readtrack-server/internal/search"
	"github.com/readtrack/readtrack-server/internal/store"
	"github.com/readtrack/readtrack-server/internal/validation"
)

// BookSearcher finds candidate book IDs for a query.
type BookSearcher interface {
	Search(ctx context.Context, params search.SearchParams) ([]search.Hit, error)
}

// BookService manages the shelf: manual CRUD, status triggers and search.
type BookService struct {
	store     store.Store
	searcher  BookSearcher
	validator *validation.Validator
	clock     Clock
	logger    *slog.Logger
}

// NewBookService creates a new book service. A nil searcher falls back to
// scanning all books.
func NewBookService(store store.Store, searcher BookSearcher, validator *validation.Validator, clock Clock, logger *slog.Logger) *BookService {
	return &BookService{
		store:     store,
		searcher:  searcher,
		validator: validator,
		clock:     clock,
		logger:    logger,
	}
}

// CreateBookInput holds the fields for a new book.
type CreateBookInput struct {
	Title         string            `json:"title" validate:"required,max=500"`
	Author        string            `json:"author" validate:"required,max=500"`
	CoverURL      string            `json:"cover_url,omitempty" validate:"omitempty,url"`
	ISBN          string            `json:"isbn,omitempty" validate:"omitempty,max=20"`
	GoogleBooksID string            `json:"google_books_id,omitempty"`
	KindleASIN    string            `json:"kindle_asin,omitempty"`
	TotalPages    *int              `json:"total_pages,omitempty" validate:"omitempty,gt=0"`
	Status        domain.BookStatus `json:"status,omitempty" validate:"book_status"`
	Source        domain.Source     `json:"source,omitempty" validate:"book_source"`
}

// Create adds a book. Status defaults to want-to-read and source to manual;
// a book created as reading or completed gets the matching timestamp.
func (s *BookService) Create(ctx context.Context, in CreateBookInput) (*domain.Book, error) {
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	bookID, err := id.Generate(id.PrefixBook)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	book := &domain.Book{
		Record:        domain.Record{ID: bookID},
		Title:         normalize.Text(in.Title),
		Author:        normalize.Text(in.Author),
		CoverURL:      in.CoverURL,
		ISBN:          in.ISBN,
		GoogleBooksID: in.GoogleBooksID,
		KindleASIN:    in.KindleASIN,
		TotalPages:    in.TotalPages,
		Status:        domain.StatusWantToRead,
		Source:        in.Source,
	}
	if book.Source == "" {
		book.Source = domain.SourceManual
	}
	if in.Status != "" {
		book.SetStatus(in.Status, now)
	}
	book.InitTimestamps(now)

	if err := s.store.CreateBook(ctx, book); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.Conflictf("a book with kindle ASIN %s already exists", in.KindleASIN)
		}
		return nil, fmt.Errorf("create book: %w", err)
	}

	s.logger.Info("book created", "book_id", book.ID, "status", book.Status, "source", book.Source)
	return book, nil
}

// Get returns a book by ID.
func (s *BookService) Get(ctx context.Context, bookID string) (*domain.Book, error) {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, storeError(err, "book", bookID)
	}
	return book, nil
}

// GetByASIN returns the book linked to a Kindle ASIN.
func (s *BookService) GetByASIN(ctx context.Context, asin string) (*domain.Book, error) {
	book, err := s.store.GetBookByASIN(ctx, asin)
	if err != nil {
		return nil, storeError(err, "book with ASIN", asin)
	}
	return book, nil
}

// List returns all books, most recently updated first. A non-empty status filters.
func (s *BookService) List(ctx context.Context, status domain.BookStatus) ([]*domain.Book, error) {
	if status == "" {
		return s.store.ListBooks(ctx)
	}
	if !status.Valid() {
		return nil, domainerrors.Validationf("unknown status %q", status)
	}
	return s.store.ListBooksByStatus(ctx, status)
}

// CurrentlyReading returns books with status reading.
func (s *BookService) CurrentlyReading(ctx context.Context) ([]*domain.Book, error) {
	return s.store.ListBooksByStatus(ctx, domain.StatusReading)
}

// UpdateBookInput holds the fields that may change. Nil fields are left alone.
type UpdateBookInput struct {
	Title       *string            `json:"title,omitempty" validate:"omitempty,min=1,max=500"`
	Author      *string            `json:"author,omitempty" validate:"omitempty,min=1,max=500"`
	CoverURL    *string            `json:"cover_url,omitempty" validate:"omitempty,url"`
	ISBN        *string            `json:"isbn,omitempty" validate:"omitempty,max=20"`
	TotalPages  *int               `json:"total_pages,omitempty" validate:"omitempty,gt=0"`
	CurrentPage *int               `json:"current_page,omitempty" validate:"omitempty,gte=0"`
	Status      *domain.BookStatus `json:"status,omitempty" validate:"omitempty,book_status"`
}

// Update applies in to a book, firing status triggers on a status change.
func (s *BookService) Update(ctx context.Context, bookID string, in UpdateBookInput) (*domain.Book, error) {
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	book, err := s.Get(ctx, bookID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if in.Title != nil {
		book.Title = normalize.Text(*in.Title)
	}
	if in.Author != nil {
		book.Author = normalize.Text(*in.Author)
	}
	if in.CoverURL != nil {
		book.CoverURL = *in.CoverURL
	}
	if in.ISBN != nil {
		book.ISBN = *in.ISBN
	}
	if in.TotalPages != nil {
		book.TotalPages = in.TotalPages
	}
	if in.CurrentPage != nil {
		book.CurrentPage = in.CurrentPage
	}
	if in.Status != nil {
		book.SetStatus(*in.Status, now)
	}
	book.Touch(now)

	if err := s.store.UpdateBook(ctx, book); err != nil {
		return nil, storeError(err, "book", bookID)
	}
	return book, nil
}

// Delete removes a book and its reading sessions.
func (s *BookService) Delete(ctx context.Context, bookID string) error {
	if _, err := s.Get(ctx, bookID); err != nil {
		return err
	}
	if err := s.store.DeleteBook(ctx, bookID); err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	s.logger.Info("book deleted", "book_id", bookID)
	return nil
}

// Search returns books whose title or author contains query, ignoring case
// and accents. An empty query lists books, filtered by status if set.
func (s *BookService) Search(ctx context.Context, query string, status domain.BookStatus) ([]*domain.Book, error) {
	if normalize.Text(query) == "" {
		return s.List(ctx, status)
	}

	if s.searcher == nil {
		return s.scan(ctx, query, status)
	}

	hits, err := s.searcher.Search(ctx, search.SearchParams{Query: query, Status: status})
	if err != nil {
		s.logger.Warn("search index query failed, scanning books", "error", err)
		return s.scan(ctx, query, status)
	}

	books := make([]*domain.Book, 0, len(hits))
	for _, hit := range hits {
		book, err := s.store.GetBook(ctx, hit.ID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		// The index can lag a write; confirm against the record.
		if matches(book, query, status) {
			books = append(books, book)
		}
	}
	return books, nil
}

func (s *BookService) scan(ctx context.Context, query string, status domain.BookStatus) ([]*domain.Book, error) {
	all, err := s.List(ctx, status)
	if err != nil {
		return nil, err
	}
	var books []*domain.Book
	for _, b := range all {
		if matches(b, query, status) {
			books = append(books, b)
		}
	}
	return books, nil
}

func matches(b *domain.Book, query string, status domain.BookStatus) bool {
	if status != "" && b.Status != status {
		return false
	}
	return normalize.ContainsFold(b.Title, query) || normalize.ContainsFold(b.Author, query)
}

// Stats tallies books by status.
func (s *BookService) Stats(ctx context.Context) (domain.BookCounts, error) {
	books, err := s.store.ListBooks(ctx)
	if err != nil {
		return domain.BookCounts{}, err
	}
	return domain.CountBooks(books), nil
}

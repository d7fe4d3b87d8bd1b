package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/readtrack/readtrack-server/internal/domain"
	"github.com/readtrack/readtrack-server/internal/store"
)

// bookColumns must match the scan order in scanBook.
const bookColumns = `id, title, author, cover_url, isbn, google_books_id, kindle_asin,
	total_pages, current_page, percent_complete, status, source,
	started_at, completed_at, last_read_at, created_at, updated_at`

func scanBook(sc scanner) (*domain.Book, error) {
	var (
		b                                    domain.Book
		coverURL, isbn, googleID, asin       sql.NullString
		totalPages, currentPage, percent     sql.NullInt64
		startedAt, completedAt, lastReadAt   sql.NullString
		createdAt, updatedAt, status, source string
	)

	err := sc.Scan(
		&b.ID, &b.Title, &b.Author, &coverURL, &isbn, &googleID, &asin,
		&totalPages, &currentPage, &percent, &status, &source,
		&startedAt, &completedAt, &lastReadAt, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.CoverURL = coverURL.String
	b.ISBN = isbn.String
	b.GoogleBooksID = googleID.String
	b.KindleASIN = asin.String
	b.TotalPages = intFromNull(totalPages)
	b.CurrentPage = intFromNull(currentPage)
	b.PercentComplete = intFromNull(percent)
	b.Status = domain.BookStatus(status)
	b.Source = domain.Source(source)

	if b.StartedAt, err = parseNullableTime(startedAt); err != nil {
		return nil, err
	}
	if b.CompletedAt, err = parseNullableTime(completedAt); err != nil {
		return nil, err
	}
	if b.LastReadAt, err = parseNullableTime(lastReadAt); err != nil {
		return nil, err
	}
	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if b.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateBook inserts a book. A duplicate ID or Kindle ASIN returns store.ErrAlreadyExists.
func (s *Store) CreateBook(ctx context.Context, book *domain.Book) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO books (`+bookColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		book.ID, book.Title, book.Author,
		nullString(book.CoverURL), nullString(book.ISBN), nullString(book.GoogleBooksID), nullString(book.KindleASIN),
		nullInt(book.TotalPages), nullInt(book.CurrentPage), nullInt(book.PercentComplete),
		string(book.Status), string(book.Source),
		nullTimeString(book.StartedAt), nullTimeString(book.CompletedAt), nullTimeString(book.LastReadAt),
		formatTime(book.CreatedAt), formatTime(book.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	if err != nil {
		return err
	}
	s.indexBook(ctx, book)
	return nil
}

// GetBook retrieves a book by ID.
func (s *Store) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	return s.getBookWhere(ctx, "id = ?", id)
}

// GetBookByASIN retrieves the book linked to a Kindle ASIN.
func (s *Store) GetBookByASIN(ctx context.Context, asin string) (*domain.Book, error) {
	if asin == "" {
		return nil, store.ErrNotFound
	}
	return s.getBookWhere(ctx, "kindle_asin = ?", asin)
}

func (s *Store) getBookWhere(ctx context.Context, where string, arg any) (*domain.Book, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books WHERE `+where, arg)
	b, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return b, err
}

// UpdateBook replaces a book row.
func (s *Store) UpdateBook(ctx context.Context, book *domain.Book) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE books SET
			title = ?, author = ?, cover_url = ?, isbn = ?, google_books_id = ?, kindle_asin = ?,
			total_pages = ?, current_page = ?, percent_complete = ?, status = ?, source = ?,
			started_at = ?, completed_at = ?, last_read_at = ?, created_at = ?, updated_at = ?
		WHERE id = ?`,
		book.Title, book.Author,
		nullString(book.CoverURL), nullString(book.ISBN), nullString(book.GoogleBooksID), nullString(book.KindleASIN),
		nullInt(book.TotalPages), nullInt(book.CurrentPage), nullInt(book.PercentComplete),
		string(book.Status), string(book.Source),
		nullTimeString(book.StartedAt), nullTimeString(book.CompletedAt), nullTimeString(book.LastReadAt),
		formatTime(book.CreatedAt), formatTime(book.UpdatedAt),
		book.ID,
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	if err != nil {
		return err
	}
	if err := expectOneRow(result); err != nil {
		return err
	}
	s.indexBook(ctx, book)
	return nil
}

// DeleteBook deletes a book; its sessions go with it through the foreign key.
func (s *Store) DeleteBook(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id); err != nil {
		return err
	}
	s.unindexBook(ctx, id)
	return nil
}

// ListBooks returns every book, most recently updated first.
func (s *Store) ListBooks(ctx context.Context) ([]*domain.Book, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+bookColumns+` FROM books ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanBook)
}

// ListBooksByStatus returns books with the given status, most recently updated first.
func (s *Store) ListBooksByStatus(ctx context.Context, status domain.BookStatus) ([]*domain.Book, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE status = ? ORDER BY updated_at DESC`, string(status))
	if err != nil {
		return nil, err
	}
	return collect(rows, scanBook)
}

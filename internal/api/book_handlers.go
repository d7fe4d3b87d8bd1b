package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/readtrack/readtrack-server/internal/domain"
	"github.com/readtrack/readtrack-server/internal/service"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books",
		Summary:     "List books",
		Description: "Lists books, optionally filtered by status or a title/author search",
		Tags:        []string{"Books"},
	}, s.handleListBooks)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createBook",
		Method:        http.MethodPost,
		Path:          "/api/v1/books",
		Summary:       "Create book",
		Description:   "Adds a book to the shelf",
		Tags:          []string{"Books"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBookCounts",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/stats",
		Summary:     "Book counts",
		Description: "Returns the number of books per status",
		Tags:        []string{"Books"},
	}, s.handleGetBookCounts)

	huma.Register(s.api, huma.Operation{
		OperationID: "listCurrentlyReading",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/reading",
		Summary:     "Currently reading",
		Description: "Lists books with status reading",
		Tags:        []string{"Books"},
	}, s.handleListCurrentlyReading)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}",
		Summary:     "Get book",
		Description: "Returns a book by ID",
		Tags:        []string{"Books"},
	}, s.handleGetBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateBook",
		Method:      http.MethodPatch,
		Path:        "/api/v1/books/{id}",
		Summary:     "Update book",
		Description: "Updates a book; status changes stamp started/completed times",
		Tags:        []string{"Books"},
	}, s.handleUpdateBook)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteBook",
		Method:        http.MethodDelete,
		Path:          "/api/v1/books/{id}",
		Summary:       "Delete book",
		Description:   "Deletes a book and its reading sessions",
		Tags:          []string{"Books"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "listBookSessions",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}/sessions",
		Summary:     "List book sessions",
		Description: "Lists a book's reading sessions, newest first",
		Tags:        []string{"Books"},
	}, s.handleListBookSessions)
}

// === DTOs ===

// ListBooksInput contains parameters for listing books.
type ListBooksInput struct {
	Status domain.BookStatus `query:"status" enum:"want-to-read,reading,paused,completed" doc:"Filter by status"`
	Query  string            `query:"q" maxLength:"200" doc:"Case- and accent-insensitive title/author substring"`
}

// BooksResponse contains a list of books.
type BooksResponse struct {
	Books []*domain.Book `json:"books" doc:"Books"`
}

// BooksOutput wraps a list of books for Huma.
type BooksOutput struct {
	Body BooksResponse
}

// CreateBookInput wraps the create book request for Huma.
type CreateBookInput struct {
	Body service.CreateBookInput
}

// BookOutput wraps a book for Huma.
type BookOutput struct {
	Body *domain.Book
}

// BookIDInput identifies a book.
type BookIDInput struct {
	ID string `path:"id" doc:"Book ID"`
}

// UpdateBookInput wraps the update book request for Huma.
type UpdateBookInput struct {
	ID   string `path:"id" doc:"Book ID"`
	Body service.UpdateBookInput
}

// BookCountsOutput wraps book counts for Huma.
type BookCountsOutput struct {
	Body domain.BookCounts
}

// === Handlers ===

func (s *Server) handleListBooks(ctx context.Context, input *ListBooksInput) (*BooksOutput, error) {
	books, err := s.services.Book.Search(ctx, input.Query, input.Status)
	if err != nil {
		return nil, err
	}
	return &BooksOutput{Body: BooksResponse{Books: nonNil(books)}}, nil
}

func (s *Server) handleCreateBook(ctx context.Context, input *CreateBookInput) (*BookOutput, error) {
	book, err := s.services.Book.Create(ctx, input.Body)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: book}, nil
}

func (s *Server) handleGetBookCounts(ctx context.Context, _ *struct{}) (*BookCountsOutput, error) {
	counts, err := s.services.Book.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &BookCountsOutput{Body: counts}, nil
}

func (s *Server) handleListCurrentlyReading(ctx context.Context, _ *struct{}) (*BooksOutput, error) {
	books, err := s.services.Book.CurrentlyReading(ctx)
	if err != nil {
		return nil, err
	}
	return &BooksOutput{Body: BooksResponse{Books: nonNil(books)}}, nil
}

func (s *Server) handleGetBook(ctx context.Context, input *BookIDInput) (*BookOutput, error) {
	book, err := s.services.Book.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: book}, nil
}

func (s *Server) handleUpdateBook(ctx context.Context, input *UpdateBookInput) (*BookOutput, error) {
	book, err := s.services.Book.Update(ctx, input.ID, input.Body)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: book}, nil
}

func (s *Server) handleDeleteBook(ctx context.Context, input *BookIDInput) (*struct{}, error) {
	if err := s.services.Book.Delete(ctx, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleListBookSessions(ctx context.Context, input *BookIDInput) (*SessionsOutput, error) {
	if _, err := s.services.Book.Get(ctx, input.ID); err != nil {
		return nil, err
	}
	sessions, err := s.services.ReadingSession.ListForBook(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &SessionsOutput{Body: SessionsResponse{Sessions: nonNil(sessions)}}, nil
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

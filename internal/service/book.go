package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/listenupapp/pagebound-server/internal/domain"
	domainerrors "github.com/listenupapp/pagebound-server/internal/errors"
	"github.com/listenupapp/pagebound-server/internal/id"
	"github.com/listenupapp/pagebound-server/internal/normalize"
	"github.com/listenupapp/pagebound-server/internal/store"
)

// NewBookInput describes a catalog entry. Genres are free-form tags; the
// store keeps their canonical slugs.
type NewBookInput struct {
	Title     string
	Author    string
	ISBN      string
	Genres    []string
	PageCount int
}

// BookService manages the local book catalog. Fetching metadata from
// outside sources is out of scope; books are entered as given.
type BookService struct {
	store  store.Store
	clock  Clock
	logger *slog.Logger
}

// NewBookService creates a new book service.
func NewBookService(store store.Store, clock Clock, logger *slog.Logger) *BookService {
	return &BookService{store: store, clock: clock, logger: logger}
}

// CreateBook adds a book to the catalog.
func (s *BookService) CreateBook(ctx context.Context, in NewBookInput) (*domain.Book, error) {
	title := normalize.Text(in.Title)
	if title == "" {
		return nil, domainerrors.Validation("title cannot be empty")
	}
	isbn, err := normalize.ISBN(in.ISBN)
	if err != nil {
		return nil, domainerrors.Validation("isbn is not a valid ISBN-10 or ISBN-13")
	}
	if in.PageCount < 0 {
		return nil, domainerrors.Validation("page_count must not be negative")
	}

	bookID, err := id.Generate(id.PrefixBook)
	if err != nil {
		return nil, fmt.Errorf("generate book ID: %w", err)
	}
	now := s.clock.Now()
	book := &domain.Book{
		ID:        bookID,
		Title:     title,
		Author:    normalize.Text(in.Author),
		ISBN:      isbn,
		Genres:    in.Genres,
		PageCount: in.PageCount,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateBook(ctx, book); err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}

	s.logger.Info("book created", "book_id", book.ID, "title", book.Title)
	return s.GetBook(ctx, book.ID)
}

// GetBook returns a catalog entry with its derived rating.
func (s *BookService) GetBook(ctx context.Context, bookID string) (*domain.Book, error) {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, mapStoreError(err, "book not found")
	}
	return book, nil
}

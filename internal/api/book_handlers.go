package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/pagebound-server/internal/domain"
	"github.com/listenupapp/pagebound-server/internal/service"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createBook",
		Method:        http.MethodPost,
		Path:          "/api/v1/books",
		Summary:       "Create book",
		Description:   "Adds a book to the catalog",
		Tags:          []string{"Books"},
		DefaultStatus: http.StatusCreated,
		Security:      bearer,
	}, s.handleCreateBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}",
		Summary:     "Get book",
		Tags:        []string{"Books"},
		Security:    bearer,
	}, s.handleGetBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBookRating",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}/rating",
		Summary:     "Get book rating",
		Description: "Average and count over public finished records",
		Tags:        []string{"Books"},
		Security:    bearer,
	}, s.handleGetBookRating)
}

// CreateBookRequest is the body of POST /books.
type CreateBookRequest struct {
	Title     string   `json:"title" validate:"required,max=500" doc:"Title"`
	Author    string   `json:"author" validate:"required,max=300" doc:"Author"`
	ISBN      string   `json:"isbn,omitempty" validate:"omitempty,max=20" doc:"ISBN"`
	Genres    []string `json:"genres,omitempty" validate:"omitempty,max=20,dive,min=1,max=80" doc:"Genre names"`
	PageCount int      `json:"page_count,omitempty" validate:"gte=0" doc:"Page count"`
}

// CreateBookInput wraps the create book request for Huma.
type CreateBookInput struct {
	Body CreateBookRequest
}

// BookIDInput identifies a book.
type BookIDInput struct {
	ID string `path:"id" doc:"Book ID"`
}

// BookOutput wraps a book for Huma.
type BookOutput struct {
	Body *domain.Book
}

// RatingResponse is a book's rating aggregate.
type RatingResponse struct {
	BookID        string   `json:"book_id"`
	AverageRating *float64 `json:"average_rating" doc:"Null when nobody has rated the book"`
	TotalRatings  int      `json:"total_ratings"`
}

// RatingOutput wraps RatingResponse for Huma.
type RatingOutput struct {
	Body RatingResponse
}

func (s *Server) handleCreateBook(ctx context.Context, input *CreateBookInput) (*BookOutput, error) {
	if _, err := requireReader(ctx); err != nil {
		return nil, err
	}
	if err := s.validate(ctx, input.Body); err != nil {
		return nil, err
	}

	book, err := s.services.Books.CreateBook(ctx, service.NewBookInput{
		Title:     input.Body.Title,
		Author:    input.Body.Author,
		ISBN:      input.Body.ISBN,
		Genres:    input.Body.Genres,
		PageCount: input.Body.PageCount,
	})
	if err != nil {
		return nil, s.toAPIError(ctx, err)
	}
	return &BookOutput{Body: book}, nil
}

func (s *Server) handleGetBook(ctx context.Context, input *BookIDInput) (*BookOutput, error) {
	if _, err := requireReader(ctx); err != nil {
		return nil, err
	}
	book, err := s.services.Books.GetBook(ctx, input.ID)
	if err != nil {
		return nil, s.toAPIError(ctx, err)
	}
	return &BookOutput{Body: book}, nil
}

func (s *Server) handleGetBookRating(ctx context.Context, input *BookIDInput) (*RatingOutput, error) {
	if _, err := requireReader(ctx); err != nil {
		return nil, err
	}
	book, err := s.services.Ratings.Summary(ctx, input.ID)
	if err != nil {
		return nil, s.toAPIError(ctx, err)
	}
	return &RatingOutput{Body: RatingResponse{
		BookID:        book.ID,
		AverageRating: book.AverageRating,
		TotalRatings:  book.TotalRatings,
	}}, nil
}

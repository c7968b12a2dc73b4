package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/pagebound-server/internal/domain"
)

func (s *Server) registerRecordRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "addRecord",
		Method:        http.MethodPost,
		Path:          "/api/v1/records",
		Summary:       "Add a book to my list",
		Description:   "Creates a reading record. Defaults to WANT_TO_READ.",
		Tags:          []string{"Records"},
		DefaultStatus: http.StatusCreated,
		Security:      bearer,
	}, s.handleAddRecord)

	huma.Register(s.api, huma.Operation{
		OperationID: "listRecords",
		Method:      http.MethodGet,
		Path:        "/api/v1/records",
		Summary:     "List my records",
		Tags:        []string{"Records"},
		Security:    bearer,
	}, s.handleListRecords)

	huma.Register(s.api, huma.Operation{
		OperationID: "getRecord",
		Method:      http.MethodGet,
		Path:        "/api/v1/records/{id}",
		Summary:     "Get a record",
		Tags:        []string{"Records"},
		Security:    bearer,
	}, s.handleGetRecord)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateRecord",
		Method:      http.MethodPatch,
		Path:        "/api/v1/records/{id}",
		Summary:     "Update a record",
		Description: "Applies a partial update. Status changes, ratings and reviews trigger badge, streak and goal updates.",
		Tags:        []string{"Records"},
		Security:    bearer,
	}, s.handleUpdateRecord)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteRecord",
		Method:        http.MethodDelete,
		Path:          "/api/v1/records/{id}",
		Summary:       "Delete a record",
		Tags:          []string{"Records"},
		DefaultStatus: http.StatusNoContent,
		Security:      bearer,
	}, s.handleDeleteRecord)
}

// === DTOs ===

// RecordFields are the mutable fields of a record. Absent fields are left
// unchanged.
type RecordFields struct {
	Status      *string  `json:"status,omitempty" validate:"omitempty,reading_status" doc:"WANT_TO_READ, CURRENTLY_READING, FINISHED or DID_NOT_FINISH"`
	Rating      *float64 `json:"rating,omitempty" doc:"1 to 10"`
	ClearRating bool     `json:"clear_rating,omitempty" doc:"Remove the rating; cannot be combined with rating"`
	ReviewText  *string  `json:"review_text,omitempty" validate:"omitempty,max=20000" doc:"Review text; HTML is converted to Markdown"`
	Notes       *string  `json:"notes,omitempty" validate:"omitempty,max=20000" doc:"Private notes"`
	StartDate   *Date    `json:"start_date,omitempty" doc:"Day reading started"`
	FinishDate  *Date    `json:"finish_date,omitempty" doc:"Day reading finished"`
	IsFavorite  *bool    `json:"is_favorite,omitempty"`
	IsPrivate   *bool    `json:"is_private,omitempty" doc:"Private records are excluded from ratings"`
	CurrentPage *int     `json:"current_page,omitempty" validate:"omitempty,gte=0"`
}

func (f RecordFields) toUpdate() domain.RecordUpdate {
	u := domain.RecordUpdate{
		Rating:      f.Rating,
		ClearRating: f.ClearRating,
		ReviewText:  f.ReviewText,
		Notes:       f.Notes,
		StartDate:   f.StartDate.ptr(),
		FinishDate:  f.FinishDate.ptr(),
		IsFavorite:  f.IsFavorite,
		IsPrivate:   f.IsPrivate,
		CurrentPage: f.CurrentPage,
	}
	if f.Status != nil {
		st := domain.ReadingStatus(*f.Status)
		u.Status = &st
	}
	return u
}

// AddRecordRequest is the body of POST /records.
type AddRecordRequest struct {
	BookID string `json:"book_id" validate:"required" doc:"Book to add"`
	RecordFields
}

// AddRecordInput wraps the add record request for Huma.
type AddRecordInput struct {
	Body AddRecordRequest
}

// UpdateRecordInput wraps the update record request for Huma.
type UpdateRecordInput struct {
	ID   string `path:"id" doc:"Record ID"`
	Body RecordFields
}

// RecordIDInput identifies a record.
type RecordIDInput struct {
	ID string `path:"id" doc:"Record ID"`
}

// ListRecordsInput filters the record list.
type ListRecordsInput struct {
	Status string `query:"status" doc:"Only records with this status"`
}

// RecordResponse is a record plus any badges the change awarded.
type RecordResponse struct {
	Record    *domain.ReadingRecord  `json:"record"`
	NewBadges []*domain.AwardedBadge `json:"new_badges" doc:"Badges awarded by this change"`
}

// RecordResultOutput wraps RecordResponse for Huma.
type RecordResultOutput struct {
	Body RecordResponse
}

// RecordOutput wraps a single record for Huma.
type RecordOutput struct {
	Body *domain.ReadingRecord
}

// ListRecordsResponse contains a list of records.
type ListRecordsResponse struct {
	Records []*domain.ReadingRecord `json:"records"`
}

// ListRecordsOutput wraps ListRecordsResponse for Huma.
type ListRecordsOutput struct {
	Body ListRecordsResponse
}

// === Handlers ===

func (s *Server) handleAddRecord(ctx context.Context, input *AddRecordInput) (*RecordResultOutput, error) {
	readerID, err := requireReader(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, input.Body); err != nil {
		return nil, err
	}

	res, err := s.services.Reading.AddRecord(ctx, readerID, input.Body.BookID, input.Body.toUpdate())
	if err != nil {
		return nil, s.toAPIError(ctx, err)
	}
	return &RecordResultOutput{Body: RecordResponse{Record: res.Record, NewBadges: res.NewBadges}}, nil
}

func (s *Server) handleListRecords(ctx context.Context, input *ListRecordsInput) (*ListRecordsOutput, error) {
	readerID, err := requireReader(ctx)
	if err != nil {
		return nil, err
	}

	records, err := s.services.Reading.ListRecords(ctx, readerID, domain.ReadingStatus(input.Status))
	if err != nil {
		return nil, s.toAPIError(ctx, err)
	}
	if records == nil {
		records = []*domain.ReadingRecord{}
	}
	return &ListRecordsOutput{Body: ListRecordsResponse{Records: records}}, nil
}

func (s *Server) handleGetRecord(ctx context.Context, input *RecordIDInput) (*RecordOutput, error) {
	readerID, err := requireReader(ctx)
	if err != nil {
		return nil, err
	}

	rec, err := s.services.Reading.GetRecord(ctx, readerID, input.ID)
	if err != nil {
		return nil, s.toAPIError(ctx, err)
	}
	return &RecordOutput{Body: rec}, nil
}

func (s *Server) handleUpdateRecord(ctx context.Context, input *UpdateRecordInput) (*RecordResultOutput, error) {
	readerID, err := requireReader(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, input.Body); err != nil {
		return nil, err
	}

	res, err := s.services.Reading.UpdateRecord(ctx, readerID, input.ID, input.Body.toUpdate())
	if err != nil {
		return nil, s.toAPIError(ctx, err)
	}
	return &RecordResultOutput{Body: RecordResponse{Record: res.Record, NewBadges: res.NewBadges}}, nil
}

func (s *Server) handleDeleteRecord(ctx context.Context, input *RecordIDInput) (*struct{}, error) {
	readerID, err := requireReader(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.services.Reading.DeleteRecord(ctx, readerID, input.ID); err != nil {
		return nil, s.toAPIError(ctx, err)
	}
	return nil, nil
}

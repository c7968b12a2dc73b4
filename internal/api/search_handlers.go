package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/pagebound-server/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchJournal",
		Method:      http.MethodGet,
		Path:        "/api/v1/journal/search",
		Summary:     "Search my journal",
		Description: "Full-text search over the reader's own titles, authors, reviews and notes",
		Tags:        []string{"Search"},
		Security:    bearer,
	}, s.handleSearchJournal)
}

// SearchJournalInput contains search parameters.
type SearchJournalInput struct {
	Q      string `query:"q" maxLength:"200" doc:"Search text; empty lists everything"`
	Status string `query:"status" doc:"Only records with this status"`
	Genre  string `query:"genre" doc:"Only books with this genre slug"`
	Sort   string `query:"sort" enum:"relevance,recent" default:"relevance" doc:"Result order"`
	Limit  int    `query:"limit" minimum:"0" maximum:"100" doc:"Page size (default 20)"`
	Offset int    `query:"offset" minimum:"0" doc:"Page offset"`
}

// SearchJournalOutput wraps search results for Huma.
type SearchJournalOutput struct {
	Body *search.SearchResult
}

func (s *Server) handleSearchJournal(ctx context.Context, input *SearchJournalInput) (*SearchJournalOutput, error) {
	readerID, err := requireReader(ctx)
	if err != nil {
		return nil, err
	}
	if s.journal == nil {
		return nil, huma.Error503ServiceUnavailable("journal search is unavailable")
	}

	res, err := s.journal.Search(ctx, search.SearchParams{
		ReaderID: readerID,
		Query:    input.Q,
		Status:   input.Status,
		Genre:    input.Genre,
		SortBy:   input.Sort,
		Limit:    input.Limit,
		Offset:   input.Offset,
	})
	if err != nil {
		return nil, s.toAPIError(ctx, err)
	}
	return &SearchJournalOutput{Body: res}, nil
}

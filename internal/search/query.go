package search

import (
	"context"
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// SearchParams configures a journal search.
type SearchParams struct {
	ReaderID string
	Query    string
	Status   string // exact reading status, empty for any
	Genre    string // exact genre slug, empty for any

	Limit  int
	Offset int

	// SortBy is "relevance" (default) or "recent".
	SortBy string
}

// SearchResult is a page of journal hits.
type SearchResult struct {
	Query  string      `json:"query"`
	Total  uint64      `json:"total"`
	TookMs int64       `json:"took_ms"`
	Hits   []SearchHit `json:"hits"`
}

// SearchHit is one matching reading record.
type SearchHit struct {
	RecordID   string            `json:"record_id"`
	BookID     string            `json:"book_id"`
	Status     string            `json:"status"`
	Title      string            `json:"title"`
	Author     string            `json:"author"`
	Score      float64           `json:"score"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Search runs a query over one reader's journal. Documents of other readers
// are never returned regardless of the query text.
func (j *JournalIndex) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	if params.ReaderID == "" {
		return nil, fmt.Errorf("search: reader id required")
	}
	switch {
	case params.Limit <= 0:
		params.Limit = defaultLimit
	case params.Limit > maxLimit:
		params.Limit = maxLimit
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	j.mu.RLock()
	defer j.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(buildSearchQuery(params), params.Limit, params.Offset, false)
	if params.SortBy == "recent" {
		req.SortBy([]string{"-updated_at"})
	} else {
		req.SortBy([]string{"-_score", "-updated_at"})
	}
	if params.Query != "" {
		req.Highlight = bleve.NewHighlight()
		req.Highlight.AddField("title")
		req.Highlight.AddField("author")
		req.Highlight.AddField("review")
		req.Highlight.AddField("notes")
	}
	req.Fields = []string{"book_id", "status", "title", "author"}

	res, err := j.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &SearchResult{
		Query:  params.Query,
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
		Hits:   make([]SearchHit, 0, len(res.Hits)),
	}
	for _, hit := range res.Hits {
		h := SearchHit{RecordID: hit.ID, Score: hit.Score}
		h.BookID, _ = hit.Fields["book_id"].(string)
		h.Status, _ = hit.Fields["status"].(string)
		h.Title, _ = hit.Fields["title"].(string)
		h.Author, _ = hit.Fields["author"].(string)
		if len(hit.Fragments) > 0 {
			h.Highlights = make(map[string]string, len(hit.Fragments))
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					h.Highlights[field] = fragments[0]
				}
			}
		}
		result.Hits = append(result.Hits, h)
	}
	return result, nil
}

func buildSearchQuery(params SearchParams) query.Query {
	reader := bleve.NewTermQuery(params.ReaderID)
	reader.SetField("reader_id")
	queries := []query.Query{reader}

	if params.Query != "" {
		field := func(name string, boost float64) query.Query {
			q := bleve.NewMatchQuery(params.Query)
			q.SetField(name)
			q.SetBoost(boost)
			return q
		}
		fuzzy := bleve.NewFuzzyQuery(params.Query)
		fuzzy.SetField("title")
		fuzzy.SetFuzziness(1)
		fuzzy.SetBoost(0.8)

		queries = append(queries, bleve.NewDisjunctionQuery(
			field("title", 3),
			field("author", 2),
			field("review", 1),
			field("notes", 1),
			fuzzy,
		))
	}
	if params.Status != "" {
		q := bleve.NewTermQuery(params.Status)
		q.SetField("status")
		queries = append(queries, q)
	}
	if params.Genre != "" {
		q := bleve.NewTermQuery(params.Genre)
		q.SetField("genres")
		queries = append(queries, q)
	}

	if len(queries) == 1 {
		return reader
	}
	return bleve.NewConjunctionQuery(queries...)
}

package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/listenupapp/pagebound-server/internal/domain"
	"github.com/listenupapp/pagebound-server/internal/search"
	"github.com/listenupapp/pagebound-server/internal/store"
)

// JournalBatchIndexer accepts prepared documents in bulk. *search.JournalIndex
// implements it.
type JournalBatchIndexer interface {
	Reindex(docs []*search.JournalDocument) error
}

// JournalRebuilder repopulates the journal search index from the record set.
type JournalRebuilder struct {
	store  store.Store
	index  JournalBatchIndexer
	logger *slog.Logger
}

// NewJournalRebuilder creates a journal rebuilder.
func NewJournalRebuilder(store store.Store, index JournalBatchIndexer, logger *slog.Logger) *JournalRebuilder {
	return &JournalRebuilder{store: store, index: index, logger: logger}
}

// Rebuild indexes every record of every reader and returns how many
// documents were written. A record whose book has gone missing is indexed
// without book fields.
func (r *JournalRebuilder) Rebuild(ctx context.Context) (int, error) {
	start := time.Now()

	readerIDs, err := r.store.ListReaderIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list readers: %w", err)
	}

	books := make(map[string]*domain.Book)
	var docs []*search.JournalDocument
	for _, readerID := range readerIDs {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		records, err := r.store.ListRecords(ctx, readerID, "")
		if err != nil {
			return 0, fmt.Errorf("list records for %s: %w", readerID, err)
		}
		for _, rec := range records {
			book, ok := books[rec.BookID]
			if !ok {
				book, err = r.store.GetBook(ctx, rec.BookID)
				if err != nil {
					r.logger.Warn("journal rebuild: book lookup failed", "book_id", rec.BookID, "error", err)
					book = nil
				}
				books[rec.BookID] = book
			}
			docs = append(docs, search.NewJournalDocument(rec, book))
		}
	}

	if err := r.index.Reindex(docs); err != nil {
		return 0, fmt.Errorf("reindex journal: %w", err)
	}

	r.logger.Info("journal index rebuilt",
		"readers", len(readerIDs),
		"documents", len(docs),
		"duration", time.Since(start),
	)
	return len(docs), nil
}

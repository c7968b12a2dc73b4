// Package search indexes reading journals (titles, authors, reviews and
// private notes) in bleve. Every query is scoped to a single reader.
package search

import (
	"github.com/listenupapp/pagebound-server/internal/domain"
)

// JournalDocument is the indexed view of one reading record.
type JournalDocument struct {
	ID        string
	ReaderID  string
	BookID    string
	Status    string
	Title     string
	Author    string
	Review    string
	Notes     string
	Genres    []string
	UpdatedAt int64
}

// NewJournalDocument builds a document from a record and its book. book may
// be nil when it could not be loaded; the record is still indexed.
func NewJournalDocument(rec *domain.ReadingRecord, book *domain.Book) *JournalDocument {
	doc := &JournalDocument{
		ID:        rec.ID,
		ReaderID:  rec.ReaderID,
		BookID:    rec.BookID,
		Status:    string(rec.Status),
		UpdatedAt: rec.UpdatedAt.UnixMilli(),
	}
	if rec.ReviewText != nil {
		doc.Review = *rec.ReviewText
	}
	if rec.Notes != nil {
		doc.Notes = *rec.Notes
	}
	if book != nil {
		doc.Title = book.Title
		doc.Author = book.Author
		doc.Genres = book.Genres
	}
	return doc
}

// ToMap converts the document to the field names used by the mapping.
func (d *JournalDocument) ToMap() map[string]any {
	m := map[string]any{
		"type":       "journal",
		"reader_id":  d.ReaderID,
		"book_id":    d.BookID,
		"status":     d.Status,
		"title":      d.Title,
		"author":     d.Author,
		"updated_at": float64(d.UpdatedAt),
	}
	if d.Review != "" {
		m["review"] = d.Review
	}
	if d.Notes != "" {
		m["notes"] = d.Notes
	}
	if len(d.Genres) > 0 {
		m["genres"] = d.Genres
	}
	return m
}

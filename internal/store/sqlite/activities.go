package sqlite

import (
	"context"
	"database/sql"

	"github.com/listenupapp/pagebound-server/internal/domain"
	"github.com/listenupapp/pagebound-server/internal/store"
)

// CreateActivity inserts a feed entry.
// Returns store.ErrAlreadyExists when the id was already delivered.
func (s *Store) CreateActivity(ctx context.Context, a *domain.Activity) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activities (id, reader_id, kind, book_id, book_title, book_author, rating, review_excerpt, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.ReaderID, string(a.Kind), a.BookID, a.BookTitle, a.BookAuthor,
		nullFloat(a.Rating), nullString(a.ReviewExcerpt), formatTime(a.CreatedAt))
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

// ListActivities returns a reader's feed, newest first.
func (s *Store) ListActivities(ctx context.Context, readerID string, limit int) ([]*domain.Activity, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, reader_id, kind, book_id, book_title, book_author, rating, review_excerpt, created_at
		FROM activities WHERE reader_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, readerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*domain.Activity{}
	for rows.Next() {
		var (
			a         domain.Activity
			kind      string
			rating    sql.NullFloat64
			excerpt   sql.NullString
			createdAt string
		)
		if err := rows.Scan(&a.ID, &a.ReaderID, &kind, &a.BookID, &a.BookTitle, &a.BookAuthor, &rating, &excerpt, &createdAt); err != nil {
			return nil, err
		}
		a.Kind = domain.ActivityKind(kind)
		a.Rating = floatPtr(rating)
		a.ReviewExcerpt = excerpt.String
		if a.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}
